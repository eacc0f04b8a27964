// Package render builds the user-facing messages and inline buttons for every
// gate outcome and utility answer.
package render

// Kind tells the transport how a payload relates to the gate.
type Kind int

const (
	// KindInfo is an informational answer such as an identifier lookup.
	KindInfo Kind = iota
	// KindMenu is the feature menu shown once access is granted.
	KindMenu
	// KindDeny is the subscription warning.
	KindDeny
	// KindUnknown answers unrecognised input.
	KindUnknown
)

// Button is an inline action. Exactly one of URL or Action is set.
type Button struct {
	Label  string
	URL    string
	Action string
}

// Payload is transport-neutral message content.
type Payload struct {
	Kind     Kind
	Text     string
	Markdown bool
	// ImageURL, when set, sends Text as the caption of this photo.
	ImageURL string
	Rows     [][]Button
	// Notice is a short alert used when the payload answers a button press.
	Notice string
}

// Buttons returns all buttons in row order.
func (p Payload) Buttons() []Button {
	var out []Button
	for _, row := range p.Rows {
		out = append(out, row...)
	}
	return out
}

// HasAction reports whether a callback button with the given action is present.
func (p Payload) HasAction(action string) bool {
	for _, b := range p.Buttons() {
		if b.Action == action {
			return true
		}
	}
	return false
}

// HasURL reports whether any link button is present.
func (p Payload) HasURL() bool {
	for _, b := range p.Buttons() {
		if b.URL != "" {
			return true
		}
	}
	return false
}
