package gate

import (
	"strings"
)

// Verdict is the outcome of a gate evaluation.
type Verdict int

const (
	// Deny is the zero value so an uninitialised Decision never grants access.
	Deny Verdict = iota
	Allow
)

// String returns "allow" or "deny".
func (v Verdict) String() string {
	if v == Allow {
		return "allow"
	}
	return "deny"
}

// RecheckAction is the callback key of the "check again" button.
const RecheckAction = "check_subscription"

// PlaceholderImageURL is the sample value shipped in env templates; it is treated as unset.
const PlaceholderImageURL = "https://example.com/warning.png"

// Prompt is what a denied user is shown: where to subscribe and how to ask for a re-check.
type Prompt struct {
	// SubscribeURL is empty when no public link can be derived for the channel.
	SubscribeURL string
	// ChannelID is shown in the warning when SubscribeURL is empty.
	ChannelID string
	// ImageURL optionally accompanies the warning.
	ImageURL string
	// Recheck is the action that re-enters the gate.
	Recheck string
}

// Decision is the result of Evaluate. Prompt is only set for Deny.
type Decision struct {
	Verdict Verdict
	Prompt  *Prompt
}

// Allowed reports whether the decision grants access.
func (d Decision) Allowed() bool {
	return d.Verdict == Allow
}

// Channel describes the gate channel as configured by the operator.
type Channel struct {
	ID       string
	URL      string
	ImageURL string
}

// Gate maps membership statuses to decisions for a single channel.
// It holds no mutable state; Evaluate is safe for concurrent use.
type Gate struct {
	prompt Prompt
}

// New prepares a gate for the channel, resolving its subscribe link once.
func New(ch Channel) *Gate {
	image := strings.TrimSpace(ch.ImageURL)
	if image == PlaceholderImageURL {
		image = ""
	}
	return &Gate{prompt: Prompt{
		SubscribeURL: SubscribeURL(ch.URL, ch.ID),
		ChannelID:    strings.TrimSpace(ch.ID),
		ImageURL:     image,
		Recheck:      RecheckAction,
	}}
}

// Evaluate returns Allow for subscribed statuses and Deny with the prompt otherwise.
func (g *Gate) Evaluate(status Status) Decision {
	if status.Subscribed() {
		return Decision{Verdict: Allow}
	}
	p := g.prompt
	return Decision{Verdict: Deny, Prompt: &p}
}

// SubscribeURL derives the public channel link. An explicit http(s) URL wins,
// then an @username from the URL setting, then an @username channel id.
// Numeric channel ids have no public link and yield "".
func SubscribeURL(channelURL, channelID string) string {
	u := strings.TrimSpace(channelURL)
	switch {
	case strings.HasPrefix(u, "https://"), strings.HasPrefix(u, "http://"):
		return u
	case strings.HasPrefix(u, "@") && len(u) > 1:
		return "https://t.me/" + u[1:]
	case u != "":
		return ""
	}
	id := strings.TrimSpace(channelID)
	if strings.HasPrefix(id, "@") && len(id) > 1 {
		return "https://t.me/" + id[1:]
	}
	return ""
}
