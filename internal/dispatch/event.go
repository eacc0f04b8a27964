package dispatch

// UserEvent is one inbound command or button press. Zero ids mean the update
// did not carry that metadata.
type UserEvent struct {
	Intent    Intent
	SenderID  int64
	FirstName string
	ChatID    int64
	// Callback is set when the event comes from an inline button.
	Callback bool
}

// Request is what a handler receives once the gate has let the event through.
type Request struct {
	UserEvent
	// Ordinal is the interaction counter value recorded for entry-point events, or 0.
	Ordinal int64
}
