// Package ui holds the contract between the routers and the handlers that
// answer updates nothing else claims.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider answers free text, documents and callback data that match
// no registered command or button.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}

// Fallbacks builds a FallbackProvider from plain handlers. A nil field leaves
// that kind of update unanswered.
type Fallbacks struct {
	Text     tele.HandlerFunc
	Document tele.HandlerFunc
	Callback tele.HandlerFunc
}

func (f Fallbacks) UnknownText() tele.HandlerFunc { return f.Text }
func (f Fallbacks) UnknownDocument() tele.HandlerFunc { return f.Document }
func (f Fallbacks) UnknownCallback() tele.HandlerFunc { return f.Callback }
