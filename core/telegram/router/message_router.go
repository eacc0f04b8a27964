package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/gatekeeper/core/telegram"
	"github.com/m3rciful/gatekeeper/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	// UnknownText answers text naming no command. When nil the registry
	// text fallback is used.
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for free text and documents. Text whose first
// word names a public command or alias (an @bot suffix is ignored) runs that
// command, so aliases work without their own endpoint. Admin-only commands
// are never reached this way.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	unknownText := opts.UnknownText
	if unknownText == nil && reg != nil {
		unknownText = reg.TextFallback()
	}

	text := func(c tele.Context) error {
		start := time.Now()
		word := firstField(c.Text())
		if reg != nil && strings.HasPrefix(word, "/") {
			key, cmd, ok := reg.LookupCommand(word)
			if ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, normalizeHandlerName(key), start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}
		if !addressed(c, word) {
			return runFallback(c, "unknown_text", start, nil)
		}
		return runFallback(c, "unknown_text", start, unknownText)
	}
	document := func(c tele.Context) error {
		if !addressed(c, "") {
			return runFallback(c, "unexpected_document", time.Now(), nil)
		}
		return runFallback(c, "unexpected_document", time.Now(), opts.UnknownDocument)
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: middleware.RecoverMiddleware(middleware.LoggerMiddleware(text))},
		{Endpoint: tele.OnDocument, Handler: middleware.RecoverMiddleware(middleware.LoggerMiddleware(document))},
	}
}

// addressed reports whether an unmatched message was meant for the bot:
// any private chat, or a slash command in a group. Group chatter is ignored.
func addressed(c tele.Context, word string) bool {
	if strings.HasPrefix(word, "/") {
		return true
	}
	chat := c.Chat()
	return chat != nil && chat.Type == tele.ChatPrivate
}

func runFallback(c tele.Context, name string, start time.Time, h tele.HandlerFunc) error {
	if h == nil {
		logHandlerSummary(c, name, start, "skip", "ok", nil)
		return nil
	}
	return handleWithSummary(c, name, start, "", "", func() error { return h(c) })
}
