package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/gatekeeper/core/telegram"
	"github.com/m3rciful/gatekeeper/core/telegram/callbacks"
	"github.com/m3rciful/gatekeeper/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	// NotFound answers unknown keys. When nil the registry fallback is used.
	NotFound tele.HandlerFunc
}

// respondTracker records whether a handler answered the callback query itself.
type respondTracker struct {
	tele.Context
	responded bool
}

func (r *respondTracker) Respond(resp ...*tele.CallbackResponse) error {
	r.responded = true
	return r.Context.Respond(resp...)
}

// CallbackRoute returns a handler that routes callbacks through the registry.
// Every callback query is answered exactly once: by the handler, or with an
// empty acknowledgement afterwards so the client stops its spinner.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key := callbacks.CallbackKey(c)
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		rc := &respondTracker{Context: c}
		defer func() {
			if !rc.responded {
				_ = c.Respond()
			}
		}()

		var cbHandler tele.HandlerFunc
		if reg != nil {
			cbHandler, _ = reg.GetCallback(key)
		}
		if cbHandler == nil {
			fallback := opts.NotFound
			if fallback == nil && reg != nil {
				fallback = reg.CallbackNotFound()
			}
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(rc, name, start, "", "", func() error {
				if fallback != nil {
					return fallback(rc)
				}
				return nil
			}, extras...)
		}

		return handleWithSummary(rc, name, start, "", "", func() error {
			return cbHandler(rc)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
