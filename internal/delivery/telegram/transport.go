// Package telegram connects the dispatcher to telebot: it turns updates into
// user events and sends the rendered payload back.
package telegram

import (
	"context"
	"log/slog"

	"github.com/m3rciful/gatekeeper/core/logger"
	coretelegram "github.com/m3rciful/gatekeeper/core/telegram"
	"github.com/m3rciful/gatekeeper/core/telegram/commands"
	tghelpers "github.com/m3rciful/gatekeeper/core/telegram/helpers"
	"github.com/m3rciful/gatekeeper/core/telegram/ui"
	"github.com/m3rciful/gatekeeper/internal/dispatch"
	"github.com/m3rciful/gatekeeper/internal/render"

	tele "gopkg.in/telebot.v4"
)

// Dispatcher answers one user event with one payload.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev dispatch.UserEvent) render.Payload
}

// Options configures a Transport.
type Options struct {
	// AdminID enables the admin-only /stats command when non-zero.
	AdminID int64
}

// Transport adapts telebot handlers to the dispatcher.
type Transport struct {
	dispatcher Dispatcher
	adminID    int64
}

var _ ui.FallbackProvider = (*Transport)(nil)

// New returns a transport bound to d.
func New(d Dispatcher, opts Options) *Transport {
	return &Transport{dispatcher: d, adminID: opts.AdminID}
}

// Register adds every command and button action to reg.
func (t *Transport) Register(reg *coretelegram.Registry) error {
	for _, spec := range dispatch.Commands() {
		if spec.AdminOnly && t.adminID == 0 {
			logger.TWire.Info("register.command.skip",
				slog.String("name", spec.Name),
				slog.String("reason", "no_admin"),
			)
			continue
		}
		err := reg.RegisterCommand(spec.Name, commands.Command{
			Handler:     t.Handler(spec.Intent),
			Description: spec.Description,
			AdminOnly:   spec.AdminOnly,
			Aliases:     spec.Aliases,
		})
		if err != nil {
			return err
		}
	}
	for _, action := range dispatch.CallbackActions() {
		if err := reg.RegisterCallback(action, t.Handler(dispatch.ParseCallback(action))); err != nil {
			return err
		}
	}
	reg.SetCallbackNotFound(t.UnknownCallback())
	reg.SetTextFallback(t.UnknownText())
	return nil
}

// Handler answers a command or button press mapped to intent.
func (t *Transport) Handler(intent dispatch.Intent) tele.HandlerFunc {
	return func(c tele.Context) error {
		return t.handle(c, intent)
	}
}

// UnknownText answers text that is not a known command.
func (t *Transport) UnknownText() tele.HandlerFunc {
	return t.Handler(dispatch.IntentUnknown)
}

// UnknownDocument answers documents, which the bot does not accept.
func (t *Transport) UnknownDocument() tele.HandlerFunc {
	return t.Handler(dispatch.IntentUnknown)
}

// UnknownCallback answers buttons with an unrecognised action.
func (t *Transport) UnknownCallback() tele.HandlerFunc {
	return t.Handler(dispatch.IntentUnknown)
}

func (t *Transport) handle(c tele.Context, intent dispatch.Intent) error {
	ctx := tghelpers.BuildContext(c)
	ev := Event(c, intent)
	p := t.dispatcher.Dispatch(ctx, ev)
	ac := &answerTracker{Context: c}
	err := Deliver(ac, p, ev.Callback)
	if err != nil && ev.Callback && !ac.answered {
		_ = c.Respond(&tele.CallbackResponse{Text: render.FailureNotice()})
	}
	return err
}

// answerTracker notes whether delivery already tried to answer the callback,
// successfully or not, so the failure notice never answers it twice.
type answerTracker struct {
	tele.Context
	answered bool
}

func (a *answerTracker) Respond(resp ...*tele.CallbackResponse) error {
	a.answered = true
	return a.Context.Respond(resp...)
}

// Event extracts the transport-neutral fields of the update in c.
func Event(c tele.Context, intent dispatch.Intent) dispatch.UserEvent {
	ev := dispatch.UserEvent{Intent: intent, Callback: c.Callback() != nil}
	if u := c.Sender(); u != nil {
		ev.SenderID = u.ID
		ev.FirstName = u.FirstName
	}
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
	}
	return ev
}
