package telegram

import (
	"log/slog"

	"github.com/m3rciful/gatekeeper/core/logger"
	tghelpers "github.com/m3rciful/gatekeeper/core/telegram/helpers"
	"github.com/m3rciful/gatekeeper/core/telegram/keyboard"
	"github.com/m3rciful/gatekeeper/internal/render"

	tele "gopkg.in/telebot.v4"
)

// Deliver sends p as the single reply to the update in c.
//
// Messages always get a new message. Button presses are answered in place:
// a denial becomes an alert, the menu replaces the pressed message, and
// unknown actions get a short toast.
func Deliver(c tele.Context, p render.Payload, callback bool) error {
	if !callback {
		return send(c, p)
	}
	switch p.Kind {
	case render.KindDeny:
		return c.Respond(&tele.CallbackResponse{Text: p.Notice, ShowAlert: true})
	case render.KindUnknown:
		return c.Respond(&tele.CallbackResponse{Text: p.Notice})
	case render.KindMenu:
		return replace(c, p)
	default:
		return send(c, p)
	}
}

func send(c tele.Context, p render.Payload) error {
	opts := sendOptions(p)
	if p.ImageURL != "" {
		return tghelpers.SendPhotoOrText(c, p.ImageURL, p.Text, opts)
	}
	return tghelpers.SendText(c, p.Text, opts)
}

// replace edits the pressed message into p. Photo messages have no text to
// edit, so those are deleted and p is sent fresh.
func replace(c tele.Context, p render.Payload) error {
	if c.Message() == nil {
		return send(c, p)
	}
	err := c.Edit(p.Text, sendOptions(p))
	if err == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "edit.fallback",
		slog.String("status", "skip"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
	if derr := c.Delete(); derr != nil {
		logger.Debug(ctx, "tg", "delete.fail",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(derr.Error(), 256)),
		)
	}
	return send(c, p)
}

func sendOptions(p render.Payload) *tele.SendOptions {
	if p.Markdown {
		return tghelpers.MarkdownOptions(markup(p.Rows))
	}
	return &tele.SendOptions{ReplyMarkup: markup(p.Rows)}
}

func markup(rows [][]render.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			r = append(r, keyboard.InlineBtn{Text: b.Label, URL: b.URL, Unique: b.Action})
		}
		out = append(out, r)
	}
	return keyboard.InlineButtonsRows(out...)
}
