package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	metaKey ctxKey = iota
	loggerKey
)

// Meta is the per-update correlation data added to every line logged with the context.
type Meta struct {
	RID      string
	UpdateID int
	UserID   int64
	ChatID   int64
	Handler  string
	Intent   string
}

// MetaFrom returns the metadata carried by ctx.
func MetaFrom(ctx context.Context) Meta {
	if ctx == nil {
		return Meta{}
	}
	m, _ := ctx.Value(metaKey).(Meta)
	return m
}

func withMeta(ctx context.Context, set func(*Meta)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	m := MetaFrom(ctx)
	set(&m)
	return context.WithValue(ctx, metaKey, m)
}

// fill copies non-zero metadata into r without overriding explicit attributes.
func (m Meta) fill(r record) {
	if m.RID != "" {
		r.setDefault("rid", m.RID)
	}
	if m.UpdateID != 0 {
		r.setDefault("update_id", m.UpdateID)
	}
	if m.UserID != 0 {
		r.setDefault("user_id", m.UserID)
	}
	if m.ChatID != 0 {
		r.setDefault("chat_id", m.ChatID)
	}
	if m.Handler != "" {
		r.setDefault("handler", m.Handler)
	}
	if m.Intent != "" {
		r.setDefault("intent", m.Intent)
	}
}

// WithRID attaches the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withMeta(ctx, func(m *Meta) { m.RID = rid })
}

// WithUpdateMeta attaches the Telegram update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return withMeta(ctx, func(m *Meta) {
		m.UpdateID = updateID
		m.UserID = userID
		m.ChatID = chatID
	})
}

// WithHandler names the handler serving the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return withMeta(ctx, func(m *Meta) { m.Handler = handler })
}

// WithIntent records the user intent resolved for the update.
func WithIntent(ctx context.Context, intent string) context.Context {
	return withMeta(ctx, func(m *Meta) { m.Intent = intent })
}

// RIDFrom and the accessors below read single fields of MetaFrom(ctx).
func RIDFrom(ctx context.Context) string { return MetaFrom(ctx).RID }
func UpdateIDFrom(ctx context.Context) int { return MetaFrom(ctx).UpdateID }
func UserIDFrom(ctx context.Context) int64 { return MetaFrom(ctx).UserID }
func ChatIDFrom(ctx context.Context) int64 { return MetaFrom(ctx).ChatID }
func HandlerFrom(ctx context.Context) string { return MetaFrom(ctx).Handler }
func IntentFrom(ctx context.Context) string { return MetaFrom(ctx).Intent }

// WithLogger stores log in ctx so downstream layers reuse its attributes.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger stored in ctx, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return L
}
