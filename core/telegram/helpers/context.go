package helpers

import (
	"context"

	"github.com/m3rciful/gatekeeper/core/logger"

	tele "gopkg.in/telebot.v4"
)

const ctxStoreKey = "gatekeeper.ctx"

// IDs identify the update being handled. Missing parts are zero.
type IDs struct {
	Update int
	User   int64
	Chat   int64
}

// RID returns the correlation id for the update.
func (i IDs) RID() string {
	return logger.BuildRID(i.Update, i.Chat, i.User)
}

// UpdateIDs reads the update, sender and chat ids from c.
func UpdateIDs(c tele.Context) IDs {
	ids := IDs{Update: c.Update().ID}
	if u := c.Sender(); u != nil {
		ids.User = u.ID
	}
	if chat := c.Chat(); chat != nil {
		ids.Chat = chat.ID
	}
	return ids
}

// StoreContext attaches ctx to c for downstream handlers and senders.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(ctxStoreKey, ctx)
}

// ContextFrom returns the context stored on c, if any.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxStoreKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the logging context of the update in c, creating
// and storing it on first use.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := ContextFrom(c); ok {
		return ctx
	}
	ids := UpdateIDs(c)
	ctx := logger.WithRID(context.Background(), ids.RID())
	ctx = logger.WithUpdateMeta(ctx, ids.Update, ids.User, ids.Chat)
	ctx = logger.WithLogger(ctx, logger.TG)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler adds the handler name to the stored context.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}
