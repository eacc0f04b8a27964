package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const repliesKey = "replies"

// Replies is a snapshot of what the handlers sent back for one update.
type Replies struct {
	Sent     int
	Edited   int
	Deleted  int
	Answered int
	Keyboard bool
}

// Messages counts the chat messages produced or changed.
func (r Replies) Messages() int {
	return r.Sent + r.Edited
}

// replyTally is updated from sender goroutines, so its fields are atomic.
type replyTally struct {
	sent, edited, deleted, answered atomic.Int32
	keyboard                        atomic.Bool
}

func (t *replyTally) snapshot() Replies {
	return Replies{
		Sent:     int(t.sent.Load()),
		Edited:   int(t.edited.Load()),
		Deleted:  int(t.deleted.Load()),
		Answered: int(t.answered.Load()),
		Keyboard: t.keyboard.Load(),
	}
}

// replyContext counts successful replies made through the wrapped context.
type replyContext struct {
	tele.Context
	tally *replyTally
}

func (c replyContext) counted(n *atomic.Int32, opts []interface{}, err error) error {
	if err == nil {
		n.Add(1)
		if hasKeyboard(opts) {
			c.tally.keyboard.Store(true)
		}
	}
	return err
}

func (c replyContext) Send(what interface{}, opts ...interface{}) error {
	return c.counted(&c.tally.sent, opts, c.Context.Send(what, opts...))
}

func (c replyContext) Reply(what interface{}, opts ...interface{}) error {
	return c.counted(&c.tally.sent, opts, c.Context.Reply(what, opts...))
}

func (c replyContext) Edit(what interface{}, opts ...interface{}) error {
	return c.counted(&c.tally.edited, opts, c.Context.Edit(what, opts...))
}

func (c replyContext) Delete() error {
	return c.counted(&c.tally.deleted, nil, c.Context.Delete())
}

func (c replyContext) Respond(resp ...*tele.CallbackResponse) error {
	return c.counted(&c.tally.answered, nil, c.Context.Respond(resp...))
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// ReplyMetricsMiddleware counts the replies handlers make for each update.
func ReplyMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		tally := &replyTally{}
		c.Set(repliesKey, tally)
		return next(replyContext{Context: c, tally: tally})
	}
}

// RepliesFrom returns the replies counted so far for the update in c.
func RepliesFrom(c tele.Context) Replies {
	if tally, ok := c.Get(repliesKey).(*replyTally); ok {
		return tally.snapshot()
	}
	return Replies{}
}
