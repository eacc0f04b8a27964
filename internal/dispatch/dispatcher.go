package dispatch

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/m3rciful/gatekeeper/core/logger"
	"github.com/m3rciful/gatekeeper/internal/gate"
	"github.com/m3rciful/gatekeeper/internal/metrics"
	"github.com/m3rciful/gatekeeper/internal/render"
)

// StatusChecker fetches a fresh membership status. It must fail closed.
type StatusChecker interface {
	Status(ctx context.Context, userID int64) gate.Status
}

// Evaluator decides access for a membership status.
type Evaluator interface {
	Evaluate(status gate.Status) gate.Decision
}

// Handler produces the reply for an intent that passed the gate.
type Handler func(ctx context.Context, req Request) render.Payload

// Options configures a Dispatcher.
type Options struct {
	Checker StatusChecker
	Gate    Evaluator
	// Counter defaults to an in-memory counter.
	Counter metrics.Counter
	// ChannelID is reported by the channel lookup in private chats.
	ChannelID string
	// Build is shown in the admin summary.
	Build string
}

// Dispatcher maps events to handlers behind the subscription gate.
// It keeps no per-user state: every event re-derives the membership status.
type Dispatcher struct {
	checker   StatusChecker
	gate      Evaluator
	counter   metrics.Counter
	channelID string
	build     string
	handlers  map[Intent]Handler
}

// New builds a dispatcher with a handler for every intent.
func New(opts Options) *Dispatcher {
	counter := opts.Counter
	if counter == nil {
		counter = metrics.NewMemory()
	}
	d := &Dispatcher{
		checker:   opts.Checker,
		gate:      opts.Gate,
		counter:   counter,
		channelID: opts.ChannelID,
		build:     opts.Build,
	}
	d.handlers = map[Intent]Handler{
		IntentUnknown:   d.unknown,
		IntentStart:     d.start,
		IntentCheck:     d.menu,
		IntentRecheck:   d.menu,
		IntentUserID:    d.userID,
		IntentChatID:    d.chatID,
		IntentChannelID: d.channelIDLookup,
		IntentStats:     d.stats,
	}
	return d
}

// Handle replaces the handler for intent.
func (d *Dispatcher) Handle(intent Intent, h Handler) {
	if h == nil {
		return
	}
	d.handlers[intent] = h
}

// Dispatch answers ev with exactly one payload. Gated intents are
// short-circuited to the warning when the gate denies access.
func (d *Dispatcher) Dispatch(ctx context.Context, ev UserEvent) render.Payload {
	if ctx == nil {
		ctx = context.Background()
	}
	h, ok := d.handlers[ev.Intent]
	if !ok {
		ev.Intent = IntentUnknown
		h = d.handlers[IntentUnknown]
	}
	ctx = logger.WithIntent(ctx, ev.Intent.String())

	req := Request{UserEvent: ev}
	if ev.Intent == IntentStart {
		req.Ordinal = d.count(ctx)
	}

	if !ev.Intent.Gated() {
		return h(ctx, req)
	}

	decision := d.evaluate(ctx, ev)
	if !decision.Allowed() {
		return render.Decision(decision)
	}
	return h(ctx, req)
}

func (d *Dispatcher) evaluate(ctx context.Context, ev UserEvent) gate.Decision {
	status := gate.StatusUnknown
	if d.checker != nil {
		status = d.checker.Status(ctx, ev.SenderID)
	}
	var decision gate.Decision
	if d.gate != nil {
		decision = d.gate.Evaluate(status)
	}
	logger.Info(ctx, "gate", "gate.evaluated",
		slog.String("membership", status.String()),
		slog.String("verdict", decision.Verdict.String()),
	)
	return decision
}

func (d *Dispatcher) count(ctx context.Context) int64 {
	n, err := d.counter.Inc(ctx)
	if err != nil {
		logger.Warn(ctx, "metrics", "counter.inc",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return 0
	}
	return n
}

func (d *Dispatcher) unknown(context.Context, Request) render.Payload {
	return render.Unknown()
}

func (d *Dispatcher) start(_ context.Context, req Request) render.Payload {
	return render.Welcome(req.FirstName, req.Ordinal)
}

func (d *Dispatcher) menu(context.Context, Request) render.Payload {
	return render.Menu()
}

func (d *Dispatcher) userID(_ context.Context, req Request) render.Payload {
	if req.SenderID == 0 {
		return render.Unavailable()
	}
	return render.UserID(req.SenderID)
}

func (d *Dispatcher) chatID(_ context.Context, req Request) render.Payload {
	if req.ChatID == 0 {
		return render.Unavailable()
	}
	return render.ChatID(req.ChatID)
}

// channelIDLookup reports the current chat for groups and channels
// (negative ids) and the gate channel in private chats.
func (d *Dispatcher) channelIDLookup(_ context.Context, req Request) render.Payload {
	if req.ChatID < 0 {
		return render.ChannelID(strconv.FormatInt(req.ChatID, 10))
	}
	return render.ChannelID(d.channelID)
}

func (d *Dispatcher) stats(ctx context.Context, _ Request) render.Payload {
	n, err := d.counter.Value(ctx)
	if err != nil {
		logger.Warn(ctx, "metrics", "counter.read",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return render.Unavailable()
	}
	return render.Stats(n, d.build)
}
