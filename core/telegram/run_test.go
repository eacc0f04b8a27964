package telegram

import (
	"context"
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestRunTelegramRequiresConfig(t *testing.T) {
	if err := RunTelegram(context.Background(), RunOptions{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestMountSkipsIncompleteEntries(t *testing.T) {
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("offline bot: %v", err)
	}
	mws := []Middleware{{Name: "empty"}, {Name: "pass", Use: func(next tele.HandlerFunc) tele.HandlerFunc { return next }}}
	routes := []Route{
		{Endpoint: "/start", Handler: noop},
		{Endpoint: tele.OnText},
		{Handler: noop},
		{Endpoint: tele.OnCallback, Handler: noop},
	}
	if n := mount(bot, mws, routes); n != 2 {
		t.Fatalf("mounted = %d, want 2", n)
	}
}

func TestServeReturnsContextError(t *testing.T) {
	bot, err := tele.NewBot(tele.Settings{Offline: true, Poller: idlePoller{}})
	if err != nil {
		t.Fatalf("offline bot: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := serve(ctx, bot); !errors.Is(err, context.Canceled) {
		t.Fatalf("serve = %v", err)
	}
}

// idlePoller delivers nothing and returns once stopped.
type idlePoller struct{}

func (idlePoller) Poll(_ *tele.Bot, _ chan tele.Update, stop chan struct{}) { <-stop }

func TestLogUpdateErrorToleratesNil(t *testing.T) {
	logUpdateError(nil, nil)
	logUpdateError(errors.New("boom"), nil)
}
