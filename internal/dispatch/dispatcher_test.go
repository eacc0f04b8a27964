package dispatch

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/gatekeeper/internal/gate"
	"github.com/m3rciful/gatekeeper/internal/membership"
	"github.com/m3rciful/gatekeeper/internal/metrics"
	"github.com/m3rciful/gatekeeper/internal/render"
)

// fakeOracle answers with a mutable status or error and counts queries.
type fakeOracle struct {
	status gate.Status
	err    error
	calls  int
}

func (f *fakeOracle) Member(ctx context.Context, channel string, userID int64) (gate.Status, error) {
	f.calls++
	return f.status, f.err
}

func newTestDispatcher(o *fakeOracle) *Dispatcher {
	return New(Options{
		Checker:   membership.NewChecker(o, "@gate_channel", time.Second),
		Gate:      gate.New(gate.Channel{ID: "@gate_channel"}),
		Counter:   metrics.NewMemory(),
		ChannelID: "@gate_channel",
		Build:     "test",
	})
}

func startEvent() UserEvent {
	return UserEvent{Intent: IntentStart, SenderID: 1001, FirstName: "Ali", ChatID: 1001}
}

func recheckEvent() UserEvent {
	return UserEvent{Intent: IntentRecheck, SenderID: 1001, ChatID: 1001, Callback: true}
}

func TestMemberStartHasNoSubscribeButton(t *testing.T) {
	d := newTestDispatcher(&fakeOracle{status: gate.StatusMember})
	p := d.Dispatch(context.Background(), startEvent())
	if p.Kind != render.KindMenu {
		t.Fatalf("kind = %v, want menu", p.Kind)
	}
	if p.HasURL() || p.HasAction(gate.RecheckAction) {
		t.Fatalf("member must not see subscribe prompt: %+v", p.Rows)
	}
	if !strings.Contains(p.Text, "Ali") {
		t.Fatalf("welcome should greet the user: %q", p.Text)
	}
}

func TestLeftStartShowsWarning(t *testing.T) {
	d := newTestDispatcher(&fakeOracle{status: gate.StatusLeft})
	p := d.Dispatch(context.Background(), startEvent())
	if p.Kind != render.KindDeny {
		t.Fatalf("kind = %v, want deny", p.Kind)
	}
	if !p.HasURL() || !p.HasAction(gate.RecheckAction) {
		t.Fatalf("warning needs subscribe and re-check buttons: %+v", p.Rows)
	}
	if p.Text == "" {
		t.Fatal("warning text missing")
	}
}

func TestRecheckWhileLeftRepeatsWarning(t *testing.T) {
	d := newTestDispatcher(&fakeOracle{status: gate.StatusLeft})
	first := d.Dispatch(context.Background(), startEvent())
	again := d.Dispatch(context.Background(), recheckEvent())
	if !reflect.DeepEqual(first, again) {
		t.Fatalf("re-check payload differs:\n%+v\n%+v", first, again)
	}
}

func TestRecheckAfterJoiningAllows(t *testing.T) {
	o := &fakeOracle{status: gate.StatusLeft}
	d := newTestDispatcher(o)
	if p := d.Dispatch(context.Background(), recheckEvent()); p.Kind != render.KindDeny {
		t.Fatalf("expected deny before joining, got %v", p.Kind)
	}
	o.status = gate.StatusMember
	p := d.Dispatch(context.Background(), recheckEvent())
	if p.Kind != render.KindMenu || p.HasURL() {
		t.Fatalf("expected menu after joining, got %+v", p)
	}
	if o.calls != 2 {
		t.Fatalf("each re-check must query the oracle, calls = %d", o.calls)
	}
}

func TestOracleTimeoutEqualsWarning(t *testing.T) {
	left := newTestDispatcher(&fakeOracle{status: gate.StatusLeft}).Dispatch(context.Background(), startEvent())
	failing := newTestDispatcher(&fakeOracle{status: gate.StatusMember, err: context.DeadlineExceeded})
	got := failing.Dispatch(context.Background(), startEvent())
	if !reflect.DeepEqual(got, left) {
		t.Fatalf("oracle failure payload differs from warning:\n%+v\n%+v", got, left)
	}
}

func TestOracleErrorNeverAllows(t *testing.T) {
	for _, st := range []gate.Status{gate.StatusMember, gate.StatusAdministrator, gate.StatusOwner} {
		d := newTestDispatcher(&fakeOracle{status: st, err: errors.New("network down")})
		for _, intent := range []Intent{IntentStart, IntentCheck, IntentRecheck, IntentUserID, IntentChatID, IntentChannelID, IntentStats} {
			p := d.Dispatch(context.Background(), UserEvent{Intent: intent, SenderID: 1, ChatID: 1})
			if p.Kind != render.KindDeny {
				t.Fatalf("%s with oracle error: kind = %v, want deny", intent, p.Kind)
			}
		}
	}
}

func TestUserIDLookupReturnsSender(t *testing.T) {
	d := newTestDispatcher(&fakeOracle{status: gate.StatusMember})
	p := d.Dispatch(context.Background(), UserEvent{Intent: IntentUserID, SenderID: 987654321, ChatID: 987654321, Callback: true})
	if p.Text != "Foydalanuvchi ID: `987654321`" {
		t.Fatalf("text = %q", p.Text)
	}
}

func TestDeniedIntentSkipsHandler(t *testing.T) {
	for _, intent := range []Intent{IntentStart, IntentCheck, IntentUserID, IntentChatID, IntentChannelID, IntentStats} {
		d := newTestDispatcher(&fakeOracle{status: gate.StatusKicked})
		calls := 0
		d.Handle(intent, func(context.Context, Request) render.Payload {
			calls++
			return render.Payload{Text: "spy"}
		})
		p := d.Dispatch(context.Background(), UserEvent{Intent: intent, SenderID: 5, ChatID: 5})
		if calls != 0 {
			t.Fatalf("%s: handler ran %d times despite deny", intent, calls)
		}
		if p.Kind != render.KindDeny {
			t.Fatalf("%s: kind = %v, want deny", intent, p.Kind)
		}
	}
}

func TestAllowedIntentRunsHandlerOnce(t *testing.T) {
	d := newTestDispatcher(&fakeOracle{status: gate.StatusOwner})
	calls := 0
	d.Handle(IntentChatID, func(_ context.Context, req Request) render.Payload {
		calls++
		return render.ChatID(req.ChatID)
	})
	d.Dispatch(context.Background(), UserEvent{Intent: IntentChatID, SenderID: 5, ChatID: -100})
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
}

func TestUnknownIntentIsNotGated(t *testing.T) {
	o := &fakeOracle{status: gate.StatusLeft}
	d := newTestDispatcher(o)
	for _, intent := range []Intent{IntentUnknown, Intent(99)} {
		p := d.Dispatch(context.Background(), UserEvent{Intent: intent, SenderID: 5})
		if p.Kind != render.KindUnknown {
			t.Fatalf("intent %d: kind = %v, want unknown", intent, p.Kind)
		}
	}
	if o.calls != 0 {
		t.Fatalf("unknown intent queried the oracle %d times", o.calls)
	}
}

func TestMissingMetadataIsUnavailable(t *testing.T) {
	d := newTestDispatcher(&fakeOracle{status: gate.StatusMember})
	p := d.userID(context.Background(), Request{})
	if p.Text == "" || strings.Contains(p.Text, "`0`") {
		t.Fatalf("missing sender should render unavailable, got %q", p.Text)
	}
	if p := d.Dispatch(context.Background(), UserEvent{Intent: IntentChatID, SenderID: 5}); strings.Contains(p.Text, "`0`") {
		t.Fatalf("missing chat should render unavailable, got %q", p.Text)
	}
}

func TestChannelLookup(t *testing.T) {
	d := newTestDispatcher(&fakeOracle{status: gate.StatusMember})
	if p := d.Dispatch(context.Background(), UserEvent{Intent: IntentChannelID, SenderID: 5, ChatID: -1001234}); p.Text != "Kanal ID: `-1001234`" {
		t.Fatalf("group chat lookup = %q", p.Text)
	}
	if p := d.Dispatch(context.Background(), UserEvent{Intent: IntentChannelID, SenderID: 5, ChatID: 5}); p.Text != "Kanal ID: `@gate_channel`" {
		t.Fatalf("private chat lookup = %q", p.Text)
	}
}

func TestStartCountsInteractions(t *testing.T) {
	counter := metrics.NewMemory()
	d := New(Options{
		Checker: membership.NewChecker(&fakeOracle{status: gate.StatusLeft}, "@c", time.Second),
		Gate:    gate.New(gate.Channel{ID: "@c"}),
		Counter: counter,
	})
	d.Dispatch(context.Background(), startEvent())
	d.Dispatch(context.Background(), startEvent())
	d.Dispatch(context.Background(), recheckEvent())
	if n, _ := counter.Value(context.Background()); n != 2 {
		t.Fatalf("counter = %d, want 2 (entry points only)", n)
	}
}

func TestNilCollaboratorsFailClosed(t *testing.T) {
	d := New(Options{})
	if p := d.Dispatch(context.Background(), startEvent()); p.Kind != render.KindDeny {
		t.Fatalf("dispatcher without oracle must deny, got %v", p.Kind)
	}
}

func TestCommandsCoverEveryIntent(t *testing.T) {
	seen := map[string]bool{}
	byIntent := map[Intent]Command{}
	for _, cmd := range Commands() {
		for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
			if seen[name] {
				t.Fatalf("command name %q listed twice", name)
			}
			seen[name] = true
		}
		byIntent[cmd.Intent] = cmd
	}
	for _, intent := range []Intent{IntentStart, IntentCheck, IntentUserID, IntentChatID, IntentChannelID, IntentStats} {
		if _, ok := byIntent[intent]; !ok {
			t.Fatalf("intent %s has no command", intent)
		}
	}
	if !byIntent[IntentStats].AdminOnly || byIntent[IntentStart].AdminOnly {
		t.Fatal("only /stats is admin-only")
	}
	if aliases := byIntent[IntentUserID].Aliases; len(aliases) != 1 || aliases[0] != "/user_id" {
		t.Fatalf("user id aliases = %v", aliases)
	}
}

func TestParseCallback(t *testing.T) {
	for _, action := range CallbackActions() {
		if ParseCallback(action) == IntentUnknown {
			t.Fatalf("action %q is not mapped", action)
		}
	}
	if got := ParseCallback("get_secret"); got != IntentUnknown {
		t.Fatalf("unexpected intent %s", got)
	}
}
