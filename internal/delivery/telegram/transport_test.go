package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	coretelegram "github.com/m3rciful/gatekeeper/core/telegram"
	"github.com/m3rciful/gatekeeper/internal/dispatch"
	"github.com/m3rciful/gatekeeper/internal/gate"
	"github.com/m3rciful/gatekeeper/internal/membership"
	"github.com/m3rciful/gatekeeper/internal/render"

	tele "gopkg.in/telebot.v4"
)

type sent struct {
	what any
	opts []any
}

// fakeContext records every outbound call made through tele.Context.
type fakeContext struct {
	tele.Context
	update tele.Update
	store  map[string]any

	sends     []sent
	edits     []string
	deletes   int
	responses []*tele.CallbackResponse

	sendErr    func(what any) error
	editErr    error
	respondErr error
	answers    int
}

func (f *fakeContext) Update() tele.Update      { return f.update }
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }

func (f *fakeContext) Message() *tele.Message {
	if f.update.Callback != nil {
		return f.update.Callback.Message
	}
	return f.update.Message
}

func (f *fakeContext) Sender() *tele.User {
	if f.update.Callback != nil {
		return f.update.Callback.Sender
	}
	if f.update.Message != nil {
		return f.update.Message.Sender
	}
	return nil
}

func (f *fakeContext) Chat() *tele.Chat {
	if m := f.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (f *fakeContext) Get(key string) any {
	return f.store[key]
}

func (f *fakeContext) Set(key string, v any) {
	f.store[key] = v
}

func (f *fakeContext) Send(what any, opts ...any) error {
	if f.sendErr != nil {
		if err := f.sendErr(what); err != nil {
			return err
		}
	}
	f.sends = append(f.sends, sent{what: what, opts: opts})
	return nil
}

func (f *fakeContext) Edit(what any, opts ...any) error {
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, what.(string))
	return nil
}

func (f *fakeContext) Delete() error {
	f.deletes++
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.answers++
	if f.respondErr != nil {
		return f.respondErr
	}
	f.responses = append(f.responses, resp...)
	return nil
}

func messageContext(text string, userID, chatID int64) *fakeContext {
	return &fakeContext{
		store: map[string]any{},
		update: tele.Update{ID: 1, Message: &tele.Message{
			Text:   text,
			Sender: &tele.User{ID: userID, FirstName: "Ali"},
			Chat:   &tele.Chat{ID: chatID},
		}},
	}
}

func callbackContext(data string, userID, chatID int64) *fakeContext {
	return &fakeContext{
		store: map[string]any{},
		update: tele.Update{ID: 2, Callback: &tele.Callback{
			ID:      "cb",
			Data:    data,
			Sender:  &tele.User{ID: userID, FirstName: "Ali"},
			Message: &tele.Message{ID: 10, Chat: &tele.Chat{ID: chatID}},
		}},
	}
}

type staticOracle struct {
	status gate.Status
	err    error
}

func (o *staticOracle) Member(context.Context, string, int64) (gate.Status, error) {
	return o.status, o.err
}

func newTransport(o *staticOracle, ch gate.Channel) *Transport {
	d := dispatch.New(dispatch.Options{
		Checker:   membership.NewChecker(o, ch.ID, time.Second),
		Gate:      gate.New(ch),
		ChannelID: ch.ID,
	})
	return New(d, Options{})
}

func sendOpts(t *testing.T, s sent) *tele.SendOptions {
	t.Helper()
	for _, o := range s.opts {
		if so, ok := o.(*tele.SendOptions); ok {
			return so
		}
	}
	t.Fatal("no send options")
	return nil
}

func TestEventFromMessage(t *testing.T) {
	c := messageContext("/start", 11, 11)
	ev := Event(c, dispatch.IntentStart)
	if ev.SenderID != 11 || ev.ChatID != 11 || ev.FirstName != "Ali" || ev.Callback {
		t.Fatalf("event = %+v", ev)
	}
	cb := Event(callbackContext("\fget_chat_id", 11, -100), dispatch.IntentChatID)
	if !cb.Callback || cb.ChatID != -100 {
		t.Fatalf("callback event = %+v", cb)
	}
}

func TestStartDeniedSendsWarning(t *testing.T) {
	tr := newTransport(&staticOracle{status: gate.StatusLeft}, gate.Channel{ID: "@gate_channel"})
	c := messageContext("/start", 11, 11)
	if err := tr.Handler(dispatch.IntentStart)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(c.sends) != 1 {
		t.Fatalf("sends = %d, want 1", len(c.sends))
	}
	text, _ := c.sends[0].what.(string)
	if !strings.Contains(text, "obuna") {
		t.Fatalf("warning text = %q", text)
	}
	opts := sendOpts(t, c.sends[0])
	if opts.ParseMode != tele.ModeMarkdown || opts.ReplyMarkup == nil {
		t.Fatalf("opts = %+v", opts)
	}
	kb := opts.ReplyMarkup.InlineKeyboard
	if len(kb) != 2 || kb[0][0].URL != "https://t.me/gate_channel" || kb[1][0].Unique != gate.RecheckAction {
		t.Fatalf("keyboard = %+v", kb)
	}
}

func TestWarningPhotoFallsBackToText(t *testing.T) {
	ch := gate.Channel{ID: "@gate_channel", ImageURL: "https://cdn.example.org/warn.png"}
	tr := newTransport(&staticOracle{status: gate.StatusLeft}, ch)
	c := messageContext("/start", 11, 11)
	c.sendErr = func(what any) error {
		if _, ok := what.(*tele.Photo); ok {
			return errors.New("telegram: Bad Request: wrong file identifier (400)")
		}
		return nil
	}
	_ = tr.Handler(dispatch.IntentStart)(c)
	if len(c.sends) != 1 {
		t.Fatalf("sends = %d, want exactly one reply", len(c.sends))
	}
	if _, ok := c.sends[0].what.(string); !ok {
		t.Fatalf("fallback should be text, got %T", c.sends[0].what)
	}
}

func TestWarningPhotoCaption(t *testing.T) {
	ch := gate.Channel{ID: "@gate_channel", ImageURL: "https://cdn.example.org/warn.png"}
	tr := newTransport(&staticOracle{status: gate.StatusLeft}, ch)
	c := messageContext("/check_subscription", 11, 11)
	_ = tr.Handler(dispatch.IntentCheck)(c)
	photo, ok := c.sends[0].what.(*tele.Photo)
	if !ok || photo.Caption == "" {
		t.Fatalf("expected captioned photo, got %#v", c.sends[0].what)
	}
}

func TestRecheckDeniedAnswersAlert(t *testing.T) {
	tr := newTransport(&staticOracle{status: gate.StatusLeft}, gate.Channel{ID: "@gate_channel"})
	c := callbackContext("\fcheck_subscription", 11, 11)
	_ = tr.Handler(dispatch.IntentRecheck)(c)
	if len(c.sends) != 0 || len(c.edits) != 0 {
		t.Fatalf("denied re-check must not post messages: sends=%d edits=%d", len(c.sends), len(c.edits))
	}
	if len(c.responses) != 1 || !c.responses[0].ShowAlert || c.responses[0].Text == "" {
		t.Fatalf("responses = %+v", c.responses)
	}
}

func TestRecheckAllowedEditsMessage(t *testing.T) {
	tr := newTransport(&staticOracle{status: gate.StatusMember}, gate.Channel{ID: "@gate_channel"})
	c := callbackContext("\fcheck_subscription", 11, 11)
	_ = tr.Handler(dispatch.IntentRecheck)(c)
	if len(c.edits) != 1 || len(c.sends) != 0 {
		t.Fatalf("edits=%d sends=%d", len(c.edits), len(c.sends))
	}
}

func TestRecheckAllowedReplacesPhoto(t *testing.T) {
	tr := newTransport(&staticOracle{status: gate.StatusMember}, gate.Channel{ID: "@gate_channel"})
	c := callbackContext("\fcheck_subscription", 11, 11)
	c.editErr = errors.New("telegram: Bad Request: there is no text in the message to edit (400)")
	_ = tr.Handler(dispatch.IntentRecheck)(c)
	if c.deletes != 1 || len(c.sends) != 1 {
		t.Fatalf("deletes=%d sends=%d", c.deletes, len(c.sends))
	}
}

func TestLookupButtonSendsMessage(t *testing.T) {
	tr := newTransport(&staticOracle{status: gate.StatusOwner}, gate.Channel{ID: "@gate_channel"})
	c := callbackContext("\fget_user_id", 987, 987)
	_ = tr.Handler(dispatch.IntentUserID)(c)
	if len(c.sends) != 1 || c.sends[0].what != "Foydalanuvchi ID: `987`" {
		t.Fatalf("sends = %+v", c.sends)
	}
}

func TestOracleFailureDeniesButton(t *testing.T) {
	tr := newTransport(&staticOracle{status: gate.StatusMember, err: context.DeadlineExceeded}, gate.Channel{ID: "@gate_channel"})
	c := callbackContext("\fget_chat_id", 5, -100)
	_ = tr.Handler(dispatch.IntentChatID)(c)
	if len(c.sends) != 0 || len(c.responses) != 1 || !c.responses[0].ShowAlert {
		t.Fatalf("sends=%d responses=%+v", len(c.sends), c.responses)
	}
}

func TestUnknownCallbackToast(t *testing.T) {
	tr := newTransport(&staticOracle{status: gate.StatusMember}, gate.Channel{ID: "@gate_channel"})
	c := callbackContext("\fget_secret", 5, 5)
	_ = tr.UnknownCallback()(c)
	if len(c.responses) != 1 || c.responses[0].ShowAlert {
		t.Fatalf("responses = %+v", c.responses)
	}
}

func TestFailedDeliveryAnswersCallback(t *testing.T) {
	tr := newTransport(&staticOracle{status: gate.StatusMember}, gate.Channel{ID: "@gate_channel"})
	c := callbackContext("\fget_user_id", 5, 5)
	c.sendErr = func(any) error { return errors.New("telegram: Forbidden (403)") }
	if err := tr.Handler(dispatch.IntentUserID)(c); err == nil {
		t.Fatal("send error should be returned")
	}
	if len(c.responses) != 1 || c.responses[0].Text != render.FailureNotice() {
		t.Fatalf("responses = %+v", c.responses)
	}
}

func TestFailedAlertIsNotAnsweredTwice(t *testing.T) {
	tr := newTransport(&staticOracle{status: gate.StatusLeft}, gate.Channel{ID: "@gate_channel"})
	c := callbackContext("\fcheck_subscription", 11, 11)
	c.respondErr = errors.New("telegram: Bad Request: query is too old (400)")
	if err := tr.Handler(dispatch.IntentRecheck)(c); err == nil {
		t.Fatal("respond error should be returned")
	}
	if c.answers != 1 {
		t.Fatalf("callback answered %d times, want 1", c.answers)
	}
}

func TestRegisterWiresCommandsAndCallbacks(t *testing.T) {
	tr := newTransport(&staticOracle{status: gate.StatusMember}, gate.Channel{ID: "@gate_channel"})
	reg := coretelegram.NewRegistry()
	if err := tr.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, ok := reg.Commands()[dispatch.CommandStats]; ok {
		t.Fatal("/stats registered without an admin")
	}
	for _, name := range []string{"/start", "/check_subscription", "/id", "/user_id", "/chat_id", "/channel_id"} {
		if _, _, ok := reg.LookupCommand(name); !ok {
			t.Fatalf("command %s missing", name)
		}
	}
	for _, action := range dispatch.CallbackActions() {
		if _, ok := reg.GetCallback(action); !ok {
			t.Fatalf("callback %s missing", action)
		}
	}
	if reg.CallbackNotFound() == nil || reg.TextFallback() == nil {
		t.Fatal("fallbacks not registered")
	}

	admin := New(nil, Options{AdminID: 1})
	reg = coretelegram.NewRegistry()
	_ = admin.Register(reg)
	if cmd, ok := reg.Commands()[dispatch.CommandStats]; !ok || !cmd.AdminOnly {
		t.Fatal("/stats should be admin-only when an admin is configured")
	}
}
