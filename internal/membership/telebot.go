package membership

import (
	"context"
	"strconv"
	"strings"

	"github.com/m3rciful/gatekeeper/internal/gate"

	tele "gopkg.in/telebot.v4"
)

// ChatMemberAPI is the subset of the Bot API used to look up channel members.
// *tele.Bot satisfies it.
type ChatMemberAPI interface {
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
}

// Telebot is an Oracle backed by the getChatMember Bot API method.
// The bot must be an administrator of the channel for lookups to succeed.
type Telebot struct {
	api ChatMemberAPI
}

// NewTelebot wraps api as an Oracle.
func NewTelebot(api ChatMemberAPI) *Telebot {
	return &Telebot{api: api}
}

type memberResult struct {
	member *tele.ChatMember
	err    error
}

// Member looks up userID in channel. Telebot calls are not context aware, so
// the lookup runs in its own goroutine and ctx only bounds the wait.
func (t *Telebot) Member(ctx context.Context, channel string, userID int64) (gate.Status, error) {
	if err := ctx.Err(); err != nil {
		return gate.StatusUnknown, err
	}
	done := make(chan memberResult, 1)
	go func() {
		m, err := t.api.ChatMemberOf(ChannelRecipient(channel), tele.ChatID(userID))
		done <- memberResult{member: m, err: err}
	}()

	select {
	case <-ctx.Done():
		return gate.StatusUnknown, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return gate.StatusUnknown, res.err
		}
		return StatusOf(res.member)
	}
}

// StatusOf converts a Bot API member record into a gate status.
// Restricted members count only while is_member is set.
func StatusOf(m *tele.ChatMember) (gate.Status, error) {
	if m == nil {
		return gate.StatusUnknown, ErrMalformed
	}
	if m.Role == tele.Restricted {
		if m.Member {
			return gate.StatusMember, nil
		}
		return gate.StatusLeft, nil
	}
	st := gate.ParseStatus(string(m.Role))
	if st == gate.StatusUnknown {
		return st, ErrMalformed
	}
	return st, nil
}

type channelUsername string

func (c channelUsername) Recipient() string { return string(c) }

// ChannelRecipient turns a configured channel identifier into a Bot API recipient:
// numeric ids become tele.ChatID, anything else is passed as @username.
func ChannelRecipient(channel string) tele.Recipient {
	channel = strings.TrimSpace(channel)
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		return tele.ChatID(id)
	}
	if channel != "" && !strings.HasPrefix(channel, "@") {
		channel = "@" + channel
	}
	return channelUsername(channel)
}
