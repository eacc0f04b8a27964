// Package dispatch routes user intents through the subscription gate to their handlers.
package dispatch

import (
	"strings"

	"github.com/m3rciful/gatekeeper/internal/gate"
	"github.com/m3rciful/gatekeeper/internal/render"
)

// Intent is the normalised meaning of an inbound command or button press.
type Intent int

const (
	// IntentUnknown is the default for anything unrecognised.
	IntentUnknown Intent = iota
	// IntentStart is the entry point command.
	IntentStart
	// IntentCheck is the on-demand subscription check command.
	IntentCheck
	// IntentRecheck is the "check again" button on the warning.
	IntentRecheck
	IntentUserID
	IntentChatID
	IntentChannelID
	// IntentStats is the admin-only counter summary.
	IntentStats
)

var intentNames = map[Intent]string{
	IntentUnknown:   "unknown",
	IntentStart:     "start",
	IntentCheck:     "check_subscription",
	IntentRecheck:   "recheck",
	IntentUserID:    "user_id",
	IntentChatID:    "chat_id",
	IntentChannelID: "channel_id",
	IntentStats:     "stats",
}

// String returns the name used in logs.
func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return intentNames[IntentUnknown]
}

// Gated reports whether the intent needs a fresh membership check before it runs.
// Only the unknown fallback is answered without consulting the gate.
func (i Intent) Gated() bool {
	return i != IntentUnknown
}

// Command names as registered with Telegram.
const (
	CommandStart     = "/start"
	CommandCheck     = "/check_subscription"
	CommandUserID    = "/id"
	CommandChatID    = "/chat_id"
	CommandChannelID = "/channel_id"
	CommandStats     = "/stats"
)

// Command binds a slash command to its intent and menu entry.
type Command struct {
	Name        string
	Intent      Intent
	Description string
	Aliases     []string
	AdminOnly   bool
}

var commandTable = []Command{
	{Name: CommandStart, Intent: IntentStart, Description: "Botni ishga tushirish"},
	{Name: CommandCheck, Intent: IntentCheck, Description: "Obunani tekshirish"},
	{Name: CommandUserID, Intent: IntentUserID, Description: "Foydalanuvchi ID", Aliases: []string{"/user_id"}},
	{Name: CommandChatID, Intent: IntentChatID, Description: "Guruh/Kanal ID"},
	{Name: CommandChannelID, Intent: IntentChannelID, Description: "Kanal ID"},
	{Name: CommandStats, Intent: IntentStats, Description: "Statistika", AdminOnly: true},
}

// Commands lists every slash command in menu order.
func Commands() []Command {
	return commandTable
}

var callbackIntents = map[string]Intent{
	gate.RecheckAction:     IntentRecheck,
	render.ActionUserID:    IntentUserID,
	render.ActionChatID:    IntentChatID,
	render.ActionChannelID: IntentChannelID,
}

// ParseCallback maps an inline button action onto an intent.
func ParseCallback(action string) Intent {
	if intent, ok := callbackIntents[strings.TrimSpace(action)]; ok {
		return intent
	}
	return IntentUnknown
}

// CallbackActions lists every recognised inline button action.
func CallbackActions() []string {
	return []string{gate.RecheckAction, render.ActionUserID, render.ActionChatID, render.ActionChannelID}
}
