package render

import (
	"fmt"
	"strings"

	"github.com/m3rciful/gatekeeper/core/telegram/format"
	"github.com/m3rciful/gatekeeper/internal/gate"
)

// Decision renders a gate outcome: the feature menu on allow, the warning on deny.
func Decision(d gate.Decision) Payload {
	if d.Allowed() {
		return Menu()
	}
	var p gate.Prompt
	if d.Prompt != nil {
		p = *d.Prompt
	}
	return Deny(p)
}

// Deny renders the subscription warning with subscribe and re-check buttons.
// Without a public link the channel id is printed instead of the subscribe button.
func Deny(p gate.Prompt) Payload {
	text := denyText
	var rows [][]Button
	if p.SubscribeURL != "" {
		rows = append(rows, []Button{{Label: labelSubscribe, URL: p.SubscribeURL}})
	} else if p.ChannelID != "" {
		text += fmt.Sprintf(denyChannelFormat, codeSafe(p.ChannelID))
	}
	recheck := p.Recheck
	if recheck == "" {
		recheck = gate.RecheckAction
	}
	rows = append(rows, []Button{{Label: labelRecheck, Action: recheck}})
	return Payload{
		Kind:     KindDeny,
		Text:     text,
		Markdown: true,
		ImageURL: p.ImageURL,
		Rows:     rows,
		Notice:   denyNotice,
	}
}

// Menu renders the confirmation with the three identifier lookups.
func Menu() Payload {
	return Payload{
		Kind: KindMenu,
		Text: subscribedText,
		Rows: menuRows(),
	}
}

// Welcome greets a subscribed user on the entry point and appends the menu.
// A non-positive ordinal omits the "you are user #N" sentence. The name stays
// outside any entity: legacy Markdown honours backslash escapes only there.
func Welcome(firstName string, ordinal int64) Payload {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = defaultFirstName
	}
	escaped, err := format.EscapeMarkdown(name, format.MarkdownV1)
	if err != nil {
		escaped = defaultFirstName
	}

	var b strings.Builder
	fmt.Fprintf(&b, welcomeFormat, escaped)
	if ordinal > 0 {
		fmt.Fprintf(&b, ordinalFormat, ordinal)
	}
	b.WriteString(welcomeTail)
	b.WriteString("\n\n")
	b.WriteString(subscribedText)

	return Payload{
		Kind:     KindMenu,
		Text:     b.String(),
		Markdown: true,
		Rows:     menuRows(),
	}
}

// UserID answers the user identifier lookup.
func UserID(id int64) Payload {
	return info(fmt.Sprintf(userIDFormat, id))
}

// ChatID answers the chat identifier lookup.
func ChatID(id int64) Payload {
	return info(fmt.Sprintf(chatIDFormat, id))
}

// ChannelID answers the channel identifier lookup.
func ChannelID(id string) Payload {
	if strings.TrimSpace(id) == "" {
		return Unavailable()
	}
	return info(fmt.Sprintf(channelIDFormat, codeSafe(id)))
}

// Stats renders the admin summary of the interaction counter.
func Stats(interactions int64, build string) Payload {
	return info(fmt.Sprintf(statsFormat, interactions, codeSafe(build)))
}

// Unavailable is shown when the update lacks the metadata a lookup needs.
func Unavailable() Payload {
	return Payload{Kind: KindInfo, Text: unavailableText, Notice: unavailableText}
}

// Unknown answers commands and callbacks the bot does not recognise.
func Unknown() Payload {
	return Payload{Kind: KindUnknown, Text: unknownText, Notice: unknownText}
}

// FailureNotice is the generic alert used when a reply could not be produced.
func FailureNotice() string {
	return failureNotice
}

func info(text string) Payload {
	return Payload{Kind: KindInfo, Text: text, Markdown: true}
}

func menuRows() [][]Button {
	return [][]Button{
		{{Label: labelUserID, Action: ActionUserID}},
		{{Label: labelChatID, Action: ActionChatID}},
		{{Label: labelChannelID, Action: ActionChannelID}},
	}
}

// codeSafe strips backticks so a value cannot close a Markdown code span.
func codeSafe(s string) string {
	return strings.ReplaceAll(s, "`", "")
}
