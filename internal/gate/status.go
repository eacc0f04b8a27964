// Package gate decides whether a channel membership status grants access to bot features.
package gate

import "strings"

// Status is the membership of a user in the gate channel as reported by the oracle.
type Status int

const (
	// StatusUnknown covers oracle failures and unrecognised responses.
	StatusUnknown Status = iota
	StatusMember
	StatusAdministrator
	StatusOwner
	StatusLeft
	StatusKicked
)

var statusNames = map[Status]string{
	StatusUnknown:       "unknown",
	StatusMember:        "member",
	StatusAdministrator: "administrator",
	StatusOwner:         "owner",
	StatusLeft:          "left",
	StatusKicked:        "kicked",
}

// String returns the lower-case name used in logs.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[StatusUnknown]
}

// Subscribed reports whether the status counts as a channel subscription.
// Only explicit membership roles qualify; everything else fails closed.
func (s Status) Subscribed() bool {
	switch s {
	case StatusMember, StatusAdministrator, StatusOwner:
		return true
	default:
		return false
	}
}

// ParseStatus maps a Bot API chat member status string onto Status.
// "creator" is the Bot API name for the channel owner.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "member":
		return StatusMember
	case "administrator":
		return StatusAdministrator
	case "creator", "owner":
		return StatusOwner
	case "left":
		return StatusLeft
	case "kicked", "banned":
		return StatusKicked
	default:
		return StatusUnknown
	}
}
