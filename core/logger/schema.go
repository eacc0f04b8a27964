package logger

import "strings"

const (
	// LevelDebug represents the debug severity level name.
	LevelDebug = "DEBUG"
	// LevelInfo represents the info severity level name.
	LevelInfo = "INFO"
	// LevelWarn represents the warning severity level name.
	LevelWarn = "WARN"
	// LevelError represents the error severity level name.
	LevelError = "ERROR"
)

var levelNames = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// strictEnums lists fields whose values must come from a closed set.
// Values outside the set are dropped from the line.
var strictEnums = map[string]map[string]string{
	"verdict": {"allow": "allow", "deny": "deny"},
	"outcome": {"ok": "ok", "fail": "fail", "denied": "denied", "cancelled": "cancelled", "canceled": "cancelled"},
	// gate membership as reported by the oracle
	"membership": {
		"member":        "member",
		"administrator": "administrator",
		"creator":       "owner",
		"owner":         "owner",
		"left":          "left",
		"kicked":        "kicked",
		"unknown":       "unknown",
	},
}

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if name, ok := levelNames[strings.ToLower(level)]; ok {
		return name
	}
	return strings.ToUpper(level)
}

// normalizeStatus lower-cases status values. Any value is accepted.
func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"intent",
	"cb_key",
	"membership",
	"verdict",
	"outcome",
	"channel",
	"duration_ms",
	"count",
	"mode",
	"listen",
	"addr",
	"http_code",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"error_kind",
	"cause",
}
