// Package membership answers whether a user belongs to the gate channel.
package membership

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/m3rciful/gatekeeper/core/logger"
	"github.com/m3rciful/gatekeeper/core/telegram/netutil"
	"github.com/m3rciful/gatekeeper/internal/gate"
)

// DefaultTimeout bounds a single oracle query.
const DefaultTimeout = 5 * time.Second

// ErrMalformed is returned when the platform answers without a usable member record.
var ErrMalformed = errors.New("membership: malformed member response")

// Oracle reports the membership status of a user in a channel.
// Implementations may fail; callers map failures to gate.StatusUnknown.
type Oracle interface {
	Member(ctx context.Context, channel string, userID int64) (gate.Status, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, channel string, userID int64) (gate.Status, error)

// Member calls f.
func (f OracleFunc) Member(ctx context.Context, channel string, userID int64) (gate.Status, error) {
	return f(ctx, channel, userID)
}

// Checker is the call site of the oracle for one channel. It never returns an
// error: any failure, timeout included, resolves to gate.StatusUnknown.
type Checker struct {
	oracle  Oracle
	channel string
	timeout time.Duration
}

// NewChecker binds an oracle to the gate channel. A non-positive timeout selects DefaultTimeout.
func NewChecker(oracle Oracle, channel string, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{oracle: oracle, channel: channel, timeout: timeout}
}

// Channel returns the channel identifier checked against.
func (c *Checker) Channel() string {
	return c.channel
}

// Status queries the oracle for userID and fails closed.
func (c *Checker) Status(ctx context.Context, userID int64) gate.Status {
	if c == nil || c.oracle == nil {
		return gate.StatusUnknown
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if userID == 0 {
		logger.Warn(ctx, "membership", "oracle.skip",
			slog.String("status", "skip"),
			slog.String("cause", "missing_user"),
		)
		return gate.StatusUnknown
	}

	qctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	status, err := c.oracle.Member(qctx, c.channel, userID)
	if err != nil {
		logger.Warn(ctx, "membership", "oracle.fail",
			slog.String("status", "fail"),
			slog.String("channel", c.channel),
			slog.Int64("user_id", userID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("error_kind", netutil.Classify(err)),
			slog.Duration("duration", logger.Took(start)),
		)
		return gate.StatusUnknown
	}
	logger.Debug(ctx, "membership", "oracle.ok",
		slog.String("status", "ok"),
		slog.String("channel", c.channel),
		slog.String("membership", status.String()),
		slog.Duration("duration", logger.Took(start)),
	)
	return status
}
