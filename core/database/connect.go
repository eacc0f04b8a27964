package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/gatekeeper/core/logger"
)

const readyPollInterval = 2 * time.Second

type pinger interface {
	PingContext(ctx context.Context) error
}

// Connect opens the connection pool and waits until Postgres answers a ping
// or cfg.ReadyTimeout passes.
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ReadyTimeout())
	defer cancel()

	start := time.Now()
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		logger.DB.Error("db open failed", append(dbAttrs(cfg, "db.open"),
			slog.String("err", err.Error()),
		)...)
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)

	attempts, err := waitReady(ctx, db, readyPollInterval)
	if err != nil {
		_ = db.Close()
		logger.DB.Error("db not ready", append(dbAttrs(cfg, "db.ping"),
			slog.Int("attempts", attempts),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)...)
		return nil, fmt.Errorf("db ping: %w", err)
	}

	logger.DB.Info("db connected", append(dbAttrs(cfg, "db.connect"),
		slog.String("status", "ok"),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Int("attempts", attempts),
		slog.Duration("duration", logger.Took(start)),
	)...)
	return db, nil
}

// waitReady pings db every interval until it answers or ctx ends.
func waitReady(ctx context.Context, db pinger, every time.Duration) (int, error) {
	for attempts := 1; ; attempts++ {
		err := db.PingContext(ctx)
		if err == nil {
			return attempts, nil
		}
		t := time.NewTimer(every)
		select {
		case <-ctx.Done():
			t.Stop()
			return attempts, fmt.Errorf("%w: last ping: %v", ctx.Err(), err)
		case <-t.C:
		}
	}
}

func dbAttrs(cfg Config, event string) []any {
	return []any{
		slog.String("event", event),
		slog.String("driver", "postgres"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}
}
