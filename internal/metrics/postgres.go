package metrics

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// counterRow is the single row created by the interaction_counter migration.
const counterRow = 1

// Postgres keeps the counter in the interaction_counter table so it survives restarts.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Inc implements Counter with a single atomic UPDATE ... RETURNING.
// Failures are returned unlogged; the caller decides how loud they are.
func (p *Postgres) Inc(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.GetContext(ctx, &n,
		`UPDATE interaction_counter SET value = value + 1, updated_at = now() WHERE id = $1 RETURNING value`,
		counterRow,
	)
	if err != nil {
		return 0, fmt.Errorf("metrics: increment counter: %w", err)
	}
	return n, nil
}

// Value implements Counter.
func (p *Postgres) Value(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.GetContext(ctx, &n, `SELECT value FROM interaction_counter WHERE id = $1`, counterRow); err != nil {
		return 0, fmt.Errorf("metrics: read counter: %w", err)
	}
	return n, nil
}
