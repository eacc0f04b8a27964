// Package metrics keeps the advisory interaction counter shown to users and admins.
// Values are informational only and never drive access decisions.
package metrics

import (
	"context"
	"sync/atomic"
)

// Counter counts distinct interactions over the lifetime of its store.
type Counter interface {
	// Inc records one interaction and returns the new total.
	Inc(ctx context.Context) (int64, error)
	// Value returns the current total.
	Value(ctx context.Context) (int64, error)
}

// Memory is a process-lifetime counter; it resets on restart.
type Memory struct {
	n atomic.Int64
}

// NewMemory returns a zeroed in-memory counter.
func NewMemory() *Memory {
	return &Memory{}
}

// Inc implements Counter.
func (m *Memory) Inc(context.Context) (int64, error) {
	return m.n.Add(1), nil
}

// Value implements Counter.
func (m *Memory) Value(context.Context) (int64, error) {
	return m.n.Load(), nil
}
