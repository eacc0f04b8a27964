package metrics

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryCounter(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		got, err := c.Inc(ctx)
		if err != nil || got != want {
			t.Fatalf("Inc = %d, %v; want %d", got, err, want)
		}
	}
	if v, _ := c.Value(ctx); v != 3 {
		t.Fatalf("Value = %d, want 3", v)
	}
}

func TestMemoryCounterConcurrent(t *testing.T) {
	c := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Inc(context.Background())
		}()
	}
	wg.Wait()
	if v, _ := c.Value(context.Background()); v != 50 {
		t.Fatalf("Value = %d, want 50", v)
	}
}

var _ Counter = (*Memory)(nil)
var _ Counter = (*Postgres)(nil)
