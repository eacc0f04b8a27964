package sender

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcherRunsEachJobOnce(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2, QueueSize: 8})
	var runs atomic.Int32
	for i := 0; i < 5; i++ {
		if err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
			runs.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	d.Close()
	if got := runs.Load(); got != 5 {
		t.Fatalf("runs = %d, want 5", got)
	}
	if d.SentCount() != 5 || d.ErrorCount() != 0 {
		t.Fatalf("sent=%d errs=%d", d.SentCount(), d.ErrorCount())
	}
}

func TestDispatcherDoesNotRetryFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	var runs atomic.Int32
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		runs.Add(1)
		return errors.New("telegram: Bad Gateway (502)")
	})
	d.Close()
	if runs.Load() != 1 {
		t.Fatalf("failed job ran %d times", runs.Load())
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("errs = %d, want 1", d.ErrorCount())
	}
}

func TestDispatcherBoundsJobDuration(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxDuration: 20 * time.Millisecond})
	release := make(chan struct{})
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		<-release
		return nil
	})
	d.Close()
	close(release)
	if d.ErrorCount() != 1 {
		t.Fatalf("slow job should count as failed, errs = %d", d.ErrorCount())
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	err := d.Enqueue(context.Background(), "send.text", "", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
	if err := d.Enqueue(context.Background(), "x", "", nil); err == nil {
		t.Fatal("nil run must be rejected")
	}
}

func TestDispatcherRecoversPanickingJob(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	_ = d.Enqueue(context.Background(), "send.photo", "sendPhoto", func() error { panic("boom") })
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error { return nil })
	d.Close()
	if d.ErrorCount() != 1 || d.SentCount() != 1 {
		t.Fatalf("sent=%d errs=%d", d.SentCount(), d.ErrorCount())
	}
}

func TestEnqueueRacingClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2, QueueSize: 4})
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				err := d.Enqueue(context.Background(), "send.text", "", func() error { return nil })
				if err != nil && !errors.Is(err, ErrQueueClosed) && !errors.Is(err, ErrQueueFull) {
					t.Errorf("unexpected err: %v", err)
					return
				}
			}
		}()
	}
	d.Close()
	wg.Wait()
}
