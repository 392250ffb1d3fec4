package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWriteGate_AcquireRelease(t *testing.T) {
	gate := NewWriteGate(time.Second)

	if gate.Busy() {
		t.Error("new gate should not be busy")
	}

	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !gate.Busy() {
		t.Error("gate should be busy after Acquire")
	}

	gate.Release()
	if gate.Busy() {
		t.Error("gate should not be busy after Release")
	}
}

func TestWriteGate_BusyAfterMaxWait(t *testing.T) {
	gate := NewWriteGate(100 * time.Millisecond)
	ctx := context.Background()

	if err := gate.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer gate.Release()

	start := time.Now()
	err := gate.Acquire(ctx)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrWriterBusy) {
		t.Errorf("expected ErrWriterBusy, got %v", err)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("gave up after %v, want about 100ms", elapsed)
	}
	if got := MapError(err).Code; got != "WRT001" {
		t.Errorf("MapError code = %q, want WRT001", got)
	}
}

func TestWriteGate_CallerCancel(t *testing.T) {
	gate := NewWriteGate(time.Minute)
	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer gate.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := gate.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWriteGate_Serializes(t *testing.T) {
	gate := NewWriteGate(5 * time.Second)

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gate.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			gate.Release()
		}()
	}
	wg.Wait()

	if got := maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent writers = %d, want 1", got)
	}
}

func TestWriteGate_WaitForDrain(t *testing.T) {
	gate := NewWriteGate(time.Second)

	if err := gate.WaitForDrain(context.Background()); err != nil {
		t.Fatalf("WaitForDrain on idle gate: %v", err)
	}

	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	go func() {
		time.Sleep(50 * time.Millisecond)
		gate.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := gate.WaitForDrain(ctx); err != nil {
		t.Errorf("WaitForDrain() error = %v", err)
	}
	if gate.Busy() {
		t.Error("gate still busy after drain")
	}
}

func TestWriteGate_WaitForDrainTimeout(t *testing.T) {
	gate := NewWriteGate(time.Second)
	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer gate.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if err := gate.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}
