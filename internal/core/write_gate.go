package core

// write_gate.go serializes treatment writes.
//
// Every save rewrites the whole treatments file, so two overlapping
// load-edit-save cycles would silently lose one of the edits. The gate is a
// one-slot semaphore: a writer that cannot get the slot within maxWait fails
// with ErrWriterBusy instead of racing.
//
// WaitForDrain lets shutdown block until an in-flight write completes.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrWriterBusy is returned when the treatment writer stays occupied for
// longer than the gate's wait time. Clients should retry after a short delay.
var ErrWriterBusy = errors.New("treatment writer busy, please try again later")

// DefaultWriteWait is how long a writer waits for the gate before giving up.
const DefaultWriteWait = 10 * time.Second

// WriteGate admits one treatment writer at a time.
type WriteGate struct {
	slot    chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active bool
}

// NewWriteGate creates a gate whose writers wait at most maxWait.
func NewWriteGate(maxWait time.Duration) *WriteGate {
	if maxWait <= 0 {
		maxWait = DefaultWriteWait
	}
	return &WriteGate{
		slot:    make(chan struct{}, 1),
		maxWait: maxWait,
	}
}

// Acquire takes the write slot.
// The caller MUST call Release when the write completes (use defer).
func (g *WriteGate) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	select {
	case g.slot <- struct{}{}:
		g.mu.Lock()
		g.active = true
		g.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Distinguish caller cancellation from our own timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrWriterBusy
	}
}

// Release frees the write slot.
// Must be called exactly once for each successful Acquire.
func (g *WriteGate) Release() {
	g.mu.Lock()
	g.active = false
	g.mu.Unlock()

	<-g.slot
}

// Busy reports whether a writer currently holds the slot.
func (g *WriteGate) Busy() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}

// WaitForDrain blocks until no writer holds the slot or ctx is done.
func (g *WriteGate) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !g.Busy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
