// Package barrier provides a rendezvous primitive for releasing a group
// of goroutines in lock-step.
package barrier

import (
	"context"
	"sync/atomic"
)

// Barrier releases all parties at once, after every party has arrived.
//
// It is used to start a group of load-generating goroutines together so
// that staggered goroutine startup does not skew the measured interval
// of the first samples. A Barrier is single-use: once released it stays
// released.
type Barrier struct {
	remaining atomic.Int32
	released  chan struct{}
}

// New creates a barrier for the given number of parties.
func New(parties int) *Barrier {
	b := &Barrier{released: make(chan struct{})}
	b.remaining.Store(int32(parties))
	if parties <= 0 {
		close(b.released)
	}
	return b
}

// Await registers the caller's arrival and blocks until every party has
// arrived. It returns ctx.Err() if the context is cancelled before the
// barrier is released. Callers beyond the configured party count pass
// through immediately.
func (b *Barrier) Await(ctx context.Context) error {
	if b.remaining.Add(-1) == 0 {
		close(b.released)
	}
	select {
	case <-b.released:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Released reports whether the barrier has been released.
func (b *Barrier) Released() bool {
	select {
	case <-b.released:
		return true
	default:
		return false
	}
}
