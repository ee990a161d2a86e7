package orchestrator

import (
	"context"
	"sync"
)

// barrier is a write-once outcome that many goroutines can wait for.
type barrier struct {
	mu   sync.Mutex
	done chan struct{}
	set  bool
	err  error
}

func newBarrier() *barrier {
	return &barrier{done: make(chan struct{})}
}

// resolved returns a barrier that is already satisfied.
func resolved() *barrier {
	b := newBarrier()
	b.resolve(nil)
	return b
}

// resolve records the outcome. Only the first call has an effect.
func (b *barrier) resolve(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.set {
		return
	}
	b.set, b.err = true, err
	close(b.done)
}

// peek returns the outcome if it is already known.
func (b *barrier) peek() (err error, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err, b.set
}

// wait blocks until the outcome is known or ctx is done. A known outcome
// wins over a cancelled ctx.
func (b *barrier) wait(ctx context.Context) error {
	select {
	case <-b.done:
	case <-ctx.Done():
		if err, ok := b.peek(); ok {
			return err
		}
		return ctx.Err()
	}
	err, _ := b.peek()
	return err
}
