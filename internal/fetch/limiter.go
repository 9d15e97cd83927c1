package fetch

import (
	"context"
	"sync"
)

// limiter caps in-flight fetches per fetcher instance. The channel is sized on
// first use; a non-positive max disables it.
type limiter struct {
	once sync.Once
	ch   chan struct{}
}

func (l *limiter) acquire(ctx context.Context, max int) error {
	if max <= 0 {
		return nil
	}
	l.once.Do(func() {
		l.ch = make(chan struct{}, max)
	})
	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *limiter) release() {
	if l.ch == nil {
		return
	}
	select {
	case <-l.ch:
	default:
	}
}
