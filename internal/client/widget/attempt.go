package widget

import (
	"context"
	"sync"
)

// Result is the outcome of one attempt. Err is nil exactly when URL is the
// new value.
type Result struct {
	URL string
	Err error
}

// Attempt is one accepted upload trigger.
type Attempt struct {
	done     chan Result
	finished chan struct{}
	res      Result
	once     sync.Once
}

func newAttempt() *Attempt {
	return &Attempt{
		done:     make(chan Result, 1),
		finished: make(chan struct{}),
	}
}

// Done delivers the result once and is then closed.
func (a *Attempt) Done() <-chan Result {
	return a.done
}

// Wait blocks until the attempt resolves or ctx ends.
func (a *Attempt) Wait(ctx context.Context) (Result, error) {
	select {
	case <-a.finished:
		return a.res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// resolve runs notify and publishes r; only the first call has any effect.
func (a *Attempt) resolve(r Result, notify func()) {
	a.once.Do(func() {
		if notify != nil {
			notify()
		}
		a.res = r
		close(a.finished)
		a.done <- r
		close(a.done)
	})
}
