package retry

import (
	"context"
	"github.com/pkg/errors"
	"sync"
	"time"
)

var ErrTooManyAttempts = errors.New("too many retry attempts")

type Callable func(attempt int) error

type retryError struct {
	error
	attempt int
}

func (e *retryError) Unwrap() error {
	return e.error
}

// Error marks err as recoverable, the callable will be invoked again
func Error(err error, attempt int) error {
	if err == nil {
		return nil
	}
	return &retryError{error: err, attempt: attempt}
}

type Attempts interface {
	Next() (time.Duration, bool)
	Current() int
}

func Start(ctx context.Context, a Attempts, cb Callable) error {
	var last error

	for {
		err := cb(a.Current())
		if err == nil {
			return nil
		}

		// callable encountered an unrecoverable error
		var rErr *retryError
		if !errors.As(err, &rErr) {
			return errors.Wrapf(err, "attempt %d failed", a.Current())
		}

		last = rErr.error

		next, stop := a.Next()
		if stop {
			return errors.Wrapf(ErrTooManyAttempts, "last error: %v", last)
		}

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "last error: %v", last)
		case <-time.After(next):
			continue
		}
	}
}

func Incremental(ctx context.Context, step time.Duration, maxRetries int, cb Callable) error {
	return Start(ctx, IncrementalAttempts(step, maxRetries), cb)
}

// Within polls cb at a fixed interval until it succeeds or timeout elapses
func Within(ctx context.Context, timeout, interval time.Duration, cb Callable) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return Start(ctx, ConstantAttempts(interval, 0), cb)
}

type incrementalAttempts struct {
	sync.RWMutex
	prev time.Duration
	step time.Duration
	max  int
	curr int
}

func (a *incrementalAttempts) Next() (time.Duration, bool) {
	a.Lock()
	defer a.Unlock()

	a.curr++
	if a.max > 0 && a.curr > a.max {
		return 0, true
	}

	next := a.prev + a.step
	a.prev = next

	return next, false
}

func (a *incrementalAttempts) Current() int {
	a.RLock()
	defer a.RUnlock()
	return a.curr
}

func IncrementalAttempts(step time.Duration, max int) Attempts {
	return &incrementalAttempts{
		prev: 0,
		step: step,
		max:  max,
		curr: 1,
	}
}

type constantAttempts struct {
	sync.Mutex
	interval time.Duration
	max      int
	curr     int
}

func (a *constantAttempts) Next() (time.Duration, bool) {
	a.Lock()
	defer a.Unlock()

	a.curr++
	if a.max > 0 && a.curr > a.max {
		return 0, true
	}

	return a.interval, false
}

func (a *constantAttempts) Current() int {
	a.Lock()
	defer a.Unlock()
	return a.curr
}

// ConstantAttempts waits the same interval between attempts, max 0 means unbounded
func ConstantAttempts(interval time.Duration, max int) Attempts {
	return &constantAttempts{interval: interval, max: max, curr: 1}
}
