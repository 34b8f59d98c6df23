// Package wait holds the bounded polling combinator used everywhere the
// harness has to let the remote repository settle: a write (share, favorite,
// delete) is acknowledged before it is visible to the list endpoints.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/contentapp/e2e/pkg/logger"
)

// Default values for the polling options.
const (
	DefaultTimeout  = 60 * time.Second
	DefaultInterval = time.Second
)

// ErrTimeout is returned (wrapped in a *TimeoutError) when the condition has
// not been met before the deadline.
var ErrTimeout = errors.New("condition not met before timeout")

var log = logger.WithNamespace("wait")

// Options configures a polling loop.
type Options struct {
	// Timeout bounds the whole loop, including the time spent in the fetch
	// calls.
	Timeout time.Duration
	// Interval is the pause between two attempts.
	Interval time.Duration
	// Description names what is waited for, in logs and errors.
	Description string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Description == "" {
		o.Description = "condition"
	}
	return o
}

// TimeoutError is the error returned when the deadline is reached. It keeps
// the last observed value and the last fetch error for the test report.
type TimeoutError struct {
	Description string
	Attempts    int
	Last        interface{}
	LastErr     error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%s: %s after %d attempts (last value: %v)",
		e.Description, ErrTimeout, e.Attempts, e.Last)
	if e.LastErr != nil {
		msg += fmt.Sprintf(", last error: %s", e.LastErr)
	}
	return msg
}

// Unwrap allows errors.Is(err, ErrTimeout).
func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// Poll calls fetch until done accepts its result, or until the timeout. A
// fetch error does not stop the loop: it is remembered and reported if the
// timeout is reached. The cancellation of ctx stops the loop immediately.
func Poll[T any](ctx context.Context, opts Options, fetch func(context.Context) (T, error), done func(T) bool) (T, error) {
	opts = opts.withDefaults()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var last T
	var lastErr error
	attempts := 0
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		attempts++
		v, err := fetch(ctx)
		if err == nil {
			last, lastErr = v, nil
			if done(v) {
				log.Debugf("%s: met after %d attempts", opts.Description, attempts)
				return v, nil
			}
		} else {
			lastErr = err
		}
		log.Debugf("%s: attempt %d, value %v, error %v", opts.Description, attempts, last, lastErr)

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return last, &TimeoutError{
					Description: opts.Description,
					Attempts:    attempts,
					Last:        last,
					LastErr:     lastErr,
				}
			}
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Until polls a boolean condition.
func Until(ctx context.Context, opts Options, cond func(context.Context) (bool, error)) error {
	_, err := Poll(ctx, opts, cond, func(ok bool) bool { return ok })
	return err
}

// ForCount polls a counter until it reports exactly expect items.
func ForCount(ctx context.Context, opts Options, expect int, count func(context.Context) (int, error)) error {
	_, err := Poll(ctx, opts, count, func(n int) bool { return n == expect })
	if err != nil {
		return fmt.Errorf("expected %d: %w", expect, err)
	}
	return nil
}
