package probe

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDeadline is returned by RunWithDeadline when the wall-clock bound expires.
var ErrDeadline = errors.New("probe: deadline exceeded")

// RunWithDeadline runs fn in its own goroutine and waits at most d for it.
// On expiry fn's context is cancelled and the call is abandoned; the caller
// returns immediately whether or not fn honours cancellation.
func RunWithDeadline(ctx context.Context, d time.Duration, fn func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		detail string
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("probe panicked: %v", p)}
			}
		}()
		detail, err := fn(ctx)
		done <- outcome{detail: detail, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case o := <-done:
		return o.detail, o.err
	case <-timer.C:
		return "", ErrDeadline
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
