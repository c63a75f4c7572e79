package retry

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned when the attempt budget runs out without the
// probed condition becoming true.
var ErrExhausted = errors.New("retry attempts exhausted")

// Poll calls fn at a fixed interval until it reports done, fails, the
// attempt budget is spent, or ctx is cancelled. The first call happens
// immediately. fn returning an error aborts polling; returning done=false
// schedules the next attempt.
func Poll(ctx context.Context, interval time.Duration, attempts int, fn func(ctx context.Context) (done bool, err error)) error {
	if attempts < 1 {
		attempts = 1
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < attempts; i++ {
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return ErrExhausted
}
