package consumer

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy wraps a sink write with retries.
type RetryPolicy interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type nopRetry struct{}

func (nopRetry) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// SimpleRetry retries an operation using exponential backoff.
//
// It retries on any error returned by fn. With both delays unset it retries
// immediately; otherwise unset values default to 50ms and 2s.
type SimpleRetry struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    bool
}

func (r SimpleRetry) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	delay, max := r.BaseDelay, r.MaxDelay
	if delay > 0 || max > 0 {
		if delay <= 0 {
			delay = 50 * time.Millisecond
		}
		if max <= 0 {
			max = 2 * time.Second
		}
		if max < delay {
			max = delay
		}
	}

	var last error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if last = fn(ctx); last == nil {
			return nil
		}

		if i == attempts-1 || delay <= 0 {
			continue
		}

		d := delay
		if r.Jitter {
			d = time.Duration(float64(d) * (0.8 + rand.Float64()*0.4))
		}
		if d > max {
			d = max
		}
		if err := sleepCtx(ctx, d); err != nil {
			return err
		}

		delay *= 2
		if delay > max {
			delay = max
		}
	}
	return last
}

// sleepCtx pauses for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
