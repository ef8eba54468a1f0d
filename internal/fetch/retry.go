package fetch

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy controls attempt count and exponential backoff between attempts.
type RetryPolicy struct {
	Attempts   int           `yaml:"attempts" validate:"gte=1,lte=10"`
	BaseDelay  time.Duration `yaml:"base_delay" validate:"gte=0"`
	Multiplier float64       `yaml:"multiplier" validate:"gte=1"`
	MaxDelay   time.Duration `yaml:"max_delay" validate:"gte=0"`
	// Jitter is the fraction of each delay randomized in either direction.
	Jitter float64 `yaml:"jitter" validate:"gte=0,lte=1"`

	// rand returns a value in [0, 1). Overridden in tests.
	rand func() float64
}

// DefaultRetryPolicy returns 3 attempts with 1s, 2s backoff capped at 5s and 20% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   3,
		BaseDelay:  time.Second,
		Multiplier: 2,
		MaxDelay:   5 * time.Second,
		Jitter:     0.2,
	}
}

// Delay returns the wait before the attempt following attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.BaseDelay <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		rnd := p.rand
		if rnd == nil {
			rnd = rand.Float64
		}
		d += d * p.Jitter * (2*rnd() - 1)
	}
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, the attempts run out, stop(err) reports
// true, or ctx is done. It returns the number of attempts made and the last
// error.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error, stop func(error) bool) (int, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return attempt, nil
		}
		if attempt == attempts || (stop != nil && stop(err)) {
			return attempt, err
		}
		if sleepErr := sleep(ctx, p.Delay(attempt)); sleepErr != nil {
			return attempt, err
		}
	}
	return attempts, err
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
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
