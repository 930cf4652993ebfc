package retry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jzx17/servicethread/pkg/types"
)

// ErrAttemptsExhausted is returned when every attempt found the lock busy
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// TryPoster is the non-blocking half of types.Executor
type TryPoster interface {
	TryPost(fn func()) types.PostResult
}

// PosterOption configures a Poster
type PosterOption func(*Poster)

// WithClock sets the clock used to wait between attempts
func WithClock(clock types.Clock) PosterOption {
	return func(p *Poster) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// Poster retries TryPost while the target reports lock contention
type Poster struct {
	backoff     Backoff
	maxAttempts int
	clock       types.Clock

	attempts  atomic.Int64
	exhausted atomic.Int64
}

// NewPoster creates a Poster. maxAttempts below 1 is treated as 1.
func NewPoster(backoff Backoff, maxAttempts int, opts ...PosterOption) *Poster {
	if backoff == nil {
		backoff = NewFixedBackoff(0)
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	p := &Poster{
		backoff:     backoff,
		maxAttempts: maxAttempts,
		clock:       types.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TryPost submits fn to target, retrying on types.PostLockBusy.
// Accepted and rejected results return with a nil error. If the lock stays
// busy the last result is returned with ErrAttemptsExhausted; if ctx ends
// while waiting, with ctx.Err(). In both error cases fn was not queued.
func (p *Poster) TryPost(ctx context.Context, target TryPoster, fn func()) (types.PostResult, error) {
	for attempt := 1; ; attempt++ {
		p.attempts.Add(1)
		result := target.TryPost(fn)
		if !result.Retryable() {
			return result, nil
		}
		if attempt >= p.maxAttempts {
			p.exhausted.Add(1)
			return result, fmt.Errorf("%w after %d attempts", ErrAttemptsExhausted, attempt)
		}
		if err := p.wait(ctx, p.backoff.NextDelay(attempt)); err != nil {
			return result, err
		}
	}
}

func (p *Poster) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := p.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Attempts returns the total number of TryPost calls made
func (p *Poster) Attempts() int64 {
	return p.attempts.Load()
}

// Exhausted returns how many submissions gave up on a busy lock
func (p *Poster) Exhausted() int64 {
	return p.exhausted.Load()
}
