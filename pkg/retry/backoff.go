package retry

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes the wait before the next attempt
type Backoff interface {
	// NextDelay returns the delay after the given failed attempt, starting at 1
	NextDelay(attempt int) time.Duration
}

// JitterFunc perturbs a computed delay
type JitterFunc func(time.Duration) time.Duration

// BackoffOption configures a backoff
type BackoffOption func(*backoffOptions)

type backoffOptions struct {
	multiplier float64
	maxDelay   time.Duration
	jitter     JitterFunc
}

// WithMultiplier sets the growth factor of an exponential backoff
func WithMultiplier(m float64) BackoffOption {
	return func(o *backoffOptions) {
		if m >= 1 {
			o.multiplier = m
		}
	}
}

// WithMaxDelay caps the delay
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(o *backoffOptions) {
		if d > 0 {
			o.maxDelay = d
		}
	}
}

// WithJitter applies a jitter function to every delay
func WithJitter(j JitterFunc) BackoffOption {
	return func(o *backoffOptions) {
		o.jitter = j
	}
}

func applyOptions(opts []BackoffOption) backoffOptions {
	o := backoffOptions{
		multiplier: 2.0,
		maxDelay:   time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FixedBackoff waits the same delay between attempts
type FixedBackoff struct {
	delay  time.Duration
	jitter JitterFunc
}

// NewFixedBackoff creates a fixed backoff. Only WithJitter applies.
func NewFixedBackoff(delay time.Duration, opts ...BackoffOption) *FixedBackoff {
	o := applyOptions(opts)
	return &FixedBackoff{delay: delay, jitter: o.jitter}
}

// NextDelay returns the configured delay
func (b *FixedBackoff) NextDelay(int) time.Duration {
	if b.jitter != nil {
		return b.jitter(b.delay)
	}
	return b.delay
}

// ExponentialBackoff grows the delay geometrically up to a cap
type ExponentialBackoff struct {
	initialDelay time.Duration
	multiplier   float64
	maxDelay     time.Duration
	jitter       JitterFunc
}

// NewExponentialBackoff creates an exponential backoff with multiplier 2 and
// a one second cap unless overridden.
func NewExponentialBackoff(initialDelay time.Duration, opts ...BackoffOption) *ExponentialBackoff {
	o := applyOptions(opts)
	return &ExponentialBackoff{
		initialDelay: initialDelay,
		multiplier:   o.multiplier,
		maxDelay:     o.maxDelay,
		jitter:       o.jitter,
	}
}

// NextDelay returns initialDelay * multiplier^(attempt-1), capped
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	f := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt-1))
	delay := b.maxDelay
	if f < float64(b.maxDelay) {
		delay = time.Duration(f)
	}

	if b.jitter != nil {
		delay = b.jitter(delay)
	}
	return delay
}

// FullJitter picks a delay uniformly in [0, delay)
func FullJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(delay)))
}

// EqualJitter keeps half the delay and randomizes the other half
func EqualJitter(delay time.Duration) time.Duration {
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + time.Duration(rand.Int63n(int64(half)))
}
