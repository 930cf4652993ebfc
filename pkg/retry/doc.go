// Package retry retries non-blocking submissions that lost a lock race.
//
// Worker.TryPost never blocks. When it reports types.PostLockBusy the task
// was not queued and the caller still owns it. Poster wraps that loop: it
// re-attempts only on PostLockBusy, waits according to a Backoff between
// attempts, and gives up after a bounded number of attempts or when the
// context ends. A PostRejectedStopping result is final and returned as is.
//
// Backoffs:
//   - FixedBackoff: constant delay
//   - ExponentialBackoff: geometric growth up to a cap
//
// Jitter:
//   - FullJitter: uniform in [0, delay)
//   - EqualJitter: delay/2 plus uniform in [0, delay/2)
//
// Usage:
//
//	p := retry.NewPoster(retry.NewExponentialBackoff(time.Millisecond,
//		retry.WithJitter(retry.EqualJitter)), 5)
//
//	result, err := p.TryPost(ctx, w, func() { ... })
//	if errors.Is(err, retry.ErrAttemptsExhausted) {
//		// still busy; fall back to w.Post or drop
//	}
package retry
