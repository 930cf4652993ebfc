package retry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jzx17/servicethread/internal/testutils"
	"github.com/jzx17/servicethread/pkg/types"
	"github.com/jzx17/servicethread/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTarget answers TryPost from a fixed script, then enqueues
type scriptedTarget struct {
	mu     sync.Mutex
	script []types.PostResult
	calls  int
}

func (s *scriptedTarget) TryPost(func()) types.PostResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.script) == 0 {
		return types.PostEnqueued
	}
	r := s.script[0]
	s.script = s.script[1:]
	return r
}

func (s *scriptedTarget) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func busy(n int) []types.PostResult {
	out := make([]types.PostResult, n)
	for i := range out {
		out[i] = types.PostLockBusy
	}
	return out
}

func TestPoster_SucceedsAfterBusy(t *testing.T) {
	target := &scriptedTarget{script: busy(3)}
	p := NewPoster(NewFixedBackoff(0), 5)

	result, err := p.TryPost(context.Background(), target, func() {})
	require.NoError(t, err)
	assert.Equal(t, types.PostEnqueued, result)
	assert.Equal(t, 4, target.Calls())
	assert.Equal(t, int64(4), p.Attempts())
	assert.Equal(t, int64(0), p.Exhausted())
}

func TestPoster_RejectedIsFinal(t *testing.T) {
	target := &scriptedTarget{script: []types.PostResult{types.PostLockBusy, types.PostRejectedStopping}}
	p := NewPoster(NewFixedBackoff(0), 5)

	result, err := p.TryPost(context.Background(), target, func() {})
	require.NoError(t, err)
	assert.Equal(t, types.PostRejectedStopping, result)
	assert.Equal(t, 2, target.Calls())
}

func TestPoster_Exhausted(t *testing.T) {
	target := &scriptedTarget{script: busy(10)}
	p := NewPoster(NewFixedBackoff(0), 3)

	result, err := p.TryPost(context.Background(), target, func() {})
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, types.PostLockBusy, result)
	assert.Equal(t, 3, target.Calls())
	assert.Equal(t, int64(1), p.Exhausted())
}

func TestPoster_MinimumOneAttempt(t *testing.T) {
	target := &scriptedTarget{script: busy(1)}
	p := NewPoster(nil, 0)

	_, err := p.TryPost(context.Background(), target, func() {})
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, 1, target.Calls())
}

func TestPoster_WaitsOnClock(t *testing.T) {
	mClock := testutils.NewMockClock(t)
	target := &scriptedTarget{script: busy(2)}
	p := NewPoster(NewFixedBackoff(time.Second), 5, WithClock(testutils.NewClockWrapper(mClock)))

	type outcome struct {
		result types.PostResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := p.TryPost(context.Background(), target, func() {})
		done <- outcome{r, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got outcome
	require.Eventually(t, func() bool {
		select {
		case got = <-done:
			return true
		default:
			mClock.Advance(time.Second).MustWait(ctx)
			return false
		}
	}, 5*time.Second, time.Millisecond)

	require.NoError(t, got.err)
	assert.Equal(t, types.PostEnqueued, got.result)
	assert.Equal(t, 3, target.Calls())
}

func TestPoster_ContextCancelledWhileWaiting(t *testing.T) {
	target := &scriptedTarget{script: busy(10)}
	p := NewPoster(NewFixedBackoff(time.Hour), 5)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.TryPost(ctx, target, func() {})
		done <- err
	}()

	require.Eventually(t, func() bool { return target.Calls() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("TryPost did not return after cancel")
	}
}

func TestPoster_WithWorker(t *testing.T) {
	w := worker.NewWorker()
	t.Cleanup(w.Release)

	ran := make(chan struct{})
	p := NewPoster(NewExponentialBackoff(time.Millisecond, WithJitter(EqualJitter)), 100)

	result, err := p.TryPost(context.Background(), w, func() { close(ran) })
	require.NoError(t, err)
	assert.Equal(t, types.PostEnqueued, result)
	testutils.RequireClosed(t, ran, time.Second)

	w.ReleaseAfterWork()
	testutils.RequireClosed(t, w.Done(), time.Second)

	result, err = p.TryPost(context.Background(), w, func() {})
	require.NoError(t, err)
	assert.Equal(t, types.PostRejectedStopping, result)
}
