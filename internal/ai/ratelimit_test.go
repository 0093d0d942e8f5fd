package ai

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AdmitsWithinBudget(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 10, TokensPerMinute: 1000, MaxInFlight: 5})
	p, err := l.Acquire(context.Background(), 100)
	require.NoError(t, err)
	p.Release()
}

func TestRateLimiter_TokenBudgetBlocks(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 100, TokensPerMinute: 100, MaxInFlight: 10})
	require.True(t, l.tryAdmit(90))
	require.False(t, l.tryAdmit(20))
}

func TestRateLimiter_RequestBudgetBlocks(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 2, TokensPerMinute: 100000, MaxInFlight: 10})
	require.True(t, l.tryAdmit(1))
	require.True(t, l.tryAdmit(1))
	require.False(t, l.tryAdmit(1))
}

func TestRateLimiter_InFlightCap(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 100, TokensPerMinute: 100000, MaxInFlight: 1})
	require.True(t, l.tryAdmit(1))
	require.False(t, l.tryAdmit(1))
	(&Permit{limiter: l}).Release()
	require.True(t, l.tryAdmit(1))
}

func TestRateLimiter_WindowExpires(t *testing.T) {
	now := time.Now()
	l := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 1, TokensPerMinute: 100, MaxInFlight: 10})
	l.now = func() time.Time { return now }
	require.True(t, l.tryAdmit(100))
	(&Permit{limiter: l}).Release()
	require.False(t, l.tryAdmit(100))

	now = now.Add(61 * time.Second)
	require.True(t, l.tryAdmit(100))
}

func TestRateLimiter_ConcurrentAdmissionsNeverExceedWindow(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 50, TokensPerMinute: 100000, MaxInFlight: 50})
	var wg sync.WaitGroup
	admitted := make(chan struct{}, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.tryAdmit(10) {
				admitted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(admitted)
	count := 0
	for range admitted {
		count++
	}
	require.LessOrEqual(t, count, 50)
}

func TestRateLimiter_AcquireHonorsContext(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 1, TokensPerMinute: 10, MaxInFlight: 1})
	p, err := l.Acquire(context.Background(), 10)
	require.NoError(t, err)
	defer p.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, 10)
	require.Error(t, err)
}
