package ai

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter gates embedding calls against a rolling one-minute window of
// request and token budgets plus a max-in-flight cap. It is the only state
// shared across invocations, so admission decisions are serialized under a
// single mutex. A token bucket paces callers proactively before they reach
// the window check.
type RateLimiter struct {
	mu        sync.Mutex
	events    []limiterEvent
	inFlight  int
	maxReq    int
	maxTokens int
	maxActive int
	window    time.Duration
	bucket    *rate.Limiter
	now       func() time.Time
	poll      time.Duration
}

type limiterEvent struct {
	at     time.Time
	tokens int
}

// Permit must be released once the guarded call completes.
type Permit struct {
	limiter *RateLimiter
	done    bool
}

type RateLimitConfig struct {
	RequestsPerMinute int
	TokensPerMinute   int
	MaxInFlight       int
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 300
	}
	if cfg.TokensPerMinute <= 0 {
		cfg.TokensPerMinute = 500000
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 20
	}
	perSec := float64(cfg.RequestsPerMinute) / 60.0
	return &RateLimiter{
		maxReq:    cfg.RequestsPerMinute,
		maxTokens: cfg.TokensPerMinute,
		maxActive: cfg.MaxInFlight,
		window:    time.Minute,
		bucket:    rate.NewLimiter(rate.Limit(perSec), cfg.MaxInFlight),
		now:       time.Now,
		poll:      50 * time.Millisecond,
	}
}

// Acquire blocks until the estimated cost fits the rolling window and an
// in-flight slot is free, or ctx is done.
func (l *RateLimiter) Acquire(ctx context.Context, estimatedTokens int) (*Permit, error) {
	if err := l.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	for {
		if l.tryAdmit(estimatedTokens) {
			return &Permit{limiter: l}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}
}

func (l *RateLimiter) tryAdmit(estimatedTokens int) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(now)
	if l.inFlight >= l.maxActive {
		return false
	}
	if len(l.events)+1 > l.maxReq {
		return false
	}
	used := 0
	for _, ev := range l.events {
		used += ev.tokens
	}
	if used+estimatedTokens > l.maxTokens {
		return false
	}
	l.events = append(l.events, limiterEvent{at: now, tokens: estimatedTokens})
	l.inFlight++
	return true
}

func (l *RateLimiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	kept := l.events[:0]
	for _, ev := range l.events {
		if ev.at.After(cutoff) {
			kept = append(kept, ev)
		}
	}
	l.events = kept
}

// Release frees the permit's in-flight slot. Window counters stay charged
// until they age out.
func (p *Permit) Release() {
	if p == nil || p.done || p.limiter == nil {
		return
	}
	p.done = true
	p.limiter.mu.Lock()
	if p.limiter.inFlight > 0 {
		p.limiter.inFlight--
	}
	p.limiter.mu.Unlock()
}
