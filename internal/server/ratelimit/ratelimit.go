// Package ratelimit throttles API clients with token buckets pooled by
// route tier. Inference-backed routes carry the tightest budgets: a single
// processing trigger can fan out into many model calls downstream.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of a rate check. The server copies it into the
// X-RateLimit response headers.
type Decision struct {
	Allowed    bool
	Tier       string
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

// bucket refills continuously at rate tokens per second up to burst.
type bucket struct {
	mu       sync.Mutex
	level    float64
	burst    float64
	rate     float64
	updated  time.Time
	lastSeen time.Time
}

func newBucket(burst int, rate float64) *bucket {
	now := time.Now()
	return &bucket{
		level:    float64(burst),
		burst:    float64(burst),
		rate:     rate,
		updated:  now,
		lastSeen: now,
	}
}

// take consumes one token when available and reports the remainder plus the
// instant the bucket is full again.
func (b *bucket) take() (allowed bool, remaining int, reset time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.level += now.Sub(b.updated).Seconds() * b.rate
	if b.level > b.burst {
		b.level = b.burst
	}
	b.updated = now
	b.lastSeen = now

	if b.level >= 1 {
		b.level--
		allowed = true
	}
	remaining = int(b.level)
	reset = now
	if b.level < b.burst {
		missing := b.burst - b.level
		reset = now.Add(time.Duration(missing / b.rate * float64(time.Second)))
	}
	return allowed, remaining, reset
}

// Limiter applies per-client token buckets. Buckets pool by tier, not by
// route: a client spending its catalog-write budget on template creation has
// less left for stage creation.
type Limiter struct {
	cfg *Config

	mu      sync.Mutex
	buckets map[string]*bucket

	sweeper *time.Ticker
	done    chan struct{}
}

// New creates a limiter from the given configuration. When sweeping is
// configured, a background goroutine drops buckets idle for over an hour;
// call Stop to end it.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = FromEnv()
	}
	l := &Limiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
	}
	if cfg.Enabled && cfg.SweepInterval > 0 {
		l.sweeper = time.NewTicker(cfg.SweepInterval)
		l.done = make(chan struct{})
		go l.sweepLoop()
	}
	return l
}

// Check decides whether a client's request may proceed.
func (l *Limiter) Check(clientID, method, path string) Decision {
	if !l.cfg.Enabled || l.cfg.Exempt[clientID] {
		return Decision{Allowed: true}
	}
	if l.cfg.Blocked[clientID] {
		return Decision{Allowed: false}
	}

	rule := l.cfg.Rules.match(method, path)
	if rule == nil {
		rule = &l.cfg.Default
	}
	if rule.PerWindow <= 0 {
		// Unthrottled tier, such as health checks.
		return Decision{Allowed: true, Tier: rule.Tier}
	}

	allowed, remaining, reset := l.bucketFor(clientID, rule).take()
	d := Decision{
		Allowed:   allowed,
		Tier:      rule.Tier,
		Limit:     rule.PerWindow,
		Remaining: remaining,
		Reset:     reset,
	}
	if !allowed {
		if wait := time.Until(reset); wait > 0 {
			d.RetryAfter = wait
		}
	}
	return d
}

func (l *Limiter) bucketFor(clientID string, rule *Rule) *bucket {
	key := clientID + "|" + rule.Tier

	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		burst := rule.Burst
		if burst <= 0 {
			burst = rule.PerWindow
		}
		b = newBucket(burst, float64(rule.PerWindow)/rule.Window.Seconds())
		l.buckets[key] = b
	}
	return b
}

func (l *Limiter) sweepLoop() {
	for {
		select {
		case <-l.sweeper.C:
			l.dropIdle(time.Hour)
		case <-l.done:
			return
		}
	}
}

// dropIdle removes buckets with no activity since the idle cutoff. An idle
// bucket is full again anyway, so dropping it loses nothing.
func (l *Limiter) dropIdle(idle time.Duration) {
	cutoff := time.Now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		b.mu.Lock()
		stale := b.lastSeen.Before(cutoff)
		b.mu.Unlock()
		if stale {
			delete(l.buckets, key)
		}
	}
}

// Stop ends the background sweeper. Safe to call when sweeping never started.
func (l *Limiter) Stop() {
	if l.sweeper != nil {
		l.sweeper.Stop()
	}
	if l.done != nil {
		close(l.done)
	}
}
