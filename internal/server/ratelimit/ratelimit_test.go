package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Enabled: true,
		Default: Rule{Tier: "default", PerWindow: 3, Window: time.Minute},
		Rules:   DefaultRules(),
		Exempt:  map[string]bool{},
		Blocked: map[string]bool{},
	}
}

func TestBucket_BurstThenDeny(t *testing.T) {
	b := newBucket(5, 1.0)

	for i := 0; i < 5; i++ {
		allowed, _, _ := b.take()
		assert.True(t, allowed, "request %d should fit the burst", i+1)
	}
	allowed, remaining, _ := b.take()
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
}

func TestBucket_Refills(t *testing.T) {
	b := newBucket(2, 100.0)

	b.take()
	b.take()
	allowed, _, _ := b.take()
	require.False(t, allowed)

	time.Sleep(25 * time.Millisecond)
	allowed, _, _ = b.take()
	assert.True(t, allowed, "bucket should refill at the configured rate")
}

func TestBucket_ResetInFuture(t *testing.T) {
	b := newBucket(1, 0.1)

	_, _, reset := b.take()
	assert.True(t, reset.After(time.Now()), "a drained bucket resets later")
}

func TestLimiter_DefaultRuleCoversUnmatchedRoutes(t *testing.T) {
	l := New(testConfig())
	defer l.Stop()

	for i := 0; i < 3; i++ {
		d := l.Check("10.0.0.1", "GET", "/candidates")
		require.True(t, d.Allowed)
		assert.Equal(t, "default", d.Tier)
		assert.Equal(t, 3, d.Limit)
	}

	d := l.Check("10.0.0.1", "GET", "/candidates")
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}

func TestLimiter_ClientsDoNotShareBuckets(t *testing.T) {
	l := New(testConfig())
	defer l.Stop()

	for i := 0; i < 3; i++ {
		require.True(t, l.Check("10.0.0.1", "GET", "/candidates").Allowed)
	}
	require.False(t, l.Check("10.0.0.1", "GET", "/candidates").Allowed)

	assert.True(t, l.Check("10.0.0.2", "GET", "/candidates").Allowed)
}

func TestLimiter_InferenceTierMatchesByPrefix(t *testing.T) {
	l := New(testConfig())
	defer l.Stop()

	d := l.Check("10.0.0.1", "POST", "/attachments/e3b0c442/process")
	assert.True(t, d.Allowed)
	assert.Equal(t, "inference", d.Tier)
	assert.Equal(t, 60, d.Limit)
}

func TestLimiter_TierPoolsAcrossRoutes(t *testing.T) {
	l := New(testConfig())
	defer l.Stop()

	// The inference burst is 5, shared between attachment processing and
	// job control for one client.
	for i := 0; i < 3; i++ {
		require.True(t, l.Check("10.0.0.1", "POST", "/attachments/abc/process").Allowed)
	}
	for i := 0; i < 2; i++ {
		require.True(t, l.Check("10.0.0.1", "POST", "/jobs/def/rerun").Allowed)
	}
	d := l.Check("10.0.0.1", "POST", "/jobs/def/rerun")
	assert.False(t, d.Allowed)
	assert.Equal(t, "inference", d.Tier)
}

func TestLimiter_HealthUnthrottled(t *testing.T) {
	l := New(testConfig())
	defer l.Stop()

	for i := 0; i < 50; i++ {
		d := l.Check("10.0.0.1", "GET", "/health")
		require.True(t, d.Allowed)
		assert.Equal(t, "health", d.Tier)
	}
}

func TestLimiter_ExemptClient(t *testing.T) {
	cfg := testConfig()
	cfg.Exempt["10.9.9.9"] = true
	l := New(cfg)
	defer l.Stop()

	for i := 0; i < 20; i++ {
		require.True(t, l.Check("10.9.9.9", "GET", "/candidates").Allowed)
	}
}

func TestLimiter_BlockedClient(t *testing.T) {
	cfg := testConfig()
	cfg.Blocked["10.6.6.6"] = true
	l := New(cfg)
	defer l.Stop()

	d := l.Check("10.6.6.6", "GET", "/health")
	assert.False(t, d.Allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	l := New(&Config{Enabled: false})
	defer l.Stop()

	for i := 0; i < 100; i++ {
		require.True(t, l.Check("10.0.0.1", "POST", "/attachments/abc/process").Allowed)
	}
}

func TestLimiter_ConcurrentChecks(t *testing.T) {
	cfg := testConfig()
	cfg.Default = Rule{Tier: "default", PerWindow: 50, Window: time.Hour, Burst: 50}
	l := New(cfg)
	defer l.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check("10.0.0.1", "GET", "/candidates").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed, "exactly the burst should pass under contention")
}

func TestLimiter_DropIdle(t *testing.T) {
	l := New(testConfig())
	defer l.Stop()

	for i := 0; i < 10; i++ {
		l.Check(fmt.Sprintf("10.0.0.%d", i), "GET", "/candidates")
	}
	l.mu.Lock()
	populated := len(l.buckets)
	l.mu.Unlock()
	require.Equal(t, 10, populated)

	l.dropIdle(0)
	l.mu.Lock()
	swept := len(l.buckets)
	l.mu.Unlock()
	assert.Zero(t, swept)
}

func TestRules_ExactMatchBeatsPrefix(t *testing.T) {
	rs := DefaultRules()

	exact := rs.match("POST", "/candidates")
	require.NotNil(t, exact)
	assert.Equal(t, "catalog-write", exact.Tier)

	prefixed := rs.match("POST", "/candidates/abc/attachments")
	require.NotNil(t, prefixed)
	assert.Equal(t, "intake", prefixed.Tier)
}

func TestRules_NoMatchForUnknownRoute(t *testing.T) {
	assert.Nil(t, DefaultRules().match("DELETE", "/templates/abc"))
}

func TestFromEnv_Disabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	cfg := FromEnv()
	assert.False(t, cfg.Enabled)
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_DEFAULT_PER_MINUTE", "")
	t.Setenv("RATE_LIMIT_EXEMPT", " 10.0.0.1 ,10.0.0.2,")

	cfg := FromEnv()
	require.True(t, cfg.Enabled)
	assert.Equal(t, 1000, cfg.Default.PerWindow)
	assert.Equal(t, time.Minute, cfg.Default.Window)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.True(t, cfg.Exempt["10.0.0.1"])
	assert.True(t, cfg.Exempt["10.0.0.2"])
	assert.Len(t, cfg.Exempt, 2)
}
