package ratelimit

import (
	"strings"
	"time"
)

// Rule budgets one route pattern. A Path ending in "/" matches by prefix,
// otherwise it must match exactly. PerWindow of zero means unthrottled.
// Rules sharing a Tier share a bucket per client.
type Rule struct {
	Tier      string
	Method    string
	Path      string
	PerWindow int
	Window    time.Duration
	Burst     int
}

// Rules is an ordered rule set. Exact path matches win over prefix matches.
type Rules []Rule

func (rs Rules) match(method, path string) *Rule {
	for i := range rs {
		r := &rs[i]
		if r.Method == method && r.Path == path {
			return r
		}
	}
	for i := range rs {
		r := &rs[i]
		if r.Method == method && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			return r
		}
	}
	return nil
}

// DefaultRules budgets routes by downstream cost. Processing triggers fan
// out into model inference, so they get hourly budgets with small bursts.
// Catalog writes are plain database inserts and only need burst protection.
// Reads fall through to the default rule, and health checks are free so
// probes never starve.
func DefaultRules() Rules {
	return Rules{
		{Tier: "health", Method: "GET", Path: "/health", PerWindow: 0},

		{Tier: "inference", Method: "POST", Path: "/attachments/", PerWindow: 60, Window: time.Hour, Burst: 5},
		{Tier: "inference", Method: "POST", Path: "/jobs/", PerWindow: 60, Window: time.Hour, Burst: 5},
		{Tier: "intake", Method: "POST", Path: "/candidates/", PerWindow: 100, Window: time.Hour, Burst: 10},

		{Tier: "catalog-write", Method: "POST", Path: "/templates", PerWindow: 100, Window: time.Minute, Burst: 10},
		{Tier: "catalog-write", Method: "POST", Path: "/templates/", PerWindow: 100, Window: time.Minute, Burst: 10},
		{Tier: "catalog-write", Method: "POST", Path: "/stages/", PerWindow: 100, Window: time.Minute, Burst: 10},
		{Tier: "catalog-write", Method: "POST", Path: "/candidates", PerWindow: 100, Window: time.Minute, Burst: 10},
		{Tier: "catalog-write", Method: "PUT", Path: "/candidates/", PerWindow: 100, Window: time.Minute, Burst: 10},
	}
}
