package routecache

import (
	"strings"
	"time"
)

// DefaultTTL applies to cacheable routes with no configured entry.
const DefaultTTL = 300 * time.Second

// TTLRule binds a "METHOD:/path" pattern to a time-to-live. Patterns support a
// single wildcard segment, e.g. "GET:/api/projects/*/messages".
type TTLRule struct {
	Pattern string
	TTL     time.Duration
}

// TTLTable is an ordered list of rules. Exact matches win over wildcard
// matches; among wildcard rules the first match in declaration order wins.
type TTLTable struct {
	rules      []TTLRule
	defaultTTL time.Duration
}

// NewTTLTable builds a table from rules, falling back to defaultTTL (or
// DefaultTTL when zero) for unmatched routes.
func NewTTLTable(rules []TTLRule, defaultTTL time.Duration) *TTLTable {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &TTLTable{rules: rules, defaultTTL: defaultTTL}
}

// DefaultTTLRules mirrors the per-route cache windows the API ships with.
func DefaultTTLRules() []TTLRule {
	return []TTLRule{
		{Pattern: "GET:/", TTL: time.Hour},
		{Pattern: "GET:/health", TTL: time.Minute},
		{Pattern: "GET:/version", TTL: time.Hour},
		{Pattern: "GET:/api/projects", TTL: 3 * time.Minute},
		{Pattern: "GET:/api/projects/*/messages", TTL: 30 * time.Second},
		{Pattern: "GET:/api/projects/*/tasks", TTL: 2 * time.Minute},
		{Pattern: "GET:/api/projects/*", TTL: 4 * time.Minute},
		{Pattern: "GET:/api/tasks", TTL: 2 * time.Minute},
		{Pattern: "GET:/api/dashboard/overview", TTL: 5 * time.Minute},
		{Pattern: "GET:/api/dashboard/stats", TTL: 3 * time.Minute},
		{Pattern: "GET:/api/notifications", TTL: time.Minute},
		{Pattern: "GET:/api/profile", TTL: 5 * time.Minute},
		{Pattern: "GET:/api/users/search", TTL: 10 * time.Minute},
	}
}

// Lookup resolves the TTL for a method+route pair.
func (t *TTLTable) Lookup(method, route string) time.Duration {
	key := method + ":" + route

	for _, rule := range t.rules {
		if !strings.Contains(rule.Pattern, "*") && rule.Pattern == key {
			return rule.TTL
		}
	}

	for _, rule := range t.rules {
		if matchWildcard(rule.Pattern, key) {
			return rule.TTL
		}
	}

	return t.defaultTTL
}

// matchWildcard matches a pattern containing exactly one "*" standing in for a
// single path segment.
func matchWildcard(pattern, key string) bool {
	star := strings.Index(pattern, "*")
	if star < 0 || strings.Count(pattern, "*") != 1 {
		return false
	}

	prefix, suffix := pattern[:star], pattern[star+1:]
	if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, suffix) {
		return false
	}
	if len(key) < len(prefix)+len(suffix) {
		return false
	}

	// The wildcard must swallow exactly one non-empty segment.
	middle := key[len(prefix) : len(key)-len(suffix)]
	return middle != "" && !strings.Contains(middle, "/")
}
