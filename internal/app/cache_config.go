package app

import (
	"strings"

	"github.com/girishiitm/synergysphere/internal/cache"
	"github.com/girishiitm/synergysphere/internal/routecache"
)

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  strings.TrimSpace(c.Redis.Address),
		Username: strings.TrimSpace(c.Redis.Username),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}

// TTLRules converts configured route overrides into route cache rules.
// Entries with a blank pattern or non-positive TTL are dropped, and bare
// paths are treated as GET patterns.
func (c CacheConfig) TTLRules() []routecache.TTLRule {
	if len(c.Routes) == 0 {
		return nil
	}

	rules := make([]routecache.TTLRule, 0, len(c.Routes))
	for _, route := range c.Routes {
		pattern := strings.TrimSpace(route.Pattern)
		if pattern == "" || route.TTL <= 0 {
			continue
		}
		if strings.HasPrefix(pattern, "/") {
			pattern = "GET:" + pattern
		}
		rules = append(rules, routecache.TTLRule{Pattern: pattern, TTL: route.TTL})
	}
	return rules
}
