package routecache

import (
	"context"
	"strings"
	"time"

	"github.com/girishiitm/synergysphere/internal/cache"
	"github.com/girishiitm/synergysphere/pkg/logger"
	"github.com/girishiitm/synergysphere/pkg/metrics"
	"go.uber.org/zap"
)

const (
	invalidationKeyPrefix = "cacheinv:"
	invalidationRetention = 24 * time.Hour
)

// TagRule associates routes containing a path fragment with the invalidation
// tags whose staleness governs them.
type TagRule struct {
	Fragment string
	Tags     []string
}

// DefaultTagRules maps route families to the entity tags that invalidate them.
// Project views aggregate member and task counts, so they depend on more tags
// than their own.
func DefaultTagRules() []TagRule {
	return []TagRule{
		{Fragment: "/projects", Tags: []string{"projects", "memberships", "tasks"}},
		{Fragment: "/tasks", Tags: []string{"tasks", "projects"}},
		{Fragment: "/dashboard", Tags: []string{"projects", "memberships", "tasks"}},
		{Fragment: "/messages", Tags: []string{"messages"}},
		{Fragment: "/notifications", Tags: []string{"notifications"}},
		{Fragment: "/profile", Tags: []string{"users", "profile"}},
		{Fragment: "/users", Tags: []string{"users"}},
	}
}

// TagRegistry records, per entity tag, when data under that tag last changed.
// Cached responses stored before a tag's timestamp are considered stale.
type TagRegistry struct {
	client *cache.Client
	rules  []TagRule
	clock  func() time.Time
}

// TagRegistryOption customises registry construction.
type TagRegistryOption func(*TagRegistry)

// WithTagRules replaces the default route-to-tag mapping.
func WithTagRules(rules []TagRule) TagRegistryOption {
	return func(r *TagRegistry) {
		r.rules = rules
	}
}

// WithTagClock injects a clock for tests.
func WithTagClock(clock func() time.Time) TagRegistryOption {
	return func(r *TagRegistry) {
		r.clock = clock
	}
}

// NewTagRegistry builds a registry over the shared cache client.
func NewTagRegistry(client *cache.Client, opts ...TagRegistryOption) *TagRegistry {
	r := &TagRegistry{
		client: client,
		rules:  DefaultTagRules(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Invalidate stamps the given tags with the current time. An empty tag list is
// a no-op. Failures are absorbed by the cache client, so a broken store only
// means stale reads until entries expire by TTL.
func (r *TagRegistry) Invalidate(ctx context.Context, tags ...string) {
	if len(tags) == 0 {
		return
	}

	now := r.clock().UTC().Format(time.RFC3339Nano)
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if r.client.SetString(ctx, invalidationKeyPrefix+tag, now, invalidationRetention) {
			metrics.CacheInvalidations.WithLabelValues(tag).Inc()
		}
	}

	logger.WithModule("routecache").Debug("invalidated cache tags",
		zap.Strings("tags", tags))
}

// LastInvalidated returns the most recent invalidation time for a tag. The
// second return is false when the tag has never been invalidated within the
// retention window, or when the store is unreachable.
func (r *TagRegistry) LastInvalidated(ctx context.Context, tag string) (time.Time, bool) {
	raw := r.client.GetString(ctx, invalidationKeyPrefix+tag, "")
	if raw == "" {
		return time.Time{}, false
	}

	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		// A corrupt marker is dropped rather than poisoning validity checks.
		r.client.Delete(ctx, invalidationKeyPrefix+tag)
		return time.Time{}, false
	}
	return ts.UTC(), true
}

// TagsFor resolves which invalidation tags govern a route. Every matching
// rule contributes: a nested route like /api/projects/:id/messages depends on
// the project tags and the message tag at once.
func (r *TagRegistry) TagsFor(route string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, rule := range r.rules {
		if !strings.Contains(route, rule.Fragment) {
			continue
		}
		for _, tag := range rule.Tags {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}

// Flush removes all invalidation markers.
func (r *TagRegistry) Flush(ctx context.Context) int64 {
	return r.client.DeletePattern(ctx, invalidationKeyPrefix+"*")
}
