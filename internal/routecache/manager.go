package routecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/girishiitm/synergysphere/internal/cache"
	"github.com/girishiitm/synergysphere/pkg/metrics"
)

const entryKeyPrefix = "routecache:"

// excludedRoutes are never cached regardless of method. Auth flows are
// stateful and security sensitive, and the cache admin surface must always
// reflect live state.
var excludedRoutes = []string{
	"/api/auth/",
	"/api/cache/",
	"/metrics",
}

// Entry is the stored form of a cached response.
type Entry struct {
	Body        json.RawMessage `json:"body"`
	Status      int             `json:"status"`
	ContentType string          `json:"content_type"`
	Route       string          `json:"route"`
	StoredAt    time.Time       `json:"stored_at"`
}

// Stats is a point-in-time snapshot of cache activity since process start.
type Stats struct {
	Enabled bool  `json:"enabled"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Stale   int64 `json:"stale"`
	Stores  int64 `json:"stores"`
	Flushes int64 `json:"flushes"`
}

// DefaultPublicRoutes lists cacheable routes whose responses carry no
// user-specific data, so every subject shares one entry instead of each
// warming its own.
func DefaultPublicRoutes() []string {
	return []string{
		"GET:/",
		"GET:/health",
		"GET:/version",
		"GET:/api/users/search",
	}
}

// Manager implements response caching for idempotent routes: key derivation,
// per-route TTLs, and tag-based staleness checks against the TagRegistry.
// Every operation degrades to a miss when the backing store is down.
type Manager struct {
	client *cache.Client
	ttls   *TTLTable
	tags   *TagRegistry
	public []string
	clock  func() time.Time

	hits    atomic.Int64
	misses  atomic.Int64
	stale   atomic.Int64
	stores  atomic.Int64
	flushes atomic.Int64
}

// ManagerOption customises manager construction.
type ManagerOption func(*Manager)

// WithTTLTable replaces the default per-route TTL configuration.
func WithTTLTable(t *TTLTable) ManagerOption {
	return func(m *Manager) {
		m.ttls = t
	}
}

// WithPublicRoutes replaces the default shared-scope route patterns.
func WithPublicRoutes(patterns []string) ManagerOption {
	return func(m *Manager) {
		m.public = patterns
	}
}

// WithClock injects a clock for tests.
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager wires a manager over the shared cache client and tag registry.
func NewManager(client *cache.Client, tags *TagRegistry, opts ...ManagerOption) *Manager {
	m := &Manager{
		client: client,
		ttls:   NewTTLTable(DefaultTTLRules(), DefaultTTL),
		tags:   tags,
		public: DefaultPublicRoutes(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enabled reports whether the backing store is usable.
func (m *Manager) Enabled() bool {
	return m.client.Enabled()
}

// Tags exposes the tag registry the manager validates against.
func (m *Manager) Tags() *TagRegistry {
	return m.tags
}

// ShouldCache decides whether a request is a caching candidate at all.
// Only GET requests to non-excluded routes qualify.
func (m *Manager) ShouldCache(method, route string) bool {
	if method != http.MethodGet {
		return false
	}
	for _, prefix := range excludedRoutes {
		if strings.HasPrefix(route, prefix) {
			return false
		}
	}
	return true
}

// PublicScope reports whether a route's responses are shared across subjects.
// Routes on the public list serve every caller the same payload, so keying
// them per user would only fragment the cache.
func (m *Manager) PublicScope(method, route string) bool {
	key := method + ":" + route
	for _, pattern := range m.public {
		if pattern == key || matchWildcard(pattern, key) {
			return true
		}
	}
	return false
}

// CacheKey derives the storage key for a request. Authenticated requests are
// partitioned per subject so users never see each other's responses; anonymous
// requests share a public partition. Query parameters are folded in sorted
// order so parameter ordering cannot split the cache.
func (m *Manager) CacheKey(method, route string, query url.Values, subjectID string) string {
	var sb strings.Builder
	sb.WriteString(method)
	sb.WriteByte('|')
	sb.WriteString(route)

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		vals := append([]string(nil), query[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			sb.WriteByte('|')
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(v)
		}
	}

	sum := sha256.Sum256([]byte(sb.String()))
	digest := hex.EncodeToString(sum[:16])

	scope := "public"
	if subjectID != "" {
		scope = "user:" + subjectID
	}
	return entryKeyPrefix + scope + ":" + digest
}

// TTLFor resolves the configured lifetime for a route.
func (m *Manager) TTLFor(method, route string) time.Duration {
	return m.ttls.Lookup(method, route)
}

// Fetch returns a cached entry if one exists and is still valid. Entries
// stored before any governing tag's last invalidation are discarded.
func (m *Manager) Fetch(ctx context.Context, key string) (*Entry, bool) {
	var entry Entry
	if !m.client.GetJSON(ctx, key, &entry) {
		m.misses.Add(1)
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}

	if !m.isValid(ctx, &entry) {
		m.client.Delete(ctx, key)
		m.stale.Add(1)
		metrics.CacheRequests.WithLabelValues("stale").Inc()
		return nil, false
	}

	m.hits.Add(1)
	metrics.CacheRequests.WithLabelValues("hit").Inc()
	return &entry, true
}

// Store records a response. Only successful (2xx) responses are cached;
// everything else is refused so transient errors never get pinned.
func (m *Manager) Store(ctx context.Context, key string, entry Entry, ttl time.Duration) bool {
	if entry.Status < 200 || entry.Status > 299 {
		return false
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	entry.StoredAt = m.clock().UTC()

	if !m.client.SetJSON(ctx, key, entry, ttl) {
		return false
	}
	m.stores.Add(1)
	metrics.CacheStores.Inc()
	return true
}

// isValid checks the entry against every tag governing its route. Strictly
// newer invalidations (invalidated_at > stored_at) mark the entry stale; an
// invalidation at the exact same instant keeps it.
func (m *Manager) isValid(ctx context.Context, entry *Entry) bool {
	if m.tags == nil {
		return true
	}
	for _, tag := range m.tags.TagsFor(entry.Route) {
		if ts, ok := m.tags.LastInvalidated(ctx, tag); ok && ts.After(entry.StoredAt) {
			return false
		}
	}
	return true
}

// Flush clears every cached response and invalidation marker, returning the
// number of entries removed.
func (m *Manager) Flush(ctx context.Context) int64 {
	removed := m.client.DeletePattern(ctx, entryKeyPrefix+"*")
	if m.tags != nil {
		removed += m.tags.Flush(ctx)
	}
	m.flushes.Add(1)
	return removed
}

// Stats snapshots counters for the admin endpoint.
func (m *Manager) Stats() Stats {
	return Stats{
		Enabled: m.Enabled(),
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		Stale:   m.stale.Load(),
		Stores:  m.stores.Load(),
		Flushes: m.flushes.Load(),
	}
}
