package middleware

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/girishiitm/synergysphere/internal/routecache"
	"github.com/girishiitm/synergysphere/pkg/metrics"
)

const cacheHitHeader = "X-Cache"

// bodyCapture tees the response body so a successful response can be stored
// after the handler has written it.
type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(data []byte) (int, error) {
	w.buf.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *bodyCapture) WriteString(data string) (int, error) {
	w.buf.WriteString(data)
	return w.ResponseWriter.WriteString(data)
}

// CacheRoute serves idempotent responses from the route cache. On a hit the
// handler chain is skipped entirely; on a miss the response body is captured
// and, if the handler succeeded, stored for the route's configured lifetime.
// Any cache fault falls through to normal handling.
func CacheRoute(manager *routecache.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		if manager == nil || !manager.Enabled() || !manager.ShouldCache(c.Request.Method, route) {
			metrics.CacheRequests.WithLabelValues("bypass").Inc()
			c.Next()
			return
		}

		subject := UserID(c)
		if manager.PublicScope(c.Request.Method, route) {
			// Shared payloads keep one entry no matter who asks.
			subject = ""
		}
		key := manager.CacheKey(c.Request.Method, route, c.Request.URL.Query(), subject)

		if entry, ok := manager.Fetch(c.Request.Context(), key); ok {
			contentType := entry.ContentType
			if contentType == "" {
				contentType = "application/json; charset=utf-8"
			}
			c.Header(cacheHitHeader, "HIT")
			c.Data(entry.Status, contentType, entry.Body)
			c.Abort()
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Header(cacheHitHeader, "MISS")

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status > 299 || len(c.Errors) > 0 {
			return
		}

		body := capture.buf.Bytes()
		if !json.Valid(body) {
			// Only JSON payloads are replayable from the cache.
			return
		}

		manager.Store(c.Request.Context(), key, routecache.Entry{
			Body:        json.RawMessage(bytes.Clone(body)),
			Status:      status,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Route:       route,
		}, manager.TTLFor(c.Request.Method, route))
	}
}

// InvalidateOnChange stamps the given tags after a successful write so cached
// reads that depend on them go stale. Responses outside 2xx leave the cache
// untouched; an empty tag list makes the middleware a no-op.
func InvalidateOnChange(registry *routecache.TagRegistry, tags ...string) gin.HandlerFunc {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}

	return func(c *gin.Context) {
		c.Next()

		if registry == nil || len(cleaned) == 0 {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status > 299 {
			return
		}
		registry.Invalidate(c.Request.Context(), cleaned...)
	}
}
