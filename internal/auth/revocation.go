package auth

import (
	"context"
	"time"

	"github.com/girishiitm/synergysphere/internal/cache"
)

const (
	revokedTokenKeyPrefix = "revoked:jti:"
	revokedUserKeyPrefix  = "revoked:user:"

	// How long a logout-all marker outlives the longest refresh token.
	revokedUserRetention = 7 * 24 * time.Hour
)

// RevocationRegistry tracks revoked token IDs and per-user logout-all markers
// in the shared key-value store. The registry fails open: if the store is
// unreachable, tokens are treated as valid and expiry alone bounds their life.
type RevocationRegistry struct {
	client *cache.Client
	clock  func() time.Time
}

// RevocationOption customises registry construction.
type RevocationOption func(*RevocationRegistry)

// WithRevocationClock injects a clock for tests.
func WithRevocationClock(clock func() time.Time) RevocationOption {
	return func(r *RevocationRegistry) {
		r.clock = clock
	}
}

// NewRevocationRegistry builds a registry over the shared cache client.
func NewRevocationRegistry(client *cache.Client, opts ...RevocationOption) *RevocationRegistry {
	r := &RevocationRegistry{client: client, clock: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Revoke marks a single token ID as revoked until the token's own expiry, at
// which point the record is pointless and allowed to lapse.
func (r *RevocationRegistry) Revoke(ctx context.Context, jti string, expiresAt time.Time) bool {
	if jti == "" {
		return false
	}
	ttl := expiresAt.Sub(r.clock())
	if ttl <= 0 {
		// Already expired, nothing to deny.
		return true
	}
	return r.client.SetString(ctx, revokedTokenKeyPrefix+jti, "1", ttl)
}

// RevokeAllForSubject invalidates every token a user holds by recording the
// revocation instant. Tokens issued at or before that instant are rejected;
// tokens issued afterwards are unaffected.
func (r *RevocationRegistry) RevokeAllForSubject(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	now := r.clock().UTC().Format(time.RFC3339Nano)
	return r.client.SetString(ctx, revokedUserKeyPrefix+userID, now, revokedUserRetention)
}

// IsRevoked decides whether a token may still be honoured. It checks the
// token's own jti first, then the subject-wide marker against the token's
// issue time.
func (r *RevocationRegistry) IsRevoked(ctx context.Context, claims *Claims) bool {
	if claims == nil {
		return true
	}

	if claims.ID != "" && r.client.Exists(ctx, revokedTokenKeyPrefix+claims.ID) {
		return true
	}

	marker := r.client.GetString(ctx, revokedUserKeyPrefix+claims.UserID, "")
	if marker == "" {
		return false
	}
	revokedAt, err := time.Parse(time.RFC3339Nano, marker)
	if err != nil {
		return false
	}
	if claims.IssuedAt == nil {
		return true
	}
	return !claims.IssuedAt.Time.After(revokedAt)
}
