package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/girishiitm/synergysphere/internal/cache"
	apperrors "github.com/girishiitm/synergysphere/pkg/errors"
)

func newResetService(t *testing.T, now *time.Time) *PasswordResetService {
	t.Helper()

	clock := func() time.Time { return *now }
	store := cache.NewMemoryStore().WithClock(clock)
	svc, err := NewPasswordResetService(store, nil, WithResetClock(clock))
	require.NoError(t, err)
	return svc
}

func TestResetIssueAndConsume(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newResetService(t, &now)
	ctx := context.Background()

	token, err := svc.Issue(ctx, "user-1", "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.Consume(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestResetTokenIsSingleUse(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newResetService(t, &now)
	ctx := context.Background()

	token, err := svc.Issue(ctx, "user-1", "alice@example.com")
	require.NoError(t, err)

	_, err = svc.Consume(ctx, token)
	require.NoError(t, err)

	_, err = svc.Consume(ctx, token)
	require.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetTokenExpires(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newResetService(t, &now)
	ctx := context.Background()

	token, err := svc.Issue(ctx, "user-1", "alice@example.com")
	require.NoError(t, err)

	now = now.Add(time.Hour + time.Second)
	_, err = svc.Consume(ctx, token)
	require.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetReissueSupersedesPrevious(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newResetService(t, &now)
	ctx := context.Background()

	first, err := svc.Issue(ctx, "user-1", "alice@example.com")
	require.NoError(t, err)
	second, err := svc.Issue(ctx, "user-1", "alice@example.com")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = svc.Consume(ctx, first)
	require.ErrorIs(t, err, ErrResetTokenInvalid)

	userID, err := svc.Consume(ctx, second)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestResetRejectsGarbageToken(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newResetService(t, &now)

	_, err := svc.Consume(context.Background(), "not-a-real-token")
	require.ErrorIs(t, err, ErrResetTokenInvalid)

	_, err = svc.Consume(context.Background(), "   ")
	require.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetSurfacesStoreOutage(t *testing.T) {
	svc, err := NewPasswordResetService(&failingStore{err: errors.New("connection refused")}, nil)
	require.NoError(t, err)

	_, err = svc.Issue(context.Background(), "user-1", "alice@example.com")
	require.ErrorIs(t, err, apperrors.ErrServiceUnavailable)

	_, err = svc.Consume(context.Background(), "whatever")
	require.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
}
