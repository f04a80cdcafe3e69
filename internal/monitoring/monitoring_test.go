package monitoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/girishiitm/synergysphere/internal/cache"
	"github.com/girishiitm/synergysphere/internal/monitoring"
	"github.com/girishiitm/synergysphere/internal/monitoring/checks"
)

func TestHealthManagerEvaluate(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager()
	manager.Register(monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	manager.Register(monitoring.NewCheck("kv_store", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "connection refused"}
	}))

	report := manager.Evaluate(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Len(t, report.Checks, 2)
}

func TestHealthManagerRecoversFromPanic(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager()
	manager.Register(monitoring.NewCheck("flaky", func(ctx context.Context) monitoring.ProbeResult {
		panic("probe exploded")
	}))

	report := manager.Evaluate(context.Background())
	require.False(t, report.Success)
	require.Len(t, report.Checks, 1)
	require.Equal(t, monitoring.StatusDown, report.Checks[0].Status)
	require.Equal(t, "probe exploded", report.Checks[0].Details)
}

func TestHealthManagerDegradedDoesNotMaskDown(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager()
	manager.Register(monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDown}
	}))
	manager.Register(monitoring.NewCheck("kv_store", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDegraded}
	}))

	report := manager.Evaluate(context.Background())
	require.Equal(t, monitoring.StatusDown, report.Status)
}

func TestDatabaseCheck(t *testing.T) {
	t.Parallel()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	result := checks.Database(db, time.Second).Run(context.Background())
	require.Equal(t, monitoring.StatusUp, result.Status)

	missing := checks.Database(nil, time.Second).Run(context.Background())
	require.Equal(t, monitoring.StatusDown, missing.Status)
}

func TestKVStoreCheck(t *testing.T) {
	t.Parallel()

	result := checks.KVStore(cache.NewMemoryStore(), time.Second).Run(context.Background())
	require.Equal(t, monitoring.StatusUp, result.Status)

	disabled := checks.KVStore(nil, time.Second).Run(context.Background())
	require.Equal(t, monitoring.StatusDegraded, disabled.Status)
}
