package checks

import (
	"context"
	"time"

	"github.com/girishiitm/synergysphere/internal/cache"
	"github.com/girishiitm/synergysphere/internal/monitoring"
)

const defaultStoreTimeout = 2 * time.Second

// KVStore returns a probe for the key-value store backing response caching,
// verification codes, and token revocation. A nil store is reported as
// degraded rather than down: the API keeps serving without one.
func KVStore(store cache.Store, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("kv_store", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if store == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  "kv store not configured",
				Duration: time.Since(start),
			}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultStoreTimeout))
		defer cancel()

		if _, err := store.Exists(probeCtx, "health:probe"); err != nil {
			return monitoring.ResultFromError("kv_store", err, time.Since(start))
		}

		return monitoring.ProbeResult{
			Status:   monitoring.StatusUp,
			Duration: time.Since(start),
		}
	})
}
