// cleanup.go - periodic purge of expired, never-redeemed token records.
package server

import (
	"context"
	"log"
	"time"
)

// TokenCleanupConfig controls the background purge job.
type TokenCleanupConfig struct {
	Enabled  bool
	Interval time.Duration
	Store    TokenStore
}

// StartTokenCleanup runs until ctx is cancelled, deleting token records
// whose expiry passed without redemption. Redeemed records are never
// touched: is_used only ever moves false to true and stays.
func StartTokenCleanup(ctx context.Context, cfg TokenCleanupConfig) {
	if !cfg.Enabled {
		log.Printf("service=token_cleanup msg=%q", "disabled")
		return
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 1 * time.Minute
	}

	log.Printf("service=token_cleanup msg=%q interval=%s", "starting", cfg.Interval)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	runTokenCleanup(ctx, cfg.Store)

	for {
		select {
		case <-ctx.Done():
			log.Printf("service=token_cleanup msg=%q", "shutting_down")
			return
		case <-ticker.C:
			runTokenCleanup(ctx, cfg.Store)
		}
	}
}

func runTokenCleanup(ctx context.Context, store TokenStore) {
	start := time.Now()
	n, err := store.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("service=token_cleanup msg=%q err=%v", "purge_failed", err)
		return
	}
	if n > 0 {
		log.Printf("service=token_cleanup msg=%q deleted=%d duration_ms=%d",
			"purge_complete", n, time.Since(start).Milliseconds())
	}
}
