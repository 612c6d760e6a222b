// health.go - liveness and readiness probes.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type componentHealth struct {
	Status    string  `json:"status"`
	Message   string  `json:"message,omitempty"`
	LatencyMs float64 `json:"latency_ms,omitempty"`
}

type healthResp struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]componentHealth `json:"components"`
}

// readyHandler is the cheap probe for load balancers: one DB round trip.
func (cfg Config) readyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var one int
		if err := cfg.DB.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}
}

// healthHandler reports per-component detail for the DB and object store.
func (cfg Config) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp := healthResp{
			Status:     "healthy",
			Timestamp:  time.Now().UTC(),
			Version:    cfg.Build.Version,
			Components: map[string]componentHealth{},
		}

		dbStart := time.Now()
		var one int
		if err := cfg.DB.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
			resp.Status = "unhealthy"
			resp.Components["database"] = componentHealth{Status: "down", Message: err.Error()}
		} else {
			resp.Components["database"] = componentHealth{
				Status:    "up",
				LatencyMs: float64(time.Since(dbStart).Microseconds()) / 1000.0,
			}
		}

		if cfg.Minio != nil {
			storeStart := time.Now()
			exists, err := cfg.Minio.BucketExists(ctx, cfg.Bucket)
			switch {
			case err != nil:
				resp.Status = "unhealthy"
				resp.Components["storage"] = componentHealth{Status: "down", Message: err.Error()}
			case !exists:
				resp.Status = "degraded"
				resp.Components["storage"] = componentHealth{Status: "degraded", Message: "bucket missing"}
			default:
				resp.Components["storage"] = componentHealth{
					Status:    "up",
					LatencyMs: float64(time.Since(storeStart).Microseconds()) / 1000.0,
				}
			}
		}

		code := http.StatusOK
		if resp.Status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
