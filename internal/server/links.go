// links.go - issuance of single-use download links for client users.
package server

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type downloadLinkResp struct {
	DownloadLink string `json:"download_link"`
	ExpiresAt    string `json:"expires_at"`
	Message      string `json:"message"`
}

// createDownloadLinkHandler handles GET /client/download-file/{file_id}.
// It mints an encrypted token bound to (file, requesting user), persists
// the single-use record in the same request, and hands back the URL the
// client can fetch exactly once.
func (cfg Config) createDownloadLinkHandler(db *sql.DB) http.Handler {
	return cfg.Auth.requireRole(roleClient, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		idStr := strings.TrimPrefix(r.URL.Path, "/client/download-file/")
		fileID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || fileID < 0 {
			http.Error(w, "bad file id", http.StatusBadRequest)
			return
		}

		sess, err := cfg.Auth.currentUser(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var exists bool
		err = db.QueryRowContext(r.Context(),
			`SELECT EXISTS(SELECT 1 FROM files WHERE id = $1)`, fileID,
		).Scan(&exists)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if !exists {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}

		token := cfg.Tokens.Generate(fileID, sess.Sub, 0)
		expiresAt := time.Now().UTC().Add(DefaultDownloadTTL)

		// The guard record keeps its own expiry alongside the one sealed
		// into the token; both are enforced at redemption.
		if err := cfg.Store.Create(r.Context(), token, fileID, sess.Sub, expiresAt); err != nil {
			log.Printf("service=links msg=%q file_id=%d err=%v", "record_create_failed", fileID, err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(downloadLinkResp{
			DownloadLink: cfg.absoluteURL(r, "/download-file/"+token),
			ExpiresAt:    expiresAt.Format(time.RFC3339),
			Message:      "success",
		})
	}))
}

// absoluteURL builds a URL for path, preferring the configured base URL
// and falling back to the request host (local dev, tests).
func (cfg Config) absoluteURL(r *http.Request, path string) string {
	if cfg.BaseURL != "" {
		return strings.TrimSuffix(cfg.BaseURL, "/") + path
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if host == "" {
		host = "localhost:8080"
	}
	return scheme + "://" + host + path
}
