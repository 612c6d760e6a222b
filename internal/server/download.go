// download.go - single-use redemption of encrypted download links.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// Rejection messages. "invalid or expired" covers forged, corrupted and
// time-expired tokens; "not found or already used" covers missing and
// replayed records. Each message hides which of its sub-cases occurred,
// but the two stages stay distinguishable from each other.
const (
	msgTokenInvalid  = "invalid or expired token"
	msgTokenSpent    = "token not found or already used"
	msgTokenMismatch = "token validation failed"
)

// redeemToken runs the redemption state machine for an opaque token:
// decrypt and check the embedded expiry, consume the durable record
// exactly once, then cross-check the decoded identity against the stored
// one. On rejection it returns an HTTP status and message; the grant is
// only valid when status is 0.
//
// The consume happens before the cross-check: consumption is one atomic
// conditional update, and a record that fails the integrity cross-check
// must never become redeemable later, so burning it is the safe order.
func redeemToken(ctx context.Context, tokens *TokenService, store TokenStore, token string) (DownloadGrant, int, string) {
	claims, ok := tokens.Validate(token)
	if !ok {
		return DownloadGrant{}, http.StatusUnauthorized, msgTokenInvalid
	}

	grant, err := store.TryConsume(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenSpent) {
			return DownloadGrant{}, http.StatusUnauthorized, msgTokenSpent
		}
		log.Printf("service=download msg=%q err=%v", "consume_failed", err)
		return DownloadGrant{}, http.StatusInternalServerError, "db error"
	}

	if grant.FileID != claims.FileID || grant.UserID != claims.UserID {
		return DownloadGrant{}, http.StatusUnauthorized, msgTokenMismatch
	}

	return grant, 0, ""
}

// downloadFileHandler handles GET /download-file/{token}. The token is the
// only credential: no session is required, the bearer of a live token gets
// the file once. Content delivery failures after the consume do not
// un-spend the token.
func (cfg Config) downloadFileHandler(db *sql.DB, mc *minio.Client, bucket string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		token := strings.TrimPrefix(r.URL.Path, "/download-file/")
		if token == "" || strings.Contains(token, "/") {
			http.Error(w, "missing token", http.StatusBadRequest)
			return
		}

		grant, status, msg := redeemToken(r.Context(), cfg.Tokens, cfg.Store, token)
		if status != 0 {
			http.Error(w, msg, status)
			return
		}

		var (
			objectKey string
			origName  string
			sizeBytes int64
		)
		err := db.QueryRowContext(r.Context(), `
			SELECT object_key, original_filename, size_bytes
			FROM files
			WHERE id = $1
		`, grant.FileID).Scan(&objectKey, &origName, &sizeBytes)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Token already spent; the record pointed at a file
				// that has since disappeared.
				http.Error(w, "file not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		obj, err := mc.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
		if err != nil {
			http.Error(w, "storage error", http.StatusBadGateway)
			return
		}
		defer func() { _ = obj.Close() }()

		// Surface missing-object errors before writing the header.
		if _, statErr := obj.Stat(); statErr != nil {
			http.Error(w, "storage error", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		if sizeBytes > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(sizeBytes, 10))
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, origName))
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, obj); err != nil {
			// Token stays spent; the client must request a fresh link.
			log.Printf("service=download msg=%q file_id=%d err=%v", "stream_failed", grant.FileID, err)
		}
	})
}
