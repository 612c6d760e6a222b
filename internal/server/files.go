// files.go - client-facing file listing.
package server

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

type fileInfo struct {
	ID               int64  `json:"id"`
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
	FileType         string `json:"file_type"`
	UploadedAt       string `json:"uploaded_at"`
	UploadedBy       string `json:"uploaded_by"`
}

// listFilesHandler handles GET /client/files: every uploaded document is
// visible to every verified client, matching the sharing model where ops
// publish and clients pick.
func (cfg Config) listFilesHandler(db *sql.DB) http.Handler {
	return cfg.Auth.requireRole(roleClient, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		rows, err := db.QueryContext(r.Context(), `
			SELECT f.id, f.original_filename, f.size_bytes, f.file_type, f.uploaded_at, u.email
			FROM files f
			JOIN users u ON u.id = f.uploaded_by
			ORDER BY f.uploaded_at DESC
		`)
		if err != nil {
			log.Printf("service=files msg=%q err=%v", "list_query_failed", err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		files := make([]fileInfo, 0)
		for rows.Next() {
			var (
				fi         fileInfo
				uploadedAt time.Time
			)
			if err := rows.Scan(&fi.ID, &fi.OriginalFilename, &fi.FileSize, &fi.FileType, &uploadedAt, &fi.UploadedBy); err != nil {
				http.Error(w, "db error", http.StatusInternalServerError)
				return
			}
			fi.UploadedAt = uploadedAt.UTC().Format(time.RFC3339)
			files = append(files, fi)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"files":   files,
			"message": "success",
		})
	}))
}
