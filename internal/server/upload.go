// upload.go - ops document upload, streamed to object storage.
package server

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

type uploadResp struct {
	FileID           int64  `json:"file_id"`
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
	Message          string `json:"message"`
}

// maxUploadBytes reads SDS_MAX_UPLOAD_BYTES; 0 means no limit.
func maxUploadBytes() (int64, error) {
	raw := os.Getenv("SDS_MAX_UPLOAD_BYTES")
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// uploadHandler handles POST /ops/upload multipart requests from ops
// users. The file part is streamed straight to MinIO under a random
// object key; only the metadata row carries the original name.
func (cfg Config) uploadHandler(db *sql.DB, mc *minio.Client, bucket string) http.Handler {
	return cfg.Auth.requireRole(roleOps, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		sess, err := cfg.Auth.currentUser(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit, err := maxUploadBytes()
		if err != nil {
			http.Error(w, "server misconfigured", http.StatusInternalServerError)
			return
		}
		if limit > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}

		mr, err := r.MultipartReader()
		if err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
			return
		}

		var (
			filePart io.Reader
			origName string
		)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				http.Error(w, "bad multipart", http.StatusBadRequest)
				return
			}
			if part.FormName() == "file" {
				filePart = part
				origName = sanitizeFilename(part.FileName())
				break
			}
		}
		if filePart == nil {
			http.Error(w, "no file provided", http.StatusBadRequest)
			return
		}
		if origName == "" {
			http.Error(w, "no file selected", http.StatusBadRequest)
			return
		}
		if !isAllowedFile(origName) {
			http.Error(w, "file type not allowed, only .pptx, .docx, .xlsx files are permitted", http.StatusBadRequest)
			return
		}

		objectKey := uuid.NewString() + "." + fileExtension(origName)

		info, err := mc.PutObject(r.Context(), bucket, objectKey, filePart, -1, minio.PutObjectOptions{
			ContentType: "application/octet-stream",
		})
		if err != nil {
			log.Printf("service=upload msg=%q key=%s err=%v", "minio_put_failed", objectKey, err)
			http.Error(w, "storage error", http.StatusBadGateway)
			return
		}

		var fileID int64
		err = db.QueryRowContext(r.Context(), `
			INSERT INTO files (original_filename, object_key, size_bytes, file_type, uploaded_by)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, origName, objectKey, info.Size, fileExtension(origName), sess.Sub).Scan(&fileID)
		if err != nil {
			log.Printf("service=upload msg=%q key=%s err=%v", "db_insert_failed", objectKey, err)
			// Best effort: do not leave an orphan object behind.
			if rmErr := mc.RemoveObject(r.Context(), bucket, objectKey, minio.RemoveObjectOptions{}); rmErr != nil {
				log.Printf("service=upload msg=%q key=%s err=%v", "orphan_cleanup_failed", objectKey, rmErr)
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(uploadResp{
			FileID:           fileID,
			OriginalFilename: origName,
			FileSize:         info.Size,
			Message:          "file uploaded successfully",
		})
	}))
}
