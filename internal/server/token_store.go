// token_store.go - durable single-use guard for download tokens.
package server

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrTokenSpent is returned by TryConsume when no live record matches:
// the token was never issued, its stored expiry passed, or it has already
// been redeemed. The cases are deliberately not distinguishable.
var ErrTokenSpent = errors.New("token not found or already used")

// DownloadGrant is the identity released by a successful consumption.
type DownloadGrant struct {
	FileID int64
	UserID int64
}

// TokenStore is the persistence contract for download token records.
//
// TryConsume must be atomic with respect to concurrent calls for the same
// token: at most one caller may ever receive the grant, no matter the
// interleaving. The is_used flag only moves false -> true; rejected
// redemptions never touch the record.
type TokenStore interface {
	Create(ctx context.Context, token string, fileID, userID int64, expiresAt time.Time) error
	TryConsume(ctx context.Context, token string) (DownloadGrant, error)
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type sqlTokenStore struct {
	db *sql.DB
}

// NewTokenStore returns a Postgres-backed TokenStore.
func NewTokenStore(db *sql.DB) TokenStore {
	return &sqlTokenStore{db: db}
}

func (s *sqlTokenStore) Create(ctx context.Context, token string, fileID, userID int64, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO download_tokens (token, file_id, user_id, expires_at)
		VALUES ($1, $2, $3, $4)
	`, token, fileID, userID, expiresAt.UTC())
	return err
}

// TryConsume flips is_used in a single conditional UPDATE so that two
// requests racing on the same token cannot both observe is_used = FALSE.
// The row's own expires_at is checked here as well; the token's embedded
// expiry is the codec's job.
func (s *sqlTokenStore) TryConsume(ctx context.Context, token string) (DownloadGrant, error) {
	var g DownloadGrant
	err := s.db.QueryRowContext(ctx, `
		UPDATE download_tokens
		SET is_used = TRUE
		WHERE token = $1 AND is_used = FALSE AND expires_at > NOW()
		RETURNING file_id, user_id
	`, token).Scan(&g.FileID, &g.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DownloadGrant{}, ErrTokenSpent
		}
		return DownloadGrant{}, err
	}
	return g, nil
}

// PurgeExpired deletes records that expired before cutoff without ever
// being redeemed. Redeemed rows are kept as an audit trail.
func (s *sqlTokenStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM download_tokens
		WHERE is_used = FALSE AND expires_at < $1
	`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
