// download_tokens.go - encrypted download token codec.
//
// Packs (file_id, user_id, expiry) into an opaque URL-safe token via the
// Crypter and re-derives the claims on the way back in, enforcing the
// embedded expiry.
package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDownloadTTL is how long a freshly minted download token stays
// valid when the caller does not ask for a specific TTL.
const DefaultDownloadTTL = 24 * time.Hour

// DownloadClaims is the decoded content of a download token.
type DownloadClaims struct {
	FileID    int64
	UserID    int64
	ExpiresAt time.Time
}

// TokenService mints and validates download tokens. Construct once at
// startup and share; it holds no mutable state.
type TokenService struct {
	crypter *Crypter
	now     func() time.Time // overridable in tests
}

func NewTokenService(c *Crypter) *TokenService {
	return &TokenService{crypter: c, now: time.Now}
}

// encodeClaims builds the plaintext wire format "<file_id>:<user_id>:<unix>".
// The timestamp is numeric on purpose: a calendar string would contain the
// ':' field separator and make the split ambiguous.
func (s *TokenService) encodeClaims(fileID, userID int64, ttl time.Duration) string {
	if ttl == 0 {
		ttl = DefaultDownloadTTL
	}
	expiresAt := s.now().UTC().Add(ttl)
	return fmt.Sprintf("%d:%d:%d", fileID, userID, expiresAt.Unix())
}

// decodeClaims parses the three-field payload and checks the embedded
// expiry. A malformed payload and an expired one are both reported as
// ok=false; callers are not told which.
func (s *TokenService) decodeClaims(plaintext string) (DownloadClaims, bool) {
	var c DownloadClaims

	parts := strings.Split(plaintext, ":")
	if len(parts) != 3 {
		return c, false
	}

	fileID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return c, false
	}
	userID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return c, false
	}
	// Accept a fractional timestamp: tokens minted by the previous
	// implementation embedded sub-second precision.
	ts, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return c, false
	}

	c.FileID = fileID
	c.UserID = userID
	c.ExpiresAt = time.Unix(int64(ts), 0).UTC()

	if s.now().UTC().After(c.ExpiresAt) {
		return DownloadClaims{}, false
	}
	return c, true
}

// Generate mints an opaque download token for (fileID, userID). A ttl of
// zero means DefaultDownloadTTL; negative values produce an already
// expired token, which only makes sense in tests.
func (s *TokenService) Generate(fileID, userID int64, ttl time.Duration) string {
	return s.crypter.Encrypt(s.encodeClaims(fileID, userID, ttl))
}

// Validate decrypts and decodes token. Forged, corrupted, and expired
// tokens all come back as ok=false with zero claims.
func (s *TokenService) Validate(token string) (DownloadClaims, bool) {
	plaintext, ok := s.crypter.Decrypt(token)
	if !ok {
		return DownloadClaims{}, false
	}
	return s.decodeClaims(plaintext)
}
