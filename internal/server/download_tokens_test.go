package server

import (
	"strings"
	"testing"
	"time"
)

func newTestTokenService() *TokenService {
	return NewTokenService(NewCrypter("testsecret"))
}

func TestGenerateValidateRoundTrip(t *testing.T) {
	svc := newTestTokenService()

	cases := []struct {
		fileID int64
		userID int64
		ttl    time.Duration
	}{
		{1, 4, 24 * time.Hour},
		{0, 0, time.Minute},
		{987654321, 123456789, time.Second},
	}
	for _, tc := range cases {
		tok := svc.Generate(tc.fileID, tc.userID, tc.ttl)

		claims, ok := svc.Validate(tok)
		if !ok {
			t.Fatalf("Validate failed for (%d, %d)", tc.fileID, tc.userID)
		}
		if claims.FileID != tc.fileID || claims.UserID != tc.userID {
			t.Fatalf("claims mismatch: got (%d, %d) want (%d, %d)",
				claims.FileID, claims.UserID, tc.fileID, tc.userID)
		}
		if !claims.ExpiresAt.After(time.Now()) {
			t.Fatalf("expected future expiry, got %v", claims.ExpiresAt)
		}
	}
}

func TestValidateDefaultTTL(t *testing.T) {
	svc := newTestTokenService()

	tok := svc.Generate(1, 4, 0)
	claims, ok := svc.Validate(tok)
	if !ok {
		t.Fatalf("Validate failed")
	}

	want := time.Now().Add(DefaultDownloadTTL)
	diff := claims.ExpiresAt.Sub(want)
	if diff < -time.Minute || diff > time.Minute {
		t.Fatalf("expiry %v not within a minute of %v", claims.ExpiresAt, want)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestTokenService()

	tok := svc.Generate(1, 4, -1*time.Second)
	if _, ok := svc.Validate(tok); ok {
		t.Fatalf("expected already-expired token to be rejected")
	}
}

func TestValidateTamperedToken(t *testing.T) {
	svc := newTestTokenService()

	tok := svc.Generate(1, 4, time.Hour)
	for i := 0; i < len(tok); i += 7 {
		flipped := byte('x')
		if tok[i] == 'x' {
			flipped = 'y'
		}
		bad := tok[:i] + string(flipped) + tok[i+1:]
		if bad == tok {
			continue
		}
		if _, ok := svc.Validate(bad); ok {
			t.Fatalf("tampered token accepted (flip at %d)", i)
		}
	}
}

func TestDecodeClaimsMalformedPayloads(t *testing.T) {
	svc := newTestTokenService()

	cases := []string{
		"",
		"1:4",                  // too few fields
		"1:4:123:extra",        // too many fields
		"a:4:9999999999",       // file id not numeric
		"1:b:9999999999",       // user id not numeric
		"1:4:not-a-timestamp",  // timestamp not numeric
		"2031-01-01:4:5",       // calendar date in the file id slot
	}
	for _, in := range cases {
		if _, ok := svc.decodeClaims(in); ok {
			t.Fatalf("expected decodeClaims(%q) to fail", in)
		}
	}
}

func TestDecodeClaimsFractionalTimestamp(t *testing.T) {
	svc := newTestTokenService()

	// Previously minted tokens embed sub-second precision.
	plaintext := "7:2:9999999999.123456"
	claims, ok := svc.decodeClaims(plaintext)
	if !ok {
		t.Fatalf("fractional timestamp rejected")
	}
	if claims.FileID != 7 || claims.UserID != 2 {
		t.Fatalf("claims mismatch: got (%d, %d)", claims.FileID, claims.UserID)
	}
}

func TestValidateOpaqueness(t *testing.T) {
	svc := newTestTokenService()

	tok := svc.Generate(42, 7, time.Hour)
	if strings.ContainsAny(tok, ":/+= ") {
		t.Fatalf("token is not URL-safe: %q", tok)
	}
}
