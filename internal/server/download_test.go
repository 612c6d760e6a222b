package server

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestRedeemTokenSuccess(t *testing.T) {
	svc := newTestTokenService()
	store := newMemTokenStore()
	ctx := context.Background()

	tok := svc.Generate(1, 4, time.Hour)
	if err := store.Create(ctx, tok, 1, 4, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	grant, status, msg := redeemToken(ctx, svc, store, tok)
	if status != 0 {
		t.Fatalf("expected success, got status=%d msg=%q", status, msg)
	}
	if grant.FileID != 1 || grant.UserID != 4 {
		t.Fatalf("unexpected grant: %+v", grant)
	}
}

func TestRedeemTokenForged(t *testing.T) {
	svc := newTestTokenService()
	store := newMemTokenStore()

	_, status, msg := redeemToken(context.Background(), svc, store, "not-a-real-token")
	if status != http.StatusUnauthorized || msg != msgTokenInvalid {
		t.Fatalf("got status=%d msg=%q, want 401 %q", status, msg, msgTokenInvalid)
	}
}

func TestRedeemTokenExpired(t *testing.T) {
	svc := newTestTokenService()
	store := newMemTokenStore()
	ctx := context.Background()

	tok := svc.Generate(1, 4, -1*time.Second)
	_ = store.Create(ctx, tok, 1, 4, time.Now().Add(time.Hour))

	// Expired and forged must be indistinguishable.
	_, status, msg := redeemToken(ctx, svc, store, tok)
	if status != http.StatusUnauthorized || msg != msgTokenInvalid {
		t.Fatalf("got status=%d msg=%q, want 401 %q", status, msg, msgTokenInvalid)
	}
}

func TestRedeemTokenUnknownRecord(t *testing.T) {
	svc := newTestTokenService()
	store := newMemTokenStore()

	// Cryptographically valid token that was never persisted.
	tok := svc.Generate(1, 4, time.Hour)

	_, status, msg := redeemToken(context.Background(), svc, store, tok)
	if status != http.StatusUnauthorized || msg != msgTokenSpent {
		t.Fatalf("got status=%d msg=%q, want 401 %q", status, msg, msgTokenSpent)
	}
}

func TestRedeemTokenReplay(t *testing.T) {
	svc := newTestTokenService()
	store := newMemTokenStore()
	ctx := context.Background()

	tok := svc.Generate(1, 4, time.Hour)
	_ = store.Create(ctx, tok, 1, 4, time.Now().Add(time.Hour))

	if _, status, _ := redeemToken(ctx, svc, store, tok); status != 0 {
		t.Fatalf("first redemption should succeed, got status=%d", status)
	}

	// Replays look exactly like never-issued tokens, not like a crash.
	_, status, msg := redeemToken(ctx, svc, store, tok)
	if status != http.StatusUnauthorized || msg != msgTokenSpent {
		t.Fatalf("got status=%d msg=%q, want 401 %q", status, msg, msgTokenSpent)
	}
}

func TestRedeemTokenRecordMismatch(t *testing.T) {
	svc := newTestTokenService()
	store := newMemTokenStore()
	ctx := context.Background()

	// Simulated corruption: the stored record disagrees with the
	// decoded identity even though decryption and expiry pass.
	tok := svc.Generate(1, 4, time.Hour)
	_ = store.Create(ctx, tok, 99, 4, time.Now().Add(time.Hour))

	_, status, msg := redeemToken(ctx, svc, store, tok)
	if status != http.StatusUnauthorized || msg != msgTokenMismatch {
		t.Fatalf("got status=%d msg=%q, want 401 %q", status, msg, msgTokenMismatch)
	}
}

func TestRedeemTokenScenario(t *testing.T) {
	// Mint for file 1 / user 4 with the default 24h TTL, validate
	// immediately, redeem once, then watch the replay bounce.
	svc := newTestTokenService()
	store := newMemTokenStore()
	ctx := context.Background()

	tok := svc.Generate(1, 4, 0)
	if err := store.Create(ctx, tok, 1, 4, time.Now().Add(DefaultDownloadTTL)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if claims, ok := svc.Validate(tok); !ok || claims.FileID != 1 || claims.UserID != 4 {
		t.Fatalf("immediate Validate failed: ok=%v claims=%+v", ok, claims)
	}

	grant, status, _ := redeemToken(ctx, svc, store, tok)
	if status != 0 || grant.FileID != 1 {
		t.Fatalf("redemption failed: status=%d grant=%+v", status, grant)
	}

	_, status, msg := redeemToken(ctx, svc, store, tok)
	if status != http.StatusUnauthorized || msg != msgTokenSpent {
		t.Fatalf("second redemption: got status=%d msg=%q", status, msg)
	}
}
