package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testAuthConfig() AuthConfig {
	return AuthConfig{
		SessionSecret: "test-session-secret",
		SessionTTL:    time.Hour,
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	a := testAuthConfig()

	tok, exp, err := a.makeToken(42, roleClient)
	if err != nil {
		t.Fatalf("makeToken error: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", exp)
	}

	p, err := a.verifyToken(tok)
	if err != nil {
		t.Fatalf("verifyToken error: %v", err)
	}
	if p.Sub != 42 || p.Role != roleClient {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestSessionTokenTampered(t *testing.T) {
	a := testAuthConfig()

	tok, _, err := a.makeToken(42, roleOps)
	if err != nil {
		t.Fatalf("makeToken error: %v", err)
	}

	dot := strings.IndexByte(tok, '.')
	bad := tok[:dot] + ".deadbeef"
	if _, err := a.verifyToken(bad); err == nil {
		t.Fatalf("expected tampered session to be rejected")
	}
}

func TestSessionTokenWrongSecret(t *testing.T) {
	a := testAuthConfig()
	b := AuthConfig{SessionSecret: "other-secret", SessionTTL: time.Hour}

	tok, _, err := a.makeToken(42, roleClient)
	if err != nil {
		t.Fatalf("makeToken error: %v", err)
	}
	if _, err := b.verifyToken(tok); err == nil {
		t.Fatalf("expected cross-secret session to be rejected")
	}
}

func TestRequireRole(t *testing.T) {
	a := testAuthConfig()

	handler := a.requireRole(roleOps, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// No cookie at all.
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ops/upload", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no cookie: got %d want 401", rr.Code)
	}

	// Valid session, wrong role.
	clientTok, _, err := a.makeToken(7, roleClient)
	if err != nil {
		t.Fatalf("makeToken error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/ops/upload", nil)
	req.AddCookie(&http.Cookie{Name: a.cookieName(), Value: clientTok})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("wrong role: got %d want 403", rr.Code)
	}

	// Right role.
	opsTok, _, err := a.makeToken(8, roleOps)
	if err != nil {
		t.Fatalf("makeToken error: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/ops/upload", nil)
	req.AddCookie(&http.Cookie{Name: a.cookieName(), Value: opsTok})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("right role: got %d want 204", rr.Code)
	}
}
