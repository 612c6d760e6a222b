// auth.go - session cookies and role-scoped login.
//
// HMAC-signed cookie sessions carrying the user id and role ("ops" or
// "client"), verified against the users table with bcrypt.
package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	roleOps    = "ops"
	roleClient = "client"
)

// AuthConfig holds session settings and the DB used to authenticate
// users. Unit tests can construct this directly with a nil DB.
type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	CookieName    string
	DB            *sql.DB
}

type sessionPayload struct {
	Sub  int64  `json:"sub"`
	Role string `json:"role"`
	Exp  int64  `json:"exp"`
}

func (a AuthConfig) cookieName() string {
	if a.CookieName == "" {
		return "sds_session"
	}
	return a.CookieName
}

func (a AuthConfig) ttl() time.Duration {
	if a.SessionTTL <= 0 {
		return 12 * time.Hour
	}
	return a.SessionTTL
}

func signPayload(secret []byte, msg string) string {
	m := hmac.New(sha256.New, secret)
	_, _ = m.Write([]byte(msg))
	return hex.EncodeToString(m.Sum(nil))
}

// makeToken returns "payload.signature" plus the session expiry.
func (a AuthConfig) makeToken(sub int64, role string) (string, time.Time, error) {
	exp := time.Now().Add(a.ttl())
	b, err := json.Marshal(sessionPayload{Sub: sub, Role: role, Exp: exp.Unix()})
	if err != nil {
		return "", time.Time{}, err
	}
	payload := base64.RawURLEncoding.EncodeToString(b)
	sig := signPayload([]byte(a.SessionSecret), payload)
	return payload + "." + sig, exp, nil
}

func (a AuthConfig) verifyToken(tok string) (sessionPayload, error) {
	var p sessionPayload
	parts := strings.Split(tok, ".")
	if len(parts) != 2 {
		return p, errors.New("invalid token format")
	}
	want := signPayload([]byte(a.SessionSecret), parts[0])
	if !hmac.Equal([]byte(parts[1]), []byte(want)) {
		return p, errors.New("invalid signature")
	}
	b, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, err
	}
	if p.Exp <= time.Now().Unix() {
		return sessionPayload{}, errors.New("expired")
	}
	return p, nil
}

// loginHandler authenticates a user of the given role by email and
// password and issues a session cookie. Wrong email, wrong password and
// wrong role all produce the same 401.
func (a AuthConfig) loginHandler(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Email == "" || body.Password == "" {
			http.Error(w, "email and password are required", http.StatusBadRequest)
			return
		}

		var (
			userID       int64
			passwordHash string
			isVerified   bool
		)
		err := a.DB.QueryRowContext(r.Context(), `
			SELECT id, password_hash, is_verified
			FROM users
			WHERE email = $1 AND user_type = $2
		`, body.Email, role).Scan(&userID, &passwordHash, &isVerified)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			log.Printf("service=auth msg=%q err=%v", "login_query_failed", err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		if role == roleClient && !isVerified {
			http.Error(w, "please verify your email before logging in", http.StatusUnauthorized)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(body.Password)) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		tok, exp, err := a.makeToken(userID, role)
		if err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     a.cookieName(),
			Value:    tok,
			Path:     "/",
			Expires:  exp,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user_type": role,
			"message":   "login successful",
		})
	}
}

// requireRole admits only sessions carrying the given role.
func (a AuthConfig) requireRole(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := a.sessionFrom(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if p.Role != role {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser returns the session payload for the request, or an error
// when there is no valid session cookie.
func (a AuthConfig) currentUser(r *http.Request) (sessionPayload, error) {
	return a.sessionFrom(r)
}

func (a AuthConfig) sessionFrom(r *http.Request) (sessionPayload, error) {
	c, err := r.Cookie(a.cookieName())
	if err != nil {
		return sessionPayload{}, errors.New("no session cookie")
	}
	return a.verifyToken(c.Value)
}
