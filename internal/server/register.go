// register.go - client signup and email verification.
package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type signupReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// validatePassword checks minimum strength requirements.
func validatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "password must be at least 8 characters long"
	}
	if len(password) > 128 {
		return false, "password must be less than 128 characters"
	}
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)
	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	if !hasNumber || !hasLetter {
		return false, "password must contain both letters and numbers"
	}
	return true, ""
}

// generateVerificationToken creates a random hex token for email
// verification links. Unlike download tokens this carries no payload;
// the users table is the only authority on it.
func generateVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// clientSignupHandler handles POST /auth/client/signup. New accounts are
// always clients; ops users are provisioned out of band.
func (cfg Config) clientSignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req signupReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		req.Password = strings.TrimSpace(req.Password)

		if !validateEmail(req.Email) {
			http.Error(w, "invalid email address", http.StatusBadRequest)
			return
		}
		if ok, msg := validatePassword(req.Password); !ok {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		var exists bool
		err := cfg.DB.QueryRowContext(r.Context(),
			`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, req.Email,
		).Scan(&exists)
		if err != nil {
			log.Printf("service=signup msg=%q err=%v", "exists_check_failed", err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if exists {
			http.Error(w, "user already exists", http.StatusConflict)
			return
		}

		passwordHash, err := hashPassword(req.Password)
		if err != nil {
			log.Printf("service=signup msg=%q err=%v", "hash_failed", err)
			http.Error(w, "failed to process password", http.StatusInternalServerError)
			return
		}

		verificationToken, err := generateVerificationToken()
		if err != nil {
			http.Error(w, "failed to generate verification token", http.StatusInternalServerError)
			return
		}

		_, err = cfg.DB.ExecContext(r.Context(), `
			INSERT INTO users (email, password_hash, user_type, is_verified, verification_token, created_at)
			VALUES ($1, $2, $3, FALSE, $4, $5)
		`, req.Email, passwordHash, roleClient, verificationToken, time.Now().UTC())
		if err != nil {
			log.Printf("service=signup msg=%q err=%v", "insert_failed", err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		if err := cfg.Email.SendVerificationEmail(req.Email, cfg.absoluteURL(r, "/verify?token="+verificationToken)); err != nil {
			// Account exists either way; the user can ask for a resend.
			log.Printf("service=signup msg=%q email=%s err=%v", "verification_email_failed", req.Email, err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "user created, check your email for verification",
		})
	}
}

// verifyEmailHandler handles POST /auth/client/verify-email with a JSON
// body {"token": "..."}. The token is cleared on success so it cannot be
// replayed.
func (cfg Config) verifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
			http.Error(w, "verification token is required", http.StatusBadRequest)
			return
		}

		res, err := cfg.DB.ExecContext(r.Context(), `
			UPDATE users
			SET is_verified = TRUE, verification_token = NULL
			WHERE verification_token = $1 AND user_type = $2
		`, body.Token, roleClient)
		if err != nil {
			log.Printf("service=signup msg=%q err=%v", "verify_update_failed", err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		n, err := res.RowsAffected()
		if err != nil || n == 0 {
			http.Error(w, "invalid verification token", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "email verified successfully",
		})
	}
}

// hashPassword generates a bcrypt hash at cost 12.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
