// Package auth protects the dashboard with an optional password and
// API key. With neither configured every request passes through, which
// is the normal localhost setup.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/crypto/bcrypt"
)

const sessionKey = "authenticated"

// HashPassword hashes a password for the password_hash config field.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Manager implements login, logout and the request guard.
type Manager struct {
	passwordHash string
	apiKey       string
	sessions     *scs.SessionManager
}

func New(passwordHash, apiKey string, sessions *scs.SessionManager) *Manager {
	return &Manager{
		passwordHash: passwordHash,
		apiKey:       apiKey,
		sessions:     sessions,
	}
}

// Enabled reports whether any credential is configured.
func (m *Manager) Enabled() bool {
	return m.passwordHash != "" || m.apiKey != ""
}

func (m *Manager) checkPassword(password string) bool {
	if m.passwordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(m.passwordHash), []byte(password)) == nil
}

func (m *Manager) checkAPIKey(r *http.Request) bool {
	if m.apiKey == "" {
		return false
	}

	key := r.Header.Get("X-API-Key")
	if key == "" {
		if bearer := r.Header.Get("Authorization"); strings.HasPrefix(bearer, "Bearer ") {
			key = strings.TrimPrefix(bearer, "Bearer ")
		}
	}
	if key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}

// Login handles POST /api/login with a {"password": "..."} body.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if m.passwordHash == "" {
		respond(w, http.StatusNotFound, map[string]string{"error": "password login is not configured"})
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !m.checkPassword(body.Password) {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "invalid password"})
		return
	}

	// New token on privilege change.
	if err := m.sessions.RenewToken(r.Context()); err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": "session error"})
		return
	}
	m.sessions.Put(r.Context(), sessionKey, true)
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Logout destroys the current session.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	if err := m.sessions.Destroy(r.Context()); err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": "session error"})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Require guards a handler. Requests pass with a logged-in session, a
// valid API key, or when auth is not configured at all.
func (m *Manager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() || m.sessions.GetBool(r.Context(), sessionKey) || m.checkAPIKey(r) {
			next.ServeHTTP(w, r)
			return
		}
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	})
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
