// Package session implements the server-side login session store. The client
// only ever holds an opaque random token in an HttpOnly cookie; the token maps
// to a row in the sessions table, so logout and account deletion revoke
// access immediately.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/courtconnect/courtfinder/internal/database"
)

// CookieName is the name of the session cookie.
const CookieName = "court_session"

// Manager issues, resolves, and revokes login sessions.
type Manager struct {
	db     *database.Service
	ttl    time.Duration
	secure bool
}

// NewManager creates a session manager. ttl bounds both the cookie lifetime
// and the server-side session row; secure controls the cookie's Secure flag.
func NewManager(db *database.Service, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		db:     db,
		ttl:    ttl,
		secure: secure,
	}
}

// newToken generates 256 bits of entropy as a hex string. The token is the
// session's only identifier, so it must be unguessable.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Issue records a new session for the user and returns its token. It must be
// called within a write transaction so a failed login leaves no session row.
// Expired sessions are swept in the same transaction, so the table never
// accumulates dead rows past the next login.
func (m *Manager) Issue(tx database.DBorTx, userID int64) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if err := m.db.DeleteExpiredSessions(tx, time.Now()); err != nil {
		return "", err
	}
	if err := m.db.CreateSession(tx, token, userID, time.Now().Add(m.ttl)); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve maps a token to its current user. A missing, expired, or orphaned
// session resolves to (nil, nil): the caller treats it as anonymous, never
// as a failure.
func (m *Manager) Resolve(db database.DBorTx, token string) (*database.User, error) {
	if token == "" {
		return nil, nil
	}
	user, err := m.db.GetUserBySessionToken(db, token, time.Now())
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Revoke deletes the session row. Revoking an unknown or already-revoked
// token is a no-op, which keeps logout idempotent.
func (m *Manager) Revoke(tx database.DBorTx, token string) error {
	if token == "" {
		return nil
	}
	return m.db.DeleteSession(tx, token)
}

// TokenFromRequest extracts the session token from the request cookie.
// Returns "" for anonymous requests.
func (m *Manager) TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetCookie attaches the session cookie to the response. HttpOnly keeps it
// away from client-side scripts; SameSite=Lax blocks cross-site POSTs from
// riding the session.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on the client.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
