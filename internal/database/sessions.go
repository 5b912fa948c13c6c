package database

import (
	"database/sql"
	"errors"
	"time"
)

// CreateSession records a new login session for the user.
func (s *Service) CreateSession(db DBorTx, token string, userID int64, expiresAt time.Time) error {
	query := `INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?);`
	_, err := db.Exec(query, token, userID, expiresAt.UTC())
	return err
}

// GetUserBySessionToken resolves a session token to its user in one query.
// Unknown tokens, expired sessions, and sessions whose user has been deleted
// all return ErrNotFound; the caller treats that as anonymous.
func (s *Service) GetUserBySessionToken(db DBorTx, token string, now time.Time) (*User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name, u.bio, u.location, u.created_at
		FROM users u
		JOIN sessions s ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?;`

	user, err := scanUser(db.QueryRow(query, token, now.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

// DeleteSession removes a session row. Deleting a token that does not exist
// is a no-op, which makes logout idempotent.
func (s *Service) DeleteSession(db DBorTx, token string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE token = ?;`, token)
	return err
}

// DeleteSessionsForUser revokes every session the user holds, on any device.
// Used after a password reset so a stolen session dies with the old password.
func (s *Service) DeleteSessionsForUser(db DBorTx, userID int64) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE user_id = ?;`, userID)
	return err
}

// DeleteExpiredSessions clears out sessions past their expiry. Called
// whenever a new session is issued; correctness never depends on it because
// resolution checks expiry itself.
func (s *Service) DeleteExpiredSessions(db DBorTx, now time.Time) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE expires_at <= ?;`, now.UTC())
	return err
}
