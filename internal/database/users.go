package database

import (
	"database/sql"
)

// DBorTx is an interface that allows functions to accept either a `*sql.DB` for single queries
// or a `*sql.Tx` for operations within a transaction. This promotes code reuse.
type DBorTx interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

const userColumns = `id, username, email, password_hash, first_name, last_name, bio, location, created_at`

func scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Bio,
		&user.Location,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err // Returns sql.ErrNoRows if not found
	}
	return user, nil
}

// CreateUser inserts a new user row. An empty password hash is stored as NULL
// for Google sign-in users. Unique constraint violations on username or email
// come back as ErrDuplicateUsername / ErrDuplicateEmail.
func (s *Service) CreateUser(db DBorTx, username, email, passwordHash, firstName, lastName, bio, location string) (*User, error) {
	var hash interface{} = passwordHash
	if passwordHash == "" {
		hash = nil
	}
	query := `INSERT INTO users (username, email, password_hash, first_name, last_name, bio, location) VALUES (?, ?, ?, ?, ?, ?, ?);`
	res, err := db.Exec(query, username, email, hash, firstName, lastName, bio, location)
	if err != nil {
		return nil, translateConstraintErr(err)
	}
	id, _ := res.LastInsertId()
	return s.GetUserByID(db, id)
}

func (s *Service) GetUserByID(db DBorTx, id int64) (*User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?;`, id))
}

func (s *Service) GetUserByUsername(db DBorTx, username string) (*User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?;`, username))
}

func (s *Service) GetUserByEmail(db DBorTx, email string) (*User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?;`, email))
}

// UpdateUserProfile rewrites the mutable profile fields. The username is
// immutable after creation and is deliberately absent here.
func (s *Service) UpdateUserProfile(db DBorTx, userID int64, email, firstName, lastName, bio, location string) error {
	query := `UPDATE users SET email = ?, first_name = ?, last_name = ?, bio = ?, location = ? WHERE id = ?;`
	res, err := db.Exec(query, email, firstName, lastName, bio, location, userID)
	if err != nil {
		return translateConstraintErr(err)
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserPassword replaces the stored password hash.
func (s *Service) UpdateUserPassword(db DBorTx, userID int64, passwordHash string) error {
	res, err := db.Exec(`UPDATE users SET password_hash = ? WHERE id = ?;`, passwordHash, userID)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user. The schema cascades the delete to the user's
// courts and sessions, so no orphans survive.
func (s *Service) DeleteUser(db DBorTx, userID int64) error {
	res, err := db.Exec(`DELETE FROM users WHERE id = ?;`, userID)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
