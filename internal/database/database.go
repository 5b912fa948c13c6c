package database

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite" // The pure Go SQLite driver
)

// Service is the central struct for managing all database interactions.
// It holds the single application database and ensures thread-safe writes.
type Service struct {
	dbPath string

	db        *sql.DB
	writeLock sync.Mutex // Serializes write transactions; SQLite allows one writer at a time
}

// NewService creates and initializes a new database service.
// It opens the database connection and prepares the service for use.
func NewService(dbPath string) (*Service, error) {
	// `_pragma=foreign_keys(1)` enables foreign key enforcement on every
	// connection in the pool; the users->courts and users->sessions cascades
	// depend on it.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", dbPath, err)
	}

	// Ping the database to ensure the connection is alive.
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", dbPath, err)
	}

	return &Service{
		dbPath: dbPath,
		db:     db,
	}, nil
}

// Write executes a write operation (INSERT, UPDATE, DELETE) on the database
// within a transaction, protected by a mutex to ensure serial access.
// If writeFunc returns an error the transaction is rolled back in full,
// leaving storage as if the operation never started.
func (s *Service) Write(writeFunc func(tx *sql.Tx) error) error {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := writeFunc(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// DB provides a direct connection for read-only queries.
func (s *Service) DB() *sql.DB {
	return s.db
}

// Close safely closes the database connection when the application shuts down.
func (s *Service) Close() {
	s.db.Close()
	log.Println("Database connection closed.")
}

// InitSchema sets up the schema if the tables don't exist.
// This is idempotent and safe to run on every application start.
func (s *Service) InitSchema() error {
	// Use the Write function to ensure this is thread-safe on first run.
	return s.Write(func(tx *sql.Tx) error {
		// Users table. Username and email uniqueness is enforced here, at the
		// storage layer, not just in application code.
		_, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT,
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL,
				bio TEXT NOT NULL DEFAULT '',
				location TEXT NOT NULL DEFAULT '',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);`)
		if err != nil {
			return err
		}

		// Courts table: a user's saved bookmark of an external place.
		// The place id is unique per user, so two different people can save
		// the same real-world court. The CHECK keeps ratings in [0, 5] even
		// for writes that bypass handler validation.
		_, err = tx.Exec(`
			CREATE TABLE IF NOT EXISTS courts (
				id INTEGER PRIMARY KEY,
				user_id INTEGER NOT NULL,
				court_name TEXT NOT NULL,
				google_maps_place_id TEXT NOT NULL,
				address TEXT NOT NULL,
				google_maps_url TEXT NOT NULL,
				user_rating REAL CONSTRAINT rating_range CHECK (user_rating >= 0 AND user_rating <= 5),
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (user_id, google_maps_place_id),
				FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
			);`)
		if err != nil {
			return err
		}

		// Sessions table: one row per logged-in browser. Deleting a user
		// cascades here too, so their sessions die with the account.
		_, err = tx.Exec(`
			CREATE TABLE IF NOT EXISTS sessions (
				token TEXT PRIMARY KEY,
				user_id INTEGER NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				expires_at DATETIME NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
			);`)
		return err
	})
}
