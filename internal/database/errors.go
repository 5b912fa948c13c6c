package database

import (
	"errors"
	"strings"
)

// Sentinel errors form the storage-layer error taxonomy. Handlers translate
// these into HTTP statuses; raw driver errors never cross the package boundary
// for constraint violations.
var (
	// ErrDuplicateUsername means another user already claimed the username.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrDuplicateEmail means another user already registered the email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicatePlace means this user already saved this place.
	ErrDuplicatePlace = errors.New("court already saved")
	// ErrInvalidRating means a rating outside [0, 5] reached the database.
	ErrInvalidRating = errors.New("rating must be between 0 and 5")
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotOwner means the record exists but belongs to another user.
	ErrNotOwner = errors.New("record owned by another user")
)

// translateConstraintErr maps SQLite constraint violations onto the sentinel
// taxonomy. The driver reports violations as plain errors whose message names
// the failed constraint, so matching on those names is the reliable signal.
// Errors that are not recognized constraint failures pass through unchanged.
func translateConstraintErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: users.username"):
		return ErrDuplicateUsername
	case strings.Contains(msg, "UNIQUE constraint failed: users.email"):
		return ErrDuplicateEmail
	case strings.Contains(msg, "UNIQUE constraint failed: courts.user_id, courts.google_maps_place_id"):
		return ErrDuplicatePlace
	case strings.Contains(msg, "CHECK constraint failed: rating_range"):
		return ErrInvalidRating
	}
	return err
}
