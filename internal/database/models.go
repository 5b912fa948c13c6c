package database

import (
	"database/sql"
	"time"
)

// User represents a record in the 'users' table.
// PasswordHash uses `sql.NullString` because Google sign-in users have no
// password; it is always omitted from JSON responses.
type User struct {
	ID           int64          `json:"id"`
	Username     string         `json:"username"`
	Email        string         `json:"email"`
	PasswordHash sql.NullString `json:"-"`
	FirstName    string         `json:"firstName"`
	LastName     string         `json:"lastName"`
	Bio          string         `json:"bio"`
	Location     string         `json:"location"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Court represents a record in the 'courts' table: one user's saved bookmark
// of a real-world basketball court found through the maps provider.
type Court struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"userId"`
	CourtName         string          `json:"courtName"`
	GoogleMapsPlaceID string          `json:"googleMapsPlaceId"`
	Address           string          `json:"address"`
	GoogleMapsURL     string          `json:"googleMapsUrl"`
	UserRating        sql.NullFloat64 `json:"-"` // Exposed via the API DTO as number-or-null
	CreatedAt         time.Time       `json:"createdAt"`
}

// Session represents a record in the 'sessions' table. The token is the only
// piece of state the client ever holds; everything else lives server-side.
type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}
