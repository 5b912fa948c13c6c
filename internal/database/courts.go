package database

import (
	"database/sql"
	"errors"
)

const courtColumns = `id, user_id, court_name, google_maps_place_id, address, google_maps_url, user_rating, created_at`

func scanCourt(row *sql.Row) (*Court, error) {
	court := &Court{}
	err := row.Scan(
		&court.ID,
		&court.UserID,
		&court.CourtName,
		&court.GoogleMapsPlaceID,
		&court.Address,
		&court.GoogleMapsURL,
		&court.UserRating,
		&court.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return court, nil
}

// SaveCourt inserts a new saved-court record owned by the given user.
// Saving a place the user already has comes back as ErrDuplicatePlace; the
// same place saved by a different user is fine.
func (s *Service) SaveCourt(db DBorTx, userID int64, courtName, placeID, address, mapsURL string) (*Court, error) {
	query := `INSERT INTO courts (user_id, court_name, google_maps_place_id, address, google_maps_url) VALUES (?, ?, ?, ?, ?);`
	res, err := db.Exec(query, userID, courtName, placeID, address, mapsURL)
	if err != nil {
		return nil, translateConstraintErr(err)
	}
	id, _ := res.LastInsertId()
	return s.GetCourtByID(db, id)
}

// GetCourtByID fetches a single court regardless of owner. Callers decide
// whether the requester is allowed to see it.
func (s *Service) GetCourtByID(db DBorTx, id int64) (*Court, error) {
	return scanCourt(db.QueryRow(`SELECT `+courtColumns+` FROM courts WHERE id = ?;`, id))
}

// ListCourts returns one page of the user's saved courts, newest first.
// Pages are 1-based; a page past the end yields an empty slice, not an error.
func (s *Service) ListCourts(db DBorTx, userID int64, page, pageSize int) ([]*Court, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := `SELECT ` + courtColumns + ` FROM courts WHERE user_id = ? ORDER BY id DESC LIMIT ? OFFSET ?;`
	rows, err := db.Query(query, userID, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courts := []*Court{}
	for rows.Next() {
		court := &Court{}
		if err := rows.Scan(
			&court.ID,
			&court.UserID,
			&court.CourtName,
			&court.GoogleMapsPlaceID,
			&court.Address,
			&court.GoogleMapsURL,
			&court.UserRating,
			&court.CreatedAt,
		); err != nil {
			return nil, err
		}
		courts = append(courts, court)
	}
	return courts, rows.Err()
}

// CountCourts returns how many courts the user has saved in total.
func (s *Service) CountCourts(db DBorTx, userID int64) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM courts WHERE user_id = ?;`, userID).Scan(&count)
	return count, err
}

// UpdateCourtRating persists a new rating for a court. The [0, 5] range is
// also enforced by the schema CHECK, which surfaces as ErrInvalidRating.
func (s *Service) UpdateCourtRating(db DBorTx, courtID int64, rating float64) error {
	res, err := db.Exec(`UPDATE courts SET user_rating = ? WHERE id = ?;`, rating, courtID)
	if err != nil {
		return translateConstraintErr(err)
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCourt removes a saved court permanently. No soft delete.
func (s *Service) DeleteCourt(db DBorTx, courtID int64) error {
	res, err := db.Exec(`DELETE FROM courts WHERE id = ?;`, courtID)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
