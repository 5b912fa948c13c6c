package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/courtconnect/courtfinder/internal/database"

	"github.com/go-chi/chi/v5"
)

// savedCourtsPageSize is how many courts a single listing page carries.
const savedCourtsPageSize = 15

// --- Structs for JSON Payloads ---

// saveCourtPayload is the JSON body the map search page posts when the user
// bookmarks a court.
type saveCourtPayload struct {
	CourtName         string `json:"court_name"`
	GoogleMapsPlaceID string `json:"google_maps_place_id"`
	Address           string `json:"address"`
	GoogleMapsURL     string `json:"google_maps_url"`
}

// removeCourtPayload uses json.Number because the frontend reads the court id
// off a DOM dataset and posts it as a string.
type removeCourtPayload struct {
	CourtID json.Number `json:"court_id"`
}

type updateRatingPayload struct {
	CourtID json.Number `json:"court_id"`
	Rating  float64     `json:"rating"`
}

// --- HTTP Handlers ---

// handleSavedCourts serves one page of the caller's saved courts, newest
// first. Pages are 1-based; a page past the end is an empty list, not an
// error.
func (s *Server) handleSavedCourts(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireSelf(w, r, chi.URLParam(r, "username"))
	if !ok {
		return
	}

	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 1 {
			s.errorJSON(w, errors.New("invalid page number"), http.StatusBadRequest)
			return
		}
		page = parsed
	}

	courts, err := s.db.ListCourts(s.db.DB(), user.ID, page, savedCourtsPageSize)
	if err != nil {
		log.Printf("ERROR: listing courts for user %d: %v", user.ID, err)
		s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	total, err := s.db.CountCourts(s.db.DB(), user.ID)
	if err != nil {
		log.Printf("ERROR: counting courts for user %d: %v", user.ID, err)
		s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{
		"courts":      toCourtResponseList(courts),
		"page":        page,
		"pageSize":    savedCourtsPageSize,
		"totalCourts": total,
	})
}

// handleSaveCourt bookmarks a court from the map search for the current user.
// Saving the same place twice is a conflict; another user saving the same
// place is fine.
func (s *Server) handleSaveCourt(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var payload saveCourtPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("bad request: could not decode JSON"), http.StatusBadRequest)
		return
	}

	var missing []string
	for field, value := range map[string]string{
		"court_name":           payload.CourtName,
		"google_maps_place_id": payload.GoogleMapsPlaceID,
		"address":              payload.Address,
		"google_maps_url":      payload.GoogleMapsURL,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		s.errorJSON(w, errors.New("missing required fields: "+strings.Join(missing, ", ")), http.StatusBadRequest)
		return
	}

	var newCourt *database.Court
	err := s.db.Write(func(tx *sql.Tx) error {
		var txErr error
		newCourt, txErr = s.db.SaveCourt(tx, user.ID, payload.CourtName, payload.GoogleMapsPlaceID, payload.Address, payload.GoogleMapsURL)
		return txErr
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicatePlace) {
			s.errorJSON(w, errors.New("You have already saved this court"), http.StatusConflict)
			return
		}
		log.Printf("ERROR: saving court for user %d: %v", user.ID, err)
		s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusCreated, envelope{
		"message": "Court saved successfully",
		"id":      newCourt.ID,
	})
}

// courtOwnedBy loads a court inside the transaction and verifies ownership
// strictly before any mutation.
func (s *Server) courtOwnedBy(tx *sql.Tx, courtID, userID int64) (*database.Court, error) {
	court, err := s.db.GetCourtByID(tx, courtID)
	if err != nil {
		return nil, err
	}
	if court.UserID != userID {
		return nil, database.ErrNotOwner
	}
	return court, nil
}

// writeCourtError maps the court taxonomy onto HTTP statuses. The 403 for a
// foreign court intentionally carries no detail about that court.
func (s *Server) writeCourtError(w http.ResponseWriter, userID int64, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.errorJSON(w, errors.New("court not found"), http.StatusNotFound)
	case errors.Is(err, database.ErrNotOwner):
		log.Printf("WARN: user %d attempted to modify another user's court", userID)
		s.errorJSON(w, errors.New("you do not have permission to modify this court"), http.StatusForbidden)
	case errors.Is(err, database.ErrInvalidRating):
		s.errorJSON(w, database.ErrInvalidRating, http.StatusBadRequest)
	default:
		log.Printf("ERROR: court operation for user %d: %v", userID, err)
		s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
	}
}

// handleRemoveCourt deletes one of the caller's saved courts. Deletion is
// immediate and irreversible.
func (s *Server) handleRemoveCourt(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var payload removeCourtPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("bad request: could not decode JSON"), http.StatusBadRequest)
		return
	}
	courtID, err := payload.CourtID.Int64()
	if err != nil {
		s.errorJSON(w, errors.New("invalid court_id"), http.StatusBadRequest)
		return
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		if _, txErr := s.courtOwnedBy(tx, courtID, user.ID); txErr != nil {
			return txErr
		}
		return s.db.DeleteCourt(tx, courtID)
	})
	if err != nil {
		s.writeCourtError(w, user.ID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"message": "Court successfully deleted"})
}

// handleUpdateCourtRating sets the caller's star rating on one of their
// saved courts. The [0, 5] range is checked here and again by the schema.
func (s *Server) handleUpdateCourtRating(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var payload updateRatingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("bad request: could not decode JSON"), http.StatusBadRequest)
		return
	}
	courtID, err := payload.CourtID.Int64()
	if err != nil {
		s.errorJSON(w, errors.New("invalid court_id"), http.StatusBadRequest)
		return
	}
	if payload.Rating < 0 || payload.Rating > 5 {
		s.errorJSON(w, database.ErrInvalidRating, http.StatusBadRequest)
		return
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		if _, txErr := s.courtOwnedBy(tx, courtID, user.ID); txErr != nil {
			return txErr
		}
		return s.db.UpdateCourtRating(tx, courtID, payload.Rating)
	})
	if err != nil {
		s.writeCourtError(w, user.ID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"message": "Rating updated successfully"})
}
