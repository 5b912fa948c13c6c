package api

import (
	"time"

	"github.com/courtconnect/courtfinder/internal/database"
)

// UserResponse is the DTO for a user's profile. The password hash never
// appears here by construction.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Bio       string    `json:"bio"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

// toUserResponse converts the internal database model into the public-facing
// UserResponse DTO.
func toUserResponse(user *database.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       user.Bio,
		Location:  user.Location,
		CreatedAt: user.CreatedAt,
	}
}

// CourtResponse is the DTO for a saved court. UserRating is a pointer so an
// unrated court serializes as `null` rather than 0, which the star widget on
// the frontend treats differently.
type CourtResponse struct {
	ID                int64     `json:"id"`
	CourtName         string    `json:"courtName"`
	GoogleMapsPlaceID string    `json:"googleMapsPlaceId"`
	Address           string    `json:"address"`
	GoogleMapsURL     string    `json:"googleMapsUrl"`
	UserRating        *float64  `json:"userRating"`
	CreatedAt         time.Time `json:"createdAt"`
}

// toCourtResponse converts the internal database model into the public-facing
// CourtResponse DTO.
func toCourtResponse(court *database.Court) CourtResponse {
	var rating *float64
	if court.UserRating.Valid {
		rating = &court.UserRating.Float64
	}

	return CourtResponse{
		ID:                court.ID,
		CourtName:         court.CourtName,
		GoogleMapsPlaceID: court.GoogleMapsPlaceID,
		Address:           court.Address,
		GoogleMapsURL:     court.GoogleMapsURL,
		UserRating:        rating,
		CreatedAt:         court.CreatedAt,
	}
}

// toCourtResponseList is a helper to convert a page of database courts.
func toCourtResponseList(courts []*database.Court) []CourtResponse {
	responseList := make([]CourtResponse, len(courts))
	for i, court := range courts {
		responseList[i] = toCourtResponse(court)
	}
	return responseList
}
