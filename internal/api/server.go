package api

import (
	"encoding/json"
	"net/http"

	"github.com/courtconnect/courtfinder/internal/config"
	"github.com/courtconnect/courtfinder/internal/database"
	"github.com/courtconnect/courtfinder/internal/email"
	"github.com/courtconnect/courtfinder/internal/session"
)

// Server is the main struct for the API. It holds all dependencies required
// by the HTTP handlers, such as the application configuration, the database
// service, and the session manager. Injecting them here keeps the handlers
// modular and easy to test.
type Server struct {
	config   *config.Config
	db       *database.Service
	sessions *session.Manager
	email    *email.EmailService
}

// NewServer is a constructor function that creates and returns a new instance
// of the Server, wiring in its dependencies.
func NewServer(cfg *config.Config, db *database.Service, sessions *session.Manager, email *email.EmailService) *Server {
	return &Server{
		config:   cfg,
		db:       db,
		sessions: sessions,
		email:    email,
	}
}

// envelope is a custom map type used for creating structured JSON responses,
// e.g. `envelope{"user": userObject}`.
type envelope map[string]interface{}

// writeJSON is a helper method for sending JSON responses. It marshals the
// data, sets the 'Content-Type' header, and writes the status code. This
// centralizes response logic so all JSON responses are consistent.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}, headers ...http.Header) {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		// If marshaling fails we can't trust our own JSON error format either,
		// so fall back to a plain text response.
		http.Error(w, "Internal Server Error: Failed to marshal JSON", http.StatusInternalServerError)
		return
	}

	if len(headers) > 0 {
		for key, value := range headers[0] {
			w.Header()[key] = value
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}

// errorJSON sends a standardized JSON error response of the shape
// `{"error": "message"}`. Defaults to a 500 if no status is provided.
func (s *Server) errorJSON(w http.ResponseWriter, err error, status ...int) {
	statusCode := http.StatusInternalServerError
	if len(status) > 0 {
		statusCode = status[0]
	}

	s.writeJSON(w, statusCode, envelope{"error": err.Error()})
}

// fieldErrorJSON sends a field-level validation or conflict response of the
// shape `{"errors": {field: message}}`, mirroring the registration and
// profile forms on the frontend.
func (s *Server) fieldErrorJSON(w http.ResponseWriter, status int, fields map[string]string) {
	s.writeJSON(w, status, envelope{"errors": fields})
}
