package api

import (
	"net/http"
)

// handleHealthz is a liveness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, envelope{"status": "ok"})
}

// handleMapsConfig hands the frontend its Google Maps browser key. The court
// search itself runs entirely client-side against the maps provider.
func (s *Server) handleMapsConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, envelope{"mapsBrowserKey": s.config.MapsBrowserKey})
}
