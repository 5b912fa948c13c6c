package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"strings"

	"github.com/courtconnect/courtfinder/internal/database"

	"github.com/go-chi/chi/v5"
)

// handleUserProfile serves a user's own profile page data. The requireSelf
// guard means this never exposes anyone else's profile, and never confirms
// whether another username exists.
func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireSelf(w, r, chi.URLParam(r, "username"))
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"user": toUserResponse(user)})
}

// handleEditProfileForm serves the current profile values to prefill the edit
// form.
func (s *Server) handleEditProfileForm(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireSelf(w, r, chi.URLParam(r, "username"))
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"user": toUserResponse(user)})
}

// handleEditProfile updates the caller's own profile. The username itself is
// immutable; everything else on the form can change.
func (s *Server) handleEditProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireSelf(w, r, chi.URLParam(r, "username"))
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		s.errorJSON(w, errors.New("bad request: could not parse form"), http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	firstName := strings.TrimSpace(r.PostFormValue("first_name"))
	lastName := strings.TrimSpace(r.PostFormValue("last_name"))
	bio := r.PostFormValue("bio")
	location := r.PostFormValue("location")

	fieldErrors := map[string]string{}
	if _, err := mail.ParseAddress(email); err != nil {
		fieldErrors["email"] = "a valid email address is required"
	}
	if firstName == "" || len(firstName) > maxNameLen {
		fieldErrors["first_name"] = fmt.Sprintf("first name is required and must be at most %d characters", maxNameLen)
	}
	if lastName == "" || len(lastName) > maxNameLen {
		fieldErrors["last_name"] = fmt.Sprintf("last name is required and must be at most %d characters", maxNameLen)
	}
	if len(fieldErrors) > 0 {
		s.fieldErrorJSON(w, http.StatusBadRequest, fieldErrors)
		return
	}

	err := s.db.Write(func(tx *sql.Tx) error {
		return s.db.UpdateUserProfile(tx, user.ID, email, firstName, lastName, bio, location)
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			s.fieldErrorJSON(w, http.StatusConflict, map[string]string{
				"email": "Hold up Player! Another person is using this email address already. Try again please!",
			})
			return
		}
		log.Printf("ERROR: updating profile for user %d: %v", user.ID, err)
		s.errorJSON(w, errors.New("failed to update profile"), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/users/"+user.Username+"/user_profile", http.StatusSeeOther)
}

// handleDeleteAccount removes the caller's own account. The schema cascades
// to their saved courts and sessions, so nothing of theirs survives.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireSelf(w, r, chi.URLParam(r, "username"))
	if !ok {
		return
	}

	err := s.db.Write(func(tx *sql.Tx) error {
		return s.db.DeleteUser(tx, user.ID)
	})
	if err != nil {
		log.Printf("ERROR: deleting user %d: %v", user.ID, err)
		s.errorJSON(w, errors.New("failed to delete account"), http.StatusInternalServerError)
		return
	}

	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
