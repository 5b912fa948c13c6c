package api

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/courtconnect/courtfinder/internal/auth"
	"github.com/courtconnect/courtfinder/internal/database"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleOauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// --- Registration & Login Validation ---

const (
	minUsernameLen = 6
	maxUsernameLen = 30
	minPasswordLen = 8
	maxNameLen     = 30
)

// registrationInput carries the fields of the registration form.
type registrationInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Bio       string
	Location  string
}

// validate checks the registration input and returns field-level messages for
// everything wrong with it. An empty map means the input is acceptable.
func (in *registrationInput) validate() map[string]string {
	fieldErrors := map[string]string{}

	if l := len(in.Username); l < minUsernameLen || l > maxUsernameLen {
		fieldErrors["username"] = fmt.Sprintf("username must be between %d and %d characters", minUsernameLen, maxUsernameLen)
	}
	if len(in.Password) < minPasswordLen {
		fieldErrors["password"] = fmt.Sprintf("password must be at least %d characters long", minPasswordLen)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		fieldErrors["email"] = "a valid email address is required"
	}
	if in.FirstName == "" || len(in.FirstName) > maxNameLen {
		fieldErrors["first_name"] = fmt.Sprintf("first name is required and must be at most %d characters", maxNameLen)
	}
	if in.LastName == "" || len(in.LastName) > maxNameLen {
		fieldErrors["last_name"] = fmt.Sprintf("last name is required and must be at most %d characters", maxNameLen)
	}

	return fieldErrors
}

// --- PASSWORD-BASED AUTH ---

// handleRegister handles creation of a new user account via the registration
// form. On success the user is logged in immediately: the session row and the
// user row are created in the same transaction.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.errorJSON(w, errors.New("bad request: could not parse form"), http.StatusBadRequest)
		return
	}

	in := registrationInput{
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		Password:  r.PostFormValue("password"),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		Bio:       r.PostFormValue("bio"),
		Location:  r.PostFormValue("location"),
	}

	if fieldErrors := in.validate(); len(fieldErrors) > 0 {
		s.fieldErrorJSON(w, http.StatusBadRequest, fieldErrors)
		return
	}

	hashedPassword, err := auth.HashPassword(in.Password)
	if err != nil {
		s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	var newUser *database.User
	var token string
	err = s.db.Write(func(tx *sql.Tx) error {
		var txErr error
		newUser, txErr = s.db.CreateUser(tx, in.Username, in.Email, hashedPassword, in.FirstName, in.LastName, in.Bio, in.Location)
		if txErr != nil {
			return txErr
		}
		token, txErr = s.sessions.Issue(tx, newUser.ID)
		return txErr
	})
	if err != nil {
		// Uniqueness conflicts surface as field-level errors so the form can
		// point at the offending input. No session was created.
		switch {
		case errors.Is(err, database.ErrDuplicateUsername):
			s.fieldErrorJSON(w, http.StatusConflict, map[string]string{
				"username": "Sorry! Another fellow hooper has already claimed that username. Please choose another username!",
			})
		case errors.Is(err, database.ErrDuplicateEmail):
			s.fieldErrorJSON(w, http.StatusConflict, map[string]string{
				"email": "Hold up Player! Another person is using this email address already. Try again please!",
			})
		default:
			log.Printf("ERROR: registering user: %v", err)
			s.errorJSON(w, errors.New("could not create user"), http.StatusInternalServerError)
		}
		return
	}

	// Best-effort welcome email; registration already succeeded.
	if err := s.email.SendWelcomeEmail(newUser.Email, newUser.FirstName, s.config.FrontendURL); err != nil {
		log.Printf("INFO: welcome email not sent: %v", err)
	}

	s.sessions.SetCookie(w, token)
	http.Redirect(w, r, "/users/"+newUser.Username+"/saved_courts", http.StatusSeeOther)
}

// handleLogin authenticates an existing user via username/password. Failures
// are deliberately indistinguishable: unknown usernames burn the same hashing
// work as wrong passwords and produce the same response.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.errorJSON(w, errors.New("bad request: could not parse form"), http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	if username == "" || password == "" {
		s.errorJSON(w, errors.New("username and password are required"), http.StatusBadRequest)
		return
	}

	user, err := s.db.GetUserByUsername(s.db.DB(), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			auth.DummyCheck(password)
			s.errorJSON(w, errors.New("Invalid username/password"), http.StatusUnauthorized)
			return
		}
		s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	// A Google-only account has no password hash. Still burn the hashing work
	// and answer generically.
	if !user.PasswordHash.Valid || user.PasswordHash.String == "" {
		auth.DummyCheck(password)
		s.errorJSON(w, errors.New("Invalid username/password"), http.StatusUnauthorized)
		return
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash.String) {
		s.errorJSON(w, errors.New("Invalid username/password"), http.StatusUnauthorized)
		return
	}

	var token string
	err = s.db.Write(func(tx *sql.Tx) error {
		var txErr error
		token, txErr = s.sessions.Issue(tx, user.ID)
		return txErr
	})
	if err != nil {
		log.Printf("ERROR: creating session: %v", err)
		s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	s.sessions.SetCookie(w, token)
	http.Redirect(w, r, "/users/"+user.Username+"/saved_courts", http.StatusSeeOther)
}

// handleLogout clears the current session. Logging out twice is harmless.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := s.sessions.TokenFromRequest(r)

	err := s.db.Write(func(tx *sql.Tx) error {
		return s.sessions.Revoke(tx, token)
	})
	if err != nil {
		log.Printf("ERROR: revoking session: %v", err)
		s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// --- PASSWORD RESET ---

// handleForgotPassword issues a reset token for the submitted email address.
// The response is identical whether or not the address belongs to an account.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("bad request: could not decode JSON"), http.StatusBadRequest)
		return
	}
	if payload.Email == "" {
		s.errorJSON(w, errors.New("email is required"), http.StatusBadRequest)
		return
	}

	user, err := s.db.GetUserByEmail(s.db.DB(), strings.TrimSpace(payload.Email))
	if err == nil {
		token, tokenErr := auth.GenerateResetToken(user.ID, s.config.ResetTokenSecret)
		if tokenErr != nil {
			log.Printf("ERROR: generating reset token: %v", tokenErr)
		} else if mailErr := s.email.SendPasswordResetEmail(user.Email, token, s.config.FrontendURL); mailErr != nil {
			log.Printf("INFO: reset email not sent: %v", mailErr)
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		log.Printf("ERROR: looking up email for reset: %v", err)
	}

	s.writeJSON(w, http.StatusOK, envelope{"message": "If that email address has an account, a reset link is on its way"})
}

// handleResetPassword exchanges a valid reset token for a new password. All
// existing sessions for the user are revoked in the same transaction.
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("bad request: could not decode JSON"), http.StatusBadRequest)
		return
	}

	if len(payload.Password) < minPasswordLen {
		s.errorJSON(w, fmt.Errorf("password must be at least %d characters long", minPasswordLen), http.StatusBadRequest)
		return
	}

	userID, err := auth.ValidateResetToken(payload.Token, s.config.ResetTokenSecret)
	if err != nil {
		s.errorJSON(w, errors.New("invalid or expired reset token"), http.StatusUnauthorized)
		return
	}

	hashedPassword, err := auth.HashPassword(payload.Password)
	if err != nil {
		s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		if txErr := s.db.UpdateUserPassword(tx, userID, hashedPassword); txErr != nil {
			return txErr
		}
		return s.db.DeleteSessionsForUser(tx, userID)
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Token was valid but the account is gone.
			s.errorJSON(w, errors.New("invalid or expired reset token"), http.StatusUnauthorized)
			return
		}
		log.Printf("ERROR: resetting password: %v", err)
		s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"message": "Password updated. Please log in with your new password"})
}

// --- GOOGLE SIGN-IN (optional) ---

// googleOAuthConfig holds the configuration for our Google OAuth2 client.
// It's a global within this package, initialized once at first use.
var googleOAuthConfig *oauth2.Config

func (s *Server) initOAuthConfig() {
	googleOAuthConfig = &oauth2.Config{
		ClientID:     s.config.GoogleOauthClientID,
		ClientSecret: s.config.GoogleOauthClientSecret,
		RedirectURL:  s.config.GoogleOauthRedirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

// generateStateOauthCookie creates a random state string and sets it as an
// HttpOnly cookie to prevent CSRF during the OAuth flow.
func generateStateOauthCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	rand.Read(b)
	state := hex.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     "oauthstate",
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
	})
	return state
}

// handleGoogleLogin is the entry point for the OAuth flow. It redirects the
// user to Google's consent page.
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if googleOAuthConfig == nil {
		s.initOAuthConfig()
	}
	state := generateStateOauthCookie(w)
	url := googleOAuthConfig.AuthCodeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// handleGoogleCallback is where Google redirects the user back after consent.
// First sign-in provisions an account (no password hash); either way the user
// ends up with a regular server-side session.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	oauthState, err := r.Cookie("oauthstate")
	if err != nil || r.FormValue("state") != oauthState.Value {
		s.errorJSON(w, errors.New("invalid oauth state"), http.StatusUnauthorized)
		return
	}

	code := r.FormValue("code")
	oauthToken, err := googleOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		s.errorJSON(w, fmt.Errorf("failed to exchange code for token: %w", err), http.StatusInternalServerError)
		return
	}

	oauth2Service, err := googleOauth2.NewService(context.Background(), option.WithTokenSource(googleOAuthConfig.TokenSource(context.Background(), oauthToken)))
	if err != nil {
		s.errorJSON(w, fmt.Errorf("failed to create oauth service: %w", err), http.StatusInternalServerError)
		return
	}
	userInfo, err := oauth2Service.Userinfo.Get().Do()
	if err != nil {
		s.errorJSON(w, fmt.Errorf("failed to get user info: %w", err), http.StatusInternalServerError)
		return
	}

	user, err := s.db.GetUserByEmail(s.db.DB(), userInfo.Email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.errorJSON(w, err, http.StatusInternalServerError)
			return
		}
		// New account. The username is derived from the email and retried
		// with a random suffix until it clears the unique constraint.
		user, err = s.createGoogleUser(userInfo)
		if err != nil {
			log.Printf("ERROR: provisioning google user: %v", err)
			s.errorJSON(w, errors.New("failed to create user"), http.StatusInternalServerError)
			return
		}
	}

	var token string
	err = s.db.Write(func(tx *sql.Tx) error {
		var txErr error
		token, txErr = s.sessions.Issue(tx, user.ID)
		return txErr
	})
	if err != nil {
		s.errorJSON(w, errors.New("could not create session"), http.StatusInternalServerError)
		return
	}

	s.sessions.SetCookie(w, token)
	http.Redirect(w, r, fmt.Sprintf("%s/users/%s/saved_courts", s.config.FrontendURL, user.Username), http.StatusTemporaryRedirect)
}

// createGoogleUser provisions an account from a Google profile.
func (s *Server) createGoogleUser(userInfo *googleOauth2.Userinfo) (*database.User, error) {
	firstName := userInfo.GivenName
	if firstName == "" {
		firstName = "Hooper"
	}
	lastName := userInfo.FamilyName
	if lastName == "" {
		lastName = "Player"
	}

	base := usernameFromEmail(userInfo.Email)

	var user *database.User
	err := s.db.Write(func(tx *sql.Tx) error {
		candidate := base
		for attempt := 0; ; attempt++ {
			var txErr error
			// Empty password hash marks this as a Google-only account.
			user, txErr = s.db.CreateUser(tx, candidate, userInfo.Email, "", firstName, lastName, "", "")
			if txErr == nil {
				return nil
			}
			if !errors.Is(txErr, database.ErrDuplicateUsername) || attempt >= 4 {
				return txErr
			}
			suffix := make([]byte, 2)
			rand.Read(suffix)
			candidate = base + hex.EncodeToString(suffix)
		}
	})
	return user, err
}

// usernameFromEmail derives a username candidate from the local part of an
// email address, keeping only letters and digits and padding short results
// up to the minimum length.
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	name := b.String()
	// Leave room for a 4-character dedup suffix under the length cap.
	if len(name) > maxUsernameLen-4 {
		name = name[:maxUsernameLen-4]
	}
	for len(name) < minUsernameLen {
		name += "0"
	}
	return name
}
