package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/courtconnect/courtfinder/internal/auth"
	"github.com/courtconnect/courtfinder/internal/config"
	"github.com/courtconnect/courtfinder/internal/database"
	"github.com/courtconnect/courtfinder/internal/email"
	"github.com/courtconnect/courtfinder/internal/session"

	"github.com/go-chi/chi/v5"
)

const testResetSecret = "test-reset-secret-32-bytes-long!"

// newTestServer wires a full server against a throwaway SQLite file, with SMTP
// and Google OAuth left unconfigured.
func newTestServer(t *testing.T) (*Server, *chi.Mux) {
	t.Helper()

	db, err := database.NewService(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.InitSchema(); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}

	cfg := &config.Config{
		ServerAddr:       ":0",
		FrontendURL:      "http://localhost:5173",
		ResetTokenSecret: testResetSecret,
		SessionTTL:       time.Hour,
		MapsBrowserKey:   "test-browser-key",
	}

	srv := NewServer(cfg, db, session.NewManager(db, cfg.SessionTTL, false), email.NewEmailService(email.SMTPServerConfig{}))

	router := chi.NewRouter()
	srv.RegisterRoutes(router)
	return srv, router
}

// do performs one request against the router. A non-nil cookie rides along as
// the session.
func do(t *testing.T, router *chi.Mux, method, target string, body io.Reader, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, router *chi.Mux, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, router *chi.Mux, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerForm(username, email, password string) url.Values {
	return url.Values{
		"username":   {username},
		"email":      {email},
		"password":   {password},
		"first_name": {"Test"},
		"last_name":  {"User"},
	}
}

// register creates an account through the real endpoint and returns its
// session cookie.
func register(t *testing.T, router *chi.Mux, username, emailAddr string) *http.Cookie {
	t.Helper()

	rec := postForm(t, router, "/register", registerForm(username, emailAddr, "myp4ssword"), nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("register %s: status = %d, want 303 (body %s)", username, rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatalf("register %s: no session cookie set", username)
	}
	return cookie
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	// UseNumber keeps ids as json.Number instead of lossy float64.
	dec := json.NewDecoder(strings.NewReader(rec.Body.String()))
	dec.UseNumber()

	var body map[string]interface{}
	if err := dec.Decode(&body); err != nil {
		t.Fatalf("decoding response body %q: %v", rec.Body.String(), err)
	}
	return body
}

// saveCourt bookmarks a court through the real endpoint and returns its id.
func saveCourt(t *testing.T, router *chi.Mux, cookie *http.Cookie, placeID string) int64 {
	t.Helper()

	body := `{"court_name":"Test Court","google_maps_place_id":"` + placeID + `","address":"123 Court Ave","google_maps_url":"https://maps.google.com/?q=a"}`
	rec := postJSON(t, router, "/save_court", body, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save_court %s: status = %d, want 201 (body %s)", placeID, rec.Code, rec.Body.String())
	}

	idNum, ok := decodeBody(t, rec)["id"].(json.Number)
	if !ok {
		t.Fatalf("save_court %s: response has no numeric id", placeID)
	}
	id, err := idNum.Int64()
	if err != nil {
		t.Fatalf("save_court %s: bad id: %v", placeID, err)
	}
	return id
}

// --- Registration ---

func TestRegister(t *testing.T) {
	srv, router := newTestServer(t)

	rec := postForm(t, router, "/register", registerForm("alicehooper", "alice@example.com", "myp4ssword"), nil)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/users/alicehooper/saved_courts" {
		t.Errorf("Location = %q, want /users/alicehooper/saved_courts", loc)
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("no session cookie set")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}

	// The stored credential must be an argon2id hash, never the password.
	user, err := srv.db.GetUserByUsername(srv.db.DB(), "alicehooper")
	if err != nil {
		t.Fatalf("looking up registered user: %v", err)
	}
	if !user.PasswordHash.Valid || !strings.HasPrefix(user.PasswordHash.String, "$argon2id$") {
		t.Errorf("password_hash = %q, want argon2id hash", user.PasswordHash.String)
	}
	if strings.Contains(user.PasswordHash.String, "myp4ssword") {
		t.Error("password_hash contains the plaintext password")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	srv, router := newTestServer(t)
	register(t, router, "alicehooper", "alice@example.com")

	rec := postForm(t, router, "/register", registerForm("alicehooper", "other@example.com", "myp4ssword"), nil)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if cookie := sessionCookie(t, rec); cookie != nil {
		t.Error("failed registration must not set a session cookie")
	}

	body := decodeBody(t, rec)
	fields, _ := body["errors"].(map[string]interface{})
	msg, _ := fields["username"].(string)
	if !strings.Contains(msg, "fellow hooper has already claimed that username") {
		t.Errorf("username error = %q, want the claimed-username message", msg)
	}

	// Exactly one account exists.
	var count int
	if err := srv.db.DB().QueryRow(`SELECT COUNT(*) FROM users;`).Scan(&count); err != nil {
		t.Fatalf("counting users: %v", err)
	}
	if count != 1 {
		t.Errorf("users rows = %d, want 1", count)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	_, router := newTestServer(t)
	register(t, router, "alicehooper", "alice@example.com")

	rec := postForm(t, router, "/register", registerForm("bobbyhooper", "alice@example.com", "myp4ssword"), nil)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	body := decodeBody(t, rec)
	fields, _ := body["errors"].(map[string]interface{})
	if _, ok := fields["email"]; !ok {
		t.Errorf("expected an email field error, got %v", body)
	}
}

func TestRegister_Validation(t *testing.T) {
	_, router := newTestServer(t)

	tests := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"short username", registerForm("abc", "a@example.com", "myp4ssword"), "username"},
		{"long username", registerForm(strings.Repeat("a", 31), "a@example.com", "myp4ssword"), "username"},
		{"short password", registerForm("alicehooper", "a@example.com", "short"), "password"},
		{"bad email", registerForm("alicehooper", "not-an-email", "myp4ssword"), "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(t, router, "/register", tt.form, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			fields, _ := decodeBody(t, rec)["errors"].(map[string]interface{})
			if _, ok := fields[tt.field]; !ok {
				t.Errorf("expected a %q field error, got %v", tt.field, fields)
			}
		})
	}
}

// --- Login / Logout ---

func TestLogin(t *testing.T) {
	_, router := newTestServer(t)
	register(t, router, "alicehooper", "alice@example.com")

	rec := postForm(t, router, "/login", url.Values{
		"username": {"alicehooper"},
		"password": {"myp4ssword"},
	}, nil)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 (body %s)", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/users/alicehooper/saved_courts" {
		t.Errorf("Location = %q, want saved courts page", loc)
	}
	if sessionCookie(t, rec) == nil {
		t.Error("login must set a session cookie")
	}
}

func TestLogin_Failures(t *testing.T) {
	_, router := newTestServer(t)
	register(t, router, "alicehooper", "alice@example.com")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alicehooper", "notmypassword"},
		{"unknown username", "nobodyknown", "myp4ssword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(t, router, "/login", url.Values{
				"username": {tt.username},
				"password": {tt.password},
			}, nil)

			// Both failure modes must be indistinguishable.
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if msg, _ := decodeBody(t, rec)["error"].(string); msg != "Invalid username/password" {
				t.Errorf("error = %q, want the generic message", msg)
			}
			if sessionCookie(t, rec) != nil {
				t.Error("failed login must not set a session cookie")
			}
		})
	}
}

func TestLogout(t *testing.T) {
	_, router := newTestServer(t)
	cookie := register(t, router, "alicehooper", "alice@example.com")

	rec := do(t, router, http.MethodGet, "/logout", nil, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("logout must expire the session cookie")
	}

	// The revoked session no longer opens anything.
	rec = do(t, router, http.MethodGet, "/users/alicehooper/saved_courts", nil, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("after logout: status = %d Location = %q, want 303 to /login", rec.Code, rec.Header().Get("Location"))
	}
}

// --- Guards ---

func TestGuards(t *testing.T) {
	_, router := newTestServer(t)
	alice := register(t, router, "alicehooper", "alice@example.com")
	register(t, router, "bobbyhooper", "bob@example.com")

	t.Run("anonymous hits a protected page", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/users/alicehooper/saved_courts", nil, nil)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
			t.Errorf("status = %d Location = %q, want 303 to /login", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("logged-in user hits login", func(t *testing.T) {
		rec := postForm(t, router, "/login", url.Values{
			"username": {"alicehooper"},
			"password": {"myp4ssword"},
		}, alice)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/users/alicehooper/user_profile" {
			t.Errorf("status = %d Location = %q, want 303 to own profile", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("logged-in user hits register", func(t *testing.T) {
		rec := postForm(t, router, "/register", registerForm("newhooper99", "new@example.com", "myp4ssword"), alice)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/users/alicehooper/user_profile" {
			t.Errorf("status = %d Location = %q, want 303 to own profile", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("user hits another user's pages", func(t *testing.T) {
		for _, target := range []string{
			"/users/bobbyhooper/saved_courts",
			"/users/bobbyhooper/user_profile",
			"/users/bobbyhooper/edit_profile",
		} {
			rec := do(t, router, http.MethodGet, target, nil, alice)
			if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/users/alicehooper/user_profile" {
				t.Errorf("%s: status = %d Location = %q, want 303 to own profile", target, rec.Code, rec.Header().Get("Location"))
			}
		}
	})

	t.Run("nonexistent username redirects the same way", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/users/ghosthooper/saved_courts", nil, alice)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/users/alicehooper/user_profile" {
			t.Errorf("status = %d Location = %q, want the same redirect as a real foreign user", rec.Code, rec.Header().Get("Location"))
		}
	})
}

// --- Saving courts ---

func TestSaveCourt(t *testing.T) {
	_, router := newTestServer(t)
	cookie := register(t, router, "alicehooper", "alice@example.com")

	body := `{"court_name":"Rucker Park","google_maps_place_id":"place-rucker","address":"155th St","google_maps_url":"https://maps.google.com/?q=rucker"}`
	rec := postJSON(t, router, "/save_court", body, cookie)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if msg, _ := resp["message"].(string); msg != "Court saved successfully" {
		t.Errorf("message = %q, want 'Court saved successfully'", msg)
	}
	if _, ok := resp["id"]; !ok {
		t.Error("response must carry the new court id")
	}
}

func TestSaveCourt_Duplicate(t *testing.T) {
	_, router := newTestServer(t)
	alice := register(t, router, "alicehooper", "alice@example.com")
	bob := register(t, router, "bobbyhooper", "bob@example.com")

	saveCourt(t, router, alice, "place-rucker")

	body := `{"court_name":"Rucker Park","google_maps_place_id":"place-rucker","address":"155th St","google_maps_url":"https://maps.google.com/?q=rucker"}`
	rec := postJSON(t, router, "/save_court", body, alice)
	if rec.Code != http.StatusConflict {
		t.Fatalf("same-user duplicate: status = %d, want 409", rec.Code)
	}
	if msg, _ := decodeBody(t, rec)["error"].(string); msg != "You have already saved this court" {
		t.Errorf("error = %q, want 'You have already saved this court'", msg)
	}

	// Another user may save the same place.
	rec = postJSON(t, router, "/save_court", body, bob)
	if rec.Code != http.StatusCreated {
		t.Errorf("cross-user same place: status = %d, want 201", rec.Code)
	}
}

func TestSaveCourt_MissingFields(t *testing.T) {
	_, router := newTestServer(t)
	cookie := register(t, router, "alicehooper", "alice@example.com")

	rec := postJSON(t, router, "/save_court", `{"court_name":"Rucker Park"}`, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg, _ := decodeBody(t, rec)["error"].(string); !strings.Contains(msg, "google_maps_place_id") {
		t.Errorf("error = %q, want it to name the missing fields", msg)
	}
}

// --- Removing and rating courts ---

func TestRemoveCourt(t *testing.T) {
	_, router := newTestServer(t)
	cookie := register(t, router, "alicehooper", "alice@example.com")
	courtID := saveCourt(t, router, cookie, "place-rucker")

	rec := postJSON(t, router, "/remove_court", `{"court_id":"`+strconv.FormatInt(courtID, 10)+`"}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if msg, _ := decodeBody(t, rec)["message"].(string); msg != "Court successfully deleted" {
		t.Errorf("message = %q, want 'Court successfully deleted'", msg)
	}

	// Gone means gone.
	rec = postJSON(t, router, "/remove_court", `{"court_id":"`+strconv.FormatInt(courtID, 10)+`"}`, cookie)
	if rec.Code != http.StatusNotFound {
		t.Errorf("removing again: status = %d, want 404", rec.Code)
	}
}

func TestRemoveCourt_Foreign(t *testing.T) {
	srv, router := newTestServer(t)
	alice := register(t, router, "alicehooper", "alice@example.com")
	bob := register(t, router, "bobbyhooper", "bob@example.com")
	bobsCourt := saveCourt(t, router, bob, "place-rucker")

	rec := postJSON(t, router, "/remove_court", `{"court_id":"`+strconv.FormatInt(bobsCourt, 10)+`"}`, alice)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	// Bob's court is untouched.
	if _, err := srv.db.GetCourtByID(srv.db.DB(), bobsCourt); err != nil {
		t.Errorf("foreign court was deleted: %v", err)
	}
}

func TestUpdateCourtRating(t *testing.T) {
	srv, router := newTestServer(t)
	cookie := register(t, router, "alicehooper", "alice@example.com")
	courtID := saveCourt(t, router, cookie, "place-rucker")

	rec := postJSON(t, router, "/update_court_rating", `{"court_id":"`+strconv.FormatInt(courtID, 10)+`","rating":4.5}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if msg, _ := decodeBody(t, rec)["message"].(string); msg != "Rating updated successfully" {
		t.Errorf("message = %q, want 'Rating updated successfully'", msg)
	}

	court, err := srv.db.GetCourtByID(srv.db.DB(), courtID)
	if err != nil {
		t.Fatalf("GetCourtByID() error = %v", err)
	}
	if !court.UserRating.Valid || court.UserRating.Float64 != 4.5 {
		t.Errorf("stored rating = %+v, want 4.5", court.UserRating)
	}
}

func TestUpdateCourtRating_OutOfRange(t *testing.T) {
	_, router := newTestServer(t)
	cookie := register(t, router, "alicehooper", "alice@example.com")
	courtID := saveCourt(t, router, cookie, "place-rucker")

	for _, body := range []string{
		`{"court_id":"` + strconv.FormatInt(courtID, 10) + `","rating":6}`,
		`{"court_id":"` + strconv.FormatInt(courtID, 10) + `","rating":-1}`,
	} {
		rec := postJSON(t, router, "/update_court_rating", body, cookie)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestUpdateCourtRating_Foreign(t *testing.T) {
	srv, router := newTestServer(t)
	alice := register(t, router, "alicehooper", "alice@example.com")
	bob := register(t, router, "bobbyhooper", "bob@example.com")
	bobsCourt := saveCourt(t, router, bob, "place-rucker")

	rec := postJSON(t, router, "/update_court_rating", `{"court_id":"`+strconv.FormatInt(bobsCourt, 10)+`","rating":1}`, alice)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	court, err := srv.db.GetCourtByID(srv.db.DB(), bobsCourt)
	if err != nil {
		t.Fatalf("GetCourtByID() error = %v", err)
	}
	if court.UserRating.Valid {
		t.Errorf("foreign rating attempt changed the stored rating to %+v", court.UserRating)
	}
}

// --- Listing courts ---

func TestSavedCourts_Pagination(t *testing.T) {
	_, router := newTestServer(t)
	cookie := register(t, router, "alicehooper", "alice@example.com")

	var lastID int64
	for i := 0; i < 20; i++ {
		lastID = saveCourt(t, router, cookie, "place-"+strconv.Itoa(i))
	}

	page := func(n string) map[string]interface{} {
		t.Helper()
		rec := do(t, router, http.MethodGet, "/users/alicehooper/saved_courts?page="+n, nil, cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("page %s: status = %d, want 200 (body %s)", n, rec.Code, rec.Body.String())
		}
		return decodeBody(t, rec)
	}

	page1 := page("1")
	courts1, _ := page1["courts"].([]interface{})
	if len(courts1) != 15 {
		t.Fatalf("page 1 courts = %d, want 15", len(courts1))
	}
	first, _ := courts1[0].(map[string]interface{})
	if id, _ := first["id"].(json.Number).Int64(); id != lastID {
		t.Errorf("page 1 leads with id %v, want newest %d", first["id"], lastID)
	}
	if total, _ := page1["totalCourts"].(json.Number).Int64(); total != 20 {
		t.Errorf("totalCourts = %v, want 20", page1["totalCourts"])
	}

	courts2, _ := page("2")["courts"].([]interface{})
	if len(courts2) != 5 {
		t.Errorf("page 2 courts = %d, want 5", len(courts2))
	}

	courts3, _ := page("3")["courts"].([]interface{})
	if len(courts3) != 0 {
		t.Errorf("page 3 courts = %d, want 0", len(courts3))
	}

	for _, bad := range []string{"0", "-1", "abc"} {
		rec := do(t, router, http.MethodGet, "/users/alicehooper/saved_courts?page="+bad, nil, cookie)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("page=%s: status = %d, want 400", bad, rec.Code)
		}
	}
}

func TestSavedCourts_EmptyList(t *testing.T) {
	_, router := newTestServer(t)
	cookie := register(t, router, "alicehooper", "alice@example.com")

	rec := do(t, router, http.MethodGet, "/users/alicehooper/saved_courts", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// An empty collection is a JSON array, not null.
	if strings.Contains(rec.Body.String(), `"courts": null`) {
		t.Errorf("courts should be [], got %s", rec.Body.String())
	}
}

// --- Profile ---

func TestEditProfile(t *testing.T) {
	srv, router := newTestServer(t)
	cookie := register(t, router, "alicehooper", "alice@example.com")

	rec := postForm(t, router, "/users/alicehooper/edit_profile", url.Values{
		"email":      {"alice-new@example.com"},
		"first_name": {"Alice"},
		"last_name":  {"Hooper"},
		"bio":        {"ballin since 99"},
		"location":   {"NYC"},
	}, cookie)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 (body %s)", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/users/alicehooper/user_profile" {
		t.Errorf("Location = %q, want the profile page", loc)
	}

	user, err := srv.db.GetUserByUsername(srv.db.DB(), "alicehooper")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if user.Email != "alice-new@example.com" || user.Bio != "ballin since 99" || user.Location != "NYC" {
		t.Errorf("profile after edit = %+v, want updated fields", user)
	}
}

func TestEditProfile_EmailTaken(t *testing.T) {
	_, router := newTestServer(t)
	alice := register(t, router, "alicehooper", "alice@example.com")
	register(t, router, "bobbyhooper", "bob@example.com")

	rec := postForm(t, router, "/users/alicehooper/edit_profile", url.Values{
		"email":      {"bob@example.com"},
		"first_name": {"Alice"},
		"last_name":  {"Hooper"},
	}, alice)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	fields, _ := decodeBody(t, rec)["errors"].(map[string]interface{})
	if _, ok := fields["email"]; !ok {
		t.Errorf("expected an email field error, got %v", fields)
	}
}

func TestDeleteAccount(t *testing.T) {
	srv, router := newTestServer(t)
	cookie := register(t, router, "alicehooper", "alice@example.com")
	saveCourt(t, router, cookie, "place-rucker")

	rec := postJSON(t, router, "/users/alicehooper/delete", "", cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 (body %s)", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}

	// User, courts, and the session all go together.
	var users, courts, sessions int
	srv.db.DB().QueryRow(`SELECT COUNT(*) FROM users;`).Scan(&users)
	srv.db.DB().QueryRow(`SELECT COUNT(*) FROM courts;`).Scan(&courts)
	srv.db.DB().QueryRow(`SELECT COUNT(*) FROM sessions;`).Scan(&sessions)
	if users != 0 || courts != 0 || sessions != 0 {
		t.Errorf("rows after deletion: users=%d courts=%d sessions=%d, want all 0", users, courts, sessions)
	}

	rec = do(t, router, http.MethodGet, "/users/alicehooper/saved_courts", nil, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("stale session after deletion: status = %d Location = %q, want 303 to /login", rec.Code, rec.Header().Get("Location"))
	}
}

// --- Password reset ---

func TestForgotPassword_UniformResponse(t *testing.T) {
	_, router := newTestServer(t)
	register(t, router, "alicehooper", "alice@example.com")

	known := postJSON(t, router, "/forgot_password", `{"email":"alice@example.com"}`, nil)
	unknown := postJSON(t, router, "/forgot_password", `{"email":"ghost@example.com"}`, nil)

	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("statuses = %d/%d, want 200/200", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Error("forgot-password responses must not reveal whether the email has an account")
	}
}

func TestResetPassword(t *testing.T) {
	srv, router := newTestServer(t)
	cookie := register(t, router, "alicehooper", "alice@example.com")

	user, err := srv.db.GetUserByUsername(srv.db.DB(), "alicehooper")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	token, err := auth.GenerateResetToken(user.ID, testResetSecret)
	if err != nil {
		t.Fatalf("GenerateResetToken() error = %v", err)
	}

	rec := postJSON(t, router, "/reset_password", `{"token":"`+token+`","password":"br4ndnewpass"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	// Old password dead, new password live.
	rec = postForm(t, router, "/login", url.Values{"username": {"alicehooper"}, "password": {"myp4ssword"}}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("old password: status = %d, want 401", rec.Code)
	}
	rec = postForm(t, router, "/login", url.Values{"username": {"alicehooper"}, "password": {"br4ndnewpass"}}, nil)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("new password: status = %d, want 303", rec.Code)
	}

	// Pre-reset sessions are revoked.
	rec = do(t, router, http.MethodGet, "/users/alicehooper/saved_courts", nil, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("old session after reset: status = %d Location = %q, want 303 to /login", rec.Code, rec.Header().Get("Location"))
	}
}

func TestResetPassword_BadToken(t *testing.T) {
	_, router := newTestServer(t)

	rec := postJSON(t, router, "/reset_password", `{"token":"garbage","password":"br4ndnewpass"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// --- Operational endpoints ---

func TestHealthz(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if status, _ := decodeBody(t, rec)["status"].(string); status != "ok" {
		t.Errorf("status field = %q, want ok", status)
	}
}

func TestMapsConfig(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/api/maps_config", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if key, _ := decodeBody(t, rec)["mapsBrowserKey"].(string); key != "test-browser-key" {
		t.Errorf("mapsBrowserKey = %q, want the configured key", key)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output should include the Go runtime collectors")
	}
}
