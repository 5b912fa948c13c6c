package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes sets up all the API endpoints and middleware for the application.
func (s *Server) RegisterRoutes(r *chi.Mux) {
	// --- Global Middleware (Applied to ALL routes) ---
	r.Use(middleware.Logger)    // Logs incoming requests
	r.Use(middleware.Recoverer) // Recovers from panics and returns a 500 error

	// Operational endpoints stay outside the session machinery.
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			// In production, you would tighten this to your frontend's domain.
			AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000", s.config.FrontendURL},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true, // The session cookie must travel with requests
			MaxAge:           300,
		}))

		// Every route below sees the resolved current user (or nil) in its
		// request context.
		r.Use(s.withCurrentUser)

		// Public endpoints.
		r.Post("/forgot_password", s.handleForgotPassword)
		r.Post("/reset_password", s.handleResetPassword)
		r.Get("/api/maps_config", s.handleMapsConfig)

		// Registration and login reject users who are already logged in.
		r.Group(func(r chi.Router) {
			r.Use(s.requireAnonymous)
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
		})

		// "Sign in with Google" only exists when configured.
		if s.config.GoogleOauthEnabled() {
			r.Get("/auth/google/login", s.handleGoogleLogin)
			r.Get("/auth/google/callback", s.handleGoogleCallback)
		}

		// --- Authenticated Routes ---
		// Everything below requires a live session; the {username} routes
		// additionally verify the path belongs to the caller.
		r.Group(func(r chi.Router) {
			r.Use(s.requireLogin)

			r.Get("/logout", s.handleLogout)

			r.Get("/users/{username}/user_profile", s.handleUserProfile)
			r.Get("/users/{username}/edit_profile", s.handleEditProfileForm)
			r.Post("/users/{username}/edit_profile", s.handleEditProfile)
			r.Post("/users/{username}/delete", s.handleDeleteAccount)
			r.Get("/users/{username}/saved_courts", s.handleSavedCourts)

			r.Post("/save_court", s.handleSaveCourt)
			r.Post("/remove_court", s.handleRemoveCourt)
			r.Post("/update_court_rating", s.handleUpdateCourtRating)
		})
	})
}
