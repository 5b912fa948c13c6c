package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/courtconnect/courtfinder/internal/api"
	"github.com/courtconnect/courtfinder/internal/config"
	"github.com/courtconnect/courtfinder/internal/database"
	"github.com/courtconnect/courtfinder/internal/email"
	"github.com/courtconnect/courtfinder/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

// main is the entry point for the Court Finder backend server.
func main() {
	// --- 1. Load Configuration ---
	// A .env file is convenient during development; in production these are
	// set as actual environment variables.
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found, using environment variables from the system.")
	}

	cfg, err := config.New()
	if err != nil {
		// A valid configuration is required to run, so we exit if it fails.
		log.Fatalf("FATAL: Failed to load application configuration: %v", err)
	}

	// --- 2. Ensure Required Directories Exist ---
	if err := os.MkdirAll(cfg.DbPath, 0755); err != nil {
		log.Fatalf("FATAL: Failed to create database directory at %s: %v", cfg.DbPath, err)
	}

	log.Println("INFO: Application directories verified.")

	// --- 3. Initialize Database Service ---
	dbFullPath := filepath.Join(cfg.DbPath, "courtfinder.db")
	dbService, err := database.NewService(dbFullPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database service: %v", err)
	}
	// 'defer' ensures the connection is closed gracefully when main exits.
	defer dbService.Close()

	// Create the users/courts/sessions tables if they do not already exist.
	// Safe to run on every startup.
	if err := dbService.InitSchema(); err != nil {
		log.Fatalf("FATAL: Failed to initialize database schema: %v", err)
	}

	log.Println("INFO: Database service initialized and schema verified.")

	// --- 4. Initialize Supporting Services ---
	sessionManager := session.NewManager(dbService, cfg.SessionTTL, cfg.CookieSecure)

	emailService := email.NewEmailService(email.SMTPServerConfig{
		Host:     cfg.SmtpHost,
		Port:     cfg.SmtpPort,
		Username: cfg.SmtpUser,
		Password: cfg.SmtpPass,
		Sender:   cfg.SmtpSender,
	})
	if !emailService.Configured() {
		log.Println("INFO: SMTP not configured; welcome and reset emails will be skipped.")
	}
	if !cfg.GoogleOauthEnabled() {
		log.Println("INFO: Google OAuth not configured; 'Sign in with Google' is disabled.")
	}

	// --- 5. Set Up API Server and Routes ---
	serverAPI := api.NewServer(cfg, dbService, sessionManager, emailService)

	router := chi.NewRouter()
	serverAPI.RegisterRoutes(router)

	log.Println("INFO: API routes registered.")

	// --- 6. Start the HTTP Server ---
	log.Printf("INFO: Court Finder server starting on %s", cfg.ServerAddr)

	if err := http.ListenAndServe(cfg.ServerAddr, router); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}
