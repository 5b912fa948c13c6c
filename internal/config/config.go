package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the application. By centralizing these
// settings, we make the application easier to manage and deploy.
type Config struct {
	// --- Server & Paths ---
	ServerAddr  string
	DataPath    string
	DbPath      string
	FrontendURL string

	// --- Sessions & Security ---
	// ResetTokenSecret signs the short-lived password-reset tokens.
	// Session cookies themselves carry opaque random tokens and need no secret.
	ResetTokenSecret string
	SessionTTL       time.Duration
	CookieSecure     bool

	// --- Email (SMTP) ---
	SmtpHost   string
	SmtpPort   int
	SmtpUser   string
	SmtpPass   string
	SmtpSender string

	// --- Google OAuth 2.0 (optional sign-in method) ---
	GoogleOauthClientID     string
	GoogleOauthClientSecret string
	GoogleOauthRedirectURL  string

	// --- Google Maps ---
	// Browser key handed to the frontend for the court search map.
	MapsBrowserKey string

	// Parsed version of FrontendURL for easy access to its components.
	ParsedFrontendURL *url.URL
}

// New creates a new Config instance by loading values from environment variables.
// It validates that critical variables are present and will return an error if
// the configuration is invalid, preventing the server from starting.
func New() (*Config, error) {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))

	cfg := &Config{
		ServerAddr:              os.Getenv("SERVER_ADDR"),
		DataPath:                os.Getenv("DATA_PATH"),
		FrontendURL:             os.Getenv("FRONTEND_URL"),
		ResetTokenSecret:        os.Getenv("RESET_TOKEN_SECRET"),
		CookieSecure:            os.Getenv("COOKIE_SECURE") == "true",
		SmtpHost:                os.Getenv("SMTP_HOST"),
		SmtpPort:                port,
		SmtpUser:                os.Getenv("SMTP_USER"),
		SmtpPass:                os.Getenv("SMTP_PASS"),
		SmtpSender:              os.Getenv("SMTP_SENDER"),
		GoogleOauthClientID:     os.Getenv("GOOGLE_OAUTH_CLIENT_ID"),
		GoogleOauthClientSecret: os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"),
		GoogleOauthRedirectURL:  os.Getenv("GOOGLE_OAUTH_REDIRECT_URL"),
		MapsBrowserKey:          os.Getenv("GOOGLE_MAPS_BROWSER_KEY"),
	}

	// --- Provide sensible defaults for non-critical values ---
	if cfg.DataPath == "" {
		cfg.DataPath = "./data"
	}
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = ":8080"
	}

	// Session lifetime is configured in hours; one week by default. The cookie
	// and the server-side session row share this lifetime.
	ttlHours, _ := strconv.Atoi(os.Getenv("SESSION_TTL_HOURS"))
	if ttlHours <= 0 {
		ttlHours = 24 * 7
	}
	cfg.SessionTTL = time.Duration(ttlHours) * time.Hour

	// --- Validate critical required values ---
	// The application will "fail fast" if these are not set.
	if cfg.ResetTokenSecret == "" {
		return nil, errors.New("FATAL: RESET_TOKEN_SECRET environment variable is not set")
	}
	if cfg.FrontendURL == "" {
		return nil, errors.New("FATAL: FRONTEND_URL environment variable is not set")
	}

	parsedURL, err := url.Parse(cfg.FrontendURL)
	if err != nil {
		return nil, errors.New("FATAL: Invalid FRONTEND_URL format")
	}
	cfg.ParsedFrontendURL = parsedURL

	cfg.DbPath = filepath.Join(cfg.DataPath, "databases")

	return cfg, nil
}

// GoogleOauthEnabled reports whether the optional "Sign in with Google" flow
// is fully configured. Password auth works without it.
func (c *Config) GoogleOauthEnabled() bool {
	return c.GoogleOauthClientID != "" && c.GoogleOauthClientSecret != "" && c.GoogleOauthRedirectURL != ""
}
