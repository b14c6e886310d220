package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/eggsplain/eggsplain-front/internal/envutil"
)

// Config holds the process configuration, loaded once at boot and treated
// as immutable afterwards. Handlers receive it by injection rather than
// reading the environment ad hoc, so every fallback chain lives here.
type Config struct {
	// HTTP server
	Addr           string
	PublicBaseURL  string
	AllowedOrigins []string

	// External eggsplain backend
	APIURL string

	// Admin surface
	AdminAPIKey   Secret
	AdminEmail    string
	AdminPassword Secret // plaintext or bcrypt hash ($2a$/$2b$ prefix)

	// Session signing. Used for the admin session envelope and the Zoom
	// OAuth state token. Falls back to the admin key so a minimally
	// configured deployment still signs its cookies.
	StateSecret Secret

	// Legacy shared API key forwarded when no user cookie is present
	FallbackUserAPIKey Secret

	// Google sign-in
	GoogleEnabled      bool
	GoogleClientID     string
	GoogleClientSecret Secret

	// Zoom OAuth
	ZoomClientID     string
	ZoomClientSecret Secret
	ZoomRedirectURI  string

	// Magic link
	JWTSecret Secret
	SMTP      SMTPConfig

	// Registration policy
	Registration RegistrationConfig
}

// SMTPConfig carries the magic-link mail relay settings
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass Secret
	From string
}

// Configured reports whether the relay has the minimum settings to send
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.User != "" && s.Pass.IsSet()
}

// MissingVars lists the unset SMTP variables for health reporting
func (s SMTPConfig) MissingVars() []string {
	var missing []string
	if s.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if s.User == "" {
		missing = append(missing, "SMTP_USER")
	}
	if !s.Pass.IsSet() {
		missing = append(missing, "SMTP_PASS")
	}
	return missing
}

// RegistrationConfig restricts who may sign up through magic-link or OAuth
type RegistrationConfig struct {
	// When true, only already-existing users and allow-listed addresses
	// may log in; unknown addresses are rejected instead of provisioned.
	RestrictRegistration bool
	AllowedDomains       []string
	AllowedEmails        []string
}

// Load reads the process environment into an immutable Config.
// It never fails on missing secrets: components that need an absent
// credential fail fast at request time with a response naming it.
func Load() (Config, error) {
	cfg := Config{
		Addr:           envOr("ADDR", ":8080"),
		PublicBaseURL:  strings.TrimSuffix(os.Getenv("PUBLIC_BASE_URL"), "/"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		APIURL: strings.TrimSuffix(envOr("API_URL", "http://localhost:18056"), "/"),

		AdminAPIKey:   Secret(os.Getenv("ADMIN_API_KEY")),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: Secret(os.Getenv("ADMIN_PASSWORD")),

		FallbackUserAPIKey: Secret(os.Getenv("EGGSPLAIN_API_KEY")),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: Secret(os.Getenv("GOOGLE_CLIENT_SECRET")),

		ZoomClientID:     firstNonEmpty(os.Getenv("ZOOM_OAUTH_CLIENT_ID"), os.Getenv("ZOOM_CLIENT_ID")),
		ZoomClientSecret: Secret(firstNonEmpty(os.Getenv("ZOOM_OAUTH_CLIENT_SECRET"), os.Getenv("ZOOM_CLIENT_SECRET"))),
		ZoomRedirectURI:  os.Getenv("ZOOM_OAUTH_REDIRECT_URI"),

		SMTP: SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			User: os.Getenv("SMTP_USER"),
			Pass: Secret(os.Getenv("SMTP_PASS")),
			From: envOr("SMTP_FROM", os.Getenv("SMTP_USER")),
		},

		Registration: RegistrationConfig{
			RestrictRegistration: envutil.IsTrue("RESTRICT_REGISTRATION"),
			AllowedDomains:       splitList(os.Getenv("ALLOWED_EMAIL_DOMAINS")),
			AllowedEmails:        splitList(os.Getenv("ALLOWED_EMAILS")),
		},
	}

	port := envOr("SMTP_PORT", "587")
	p, err := strconv.Atoi(port)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SMTP_PORT %q: %w", port, err)
	}
	cfg.SMTP.Port = p

	// Signing secret chain: dedicated var, generic session secret, then
	// the admin key so signed cookies work on minimal deployments.
	cfg.StateSecret = Secret(firstNonEmpty(
		os.Getenv("ZOOM_OAUTH_STATE_SECRET"),
		os.Getenv("SESSION_SECRET"),
		os.Getenv("ADMIN_API_KEY"),
	))

	cfg.JWTSecret = Secret(firstNonEmpty(
		os.Getenv("JWT_SECRET"),
		os.Getenv("ADMIN_API_KEY"),
	))

	cfg.GoogleEnabled = googleEnabled(cfg)

	return cfg, nil
}

// googleEnabled mirrors the dashboard's ENABLE_GOOGLE_AUTH semantics:
// an explicit "false" disables the provider, an explicit "true" requires
// the client credentials, and the default enables it when they are present.
func googleEnabled(cfg Config) bool {
	flag := strings.ToLower(os.Getenv("ENABLE_GOOGLE_AUTH"))
	if flag == "false" || flag == "0" {
		return false
	}

	hasConfig := cfg.GoogleClientID != "" && cfg.GoogleClientSecret.IsSet() && cfg.PublicBaseURL != ""
	return hasConfig
}

// AdminConfigured reports whether the admin proxy can attach a usable key
func (c Config) AdminConfigured() bool {
	return c.AdminAPIKey.IsSet()
}

// ZoomConfigured reports whether the Zoom OAuth flow can run
func (c Config) ZoomConfigured() bool {
	return c.ZoomClientID != "" && c.ZoomClientSecret.IsSet() && c.StateSecret.IsSet()
}

// PasswordLoginConfigured reports whether the direct-login fallback is set up
func (c Config) PasswordLoginConfigured() bool {
	return c.AdminEmail != "" && c.AdminPassword.IsSet()
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
