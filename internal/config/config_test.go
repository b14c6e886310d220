package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so tests see a clean slate
func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"ADDR", "PUBLIC_BASE_URL", "ALLOWED_ORIGINS", "API_URL",
		"ADMIN_API_KEY", "ADMIN_EMAIL", "ADMIN_PASSWORD",
		"EGGSPLAIN_API_KEY",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "ENABLE_GOOGLE_AUTH",
		"ZOOM_OAUTH_CLIENT_ID", "ZOOM_CLIENT_ID",
		"ZOOM_OAUTH_CLIENT_SECRET", "ZOOM_CLIENT_SECRET",
		"ZOOM_OAUTH_REDIRECT_URI", "ZOOM_OAUTH_STATE_SECRET",
		"SESSION_SECRET", "JWT_SECRET",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "SMTP_FROM",
		"RESTRICT_REGISTRATION", "ALLOWED_EMAIL_DOMAINS", "ALLOWED_EMAILS",
	}
	for _, v := range vars {
		t.Setenv(v, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "http://localhost:18056", cfg.APIURL)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.False(t, cfg.AdminConfigured())
	assert.False(t, cfg.ZoomConfigured())
	assert.False(t, cfg.PasswordLoginConfigured())
	assert.False(t, cfg.GoogleEnabled)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadTrimsTrailingSlashes(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_URL", "https://api.example.com/")
	t.Setenv("PUBLIC_BASE_URL", "https://dash.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, "https://dash.example.com", cfg.PublicBaseURL)
}

func TestLoadInvalidSMTPPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMTP_PORT", "not-a-port")

	_, err := Load()
	assert.ErrorContains(t, err, "SMTP_PORT")
}

func TestSigningSecretFallbackChain(t *testing.T) {
	t.Run("dedicated var wins", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ZOOM_OAUTH_STATE_SECRET", "dedicated")
		t.Setenv("SESSION_SECRET", "generic")
		t.Setenv("ADMIN_API_KEY", "admin-key")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, Secret("dedicated"), cfg.StateSecret)
	})

	t.Run("session secret next", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SESSION_SECRET", "generic")
		t.Setenv("ADMIN_API_KEY", "admin-key")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, Secret("generic"), cfg.StateSecret)
	})

	t.Run("admin key last", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ADMIN_API_KEY", "admin-key")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, Secret("admin-key"), cfg.StateSecret)
		assert.Equal(t, Secret("admin-key"), cfg.JWTSecret)
	})
}

func TestZoomCredentialFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("ZOOM_CLIENT_ID", "legacy-id")
	t.Setenv("ZOOM_CLIENT_SECRET", "legacy-secret")
	t.Setenv("SESSION_SECRET", "sign")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-id", cfg.ZoomClientID)
	assert.True(t, cfg.ZoomConfigured())

	t.Setenv("ZOOM_OAUTH_CLIENT_ID", "new-id")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "new-id", cfg.ZoomClientID, "prefixed variable takes precedence")
}

func TestGoogleEnabledSemantics(t *testing.T) {
	setGoogle := func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "id")
		t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
		t.Setenv("PUBLIC_BASE_URL", "https://dash.example.com")
	}

	t.Run("enabled when credentials present", func(t *testing.T) {
		clearEnv(t)
		setGoogle(t)
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.GoogleEnabled)
	})

	t.Run("explicit false disables", func(t *testing.T) {
		clearEnv(t)
		setGoogle(t)
		t.Setenv("ENABLE_GOOGLE_AUTH", "false")
		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.GoogleEnabled)
	})

	t.Run("credentials required even when forced on", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENABLE_GOOGLE_AUTH", "true")
		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.GoogleEnabled)
	})
}

func TestSplitList(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestSMTPConfigured(t *testing.T) {
	full := SMTPConfig{Host: "smtp.example.com", Port: 587, User: "mailer", Pass: "hunter2"}
	assert.True(t, full.Configured())
	assert.Empty(t, full.MissingVars())

	partial := SMTPConfig{Host: "smtp.example.com"}
	assert.False(t, partial.Configured())
	assert.Equal(t, []string{"SMTP_USER", "SMTP_PASS"}, partial.MissingVars())
}
