package zoomauth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/eggsplain/eggsplain-front/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zoomTestConfig() config.Config {
	return config.Config{
		ZoomClientID:     "zoom-client-id",
		ZoomClientSecret: "zoom-client-secret",
	}
}

func TestAuthorizeURL(t *testing.T) {
	raw := AuthorizeURL(zoomTestConfig(), "https://dash.example.com/zoom/callback", "signed-state")

	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "zoom.us", u.Host)
	assert.Equal(t, "/oauth/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "zoom-client-id", q.Get("client_id"))
	assert.Equal(t, "https://dash.example.com/zoom/callback", q.Get("redirect_uri"))
	assert.Equal(t, "signed-state", q.Get("state"))
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, "the-code", r.FormValue("code"))

		// Zoom authenticates with client-secret-basic
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "zoom-client-id", user)
		assert.Equal(t, "zoom-client-secret", pass)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "at-1",
			"refresh_token": "rt-1",
			"token_type": "bearer",
			"expires_in": 3600,
			"scope": "meeting:read recording:read"
		}`))
	}))
	defer srv.Close()
	t.Setenv("ZOOM_OAUTH_TOKEN_URL", srv.URL)

	tok, err := ExchangeCode(t.Context(), zoomTestConfig(), "https://dash.example.com/zoom/callback", "the-code")
	require.NoError(t, err)

	assert.Equal(t, "at-1", tok.AccessToken)
	assert.Equal(t, "rt-1", tok.RefreshToken)
	assert.Equal(t, "meeting:read recording:read", tok.Scope)
	assert.Greater(t, tok.ExpiresAt, int64(0))
}

func TestExchangeCodeMissingRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "at-1", "token_type": "bearer"}`))
	}))
	defer srv.Close()
	t.Setenv("ZOOM_OAUTH_TOKEN_URL", srv.URL)

	_, err := ExchangeCode(t.Context(), zoomTestConfig(), "https://dash.example.com/zoom/callback", "the-code")
	assert.ErrorContains(t, err, "refresh_token")
}

func TestExchangeCodeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "invalid_grant"}`))
	}))
	defer srv.Close()
	t.Setenv("ZOOM_OAUTH_TOKEN_URL", srv.URL)

	_, err := ExchangeCode(t.Context(), zoomTestConfig(), "https://dash.example.com/zoom/callback", "bad-code")
	assert.ErrorContains(t, err, "zoom token exchange failed")
}
