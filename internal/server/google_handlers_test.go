package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/eggsplain/eggsplain-front/internal/adminsession"
	"github.com/eggsplain/eggsplain-front/internal/config"
	"github.com/eggsplain/eggsplain-front/internal/cookie"
	"github.com/eggsplain/eggsplain-front/internal/email"
	"github.com/eggsplain/eggsplain-front/internal/replay"
	"github.com/eggsplain/eggsplain-front/internal/testutil"
	"github.com/eggsplain/eggsplain-front/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoogleHarness(t *testing.T, mutate func(*config.Config)) (*GoogleHandlers, *testutil.FakeBackend, config.Config) {
	t.Helper()

	backend := testutil.NewFakeBackend(t, testAdminKey)
	cfg := config.Config{
		PublicBaseURL:      "https://dash.example.com",
		APIURL:             backend.URL(),
		AdminAPIKey:        testAdminKey,
		StateSecret:        "google-handler-state-secret",
		JWTSecret:          "test-jwt-secret",
		GoogleEnabled:      true,
		GoogleClientID:     "google-client-id",
		GoogleClientSecret: "google-client-secret",
	}
	if mutate != nil {
		mutate(&cfg)
	}

	replays := replay.NewLedger(time.Minute)
	auth := NewAuthHandlers(cfg, adminsession.NewCodec([]byte(cfg.StateSecret)), upstream.NewClient(cfg), email.NewSender(cfg.SMTP), replays)
	return NewGoogleHandlers(cfg, auth, replays), backend, cfg
}

func TestGoogleStart(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h, _, _ := newGoogleHarness(t, func(c *config.Config) { c.GoogleEnabled = false })
		rec := httptest.NewRecorder()
		h.Start(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/start", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("redirects to consent with verifiable state", func(t *testing.T) {
		h, _, _ := newGoogleHarness(t, nil)
		rec := httptest.NewRecorder()
		h.Start(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/start?returnTo=/meetings", nil))
		require.Equal(t, http.StatusFound, rec.Code)

		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "accounts.google.com", loc.Host)
		assert.Equal(t, "google-client-id", loc.Query().Get("client_id"))
		assert.Equal(t, "https://dash.example.com/api/auth/google/callback", loc.Query().Get("redirect_uri"))

		state, err := h.verifyState(loc.Query().Get("state"))
		require.NoError(t, err)
		assert.Equal(t, "/meetings", state.ReturnTo)
		assert.NotEmpty(t, state.Nonce)
	})

	t.Run("off-site returnTo is dropped", func(t *testing.T) {
		h, _, _ := newGoogleHarness(t, nil)
		rec := httptest.NewRecorder()
		h.Start(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/start?returnTo=https://evil.example.net", nil))
		require.Equal(t, http.StatusFound, rec.Code)

		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		state, err := h.verifyState(loc.Query().Get("state"))
		require.NoError(t, err)
		assert.Equal(t, "/", state.ReturnTo)
	})
}

func TestGoogleCallback(t *testing.T) {
	startGoogleServers := func(t *testing.T, info string) {
		t.Helper()
		token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "google-at", "token_type": "bearer", "expires_in": 3600}`))
		}))
		t.Cleanup(token.Close)
		t.Setenv("GOOGLE_OAUTH_TOKEN_URL", token.URL)

		userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(info))
		}))
		t.Cleanup(userinfo.Close)
		t.Setenv("GOOGLE_USERINFO_URL", userinfo.URL)
	}

	mintState := func(h *GoogleHandlers, returnTo string) string {
		now := time.Now()
		state, err := h.mintState(loginState{
			Nonce:     "nonce-1",
			ReturnTo:  returnTo,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(loginStateTTL).Unix(),
		})
		require.NoError(t, err)
		return state
	}

	t.Run("bad state", func(t *testing.T) {
		h, _, _ := newGoogleHarness(t, nil)
		rec := httptest.NewRecorder()
		h.Callback(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=garbage&code=x", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("consent denied redirects to login", func(t *testing.T) {
		h, _, _ := newGoogleHarness(t, nil)
		rec := httptest.NewRecorder()
		h.Callback(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?error=access_denied", nil))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Contains(t, rec.Header().Get("Location"), "/login")
	})

	t.Run("successful login sets cookie and redirects", func(t *testing.T) {
		startGoogleServers(t, `{"email": "g.user@example.com", "verified_email": true, "name": "G User"}`)
		h, backend, _ := newGoogleHarness(t, nil)

		state := mintState(h, "/meetings")
		rec := httptest.NewRecorder()
		h.Callback(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=the-code&state="+url.QueryEscape(state), nil))
		require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
		assert.Equal(t, "/meetings", rec.Header().Get("Location"))

		assert.NotNil(t, backend.User("g.user@example.com"), "backend user provisioned")
		_, ok := cookieValue(rec, cookie.UserTokenCookie)
		assert.True(t, ok, "token cookie set")
	})

	t.Run("state is single use", func(t *testing.T) {
		startGoogleServers(t, `{"email": "g.user@example.com", "verified_email": true}`)
		h, _, _ := newGoogleHarness(t, nil)

		state := mintState(h, "/")
		target := "/api/auth/google/callback?code=the-code&state=" + url.QueryEscape(state)

		rec := httptest.NewRecorder()
		h.Callback(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusFound, rec.Code)

		rec = httptest.NewRecorder()
		h.Callback(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unverified email rejected", func(t *testing.T) {
		startGoogleServers(t, `{"email": "g.user@example.com", "verified_email": false}`)
		h, backend, _ := newGoogleHarness(t, nil)

		state := mintState(h, "/")
		rec := httptest.NewRecorder()
		h.Callback(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=the-code&state="+url.QueryEscape(state), nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, backend.User("g.user@example.com"))
	})

	t.Run("registration policy applies", func(t *testing.T) {
		startGoogleServers(t, `{"email": "stranger@example.com", "verified_email": true}`)
		h, _, _ := newGoogleHarness(t, func(c *config.Config) {
			c.Registration.RestrictRegistration = true
		})

		state := mintState(h, "/")
		rec := httptest.NewRecorder()
		h.Callback(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=the-code&state="+url.QueryEscape(state), nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestOAuthCallback(t *testing.T) {
	h, backend, _ := newGoogleHarness(t, nil)
	user := backend.AddUser("user@example.com")
	backend.AddToken("session-token", user.ID)

	t.Run("no cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.OAuthCallback(rec, httptest.NewRequest(http.MethodGet, "/api/auth/oauth-callback", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/oauth-callback", nil)
		req.AddCookie(&http.Cookie{Name: cookie.UserTokenCookie, Value: "session-token"})
		rec := httptest.NewRecorder()
		h.OAuthCallback(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["authenticated"])
		assert.Equal(t, "session-token", body["token"])
	})

	t.Run("stale session cleared", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/oauth-callback", nil)
		req.AddCookie(&http.Cookie{Name: cookie.UserTokenCookie, Value: "revoked"})
		rec := httptest.NewRecorder()
		h.OAuthCallback(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
