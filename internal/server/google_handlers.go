package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/eggsplain/eggsplain-front/internal/config"
	"github.com/eggsplain/eggsplain-front/internal/cookie"
	"github.com/eggsplain/eggsplain-front/internal/crypto"
	"github.com/eggsplain/eggsplain-front/internal/emailutil"
	"github.com/eggsplain/eggsplain-front/internal/googleauth"
	jsonwriter "github.com/eggsplain/eggsplain-front/internal/json"
	"github.com/eggsplain/eggsplain-front/internal/log"
	"github.com/eggsplain/eggsplain-front/internal/registration"
	"github.com/eggsplain/eggsplain-front/internal/replay"
	"github.com/google/uuid"
)

const loginStateTTL = 10 * time.Minute

// loginState is the signed state carried through the Google consent
// redirect. Same envelope scheme as the Zoom state token.
type loginState struct {
	Nonce     string `json:"nonce"`
	ReturnTo  string `json:"returnTo"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// GoogleHandlers serves the Google sign-in flow
type GoogleHandlers struct {
	cfg     config.Config
	auth    *AuthHandlers
	replays *replay.Ledger
}

func NewGoogleHandlers(cfg config.Config, auth *AuthHandlers, replays *replay.Ledger) *GoogleHandlers {
	return &GoogleHandlers{cfg: cfg, auth: auth, replays: replays}
}

// Start redirects the browser to the Google consent screen
func (h *GoogleHandlers) Start(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.GoogleEnabled {
		jsonwriter.WriteServiceUnavailable(w, "Google sign-in is not configured")
		return
	}

	returnTo := sanitizeReturnTo(r.URL.Query().Get("returnTo"))

	now := time.Now()
	state, err := h.mintState(loginState{
		Nonce:     uuid.NewString(),
		ReturnTo:  returnTo,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(loginStateTTL).Unix(),
	})
	if err != nil {
		jsonwriter.WriteInternalServerError(w, "Failed to start Google sign-in")
		return
	}

	http.Redirect(w, r, googleauth.AuthURL(h.cfg, state), http.StatusFound)
}

// Callback handles the redirect back from Google: state check, code
// exchange, profile fetch, then session establishment and a redirect to
// where the user started.
func (h *GoogleHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.GoogleEnabled {
		jsonwriter.WriteServiceUnavailable(w, "Google sign-in is not configured")
		return
	}

	if errCode := r.URL.Query().Get("error"); errCode != "" {
		log.LogWarnWithFields("google_auth", "Consent denied", map[string]any{"error": errCode})
		http.Redirect(w, r, "/login?error=google_denied", http.StatusFound)
		return
	}

	state, err := h.verifyState(r.URL.Query().Get("state"))
	if err != nil {
		log.LogWarnWithFields("google_auth", "State verification failed", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteBadRequest(w, "Invalid sign-in state")
		return
	}

	// Single use: a replayed consent redirect must not mint a session
	if !h.replays.Consume("googlestate:"+state.Nonce, time.Until(time.Unix(state.ExpiresAt, 0))) {
		jsonwriter.WriteBadRequest(w, "Sign-in state already used")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		jsonwriter.WriteBadRequest(w, "Authorization code is missing")
		return
	}

	token, err := googleauth.ExchangeCodeForToken(r.Context(), h.cfg, code)
	if err != nil {
		log.LogErrorWithFields("google_auth", "Code exchange failed", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteBadRequest(w, "Failed to exchange authorization code")
		return
	}

	info, err := googleauth.FetchUserInfo(r.Context(), h.cfg, token)
	if err != nil {
		log.LogErrorWithFields("google_auth", "Userinfo fetch failed", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteBadRequest(w, "Failed to load Google profile")
		return
	}

	addr := emailutil.Normalize(info.Email)
	exists, err := h.auth.userExists(r.Context(), addr)
	if err != nil {
		jsonwriter.WriteServiceUnavailable(w, "Cannot reach eggsplain API")
		return
	}
	if denial := registration.Validate(addr, exists, h.cfg.Registration); denial != "" {
		jsonwriter.WriteForbidden(w, denial)
		return
	}

	user, isNew, err := h.auth.findOrCreateUser(r.Context(), addr)
	if err != nil {
		jsonwriter.WriteServiceUnavailable(w, "Cannot reach eggsplain API")
		return
	}
	apiToken, err := h.auth.admin.CreateToken(r.Context(), user.ID.String())
	if err != nil {
		jsonwriter.WriteServiceUnavailable(w, "Cannot reach eggsplain API")
		return
	}

	cookie.SetUserToken(w, apiToken)
	log.LogInfoWithFields("google_auth", "User logged in", map[string]any{
		"email":  addr,
		"is_new": isNew,
	})

	http.Redirect(w, r, sanitizeReturnTo(state.ReturnTo), http.StatusFound)
}

// OAuthCallback reports the session established by a completed OAuth
// redirect, for the frontend to pick up after landing back on the app.
func (h *GoogleHandlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	token, err := cookie.GetUserToken(r)
	if err != nil || token == "" {
		jsonwriter.WriteUnauthorized(w, "Not authenticated")
		return
	}

	valid, err := h.auth.admin.VerifyUserToken(r.Context(), token)
	if err != nil {
		jsonwriter.WriteServiceUnavailable(w, "Cannot reach eggsplain API")
		return
	}
	if !valid {
		cookie.ClearUserToken(w)
		jsonwriter.WriteUnauthorized(w, "Session is no longer valid")
		return
	}

	jsonwriter.Write(w, map[string]any{
		"authenticated": true,
		"token":         token,
	})
}

func (h *GoogleHandlers) mintState(s loginState) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	data := base64.RawURLEncoding.EncodeToString(raw)
	return data + "." + crypto.SignData(data, []byte(h.cfg.StateSecret)), nil
}

func (h *GoogleHandlers) verifyState(token string) (loginState, error) {
	data, sig, found := strings.Cut(token, ".")
	if !found || data == "" || sig == "" {
		return loginState{}, errInvalidLoginState
	}
	if !crypto.ValidateSignedData(data, sig, []byte(h.cfg.StateSecret)) {
		return loginState{}, errInvalidLoginState
	}
	raw, err := crypto.DecodeBase64URL(data)
	if err != nil {
		return loginState{}, errInvalidLoginState
	}
	var s loginState
	if err := json.Unmarshal(raw, &s); err != nil {
		return loginState{}, errInvalidLoginState
	}
	if s.ExpiresAt == 0 || s.ExpiresAt < time.Now().Unix() {
		return loginState{}, errExpiredLoginState
	}
	if s.Nonce == "" {
		return loginState{}, errInvalidLoginState
	}
	return s, nil
}

// sanitizeReturnTo only allows same-site paths, closing the open redirect
func sanitizeReturnTo(returnTo string) string {
	if returnTo == "" || !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		return "/"
	}
	return returnTo
}
