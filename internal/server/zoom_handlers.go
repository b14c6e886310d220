package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/eggsplain/eggsplain-front/internal/config"
	"github.com/eggsplain/eggsplain-front/internal/emailutil"
	jsonwriter "github.com/eggsplain/eggsplain-front/internal/json"
	"github.com/eggsplain/eggsplain-front/internal/log"
	"github.com/eggsplain/eggsplain-front/internal/replay"
	"github.com/eggsplain/eggsplain-front/internal/upstream"
	"github.com/eggsplain/eggsplain-front/internal/zoomauth"
)

// ZoomHandlers connects a dashboard user's Zoom account: the start call
// hands the frontend a consent URL, the complete call redeems the code and
// stores the tokens on the user record.
type ZoomHandlers struct {
	cfg     config.Config
	admin   *upstream.Client
	replays *replay.Ledger
}

func NewZoomHandlers(cfg config.Config, admin *upstream.Client, replays *replay.Ledger) *ZoomHandlers {
	return &ZoomHandlers{cfg: cfg, admin: admin, replays: replays}
}

// Start mints a signed state token and returns the Zoom consent URL
func (h *ZoomHandlers) Start(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserEmail string `json:"userEmail"`
		ReturnTo  string `json:"returnTo"`
	}
	if err := decodeJSONBody(r, &body); err != nil || body.UserEmail == "" {
		jsonwriter.WriteBadRequest(w, "userEmail is required")
		return
	}

	if !h.cfg.ZoomConfigured() {
		log.LogError("Zoom OAuth start attempted without client credentials configured")
		jsonwriter.WriteInternalServerError(w, "Zoom OAuth is not configured")
		return
	}

	addr := emailutil.Normalize(body.UserEmail)
	user, err := h.admin.FindUserByEmail(r.Context(), addr)
	if err != nil {
		log.LogWarnWithFields("zoom_oauth", "User lookup failed", map[string]any{
			"email": addr,
			"error": err.Error(),
		})
		jsonwriter.WriteBadRequest(w, "Unknown user")
		return
	}

	redirectURI := h.redirectURI()
	now := time.Now()
	state, err := zoomauth.SignState(zoomauth.StatePayload{
		UserID:      user.ID.String(),
		Email:       addr,
		ReturnTo:    body.ReturnTo,
		RedirectURI: redirectURI,
		IssuedAt:    now.Unix(),
		ExpiresAt:   now.Add(zoomauth.StateTTL).Unix(),
	}, []byte(h.cfg.StateSecret))
	if err != nil {
		jsonwriter.WriteInternalServerError(w, "Failed to create OAuth state")
		return
	}

	jsonwriter.Write(w, map[string]any{
		"authUrl": zoomauth.AuthorizeURL(h.cfg, redirectURI, state),
	})
}

// Complete redeems the authorization code and persists the Zoom tokens
// under data.zoom.oauth on the user record.
func (h *ZoomHandlers) Complete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code  string `json:"code"`
		State string `json:"state"`
	}
	if err := decodeJSONBody(r, &body); err != nil || body.Code == "" || body.State == "" {
		jsonwriter.WriteBadRequest(w, "Code and state are required")
		return
	}

	if !h.cfg.ZoomConfigured() {
		jsonwriter.WriteInternalServerError(w, "Zoom OAuth is not configured")
		return
	}

	payload, err := zoomauth.VerifyState(body.State, []byte(h.cfg.StateSecret))
	if err != nil {
		log.LogWarnWithFields("zoom_oauth", "State verification failed", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteBadRequest(w, err.Error())
		return
	}

	// Single use per state token, keyed on its signature segment
	if !h.replays.Consume("zoomstate:"+zoomauth.StateSignature(body.State), payload.Remaining(time.Now())) {
		jsonwriter.WriteBadRequest(w, "OAuth state already used")
		return
	}

	redirectURI := payload.RedirectURI
	if redirectURI == "" {
		redirectURI = h.redirectURI()
	}

	token, err := zoomauth.ExchangeCode(r.Context(), h.cfg, redirectURI, body.Code)
	if err != nil {
		log.LogErrorWithFields("zoom_oauth", "Code exchange failed", map[string]any{
			"user_id": payload.UserID,
			"error":   err.Error(),
		})
		jsonwriter.WriteBadRequest(w, "Failed to exchange authorization code")
		return
	}

	user, err := h.admin.GetUser(r.Context(), payload.UserID)
	if err != nil {
		jsonwriter.WriteServiceUnavailable(w, "Cannot reach eggsplain API")
		return
	}

	data, err := mergeZoomTokens(user.Data, token)
	if err != nil {
		log.LogErrorWithFields("zoom_oauth", "User data blob is not an object", map[string]any{
			"user_id": payload.UserID,
			"error":   err.Error(),
		})
		jsonwriter.WriteInternalServerError(w, "Failed to store Zoom tokens")
		return
	}

	if _, err := h.admin.UpdateUser(r.Context(), payload.UserID, map[string]any{"data": data}); err != nil {
		jsonwriter.WriteServiceUnavailable(w, "Cannot reach eggsplain API")
		return
	}

	log.LogInfoWithFields("zoom_oauth", "Zoom account connected", map[string]any{
		"user_id": payload.UserID,
		"email":   payload.Email,
	})

	jsonwriter.Write(w, map[string]any{
		"success":  true,
		"returnTo": payload.ReturnTo,
	})
}

func (h *ZoomHandlers) redirectURI() string {
	if h.cfg.ZoomRedirectURI != "" {
		return h.cfg.ZoomRedirectURI
	}
	return h.cfg.PublicBaseURL + "/zoom/callback"
}

// mergeZoomTokens sets data.zoom.oauth on the user's opaque data blob,
// preserving every sibling key at both levels.
func mergeZoomTokens(raw json.RawMessage, token zoomauth.Token) (map[string]any, error) {
	data := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, err
		}
	}

	zoom, _ := data["zoom"].(map[string]any)
	if zoom == nil {
		zoom = map[string]any{}
	}
	zoom["oauth"] = map[string]any{
		"access_token":  token.AccessToken,
		"refresh_token": token.RefreshToken,
		"expires_at":    token.ExpiresAt,
		"scope":         token.Scope,
	}
	data["zoom"] = zoom
	return data, nil
}
