package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/eggsplain/eggsplain-front/internal/adminsession"
	"github.com/eggsplain/eggsplain-front/internal/config"
	"github.com/eggsplain/eggsplain-front/internal/cookie"
	"github.com/eggsplain/eggsplain-front/internal/email"
	"github.com/eggsplain/eggsplain-front/internal/emailutil"
	jsonwriter "github.com/eggsplain/eggsplain-front/internal/json"
	"github.com/eggsplain/eggsplain-front/internal/log"
	"github.com/eggsplain/eggsplain-front/internal/magiclink"
	"github.com/eggsplain/eggsplain-front/internal/registration"
	"github.com/eggsplain/eggsplain-front/internal/replay"
	"github.com/eggsplain/eggsplain-front/internal/upstream"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandlers serves the dashboard login surface: admin token exchange,
// password login, magic links and the session-check endpoints.
type AuthHandlers struct {
	cfg      config.Config
	sessions adminsession.Codec
	admin    *upstream.Client
	mailer   *email.Sender
	replays  *replay.Ledger
}

func NewAuthHandlers(cfg config.Config, sessions adminsession.Codec, admin *upstream.Client, mailer *email.Sender, replays *replay.Ledger) *AuthHandlers {
	return &AuthHandlers{
		cfg:      cfg,
		sessions: sessions,
		admin:    admin,
		mailer:   mailer,
		replays:  replays,
	}
}

// AdminVerify exchanges the admin API key for a session cookie
func (h *AuthHandlers) AdminVerify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := decodeJSONBody(r, &body); err != nil || body.Token == "" {
		jsonwriter.WriteBadRequest(w, "Token is required")
		return
	}

	if !h.cfg.AdminConfigured() {
		log.LogError("Admin verification attempted without ADMIN_API_KEY configured")
		jsonwriter.WriteInternalServerError(w, "Admin API key not configured")
		return
	}

	if subtle.ConstantTimeCompare([]byte(body.Token), []byte(h.cfg.AdminAPIKey)) != 1 {
		log.LogWarnWithFields("admin_auth", "Admin verification failed", map[string]any{
			"remote_addr": r.RemoteAddr,
		})
		jsonwriter.WriteUnauthorized(w, "Invalid admin token")
		return
	}

	cookie.SetAdminSession(w, h.sessions.Issue())
	log.LogInfoWithFields("admin_auth", "Admin authenticated", map[string]any{
		"remote_addr": r.RemoteAddr,
	})
	jsonwriter.Write(w, map[string]any{
		"success": true,
		"message": "Admin authenticated",
	})
}

// AdminSessionCheck reports whether the current admin session cookie is valid
func (h *AuthHandlers) AdminSessionCheck(w http.ResponseWriter, r *http.Request) {
	value, err := cookie.GetAdminSession(r)
	if err != nil {
		jsonwriter.WriteResponse(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
		return
	}

	ok, reason := h.sessions.Verify(value)
	if !ok {
		jsonwriter.WriteResponse(w, http.StatusUnauthorized, map[string]any{
			"authenticated": false,
			"reason":        reason,
		})
		return
	}

	jsonwriter.Write(w, map[string]any{"authenticated": true})
}

// AdminLogout clears the admin session cookie
func (h *AuthHandlers) AdminLogout(w http.ResponseWriter, r *http.Request) {
	cookie.ClearAdminSession(w)
	jsonwriter.Write(w, map[string]any{"success": true})
}

// LoginWithPassword is the direct email/password fallback for the operator
// account. Credentials are checked locally; the backend user is provisioned
// on first login.
func (h *AuthHandlers) LoginWithPassword(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.AdminConfigured() {
		jsonwriter.WriteInternalServerError(w, "Admin API key not configured")
		return
	}
	if !h.cfg.PasswordLoginConfigured() {
		jsonwriter.WriteErrorCode(w, http.StatusServiceUnavailable,
			"Password login is not configured", "PASSWORD_LOGIN_NOT_CONFIGURED")
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSONBody(r, &body); err != nil || body.Email == "" || body.Password == "" {
		jsonwriter.WriteBadRequest(w, "Email and password are required")
		return
	}

	if !h.checkPasswordCredentials(body.Email, body.Password) {
		log.LogWarnWithFields("auth", "Password login failed", map[string]any{
			"email":       emailutil.Normalize(body.Email),
			"remote_addr": r.RemoteAddr,
		})
		jsonwriter.WriteUnauthorized(w, "Invalid credentials")
		return
	}

	h.establishSession(w, r, emailutil.Normalize(body.Email), "password")
}

func (h *AuthHandlers) checkPasswordCredentials(email, password string) bool {
	if emailutil.Normalize(email) != emailutil.Normalize(h.cfg.AdminEmail) {
		// Still run the password comparison so both failure modes cost
		// the same.
		verifyPassword(h.cfg.AdminPassword, password)
		return false
	}
	return verifyPassword(h.cfg.AdminPassword, password)
}

// verifyPassword accepts either a bcrypt hash or a plaintext value in the
// configured password, keeping plaintext comparisons constant time.
func verifyPassword(configured config.Secret, candidate string) bool {
	v := string(configured)
	if strings.HasPrefix(v, "$2a$") || strings.HasPrefix(v, "$2b$") || strings.HasPrefix(v, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(v), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(v), []byte(candidate)) == 1
}

// Me validates the user token cookie against the backend
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	token, err := cookie.GetUserToken(r)
	if err != nil || token == "" {
		jsonwriter.WriteUnauthorized(w, "Not authenticated")
		return
	}

	valid, err := h.admin.VerifyUserToken(r.Context(), token)
	if err != nil {
		jsonwriter.WriteServiceUnavailable(w, "Cannot reach eggsplain API")
		return
	}
	if !valid {
		cookie.ClearUserToken(w)
		jsonwriter.WriteUnauthorized(w, "Session is no longer valid")
		return
	}

	jsonwriter.Write(w, map[string]any{"authenticated": true})
}

// Logout clears the user token cookie
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	cookie.ClearUserToken(w)
	jsonwriter.Write(w, map[string]any{"success": true})
}

// SendMagicLink mints a login token and emails it to the address
func (h *AuthHandlers) SendMagicLink(w http.ResponseWriter, r *http.Request) {
	if !h.mailer.Configured() {
		jsonwriter.WriteErrorResponse(w, http.StatusServiceUnavailable, jsonwriter.ErrorResponse{
			Error:   "Email login is not configured",
			Details: "Missing: " + strings.Join(h.cfg.SMTP.MissingVars(), ", "),
			Code:    "SMTP_NOT_CONFIGURED",
		})
		return
	}
	if !h.cfg.AdminConfigured() {
		jsonwriter.WriteErrorCode(w, http.StatusServiceUnavailable,
			"Email login is not configured", "ADMIN_API_NOT_CONFIGURED")
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSONBody(r, &body); err != nil || body.Email == "" {
		jsonwriter.WriteBadRequest(w, "Email is required")
		return
	}

	addr := emailutil.Normalize(body.Email)
	if !emailutil.IsValid(addr) {
		jsonwriter.WriteBadRequest(w, "Invalid email address")
		return
	}

	exists, err := h.userExists(r.Context(), addr)
	if err != nil {
		log.LogErrorWithFields("auth", "User lookup failed for magic link", map[string]any{
			"email": addr,
			"error": err.Error(),
		})
		jsonwriter.WriteErrorCode(w, http.StatusServiceUnavailable,
			"Cannot reach eggsplain API", "API_ERROR")
		return
	}

	if denial := registration.Validate(addr, exists, h.cfg.Registration); denial != "" {
		jsonwriter.WriteForbidden(w, denial)
		return
	}

	token, err := magiclink.Mint(addr, []byte(h.cfg.JWTSecret))
	if err != nil {
		jsonwriter.WriteInternalServerError(w, "Failed to create login link")
		return
	}

	link := h.cfg.PublicBaseURL + "/auth/verify?token=" + token
	if err := h.mailer.SendMagicLink(addr, link); err != nil {
		switch {
		case errors.Is(err, email.ErrUnreachable):
			jsonwriter.WriteErrorCode(w, http.StatusServiceUnavailable,
				"Cannot reach email server", "SMTP_UNREACHABLE")
		case errors.Is(err, email.ErrAuthFailed):
			jsonwriter.WriteErrorCode(w, http.StatusServiceUnavailable,
				"Email authentication failed", "SMTP_AUTH_FAILED")
		default:
			jsonwriter.WriteErrorCode(w, http.StatusInternalServerError,
				"Failed to send login email", "SMTP_ERROR")
		}
		return
	}

	jsonwriter.Write(w, map[string]any{"success": true})
}

// VerifyMagicLink consumes a login token from the emailed link
func (h *AuthHandlers) VerifyMagicLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		jsonwriter.WriteBadRequest(w, "Token is required")
		return
	}

	claims, err := magiclink.Verify(token, []byte(h.cfg.JWTSecret))
	if err != nil {
		if errors.Is(err, magiclink.ErrExpiredToken) {
			jsonwriter.WriteUnauthorized(w, "Magic link expired")
			return
		}
		jsonwriter.WriteUnauthorized(w, "Invalid magic link")
		return
	}

	// Single use: the jti is burned for the token's remaining lifetime
	if !h.replays.Consume("magiclink:"+claims.ID, claims.Remaining(time.Now())) {
		jsonwriter.WriteUnauthorized(w, "Magic link already used")
		return
	}

	h.establishSession(w, r, claims.Email, "magic-link")
}

// establishSession provisions the backend user if needed, mints a fresh API
// token and sets the user cookie. Shared by password, magic-link and OAuth
// logins.
func (h *AuthHandlers) establishSession(w http.ResponseWriter, r *http.Request, addr, method string) {
	user, isNew, err := h.findOrCreateUser(r.Context(), addr)
	if err != nil {
		log.LogErrorWithFields("auth", "User provisioning failed", map[string]any{
			"email":  addr,
			"method": method,
			"error":  err.Error(),
		})
		jsonwriter.WriteServiceUnavailable(w, "Cannot reach eggsplain API")
		return
	}

	token, err := h.admin.CreateToken(r.Context(), user.ID.String())
	if err != nil {
		log.LogErrorWithFields("auth", "Token mint failed", map[string]any{
			"email": addr,
			"error": err.Error(),
		})
		jsonwriter.WriteServiceUnavailable(w, "Cannot reach eggsplain API")
		return
	}

	cookie.SetUserToken(w, token)
	log.LogInfoWithFields("auth", "User logged in", map[string]any{
		"email":   addr,
		"method":  method,
		"is_new":  isNew,
		"user_id": user.ID.String(),
	})

	jsonwriter.Write(w, map[string]any{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandlers) userExists(ctx context.Context, addr string) (bool, error) {
	_, err := h.admin.FindUserByEmail(ctx, addr)
	if err != nil {
		if upstream.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (h *AuthHandlers) findOrCreateUser(ctx context.Context, addr string) (*upstream.User, bool, error) {
	user, err := h.admin.FindUserByEmail(ctx, addr)
	if err == nil {
		return user, false, nil
	}
	if !upstream.IsNotFound(err) {
		return nil, false, err
	}

	user, err = h.admin.CreateUser(ctx, upstream.CreateUserRequest{
		Email: addr,
		Name:  emailutil.LocalPart(addr),
	})
	if err != nil {
		return nil, false, fmt.Errorf("provisioning user: %w", err)
	}
	return user, true, nil
}
