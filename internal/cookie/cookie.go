package cookie

import (
	"net/http"
	"time"

	"github.com/eggsplain/eggsplain-front/internal/envutil"
	"github.com/eggsplain/eggsplain-front/internal/log"
)

// Cookie names used by the dashboard
const (
	AdminSessionCookie = "eggsplain-admin-session"
	UserTokenCookie    = "eggsplain-token"
)

// Lifetimes are client-side bounds only: the admin envelope carries its
// own timestamp and the user token is revoked backend-side.
const (
	AdminSessionMaxAge = 24 * time.Hour
	UserTokenMaxAge    = 30 * 24 * time.Hour
)

// SetAdminSession sets the admin session cookie with appropriate security settings
func SetAdminSession(w http.ResponseWriter, value string) {
	set(w, AdminSessionCookie, value, AdminSessionMaxAge)
}

// SetUserToken sets the per-user backend API token cookie
func SetUserToken(w http.ResponseWriter, value string) {
	set(w, UserTokenCookie, value, UserTokenMaxAge)
}

func set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	secure := !envutil.IsDev()
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})

	log.LogTraceWithFields("cookie", "Cookie set", map[string]any{
		"name":     name,
		"maxAge":   maxAge.String(),
		"secure":   secure,
		"sameSite": "Lax",
	})
}

// Clear removes a cookie by setting MaxAge to -1
func Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// ClearAdminSession removes the admin session cookie
func ClearAdminSession(w http.ResponseWriter) {
	Clear(w, AdminSessionCookie)
}

// ClearUserToken removes the user token cookie
func ClearUserToken(w http.ResponseWriter) {
	Clear(w, UserTokenCookie)
}

// Get retrieves a cookie value from the request
func Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// GetAdminSession retrieves the admin session cookie value
func GetAdminSession(r *http.Request) (string, error) {
	return Get(r, AdminSessionCookie)
}

// GetUserToken retrieves the user token cookie value
func GetUserToken(r *http.Request) (string, error) {
	return Get(r, UserTokenCookie)
}
