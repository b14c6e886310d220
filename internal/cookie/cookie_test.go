package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordedCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestSetAdminSession(t *testing.T) {
	rec := httptest.NewRecorder()
	SetAdminSession(rec, "envelope-value")

	c := recordedCookie(t, rec, AdminSessionCookie)
	assert.Equal(t, "envelope-value", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, int(AdminSessionMaxAge.Seconds()), c.MaxAge)
}

func TestSetUserTokenDevMode(t *testing.T) {
	t.Setenv("EGGSPLAIN_FRONT_ENV", "development")

	rec := httptest.NewRecorder()
	SetUserToken(rec, "tok-123")

	c := recordedCookie(t, rec, UserTokenCookie)
	assert.False(t, c.Secure, "dev mode should allow plain HTTP")
	assert.True(t, c.HttpOnly)
	assert.Equal(t, int(UserTokenMaxAge.Seconds()), c.MaxAge)
}

func TestClear(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearAdminSession(rec)

	c := recordedCookie(t, rec, AdminSessionCookie)
	assert.Equal(t, "", c.Value)
	assert.Negative(t, c.MaxAge)
}

func TestGet(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: UserTokenCookie, Value: "tok-abc"})

	v, err := GetUserToken(r)
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", v)

	_, err = GetAdminSession(r)
	assert.ErrorIs(t, err, http.ErrNoCookie)
}
