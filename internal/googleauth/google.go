// Package googleauth wraps the Google sign-in authorization-code flow
// used by the dashboard login page.
package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/eggsplain/eggsplain-front/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CallbackPath is where Google redirects back to the dashboard
const CallbackPath = "/api/auth/google/callback"

// UserInfo represents Google user information
type UserInfo struct {
	Email         string `json:"email"`
	HostedDomain  string `json:"hd"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	VerifiedEmail bool   `json:"verified_email"`
}

// AuthURL generates a Google OAuth authorization URL carrying state
func AuthURL(cfg config.Config, state string) string {
	return oauthConfig(cfg).AuthCodeURL(state)
}

// ExchangeCodeForToken exchanges the authorization code for a token
func ExchangeCodeForToken(ctx context.Context, cfg config.Config, code string) (*oauth2.Token, error) {
	return oauthConfig(cfg).Exchange(ctx, code)
}

// FetchUserInfo loads the Google profile for the token and requires a
// verified email address.
func FetchUserInfo(ctx context.Context, cfg config.Config, token *oauth2.Token) (UserInfo, error) {
	client := oauthConfig(cfg).Client(ctx, token)

	userInfoURL := "https://www.googleapis.com/oauth2/v2/userinfo"
	if customURL := os.Getenv("GOOGLE_USERINFO_URL"); customURL != "" {
		userInfoURL = customURL
	}

	resp, err := client.Get(userInfoURL)
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UserInfo{}, fmt.Errorf("failed to get user info: status %d", resp.StatusCode)
	}

	var userInfo UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return UserInfo{}, fmt.Errorf("failed to decode user info: %w", err)
	}

	if userInfo.Email == "" || !userInfo.VerifiedEmail {
		return UserInfo{}, fmt.Errorf("google account has no verified email")
	}

	return userInfo, nil
}

// oauthConfig builds the oauth2 config from dashboard configuration
func oauthConfig(cfg config.Config) *oauth2.Config {
	// Custom endpoints are only used by tests
	endpoint := google.Endpoint
	if authURL := os.Getenv("GOOGLE_OAUTH_AUTH_URL"); authURL != "" {
		endpoint.AuthURL = authURL
	}
	if tokenURL := os.Getenv("GOOGLE_OAUTH_TOKEN_URL"); tokenURL != "" {
		endpoint.TokenURL = tokenURL
	}

	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: string(cfg.GoogleClientSecret),
		RedirectURL:  cfg.PublicBaseURL + CallbackPath,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     endpoint,
	}
}
