package zoomauth

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/eggsplain/eggsplain-front/internal/config"
	"golang.org/x/oauth2"
)

// Token is the Zoom OAuth token material persisted onto the user record
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	Scope        string `json:"scope,omitempty"`
}

// AuthorizeURL builds the Zoom consent URL carrying the signed state
func AuthorizeURL(cfg config.Config, redirectURI, state string) string {
	u, _ := url.Parse(zoomEndpoint().AuthURL)
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", cfg.ZoomClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

// ExchangeCode trades the authorization code for tokens. Zoom expects
// client-secret-basic, which is the oauth2 package's default auth style.
func ExchangeCode(ctx context.Context, cfg config.Config, redirectURI, code string) (Token, error) {
	conf := oauth2.Config{
		ClientID:     cfg.ZoomClientID,
		ClientSecret: string(cfg.ZoomClientSecret),
		RedirectURL:  redirectURI,
		Endpoint:     zoomEndpoint(),
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return Token{}, fmt.Errorf("zoom token exchange failed: %w", err)
	}

	if tok.AccessToken == "" || tok.RefreshToken == "" {
		return Token{}, fmt.Errorf("zoom token response missing access_token or refresh_token")
	}

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(time.Hour)
	}

	scope, _ := tok.Extra("scope").(string)
	return Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiresAt.Unix(),
		Scope:        scope,
	}, nil
}

// zoomEndpoint returns the Zoom OAuth endpoints, overridable for tests
func zoomEndpoint() oauth2.Endpoint {
	ep := oauth2.Endpoint{
		AuthURL:  "https://zoom.us/oauth/authorize",
		TokenURL: "https://zoom.us/oauth/token",
	}
	if authURL := os.Getenv("ZOOM_OAUTH_AUTH_URL"); authURL != "" {
		ep.AuthURL = authURL
	}
	if tokenURL := os.Getenv("ZOOM_OAUTH_TOKEN_URL"); tokenURL != "" {
		ep.TokenURL = tokenURL
	}
	return ep
}
