// Package upstream is a typed client for the eggsplain backend's Admin
// API: the user lookup, provisioning and token-minting calls the login
// flows depend on. Payloads the dashboard does not interpret (the user's
// opaque data blob) are passed through as raw JSON.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/eggsplain/eggsplain-front/internal/config"
	"github.com/eggsplain/eggsplain-front/internal/ioutil"
	"github.com/eggsplain/eggsplain-front/internal/log"
)

const (
	requestTimeout = 15 * time.Second
	adminKeyHeader = "X-Admin-API-Key"
	userKeyHeader  = "X-API-Key"

	errorBodyLimit = 4096
)

// User is the backend user record as returned by the Admin API
type User struct {
	ID                json.Number     `json:"id"`
	Email             string          `json:"email"`
	Name              string          `json:"name,omitempty"`
	MaxConcurrentBots int             `json:"max_concurrent_bots,omitempty"`
	CreatedAt         string          `json:"created_at,omitempty"`
	Data              json.RawMessage `json:"data,omitempty"`
	APITokens         []APIToken      `json:"api_tokens,omitempty"`
}

// APIToken is a minted user token. The secret value is only present in
// the response of the mint call.
type APIToken struct {
	ID    json.Number `json:"id"`
	Token string      `json:"token,omitempty"`
}

// CreateUserRequest is the provisioning payload for new users
type CreateUserRequest struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	MaxConcurrentBots int    `json:"max_concurrent_bots,omitempty"`
}

// Client talks to the Admin API with the shared admin key
type Client struct {
	baseURL string
	apiKey  config.Secret
	http    *http.Client
}

// NewClient creates an Admin API client
func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL: cfg.APIURL,
		apiKey:  cfg.AdminAPIKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// FindUserByEmail looks a user up by address
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/admin/users/email/"+url.PathEscape(email), nil, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches a user record, including token metadata, by id
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(id), nil, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser provisions a new backend user
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodPost, "/admin/users", req, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateToken mints a fresh API token for the user. Existing token values
// cannot be read back, so every login mints a new one.
func (c *Client) CreateToken(ctx context.Context, userID string) (string, error) {
	var tok APIToken
	err := c.do(ctx, http.MethodPost, "/admin/users/"+url.PathEscape(userID)+"/tokens", struct{}{}, &tok)
	if err != nil {
		return "", err
	}
	if tok.Token == "" {
		return "", &APIError{CodeServerError, "token mint returned no token value", "", http.StatusInternalServerError}
	}
	return tok.Token, nil
}

// UpdateUser patches a user record
func (c *Client) UpdateUser(ctx context.Context, id string, patch any) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodPatch, "/admin/users/"+url.PathEscape(id), patch, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Reachable probes the Admin API with a minimal list call. A 401 means
// the service is up but the key is wrong; that is reported separately.
func (c *Client) Reachable(ctx context.Context) (reachable bool, err error) {
	if !c.apiKey.IsSet() {
		return false, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/admin/users?limit=1", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set(adminKeyHeader, string(c.apiKey))

	resp, err := c.http.Do(req)
	if err != nil {
		return false, &APIError{CodeUnreachable, "Cannot reach API", err.Error(), 0}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return false, errorFromStatus(resp.StatusCode, "Invalid admin API key")
	default:
		return false, errorFromStatus(resp.StatusCode, ioutil.ReadLimited(resp.Body, errorBodyLimit))
	}
}

// VerifyUserToken checks a per-user token by listing meetings with it
func (c *Client) VerifyUserToken(ctx context.Context, token string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/meetings", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set(userKeyHeader, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, &APIError{CodeUnreachable, "Cannot reach API", err.Error(), 0}
	}
	defer resp.Body.Close()

	return resp.StatusCode < 300, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if !c.apiKey.IsSet() {
		return ErrNotConfigured
	}

	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(adminKeyHeader, string(c.apiKey))

	resp, err := c.http.Do(req)
	if err != nil {
		log.LogWarnWithFields("upstream", "Admin API request failed", map[string]any{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return &APIError{CodeUnreachable, "Cannot reach API", err.Error(), 0}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errorFromStatus(resp.StatusCode, ioutil.ReadLimited(resp.Body, errorBodyLimit))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{CodeServerError, "invalid JSON from Admin API", err.Error(), resp.StatusCode}
	}
	return nil
}
