package zoomauth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/eggsplain/eggsplain-front/internal/crypto"
)

// StateTTL is how long a minted state token stays redeemable
const StateTTL = 10 * time.Minute

// State verification failures. Callers log these distinctly; at the HTTP
// boundary they all collapse to a 400.
var (
	ErrInvalidStateFormat    = errors.New("Invalid state format")
	ErrInvalidStateSignature = errors.New("Invalid state signature")
	ErrStateExpired          = errors.New("OAuth state expired")
	ErrStateMissingUserData  = errors.New("OAuth state is missing user data")
)

// StatePayload is the signed state carried through the Zoom consent
// redirect. Timestamps are Unix seconds.
type StatePayload struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	ReturnTo    string `json:"returnTo"`
	RedirectURI string `json:"redirectUri,omitempty"`
	IssuedAt    int64  `json:"iat"`
	ExpiresAt   int64  `json:"exp"`
}

// SignState serializes the payload to unpadded base64url JSON and appends
// an HMAC-SHA256 tag: "<base64url(json)>.<base64url(hmac)>".
func SignState(payload StatePayload, secret []byte) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	data := base64.RawURLEncoding.EncodeToString(raw)
	return data + "." + crypto.SignData(data, secret), nil
}

// VerifyState checks structure, signature, expiry and required identity
// fields, in that order, returning the first applicable sentinel error.
// The data segment may arrive padded or unpadded.
func VerifyState(token string, secret []byte) (StatePayload, error) {
	return verifyStateAt(token, secret, time.Now())
}

func verifyStateAt(token string, secret []byte, now time.Time) (StatePayload, error) {
	data, sig, found := strings.Cut(token, ".")
	if !found || data == "" || sig == "" {
		return StatePayload{}, ErrInvalidStateFormat
	}

	if !crypto.ValidateSignedData(data, sig, secret) {
		return StatePayload{}, ErrInvalidStateSignature
	}

	raw, err := crypto.DecodeBase64URL(data)
	if err != nil {
		return StatePayload{}, ErrInvalidStateFormat
	}

	var payload StatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return StatePayload{}, ErrInvalidStateFormat
	}

	if payload.ExpiresAt == 0 || payload.ExpiresAt < now.Unix() {
		return StatePayload{}, ErrStateExpired
	}
	if payload.UserID == "" || payload.Email == "" {
		return StatePayload{}, ErrStateMissingUserData
	}

	return payload, nil
}

// StateSignature returns the signature segment of a state token, used as
// the replay-ledger key for single-use enforcement.
func StateSignature(token string) string {
	_, sig, _ := strings.Cut(token, ".")
	return sig
}

// Remaining returns how long the payload stays valid, for replay bookkeeping
func (p StatePayload) Remaining(now time.Time) time.Duration {
	return time.Unix(p.ExpiresAt, 0).Sub(now)
}
