// Package adminsession implements the admin dashboard session cookie: a
// base64 JSON envelope carrying an authenticated flag and an issue
// timestamp, signed with HMAC-SHA256. The original dashboard shipped the
// envelope unsigned, relying on HttpOnly alone; the signature closes that
// gap while keeping the envelope shape and expiry semantics unchanged.
package adminsession

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/eggsplain/eggsplain-front/internal/crypto"
)

// TTL is how long an issued session stays valid. Checked lazily on read;
// nothing purges envelopes server-side.
const TTL = 24 * time.Hour

// Verification failure reasons surfaced to the session-check endpoint
const (
	ReasonExpired = "expired"
	ReasonInvalid = "invalid"
)

// Envelope is the cookie payload. Timestamp is epoch milliseconds.
type Envelope struct {
	Authenticated bool  `json:"authenticated"`
	Timestamp     int64 `json:"timestamp"`
}

// Codec issues and verifies signed session envelopes
type Codec struct {
	signingKey []byte
	now        func() time.Time
}

// NewCodec creates a codec signing with the given key
func NewCodec(signingKey []byte) Codec {
	return Codec{signingKey: signingKey, now: time.Now}
}

// NewCodecAt creates a codec with a fixed clock, for tests
func NewCodecAt(signingKey []byte, now func() time.Time) Codec {
	return Codec{signingKey: signingKey, now: now}
}

// Issue builds a signed envelope for a freshly authenticated admin
func (c Codec) Issue() string {
	payload, _ := json.Marshal(Envelope{
		Authenticated: true,
		Timestamp:     c.now().UnixMilli(),
	})
	data := base64.StdEncoding.EncodeToString(payload)
	return data + "." + crypto.SignData(data, c.signingKey)
}

// Verify checks a cookie value. Any structural problem (bad base64, bad
// JSON, missing signature, tampered tag) yields ok=false with
// ReasonInvalid; a correctly signed envelope past TTL yields ReasonExpired.
// Verify never panics and never returns an error: malformed input is
// simply an unauthenticated request.
func (c Codec) Verify(value string) (ok bool, reason string) {
	data, sig, found := strings.Cut(value, ".")
	if !found || data == "" || sig == "" {
		return false, ReasonInvalid
	}

	if !crypto.ValidateSignedData(data, sig, c.signingKey) {
		return false, ReasonInvalid
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return false, ReasonInvalid
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false, ReasonInvalid
	}

	if !env.Authenticated || env.Timestamp <= 0 {
		return false, ReasonInvalid
	}

	age := c.now().Sub(time.UnixMilli(env.Timestamp))
	if age < 0 {
		// Clock skew or a forged future timestamp
		return false, ReasonInvalid
	}
	if age > TTL {
		return false, ReasonExpired
	}

	return true, ""
}
