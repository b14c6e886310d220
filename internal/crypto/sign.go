package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignData computes an HMAC-SHA256 tag over data and returns it
// base64url-encoded without padding.
func SignData(data string, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignedData checks a signature produced by SignData in constant time.
// Both padded and unpadded base64url signatures are accepted.
func ValidateSignedData(data, signature string, key []byte) bool {
	sig, err := DecodeBase64URL(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return hmac.Equal(sig, mac.Sum(nil))
}

// DecodeBase64URL decodes base64url input with or without padding.
func DecodeBase64URL(s string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.URLEncoding.DecodeString(s)
}
