package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndValidate(t *testing.T) {
	key := []byte("test-signing-key")

	sig := SignData("payload", key)
	assert.NotEmpty(t, sig)
	assert.NotContains(t, sig, "=", "signature must be unpadded base64url")

	assert.True(t, ValidateSignedData("payload", sig, key))
	assert.False(t, ValidateSignedData("tampered", sig, key))
	assert.False(t, ValidateSignedData("payload", sig, []byte("other-key")))
}

func TestValidateAcceptsPaddedSignature(t *testing.T) {
	key := []byte("test-signing-key")
	sig := SignData("payload", key)

	// Clients that re-encode the tag may hand back padded base64url
	padded := sig
	for len(padded)%4 != 0 {
		padded += "="
	}
	assert.True(t, ValidateSignedData("payload", padded, key))
}

func TestValidateGarbageSignature(t *testing.T) {
	assert.False(t, ValidateSignedData("payload", "!!!not-base64!!!", []byte("key")))
	assert.False(t, ValidateSignedData("payload", "", []byte("key")))
}

func TestDecodeBase64URL(t *testing.T) {
	// Inputs chosen to produce 0, 1 and 2 padding characters when encoded
	for _, s := range []string{"", "abc", "abcd", "ab", "hello world"} {
		unpadded := base64.RawURLEncoding.EncodeToString([]byte(s))
		padded := base64.URLEncoding.EncodeToString([]byte(s))

		got, err := DecodeBase64URL(unpadded)
		require.NoError(t, err, "unpadded %q", unpadded)
		assert.Equal(t, s, string(got))

		got, err = DecodeBase64URL(padded)
		require.NoError(t, err, "padded %q", padded)
		assert.Equal(t, s, string(got))
	}
}

func TestDecodeBase64URLRejectsGarbage(t *testing.T) {
	_, err := DecodeBase64URL("!!!")
	assert.Error(t, err)
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken()
	require.NoError(t, err)
	b, err := GenerateSecureToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 40)
}
