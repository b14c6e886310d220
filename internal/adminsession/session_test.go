package adminsession

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/eggsplain/eggsplain-front/internal/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("session-signing-key")

// signEnvelope builds a correctly signed cookie value for an arbitrary
// envelope, so invalid payloads can be tested past the signature check.
func signEnvelope(t *testing.T, env Envelope) string {
	t.Helper()
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	data := base64.StdEncoding.EncodeToString(raw)
	return data + "." + crypto.SignData(data, testKey)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	codec := NewCodec(testKey)

	value := codec.Issue()
	require.Contains(t, value, ".")

	ok, reason := codec.Verify(value)
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestVerifyExpired(t *testing.T) {
	issued := time.Now().Add(-25 * time.Hour)
	value := NewCodecAt(testKey, func() time.Time { return issued }).Issue()

	ok, reason := NewCodec(testKey).Verify(value)
	assert.False(t, ok)
	assert.Equal(t, ReasonExpired, reason)
}

func TestVerifyJustInsideTTL(t *testing.T) {
	issued := time.Now().Add(-23 * time.Hour)
	value := NewCodecAt(testKey, func() time.Time { return issued }).Issue()

	ok, _ := NewCodec(testKey).Verify(value)
	assert.True(t, ok)
}

func TestVerifyTamperedPayload(t *testing.T) {
	codec := NewCodec(testKey)
	_, sig, _ := strings.Cut(codec.Issue(), ".")

	forged, err := json.Marshal(Envelope{Authenticated: true, Timestamp: time.Now().UnixMilli()})
	require.NoError(t, err)

	ok, reason := codec.Verify(base64.StdEncoding.EncodeToString(forged) + "." + sig)
	assert.False(t, ok)
	assert.Equal(t, ReasonInvalid, reason)
}

func TestVerifyWrongKey(t *testing.T) {
	value := NewCodec([]byte("another-key")).Issue()

	ok, reason := NewCodec(testKey).Verify(value)
	assert.False(t, ok)
	assert.Equal(t, ReasonInvalid, reason)
}

func TestVerifyMalformedNeverPanics(t *testing.T) {
	codec := NewCodec(testKey)

	malformed := []string{
		"",
		".",
		"no-signature",
		"not-base64!!!.also-not-base64!!!",
		"aGVsbG8=.",
		".aGVsbG8=",
		strings.Repeat(".", 10),
		"%%%%.%%%%",
		signEnvelope(t, Envelope{})[:10],
	}

	for _, value := range malformed {
		ok, reason := codec.Verify(value)
		assert.False(t, ok, "Verify(%q)", value)
		assert.Equal(t, ReasonInvalid, reason, "Verify(%q)", value)
	}
}

func TestVerifyInvalidEnvelopes(t *testing.T) {
	codec := NewCodec(testKey)

	tests := []struct {
		name string
		env  Envelope
	}{
		{"not authenticated", Envelope{Authenticated: false, Timestamp: time.Now().UnixMilli()}},
		{"zero timestamp", Envelope{Authenticated: true, Timestamp: 0}},
		{"negative timestamp", Envelope{Authenticated: true, Timestamp: -1}},
		{"future timestamp", Envelope{Authenticated: true, Timestamp: time.Now().Add(time.Hour).UnixMilli()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := codec.Verify(signEnvelope(t, tt.env))
			assert.False(t, ok)
			assert.Equal(t, ReasonInvalid, reason)
		})
	}
}

func TestVerifySignedJSONGarbage(t *testing.T) {
	codec := NewCodec(testKey)

	data := base64.StdEncoding.EncodeToString([]byte("not json at all"))
	value := data + "." + crypto.SignData(data, testKey)

	ok, reason := codec.Verify(value)
	assert.False(t, ok)
	assert.Equal(t, ReasonInvalid, reason)
}
