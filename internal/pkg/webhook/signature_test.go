package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature_RoundTrip(t *testing.T) {
	payload := []byte(`{"object":"instagram","entry":[]}`)
	secret := "app-secret"

	header := SignPayload(payload, secret)
	assert.True(t, VerifySignature(payload, header, secret))
}

func TestVerifySignature_MutatedPayload(t *testing.T) {
	payload := []byte(`{"object":"instagram","entry":[]}`)
	secret := "app-secret"
	header := SignPayload(payload, secret)

	// Flipping any single byte must invalidate the signature.
	mutated := make([]byte, len(payload))
	copy(mutated, payload)
	mutated[0] ^= 0x01
	assert.False(t, VerifySignature(mutated, header, secret))
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	payload := []byte(`{"object":"instagram"}`)
	header := SignPayload(payload, "app-secret")

	assert.False(t, VerifySignature(payload, header, "other-secret"))
}

func TestVerifySignature_EmptySecretIsPermissive(t *testing.T) {
	payload := []byte(`{"object":"instagram"}`)

	assert.True(t, VerifySignature(payload, "", ""))
	assert.True(t, VerifySignature(payload, "sha256=deadbeef", ""))
}

func TestVerifySignature_Sha1Legacy(t *testing.T) {
	payload := []byte(`{"object":"instagram"}`)
	secret := "app-secret"

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(payload)
	digest := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, VerifySignature(payload, "sha1="+digest, secret))

	// A bare digest without an algorithm prefix is matched against both.
	assert.True(t, VerifySignature(payload, digest, secret))
}

func TestVerifySignature_MalformedHeader(t *testing.T) {
	payload := []byte(`{"object":"instagram"}`)
	secret := "app-secret"

	tests := []struct {
		name   string
		header string
	}{
		{"empty header", ""},
		{"not hex", "sha256=zzzz"},
		{"prefix only", "sha256="},
		{"unknown algorithm", "md5=abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifySignature(payload, tt.header, secret))
		})
	}
}

func TestSignPayload_Format(t *testing.T) {
	header := SignPayload([]byte("body"), "secret")
	require.Len(t, header, len("sha256=")+64)
	assert.Contains(t, header, "sha256=")
}
