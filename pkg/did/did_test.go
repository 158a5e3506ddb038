package did_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/microcred/microcred-core/pkg/did"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyDID_RoundTrip(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	id := did.NewKeyDID(pub)
	assert.True(t, strings.HasPrefix(id, "did:key:z6Mk"), "Ed25519 did:key should start with z6Mk, got %s", id)

	got, err := did.PublicKeyFromKeyDID(id)
	require.NoError(t, err)
	assert.Equal(t, pub, got)
}

func TestNewKeyDID_KnownVector(t *testing.T) {
	// W3C did:key test vector.
	const id = "did:key:z6MkiTBz1ymuepAQ4HEHYSF1H8quG5GLVVQR3djdX3mDooWp"

	pub, err := did.PublicKeyFromKeyDID(id)
	require.NoError(t, err)
	assert.Len(t, pub, ed25519.PublicKeySize)
	assert.Equal(t, id, did.NewKeyDID(pub))
}

func TestNewKeyDID_InvalidLength(t *testing.T) {
	assert.Empty(t, did.NewKeyDID(make([]byte, 31)))
	assert.Empty(t, did.NewKeyDID(nil))
}

func TestPublicKeyFromKeyDID_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", did.ErrInvalidKeyDID},
		{"did:web", "did:web:example.com", did.ErrInvalidKeyDID},
		{"no value", "did:key:", did.ErrInvalidKeyDID},
		{"extra segment", "did:key:z6Mk:extra", did.ErrInvalidKeyDID},
		{"not base58btc", "did:key:f0102", did.ErrInvalidKeyDID},
		{"bad base58", "did:key:z0OIl", did.ErrInvalidKeyDID},
		// secp256k1 test vector from the did:key method spec.
		{"wrong codec", "did:key:zQ3shokFTS3brHcDQrn82RUDfCZESWL1ZdCEJwekUDPQiYBme", did.ErrUnsupportedKeyType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := did.PublicKeyFromKeyDID(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
