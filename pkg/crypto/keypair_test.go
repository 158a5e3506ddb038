package crypto_test

import (
	"bytes"
	"testing"

	"filippo.io/edwards25519"
	"github.com/microcred/microcred-core/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPair(t *testing.T) {
	kp := crypto.GenerateKeyPair()

	assert.Len(t, kp.PublicKey(), crypto.PublicKeySize)
	assert.Len(t, kp.SecretKey(), crypto.SecretKeySize)

	other := crypto.GenerateKeyPair()
	assert.NotEqual(t, kp.PublicKey(), other.PublicKey())
}

func TestKeyPairFromSecretKey(t *testing.T) {
	kp := crypto.GenerateKeyPair()

	restored, err := crypto.KeyPairFromSecretKey(kp.SecretKey())
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), restored.PublicKey())
	assert.Equal(t, kp.SecretKey(), restored.SecretKey())

	for _, n := range []int{0, 16, 31, 33, 64} {
		_, err := crypto.KeyPairFromSecretKey(make([]byte, n))
		assert.ErrorIs(t, err, crypto.ErrInvalidKeyLength, "length %d", n)
	}
}

func TestKeyPair_ReturnsCopies(t *testing.T) {
	kp := crypto.GenerateKeyPair()

	pub := kp.PublicKey()
	pub[0] ^= 0xff
	assert.NotEqual(t, pub, kp.PublicKey())

	secret := kp.SecretKey()
	secret[0] ^= 0xff
	assert.NotEqual(t, secret, kp.SecretKey())
}

func TestSignAndVerify(t *testing.T) {
	kp := crypto.GenerateKeyPair()
	msg := crypto.HashCredential([]byte("hello"))

	sig := kp.Sign(msg)
	require.Len(t, sig, crypto.SignatureSize)

	ok, err := crypto.VerifySignature(kp.PublicKey(), msg, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("wrong message is false not error", func(t *testing.T) {
		ok, err := crypto.VerifySignature(kp.PublicKey(), []byte("other"), sig)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("wrong key is false not error", func(t *testing.T) {
		ok, err := crypto.VerifySignature(crypto.GenerateKeyPair().PublicKey(), msg, sig)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("flipped signature bit is false", func(t *testing.T) {
		bad := bytes.Clone(sig)
		bad[10] ^= 0x01
		ok, err := crypto.VerifySignature(kp.PublicKey(), msg, bad)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestVerifySignature_Lengths(t *testing.T) {
	kp := crypto.GenerateKeyPair()
	msg := []byte("msg")
	sig := kp.Sign(msg)

	tests := []struct {
		name    string
		pub     []byte
		sig     []byte
		wantErr error
	}{
		{"short public key", kp.PublicKey()[:31], sig, crypto.ErrInvalidKeyLength},
		{"long public key", append(kp.PublicKey(), 0), sig, crypto.ErrInvalidKeyLength},
		{"empty public key", nil, sig, crypto.ErrInvalidKeyLength},
		{"short signature", kp.PublicKey(), sig[:63], crypto.ErrInvalidSignatureLength},
		{"long signature", kp.PublicKey(), append(bytes.Clone(sig), 0), crypto.ErrInvalidSignatureLength},
		{"empty signature", kp.PublicKey(), nil, crypto.ErrInvalidSignatureLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := crypto.VerifySignature(tt.pub, msg, tt.sig)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, ok)
		})
	}
}

func TestVerifySignature_InvalidPoint(t *testing.T) {
	// Find an encoding that is not a point on the curve.
	var bad []byte
	for i := 0; i < 256 && bad == nil; i++ {
		candidate := make([]byte, crypto.PublicKeySize)
		candidate[0] = byte(i)
		candidate[1] = 0x7f
		if _, err := new(edwards25519.Point).SetBytes(candidate); err != nil {
			bad = candidate
		}
	}
	require.NotNil(t, bad)

	ok, err := crypto.VerifySignature(bad, []byte("msg"), make([]byte, crypto.SignatureSize))
	assert.ErrorIs(t, err, crypto.ErrInvalidPublicKey)
	assert.False(t, ok)
}

func TestKeyPair_Destroy(t *testing.T) {
	kp := crypto.GenerateKeyPair()
	kp.Destroy()
	assert.Equal(t, make([]byte, crypto.SecretKeySize), kp.SecretKey())
}
