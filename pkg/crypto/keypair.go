// Package crypto provides the signing, hashing and canonical encoding
// primitives used to issue and verify microcredentials.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

// Byte lengths at the credential boundary.
const (
	PublicKeySize = ed25519.PublicKeySize
	SecretKeySize = ed25519.SeedSize
	SignatureSize = ed25519.SignatureSize
	DigestSize    = 32
)

// Common errors returned by this package.
var (
	ErrInvalidKeyLength       = errors.New("invalid key length")
	ErrInvalidSignatureLength = errors.New("invalid signature length")
	ErrInvalidPublicKey       = errors.New("public key is not a valid Ed25519 point")
)

// KeyPair holds an Ed25519 keypair. The secret key is never exposed except
// through SecretKey, which returns a copy.
type KeyPair struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// GenerateKeyPair creates a fresh keypair from crypto/rand.
func GenerateKeyPair() *KeyPair {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		// crypto/rand does not fail on supported platforms.
		panic(fmt.Sprintf("crypto: failed to generate key: %v", err))
	}
	return &KeyPair{priv: priv, pub: pub}
}

// KeyPairFromSecretKey reconstructs a keypair from its 32-byte seed.
func KeyPairFromSecretKey(secret []byte) (*KeyPair, error) {
	if len(secret) != SecretKeySize {
		return nil, fmt.Errorf("%w: secret key must be %d bytes, got %d", ErrInvalidKeyLength, SecretKeySize, len(secret))
	}
	priv := ed25519.NewKeyFromSeed(secret)
	return &KeyPair{
		priv: priv,
		pub:  priv.Public().(ed25519.PublicKey),
	}, nil
}

// PublicKey returns a copy of the 32-byte public key.
func (k *KeyPair) PublicKey() []byte {
	return append([]byte(nil), k.pub...)
}

// SecretKey returns a copy of the 32-byte secret seed.
func (k *KeyPair) SecretKey() []byte {
	return append([]byte(nil), k.priv.Seed()...)
}

// Sign returns the 64-byte Ed25519 signature of message.
func (k *KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(k.priv, message)
}

// Destroy zeroes the secret key. The keypair must not be used afterwards.
func (k *KeyPair) Destroy() {
	for i := range k.priv {
		k.priv[i] = 0
	}
}

// VerifySignature reports whether signature authenticates message under
// publicKey. Malformed key or signature bytes are errors; a well-formed
// signature that does not match is (false, nil).
func VerifySignature(publicKey, message, signature []byte) (bool, error) {
	if len(publicKey) != PublicKeySize {
		return false, fmt.Errorf("%w: public key must be %d bytes, got %d", ErrInvalidKeyLength, PublicKeySize, len(publicKey))
	}
	if len(signature) != SignatureSize {
		return false, fmt.Errorf("%w: signature must be %d bytes, got %d", ErrInvalidSignatureLength, SignatureSize, len(signature))
	}
	if _, err := new(edwards25519.Point).SetBytes(publicKey); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature), nil
}
