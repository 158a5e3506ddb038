package crypto

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-jose/go-jose/v4"
)

// ErrNotEd25519 is returned when a JWK file holds a key of another type.
var ErrNotEd25519 = errors.New("key is not an Ed25519 key")

// PrivateJWK returns the keypair as a private JWK.
func (k *KeyPair) PrivateJWK(kid string) jose.JSONWebKey {
	return jose.JSONWebKey{
		Key:       k.priv,
		KeyID:     kid,
		Algorithm: string(jose.EdDSA),
		Use:       "sig",
	}
}

// PublicJWK returns an Ed25519 public key as a JWK.
func PublicJWK(publicKey []byte, kid string) jose.JSONWebKey {
	return jose.JSONWebKey{
		Key:       ed25519.PublicKey(publicKey),
		KeyID:     kid,
		Algorithm: string(jose.EdDSA),
		Use:       "sig",
	}
}

// WriteSecretKeyFile saves the keypair as a private JWK with 0600 permissions.
func WriteSecretKeyFile(path string, k *KeyPair, kid string) error {
	data, err := json.MarshalIndent(k.PrivateJWK(kid), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	return nil
}

// WritePublicKeyFile saves an Ed25519 public key as a JWK with 0644 permissions.
func WritePublicKeyFile(path string, publicKey []byte, kid string) error {
	data, err := json.MarshalIndent(PublicJWK(publicKey, kid), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal public key: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}
	return nil
}

// ReadSecretKeyFile loads a keypair from a private JWK file.
func ReadSecretKeyFile(path string) (*KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	var jwk jose.JSONWebKey
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("failed to parse private JWK: %w", err)
	}

	priv, ok := jwk.Key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotEd25519)
	}
	return KeyPairFromSecretKey(priv.Seed())
}
