// Package did encodes issuer public keys as did:key identifiers.
// Only the Ed25519 key type is supported.
package did

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/multiformats/go-multibase"
)

// Common errors returned by this package.
var (
	ErrInvalidKeyDID      = errors.New("invalid did:key format")
	ErrUnsupportedKeyType = errors.New("unsupported key type in did:key (only Ed25519 supported)")
)

const (
	keyPrefix = "did:key:"

	// Ed25519 multicodec 0xed01, varint-encoded.
	ed25519CodecHi = 0xed
	ed25519CodecLo = 0x01
)

// NewKeyDID constructs a did:key identifier from an Ed25519 public key.
// Format: did:key:z<base58btc(0xed01 || public_key)>. It returns the empty
// string if publicKey is not 32 bytes.
func NewKeyDID(publicKey []byte) string {
	if len(publicKey) != ed25519.PublicKeySize {
		return ""
	}

	prefixed := make([]byte, 2+len(publicKey))
	prefixed[0] = ed25519CodecHi
	prefixed[1] = ed25519CodecLo
	copy(prefixed[2:], publicKey)

	encoded, err := multibase.Encode(multibase.Base58BTC, prefixed)
	if err != nil {
		return ""
	}
	return keyPrefix + encoded
}

// PublicKeyFromKeyDID extracts the Ed25519 public key from a did:key identifier.
func PublicKeyFromKeyDID(did string) (ed25519.PublicKey, error) {
	if !strings.HasPrefix(did, keyPrefix) {
		return nil, fmt.Errorf("%w: must start with %q", ErrInvalidKeyDID, keyPrefix)
	}

	value := strings.TrimPrefix(did, keyPrefix)
	if value == "" || strings.Contains(value, ":") {
		return nil, fmt.Errorf("%w: malformed key identifier", ErrInvalidKeyDID)
	}

	enc, decoded, err := multibase.Decode(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyDID, err)
	}
	if enc != multibase.Base58BTC {
		return nil, fmt.Errorf("%w: expected base58btc multibase, got %q", ErrInvalidKeyDID, string(rune(enc)))
	}

	if len(decoded) < 2 {
		return nil, fmt.Errorf("%w: decoded value too short", ErrInvalidKeyDID)
	}
	if decoded[0] != ed25519CodecHi || decoded[1] != ed25519CodecLo {
		return nil, fmt.Errorf("%w: got multicodec 0x%02x%02x", ErrUnsupportedKeyType, decoded[0], decoded[1])
	}

	publicKey := decoded[2:]
	if len(publicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: Ed25519 public key must be %d bytes, got %d", ErrInvalidKeyDID, ed25519.PublicKeySize, len(publicKey))
	}
	return ed25519.PublicKey(publicKey), nil
}
