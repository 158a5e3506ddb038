package crypto

import (
	_ "crypto/sha256" // registers SHA-256 for go-digest

	"github.com/opencontainers/go-digest"
)

// DigestAlgorithm is the hash applied to canonical credential encodings.
const DigestAlgorithm = digest.SHA256

// HashCredential returns the 32-byte SHA-256 digest of data.
func HashCredential(data []byte) []byte {
	h := DigestAlgorithm.Hash()
	_, _ = h.Write(data)
	return h.Sum(nil)
}

// Digest returns the digest of data in "sha256:<hex>" form.
func Digest(data []byte) digest.Digest {
	return DigestAlgorithm.FromBytes(data)
}
