// Package trust provides trust stores: the sets of issuer identities a
// verifier accepts signatures from. A store is owned by its caller; there is
// no process-wide registry.
package trust

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/microcred/microcred-core/pkg/credential"
	"github.com/microcred/microcred-core/pkg/crypto"
)

// Common errors returned by this package.
var (
	ErrIssuerNotFound = errors.New("issuer not found in trust store")
	ErrInvalidIssuer  = errors.New("invalid issuer identity")
)

// Store is the interface for a trust store.
type Store interface {
	// Add adds an issuer. Adding an id that is already present replaces
	// the stored identity.
	Add(issuer credential.Issuer) error

	// Get retrieves an issuer by id.
	Get(id uuid.UUID) (*credential.Issuer, error)

	// List returns all issuers in insertion order.
	List() ([]credential.Issuer, error)

	// Remove removes every entry with the given id.
	Remove(id uuid.UUID) error
}

// Validate checks that issuer can be trusted at all: it needs an id and a
// 32-byte public key.
func Validate(issuer credential.Issuer) error {
	if issuer.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalidIssuer)
	}
	if len(issuer.PublicKey) != crypto.PublicKeySize {
		return fmt.Errorf("%w: public key must be %d bytes, got %d", ErrInvalidIssuer, crypto.PublicKeySize, len(issuer.PublicKey))
	}
	return nil
}

// MemoryStore is an in-memory Store. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	issuers []credential.Issuer
}

// NewMemoryStore creates a store holding the given issuers.
func NewMemoryStore(issuers ...credential.Issuer) (*MemoryStore, error) {
	s := &MemoryStore{}
	for _, iss := range issuers {
		if err := s.Add(iss); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add adds an issuer, replacing an existing entry with the same id in place.
func (s *MemoryStore) Add(issuer credential.Issuer) error {
	if err := Validate(issuer); err != nil {
		return err
	}
	issuer.PublicKey = append([]byte(nil), issuer.PublicKey...)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.issuers {
		if s.issuers[i].Equal(issuer) {
			s.issuers[i] = issuer
			return nil
		}
	}
	s.issuers = append(s.issuers, issuer)
	return nil
}

// Get retrieves an issuer by id.
func (s *MemoryStore) Get(id uuid.UUID) (*credential.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, iss := range s.issuers {
		if iss.ID == id {
			iss.PublicKey = append([]byte(nil), iss.PublicKey...)
			return &iss, nil
		}
	}
	return nil, ErrIssuerNotFound
}

// List returns a copy of all issuers in insertion order.
func (s *MemoryStore) List() ([]credential.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]credential.Issuer, len(s.issuers))
	for i, iss := range s.issuers {
		iss.PublicKey = append([]byte(nil), iss.PublicKey...)
		out[i] = iss
	}
	return out, nil
}

// Remove removes every entry with the given id. Removing an unknown id
// returns ErrIssuerNotFound.
func (s *MemoryStore) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.issuers)
	s.issuers = slices.DeleteFunc(s.issuers, func(iss credential.Issuer) bool {
		return iss.ID == id
	})
	if len(s.issuers) == n {
		return ErrIssuerNotFound
	}
	return nil
}
