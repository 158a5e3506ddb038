// Package issuer implements the issuing service: an issuer identity plus the
// keypair that signs credentials on its behalf.
package issuer

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/microcred/microcred-core/pkg/credential"
	"github.com/microcred/microcred-core/pkg/crypto"
	"github.com/microcred/microcred-core/pkg/did"
	"go.uber.org/zap"
)

// ErrKeyMismatch is returned by FromExisting when the secret key does not
// belong to the public key recorded in the issuer identity.
var ErrKeyMismatch = errors.New("secret key does not match issuer public key")

// ErrForeignDraft is returned by Sign for drafts started by another issuer.
var ErrForeignDraft = errors.New("draft was not created by this issuer")

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for IssuedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service issues signed credentials. It holds no mutable state after
// construction and is safe for concurrent use.
type Service struct {
	identity credential.Issuer
	keys     *crypto.KeyPair
	logger   *zap.Logger
	now      func() time.Time
}

func newService(identity credential.Issuer, keys *crypto.KeyPair, opts []Option) *Service {
	s := &Service{
		identity: identity,
		keys:     keys,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("issuer_id", identity.ID.String()))
	return s
}

// New creates an issuer with a fresh keypair and a fresh id.
func New(name, url string, opts ...Option) *Service {
	keys := crypto.GenerateKeyPair()
	identity := credential.Issuer{
		ID:        uuid.New(),
		Name:      name,
		URL:       url,
		PublicKey: keys.PublicKey(),
	}
	return newService(identity, keys, opts)
}

// FromExisting restores an issuer from its published identity and secret
// key. It fails if the key is malformed or does not derive the public key
// recorded in identity.
func FromExisting(identity credential.Issuer, secretKey []byte, opts ...Option) (*Service, error) {
	keys, err := crypto.KeyPairFromSecretKey(secretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load issuer key: %w", err)
	}
	if !bytes.Equal(keys.PublicKey(), identity.PublicKey) {
		keys.Destroy()
		return nil, fmt.Errorf("%w: issuer %s", ErrKeyMismatch, identity.ID)
	}

	identity.PublicKey = keys.PublicKey()
	return newService(identity, keys, opts), nil
}

// Identity returns a copy of the issuer identity, suitable for adding to a
// verifier's trust store.
func (s *Service) Identity() credential.Issuer {
	identity := s.identity
	identity.PublicKey = append([]byte(nil), s.identity.PublicKey...)
	return identity
}

// PublicKey returns the 32-byte public key.
func (s *Service) PublicKey() []byte {
	return s.keys.PublicKey()
}

// SecretKey returns a copy of the 32-byte secret seed for persistence.
// Callers own the copy and should zero it when done.
func (s *Service) SecretKey() []byte {
	return s.keys.SecretKey()
}

// WriteKeyFile saves the secret key as a private JWK whose kid is the
// did:key of the public key.
func (s *Service) WriteKeyFile(path string) error {
	return crypto.WriteSecretKeyFile(path, s.keys, s.KeyDID())
}

// KeyDID returns the did:key form of the issuer public key.
func (s *Service) KeyDID() string {
	return did.NewKeyDID(s.identity.PublicKey)
}

// NewDraft starts an unsigned credential from this issuer. Use it with Sign
// when metadata must be attached before signing.
func (s *Service) NewDraft(subject credential.Subject, skill credential.Skill, evidence []credential.Evidence, expiresAt *time.Time) *credential.Draft {
	return credential.NewDraftAt(s.now(), s.identity, subject, skill, evidence, expiresAt)
}

// Sign seals a draft with this issuer's key. The draft must have been
// created by this issuer.
func (s *Service) Sign(draft *credential.Draft) (*credential.Signed, error) {
	if embedded := draft.Issuer(); !embedded.Equal(s.identity) || !bytes.Equal(embedded.PublicKey, s.identity.PublicKey) {
		return nil, fmt.Errorf("%w: draft %s names issuer %s", ErrForeignDraft, draft.ID(), embedded.ID)
	}

	signed, err := draft.Seal(s.keys)
	if err != nil {
		s.logger.Warn("credential signing failed",
			zap.String("credential_id", draft.ID().String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("credential issued",
		zap.String("credential_id", signed.ID().String()),
		zap.String("skill", signed.Skill().ID),
		zap.String("digest", signed.Digest().String()))
	return signed, nil
}

// IssueCredential builds, canonical-encodes, digests and signs a credential
// in one step. Only the encoding can fail.
func (s *Service) IssueCredential(subject credential.Subject, skill credential.Skill, evidence []credential.Evidence, expiresAt *time.Time) (*credential.Signed, error) {
	return s.Sign(s.NewDraft(subject, skill, evidence, expiresAt))
}
