package credential

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/microcred/microcred-core/pkg/crypto"
	"github.com/opencontainers/go-digest"
)

// Signer signs a credential digest.
type Signer interface {
	Sign(digest []byte) []byte
}

// Draft is an unsigned credential under construction. Metadata may be added
// freely; Seal produces the immutable Signed form.
type Draft struct {
	cred Credential
}

// NewDraft starts a credential issued now by issuer.
func NewDraft(issuer Issuer, subject Subject, skill Skill, evidence []Evidence, expiresAt *time.Time) *Draft {
	return NewDraftAt(time.Now(), issuer, subject, skill, evidence, expiresAt)
}

// NewDraftAt starts a credential with IssuedAt set to issuedAt. The draft
// gets a fresh ID and its own copies of issuer, evidence and expiry.
func NewDraftAt(issuedAt time.Time, issuer Issuer, subject Subject, skill Skill, evidence []Evidence, expiresAt *time.Time) *Draft {
	cred := Credential{
		ID:       uuid.New(),
		Issuer:   issuer.clone(),
		Subject:  subject,
		Skill:    skill,
		Evidence: append([]Evidence{}, evidence...),
		IssuedAt: issuedAt.UTC(),
		Metadata: map[string]string{},
	}
	if expiresAt != nil {
		t := expiresAt.UTC()
		cred.ExpiresAt = &t
	}
	return &Draft{cred: cred}
}

// ID returns the identifier assigned at creation.
func (d *Draft) ID() uuid.UUID { return d.cred.ID }

// Issuer returns the embedded issuer snapshot.
func (d *Draft) Issuer() Issuer { return d.cred.Issuer.clone() }

// AddMetadata sets key to value, replacing any previous value.
func (d *Draft) AddMetadata(key, value string) {
	d.cred.Metadata[key] = value
}

// CanonicalBytes returns the canonical encoding that Seal will sign.
func (d *Draft) CanonicalBytes() ([]byte, error) {
	return d.cred.CanonicalBytes()
}

// Seal canonical-encodes the draft, digests the encoding, signs the digest
// and returns the signed credential. The draft is left unchanged.
func (d *Draft) Seal(signer Signer) (*Signed, error) {
	canonical, err := d.cred.CanonicalBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode credential %s: %w", d.cred.ID, err)
	}

	cred := d.cred.Clone()
	cred.Signature = signer.Sign(crypto.HashCredential(canonical))

	return &Signed{
		cred:   *cred,
		digest: crypto.Digest(canonical),
	}, nil
}

// Signed is an issued credential. It cannot be modified: every accessor
// returns a copy, so a signature and its content stay consistent.
type Signed struct {
	cred   Credential
	digest digest.Digest
}

// ID returns the credential identifier.
func (s *Signed) ID() uuid.UUID { return s.cred.ID }

// Issuer returns the embedded issuer snapshot.
func (s *Signed) Issuer() Issuer { return s.cred.Issuer.clone() }

// Subject returns the credential subject.
func (s *Signed) Subject() Subject { return s.cred.Subject }

// Skill returns the claimed skill.
func (s *Signed) Skill() Skill { return s.cred.Skill }

// Evidence returns the evidence items in issue order.
func (s *Signed) Evidence() []Evidence { return append([]Evidence(nil), s.cred.Evidence...) }

// IssuedAt returns the issue time.
func (s *Signed) IssuedAt() time.Time { return s.cred.IssuedAt }

// ExpiresAt returns the expiry time and whether one is set.
func (s *Signed) ExpiresAt() (time.Time, bool) {
	if s.cred.ExpiresAt == nil {
		return time.Time{}, false
	}
	return *s.cred.ExpiresAt, true
}

// Metadata returns a copy of the metadata entries.
func (s *Signed) Metadata() map[string]string { return maps.Clone(s.cred.Metadata) }

// Signature returns a copy of the 64-byte signature.
func (s *Signed) Signature() []byte { return append([]byte(nil), s.cred.Signature...) }

// Digest returns the digest of the canonical encoding that was signed.
func (s *Signed) Digest() digest.Digest { return s.digest }

// IsExpired reports whether the credential has expired.
func (s *Signed) IsExpired() bool { return s.cred.IsExpired() }

// IsValid reports whether the credential is signed and not expired.
func (s *Signed) IsValid() bool { return s.cred.IsValid() }

// Credential returns a deep copy of the wire form.
func (s *Signed) Credential() *Credential { return s.cred.Clone() }

// MarshalJSON encodes the wire form.
func (s *Signed) MarshalJSON() ([]byte, error) {
	return json.Marshal(&s.cred)
}
