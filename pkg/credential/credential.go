package credential

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/microcred/microcred-core/pkg/crypto"
)

// signatureField is the JSON name of Credential.Signature. It is removed
// before canonical encoding so a signature never covers itself.
const signatureField = "signature"

// Credential is the wire form of a microcredential. Verifiers receive and
// check Credentials; issuers produce them through Draft and Signed.
type Credential struct {
	ID        uuid.UUID         `json:"id"`
	Issuer    Issuer            `json:"issuer"`
	Subject   Subject           `json:"subject"`
	Skill     Skill             `json:"skill"`
	Evidence  []Evidence        `json:"evidence"`
	IssuedAt  time.Time         `json:"issued_at"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	Metadata  map[string]string `json:"metadata"`
	Signature []byte            `json:"signature,omitempty"`
}

// Parse decodes a credential from its JSON wire form.
func Parse(data []byte) (*Credential, error) {
	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse credential: %w", err)
	}
	return &c, nil
}

// IsExpired reports whether the credential has expired at the current time.
func (c *Credential) IsExpired() bool {
	return c.IsExpiredAt(time.Now())
}

// IsExpiredAt reports whether now is strictly after ExpiresAt. A credential
// without ExpiresAt never expires.
func (c *Credential) IsExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// IsValid is a local self-check: the credential is signed and not expired.
// It says nothing about whether the signature is trustworthy.
func (c *Credential) IsValid() bool {
	return c.IsValidAt(time.Now())
}

// IsValidAt is IsValid evaluated at now.
func (c *Credential) IsValidAt(now time.Time) bool {
	return len(c.Signature) > 0 && !c.IsExpiredAt(now)
}

// MarshalJSON encodes the wire form. Missing evidence encodes as [] and
// missing metadata as {}, so nil and empty produce the same bytes.
func (c Credential) MarshalJSON() ([]byte, error) {
	type wire Credential
	w := wire(c)
	if w.Evidence == nil {
		w.Evidence = []Evidence{}
	}
	if w.Metadata == nil {
		w.Metadata = map[string]string{}
	}
	return json.Marshal(w)
}

// CanonicalBytes returns the canonical encoding of c with the signature
// treated as absent. This is the exact input to the digest that is signed.
func (c *Credential) CanonicalBytes() ([]byte, error) {
	return crypto.Canonicalize(c, signatureField)
}

// Clone returns a deep copy of c.
func (c *Credential) Clone() *Credential {
	out := *c
	out.Issuer = c.Issuer.clone()
	if c.Evidence != nil {
		out.Evidence = append(make([]Evidence, 0, len(c.Evidence)), c.Evidence...)
	}
	if c.ExpiresAt != nil {
		t := *c.ExpiresAt
		out.ExpiresAt = &t
	}
	out.Metadata = maps.Clone(c.Metadata)
	if c.Signature != nil {
		out.Signature = append([]byte(nil), c.Signature...)
	}
	return &out
}
