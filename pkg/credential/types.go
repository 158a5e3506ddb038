// Package credential defines the microcredential data model: the issuer,
// subject, skill and evidence a credential binds together, the wire form
// exchanged between parties, and the Draft/Signed pair used while issuing.
package credential

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common errors returned by this package.
var (
	ErrInvalidSkillLevel   = errors.New("invalid skill level")
	ErrInvalidEvidenceKind = errors.New("invalid evidence kind")
)

// Issuer identifies an issuing authority. Two issuers are the same
// authority iff their IDs are equal.
type Issuer struct {
	// ID is the unique issuer identifier.
	ID uuid.UUID `json:"id"`

	// Name is the display name (e.g., "Test University").
	Name string `json:"name"`

	// URL is the issuer's home page.
	URL string `json:"url"`

	// PublicKey is the raw 32-byte Ed25519 public key.
	PublicKey []byte `json:"public_key"`
}

// Equal reports whether i and other identify the same issuer.
func (i Issuer) Equal(other Issuer) bool {
	return i.ID == other.ID
}

func (i Issuer) clone() Issuer {
	i.PublicKey = append([]byte(nil), i.PublicKey...)
	return i
}

// Subject is the holder of a credential.
type Subject struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// SkillLevel grades the proficiency a credential asserts.
type SkillLevel string

// Skill levels, lowest first.
const (
	LevelBeginner     SkillLevel = "beginner"
	LevelIntermediate SkillLevel = "intermediate"
	LevelAdvanced     SkillLevel = "advanced"
	LevelExpert       SkillLevel = "expert"
)

// Valid reports whether l is one of the defined levels.
func (l SkillLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert:
		return true
	}
	return false
}

// MarshalJSON rejects undefined levels so they never reach a signature.
func (l SkillLevel) MarshalJSON() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSkillLevel, string(l))
	}
	return json.Marshal(string(l))
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *SkillLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !SkillLevel(s).Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSkillLevel, s)
	}
	*l = SkillLevel(s)
	return nil
}

// Skill is the claim a credential makes about its subject.
type Skill struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Level       SkillLevel `json:"level"`
}

// EvidenceKind classifies a piece of evidence.
type EvidenceKind string

// Evidence kinds. KindOther carries a free-text description in EvidenceType.Other.
const (
	KindProject       EvidenceKind = "project"
	KindAssessment    EvidenceKind = "assessment"
	KindPortfolio     EvidenceKind = "portfolio"
	KindCertification EvidenceKind = "certification"
	KindOther         EvidenceKind = "other"
)

// EvidenceType is the kind of a piece of evidence plus, for KindOther,
// its free-text description.
type EvidenceType struct {
	Kind  EvidenceKind `json:"kind"`
	Other string       `json:"other,omitempty"`
}

// Predefined evidence types.
var (
	EvidenceProject       = EvidenceType{Kind: KindProject}
	EvidenceAssessment    = EvidenceType{Kind: KindAssessment}
	EvidencePortfolio     = EvidenceType{Kind: KindPortfolio}
	EvidenceCertification = EvidenceType{Kind: KindCertification}
)

// OtherEvidence returns an EvidenceType of KindOther described by text.
func OtherEvidence(text string) EvidenceType {
	return EvidenceType{Kind: KindOther, Other: text}
}

// ParseEvidenceType maps "project", "assessment", "portfolio" and
// "certification" to their types; any other non-empty text becomes an
// OtherEvidence.
func ParseEvidenceType(s string) (EvidenceType, error) {
	switch EvidenceKind(s) {
	case KindProject, KindAssessment, KindPortfolio, KindCertification:
		return EvidenceType{Kind: EvidenceKind(s)}, nil
	case "":
		return EvidenceType{}, fmt.Errorf("%w: empty", ErrInvalidEvidenceKind)
	}
	return OtherEvidence(s), nil
}

// String returns the kind, or the free text for KindOther.
func (t EvidenceType) String() string {
	if t.Kind == KindOther {
		return t.Other
	}
	return string(t.Kind)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *EvidenceType) UnmarshalJSON(data []byte) error {
	type plain EvidenceType
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	switch p.Kind {
	case KindProject, KindAssessment, KindPortfolio, KindCertification, KindOther:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEvidenceKind, string(p.Kind))
	}
	*t = EvidenceType(p)
	return nil
}

// Evidence supports the skill claim.
type Evidence struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	URL         string       `json:"url"`
	Type        EvidenceType `json:"evidence_type"`
}
