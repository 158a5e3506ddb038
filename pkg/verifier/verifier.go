// Package verifier implements the verifying service: it checks signed
// credentials against a trust store of issuer identities.
package verifier

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/microcred/microcred-core/pkg/credential"
	"github.com/microcred/microcred-core/pkg/crypto"
	"github.com/microcred/microcred-core/pkg/trust"
	"go.uber.org/zap"
)

// Option configures a Verifier.
type Option func(*Verifier)

// WithStore sets the trust store. The default is an empty MemoryStore.
func WithStore(store trust.Store) Option {
	return func(v *Verifier) {
		if store != nil {
			v.store = store
		}
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// Verifier validates credentials against its own trust store. It is safe
// for concurrent use when its store is (both provided stores are).
type Verifier struct {
	store  trust.Store
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Verifier.
func New(opts ...Option) *Verifier {
	v := &Verifier{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.store == nil {
		v.store, _ = trust.NewMemoryStore()
	}
	return v
}

// Store returns the trust store.
func (v *Verifier) Store() trust.Store {
	return v.store
}

// AddTrustedIssuer adds an issuer identity to the trust store.
func (v *Verifier) AddTrustedIssuer(issuer credential.Issuer) error {
	if err := v.store.Add(issuer); err != nil {
		return fmt.Errorf("failed to add trusted issuer %s: %w", issuer.ID, err)
	}
	v.logger.Debug("trusted issuer added", zap.String("issuer_id", issuer.ID.String()), zap.String("name", issuer.Name))
	return nil
}

// RemoveTrustedIssuer removes every trust store entry with the given id.
func (v *Verifier) RemoveTrustedIssuer(id uuid.UUID) error {
	if err := v.store.Remove(id); err != nil {
		return fmt.Errorf("failed to remove trusted issuer %s: %w", id, err)
	}
	v.logger.Debug("trusted issuer removed", zap.String("issuer_id", id.String()))
	return nil
}

// TrustedIssuers lists the trust store.
func (v *Verifier) TrustedIssuers() ([]credential.Issuer, error) {
	return v.store.List()
}

// VerifyCredential runs the checks below in order and stops at the first
// failure:
//
//  1. expired: ErrExpired
//  2. no signature: ErrMissingSignature
//  3. issuer id not in the trust store: ErrIssuerUntrusted
//  4. canonical encoding fails: ErrSerialization; signature does not verify
//     under the trust store's key: ErrSignatureInvalid
//
// On success it returns (true, nil). It never returns (false, nil).
func (v *Verifier) VerifyCredential(cred *credential.Credential) (bool, error) {
	if err := v.verify(cred); err != nil {
		fields := []zap.Field{zap.String("code", GetErrorCode(err)), zap.Error(err)}
		if cred != nil {
			fields = append(fields,
				zap.String("credential_id", cred.ID.String()),
				zap.String("issuer_id", cred.Issuer.ID.String()))
		}
		v.logger.Info("credential rejected", fields...)
		return false, err
	}

	v.logger.Debug("credential verified",
		zap.String("credential_id", cred.ID.String()),
		zap.String("issuer_id", cred.Issuer.ID.String()))
	return true, nil
}

func (v *Verifier) verify(cred *credential.Credential) error {
	if cred == nil {
		return NewError(ErrCodeSerialization, "credential is nil")
	}

	// Step 1: Expiry
	if cred.IsExpiredAt(v.now()) {
		return NewError(ErrCodeExpired, fmt.Sprintf("credential expired at %s", cred.ExpiresAt.Format(time.RFC3339)))
	}

	// Step 2: Signature presence
	if len(cred.Signature) == 0 {
		return ErrMissingSignature
	}

	// Step 3: Trusted issuer lookup by id. The embedded public key is never used.
	trusted, err := v.store.Get(cred.Issuer.ID)
	if err != nil {
		return WrapError(ErrCodeIssuerUntrusted, fmt.Sprintf("issuer %s is not trusted", cred.Issuer.ID), err)
	}

	// Step 4: Re-derive the signed digest and check it against the trusted key
	canonical, err := cred.CanonicalBytes()
	if err != nil {
		return WrapError(ErrCodeSerialization, "failed to encode credential", err)
	}
	digest := crypto.HashCredential(canonical)

	ok, err := crypto.VerifySignature(trusted.PublicKey, digest, cred.Signature)
	if err != nil {
		return WrapError(ErrCodeSignatureInvalid, "malformed signature or key", err)
	}
	if !ok {
		return NewError(ErrCodeSignatureInvalid, fmt.Sprintf("signature does not match issuer %s", trusted.ID))
	}

	return nil
}

// VerifySigned verifies a credential held in its Signed form.
func (v *Verifier) VerifySigned(signed *credential.Signed) (bool, error) {
	if signed == nil {
		return v.VerifyCredential(nil)
	}
	return v.VerifyCredential(signed.Credential())
}

// Result is the outcome of verifying one credential of a batch.
type Result struct {
	// Index is the position of the credential in the input.
	Index int

	// CredentialID is the credential id, or uuid.Nil for a nil input.
	CredentialID uuid.UUID

	// Valid is true iff Err is nil.
	Valid bool

	// Err is the verification error, if any.
	Err error
}

// VerifyCredentialChain verifies every credential and returns one Result per
// input, in input order. A failure does not stop the remaining checks.
func (v *Verifier) VerifyCredentialChain(creds []*credential.Credential) []Result {
	results := make([]Result, len(creds))
	for i, cred := range creds {
		res := Result{Index: i}
		if cred != nil {
			res.CredentialID = cred.ID
		}
		res.Valid, res.Err = v.VerifyCredential(cred)
		results[i] = res
	}
	return results
}

// VerifyCredentialChainFailFast verifies credentials in order and returns
// the first failure, annotated with its index. The returned error still
// matches the verification sentinels with errors.Is.
func (v *Verifier) VerifyCredentialChainFailFast(creds []*credential.Credential) error {
	for i, cred := range creds {
		if _, err := v.VerifyCredential(cred); err != nil {
			return fmt.Errorf("credential %d: %w", i, err)
		}
	}
	return nil
}

// AllValid reports whether every result in a batch is valid.
func AllValid(results []Result) bool {
	for _, r := range results {
		if !r.Valid {
			return false
		}
	}
	return true
}
