package verifier

import (
	"errors"
	"fmt"
)

// Error codes for credential verification failures. All are terminal: they
// describe why a credential is not trustworthy, not a transient condition.
const (
	// ErrCodeSerialization indicates the canonical encoding could not be produced.
	ErrCodeSerialization = "CREDENTIAL_SERIALIZATION_ERROR"

	// ErrCodeSignatureInvalid indicates the signature did not verify or its
	// bytes (or the trusted key's) were malformed.
	ErrCodeSignatureInvalid = "CREDENTIAL_SIGNATURE_INVALID"

	// ErrCodeExpired indicates the current time is after expires_at.
	ErrCodeExpired = "CREDENTIAL_EXPIRED"

	// ErrCodeMissingSignature indicates the credential is not signed.
	ErrCodeMissingSignature = "CREDENTIAL_MISSING_SIGNATURE"

	// ErrCodeIssuerUntrusted indicates the issuer id is not in the trust store.
	ErrCodeIssuerUntrusted = "CREDENTIAL_ISSUER_UNTRUSTED"
)

// Error is a credential verification error carrying one of the codes above.
type Error struct {
	// Code is one of the CREDENTIAL_* error codes.
	Code string

	// Message is a human-readable description.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WrapError creates a new Error that wraps an underlying error.
func WrapError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Sentinel errors for use with errors.Is.
var (
	ErrSerialization    = NewError(ErrCodeSerialization, "credential could not be encoded")
	ErrSignatureInvalid = NewError(ErrCodeSignatureInvalid, "invalid signature")
	ErrExpired          = NewError(ErrCodeExpired, "credential has expired")
	ErrMissingSignature = NewError(ErrCodeMissingSignature, "credential is not signed")
	ErrIssuerUntrusted  = NewError(ErrCodeIssuerUntrusted, "issuer is not in the trusted list")
)

// AsError checks if err is an Error and returns it if so.
func AsError(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an Error, or returns empty string.
func GetErrorCode(err error) string {
	if verr, ok := AsError(err); ok {
		return verr.Code
	}
	return ""
}
