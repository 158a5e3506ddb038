package verifier

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	err := NewError(ErrCodeExpired, "credential expired at 2025-01-01T00:00:00Z")
	assert.Equal(t, "CREDENTIAL_EXPIRED: credential expired at 2025-01-01T00:00:00Z", err.Error())

	wrapped := WrapError(ErrCodeIssuerUntrusted, "issuer x is not trusted", errors.New("not found"))
	assert.Equal(t, "CREDENTIAL_ISSUER_UNTRUSTED: issuer x is not trusted: not found", wrapped.Error())
}

func TestError_IsMatchesByCode(t *testing.T) {
	cause := errors.New("boom")
	err := WrapError(ErrCodeSignatureInvalid, "bad", cause)

	assert.ErrorIs(t, err, ErrSignatureInvalid)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrExpired)
	assert.ErrorIs(t, fmt.Errorf("credential 3: %w", err), ErrSignatureInvalid)
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeMissingSignature, GetErrorCode(ErrMissingSignature))
	assert.Equal(t, ErrCodeSerialization, GetErrorCode(fmt.Errorf("wrapped: %w", ErrSerialization)))
	assert.Empty(t, GetErrorCode(errors.New("plain")))
	assert.Empty(t, GetErrorCode(nil))

	verr, ok := AsError(ErrExpired)
	assert.True(t, ok)
	assert.Equal(t, ErrCodeExpired, verr.Code)

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
}
