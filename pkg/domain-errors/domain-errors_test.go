package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := New(CodeNotFound, "plan not found")
	assert.Equal(t, "plan not found", err.Error())

	bare := New(CodeQuotaExceeded, "")
	assert.Equal(t, "quota_exceeded", bare.Error())
}

func TestWrapPreservesOriginalCode(t *testing.T) {
	inner := New(CodeQuotaExceeded, "limit reached")
	wrapped := Wrap(inner, CodeInternal, "access failed")

	assert.True(t, HasCode(wrapped, CodeQuotaExceeded))
	assert.False(t, HasCode(wrapped, CodeInternal))
	assert.Equal(t, "access failed", wrapped.Error())
}

func TestWrapClassifiesPlainErrors(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(cause, CodeInternal, "ledger update failed")

	require.True(t, HasCode(wrapped, CodeInternal))
	assert.ErrorIs(t, wrapped, cause)
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeForbidden, "not entitled"))
	assert.ErrorIs(t, err, &Error{Code: CodeForbidden})
	assert.NotErrorIs(t, err, &Error{Code: CodeNotFound})
}

func TestIsDomain(t *testing.T) {
	assert.True(t, IsDomain(New(CodeConflict, "duplicate")))
	assert.True(t, IsDomain(fmt.Errorf("wrap: %w", New(CodeConflict, "duplicate"))))
	assert.False(t, IsDomain(errors.New("io timeout")))
	assert.False(t, IsDomain(nil))
}
