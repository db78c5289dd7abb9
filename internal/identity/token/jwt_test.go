package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "subgate/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := New("test-signing-key", time.Minute)
	userID := uuid.New()

	signed, err := svc.Generate(userID)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	got, err := svc.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := New("test-signing-key", -time.Minute)

	signed, err := svc.Generate(uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "token expired", err.Error())
}

func TestValidateGarbageToken(t *testing.T) {
	svc := New("test-signing-key", time.Minute)

	_, err := svc.Validate("not-a-token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.NotEqual(t, "token expired", err.Error())
}

func TestValidateWrongKey(t *testing.T) {
	issuer := New("key-one", time.Minute)
	verifier := New("key-two", time.Minute)

	signed, err := issuer.Generate(uuid.New())
	require.NoError(t, err)

	_, err = verifier.Validate(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
