package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custos/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-signing-key")

	token, err := svc.GenerateToken("user-1", "fam-1", RoleGuardian, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "fam-1", claims.FamilyID)
	assert.Equal(t, RoleGuardian, claims.Role)
}

func TestValidate_ExpiredToken(t *testing.T) {
	svc := NewService("test-signing-key")

	token, err := svc.GenerateToken("user-1", "fam-1", RoleDependent, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidate_WrongKey(t *testing.T) {
	token, err := NewService("key-a").GenerateToken("user-1", "fam-1", RoleDependent, time.Hour)
	require.NoError(t, err)

	_, err = NewService("key-b").ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidate_Garbage(t *testing.T) {
	_, err := NewService("key").ValidateToken("not-a-jwt")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
