package jwtinfra

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_EmptySecret(t *testing.T) {
	_, err := NewProvider("", time.Hour)
	require.Error(t, err)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	p, err := NewProvider("s3cret", time.Hour)
	require.NoError(t, err)

	signed, exp, err := p.Sign("guard", RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := p.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "guard", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestVerify_WrongSecret(t *testing.T) {
	a, _ := NewProvider("one", time.Hour)
	b, _ := NewProvider("two", time.Hour)

	signed, _, err := a.Sign("guard", RoleAdmin)
	require.NoError(t, err)
	_, err = b.Verify(signed)
	assert.Error(t, err)
}

func TestVerify_Expired(t *testing.T) {
	p, _ := NewProvider("s3cret", time.Hour)
	p.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	signed, _, err := p.Sign("guard", RoleAdmin)
	require.NoError(t, err)
	_, err = p.Verify(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	p, _ := NewProvider("s3cret", time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = p.Verify(signed)
	assert.Error(t, err)
}
