package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	assert.False(t, s.UsesDefaultSecret())

	token, err := s.Sign(7, "a@x.io", "editor")
	require.NoError(t, err)

	claims, err := s.Parse(token)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.Equal(t, "a@x.io", claims.Email)
	assert.Equal(t, "editor", claims.Role)
}

func TestParseRejects(t *testing.T) {
	s := NewSigner("secret", time.Hour)

	_, err := s.Parse("  ")
	assert.Error(t, err)

	other, err := NewSigner("other", time.Hour).Sign(1, "a@x.io", "admin")
	require.NoError(t, err)
	_, err = s.Parse(other)
	assert.Error(t, err, "wrong secret")

	expired, err := NewSigner("secret", time.Nanosecond).Sign(1, "a@x.io", "admin")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = s.Parse(expired)
	assert.ErrorIs(t, err, jwtlib.ErrTokenExpired)

	anonymous, err := s.Sign(0, "a@x.io", "admin")
	require.NoError(t, err)
	_, err = s.Parse(anonymous)
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	s := NewSigner("", 0)
	assert.True(t, s.UsesDefaultSecret())
	assert.Equal(t, DefaultTTL, s.ttl)
}
