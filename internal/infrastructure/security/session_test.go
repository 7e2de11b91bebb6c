package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/sso-service/internal/domain"
)

func TestSessionSigner_SignAndVerify(t *testing.T) {
	t.Parallel()

	s := NewSessionSigner("secret", "sso-service")
	tok, err := s.Sign("u1", "admin", 2*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.False(t, claims.Exp.IsZero())
}

func TestSessionSigner_Expired(t *testing.T) {
	t.Parallel()

	s := NewSessionSigner("secret", "sso-service")
	tok, err := s.Sign("u1", "editor", -time.Second)
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.True(t, domain.Is(err, "session_expired"), "got %v", err)
}

func TestSessionSigner_WrongSecretOrIssuer(t *testing.T) {
	t.Parallel()

	tok, err := NewSessionSigner("secret1", "sso-service").Sign("u1", "editor", time.Minute)
	require.NoError(t, err)

	_, err = NewSessionSigner("secret2", "sso-service").Verify(tok)
	assert.True(t, domain.Is(err, "session_invalid"))

	_, err = NewSessionSigner("secret1", "other").Verify(tok)
	assert.True(t, domain.Is(err, "session_invalid"))
}

func TestSessionSigner_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := jwt.MapClaims{"uid": "u1", "iss": "sso-service", "exp": time.Now().Add(time.Minute).Unix()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewSessionSigner("secret", "sso-service").Verify(tok)
	assert.True(t, domain.Is(err, "session_invalid"))
}

func TestSessionSigner_Garbage(t *testing.T) {
	t.Parallel()

	s := NewSessionSigner("secret", "sso-service")

	_, err := s.Verify("")
	assert.True(t, domain.Is(err, "session_missing"))

	_, err = s.Verify(strings.Repeat("x", 40))
	assert.True(t, domain.Is(err, "session_invalid"))
}

func TestSessionSigner_MissingUser(t *testing.T) {
	t.Parallel()

	_, err := NewSessionSigner("secret", "sso-service").Sign(" ", "editor", time.Minute)
	assert.True(t, domain.Is(err, "missing_field"))
}
