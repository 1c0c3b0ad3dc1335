package security

import (
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, 30*time.Minute)

	token, expiresAt, err := issuer.Issue("alice")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, time.Minute)

	verified, err := jwtauth.VerifyToken(issuer.JWTAuth(), token)
	require.NoError(t, err)
	assert.Equal(t, "alice", verified.Subject())
}

func TestTokenIssuerRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Minute)

	token, _, err := issuer.IssueWithTTL("alice", -time.Minute)
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(issuer.JWTAuth(), token)
	assert.Error(t, err)
}

func TestTokenIssuerRejectsForeignSignature(t *testing.T) {
	other := NewTokenIssuer([]byte("another-secret"), time.Minute)
	token, _, err := other.Issue("alice")
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(NewTokenIssuer(testSecret, time.Minute).JWTAuth(), token)
	assert.Error(t, err)
}

func TestTokenIsStandardHS256(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Minute)
	token, _, err := issuer.Issue("bob")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return testSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	sub, err := GetSubjectFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "bob", sub)
}

func TestGetSubjectFromClaims(t *testing.T) {
	_, err := GetSubjectFromClaims(jwt.MapClaims{})
	assert.ErrorIs(t, err, ErrMissingSubject)

	_, err = GetSubjectFromClaims(jwt.MapClaims{"sub": 42})
	assert.ErrorIs(t, err, ErrMissingSubject)
}
