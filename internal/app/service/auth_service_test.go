package service

import (
	"context"
	"testing"

	"dactylo_api/internal/common"
	"dactylo_api/internal/common/security"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthServiceLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "alice")

	token, err := env.auth.Login(ctx, "alice", testPassword)
	require.NoError(t, err)
	assert.Equal(t, security.TokenType, token.TokenType)
	assert.NotEmpty(t, token.AccessToken)

	user, err := env.auth.UserBySubject(ctx, subjectOf(t, env, token.AccessToken))
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Pseudo)

	_, err = env.auth.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = env.auth.Login(ctx, "nobody", testPassword)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = jwtauth.VerifyToken(env.tokens.JWTAuth(), "garbage")
	assert.Error(t, err)
}

func TestAuthServiceTokenForDeletedUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice")

	token, err := env.auth.Login(ctx, "alice", testPassword)
	require.NoError(t, err)

	_, err = env.userSvc.Delete(ctx, alice, "alice")
	require.NoError(t, err)

	_, err = env.auth.UserBySubject(ctx, subjectOf(t, env, token.AccessToken))
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestAuthServiceChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice")

	err := env.auth.ChangePassword(ctx, alice, ChangePasswordRequest{AncienMotDePasse: "wrong", NouveauMotDePasse: "Nouveau#2025pw"})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	err = env.auth.ChangePassword(ctx, alice, ChangePasswordRequest{AncienMotDePasse: testPassword, NouveauMotDePasse: ""})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	err = env.auth.ChangePassword(ctx, alice, ChangePasswordRequest{AncienMotDePasse: testPassword, NouveauMotDePasse: "short"})
	assert.ErrorIs(t, err, common.ErrValidation)

	err = env.auth.ChangePassword(ctx, alice, ChangePasswordRequest{AncienMotDePasse: testPassword, NouveauMotDePasse: "Nouveau#2025pw"})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, "alice", testPassword)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = env.auth.Login(ctx, "alice", "Nouveau#2025pw")
	assert.NoError(t, err)
}

// subjectOf verifies the token the way the router does and returns its subject.
func subjectOf(t *testing.T, env *testEnv, token string) string {
	t.Helper()
	verified, err := jwtauth.VerifyToken(env.tokens.JWTAuth(), token)
	require.NoError(t, err)
	return verified.Subject()
}
