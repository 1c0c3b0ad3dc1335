package service

import (
	"context"
	"strings"
	"testing"

	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/repository"
	"dactylo_api/internal/platform/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserServiceCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	profile, err := env.userSvc.Create(ctx, CreateUserRequest{
		Pseudo:     "  alice ",
		MotDePasse: testPassword,
		Nom:        "Martin",
		Prenom:     "Alice",
		Courriel:   "alice@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Pseudo)
	assert.False(t, profile.EstAdmin)
	assert.Zero(t, profile.CptDefi)

	stored, err := env.users.FindByPseudo(ctx, nil, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, testPassword, stored.HashedPassword)
	assert.True(t, env.hasher.Verify(testPassword, stored.HashedPassword))

	_, err = env.userSvc.Create(ctx, CreateUserRequest{
		Pseudo: "alice", MotDePasse: testPassword, Nom: "x", Prenom: "y", Courriel: "a@b.c",
	})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestUserServiceCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := CreateUserRequest{Pseudo: "bob", MotDePasse: testPassword, Nom: "n", Prenom: "p", Courriel: "bob@example.com"}

	tests := []struct {
		name   string
		mutate func(r *CreateUserRequest)
		want   error
	}{
		{"missing nom", func(r *CreateUserRequest) { r.Nom = "" }, common.ErrBadRequest},
		{"pseudo too long", func(r *CreateUserRequest) { r.Pseudo = "abcdefghijklmnop" }, common.ErrBadRequest},
		{"bad courriel", func(r *CreateUserRequest) { r.Courriel = "bob.example.com" }, common.ErrBadRequest},
		{"weak password", func(r *CreateUserRequest) { r.MotDePasse = "password" }, common.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := env.userSvc.Create(ctx, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	users, err := env.userSvc.List(ctx, repository.Page{})
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserServiceSetChallengeCounter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	admin := env.addAdmin(t, "root")

	profile, err := env.userSvc.SetChallengeCounter(ctx, alice, "alice", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, profile.CptDefi)

	_, err = env.userSvc.SetChallengeCounter(ctx, bob, "alice", 9)
	assert.ErrorIs(t, err, common.ErrForbidden)

	profile, err = env.userSvc.SetChallengeCounter(ctx, admin, "alice", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, profile.CptDefi)

	_, err = env.userSvc.SetChallengeCounter(ctx, alice, "alice", -1)
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestUserServiceDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")

	_, err := env.userSvc.Delete(ctx, bob, "alice")
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = env.userSvc.Delete(ctx, alice, "alice")
	require.NoError(t, err)

	_, err = env.userSvc.GetPublic(ctx, "alice")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUserServiceStatsAreStrings(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice")

	stats, err := env.userSvc.Stats(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "0", stats.MoyMotsParMinute)
	assert.Equal(t, "0", stats.NumCours)
	assert.Equal(t, "0", stats.TempsTotal)
}

func TestUserServiceCreateRejectsOverlongPasswordWithoutMaxLength(t *testing.T) {
	env := newTestEnv(t)
	policy := env.policy
	policy.MaxLength = 0
	svc := NewUserService(env.users, env.hasher, policy, dbtest.Logger())

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Pseudo:     "long",
		MotDePasse: testPassword + strings.Repeat("x", 72),
		Nom:        "n",
		Prenom:     "p",
		Courriel:   "long@example.com",
	})
	assert.ErrorIs(t, err, common.ErrValidation)
}
