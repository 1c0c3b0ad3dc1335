package service

import (
	"context"
	"testing"

	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExerciseMarkCompleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice")

	exercise, err := env.exercises.Create(ctx, CreateExerciseRequest{Titre: "Chiffres", Description: "0123456789"})
	require.NoError(t, err)

	_, err = env.exercises.MarkCompleted(ctx, alice, exercise.ID)
	require.NoError(t, err)
	_, err = env.exercises.MarkCompleted(ctx, alice, exercise.ID)
	require.NoError(t, err)

	done, err := env.exercises.ListCompletedByUser(ctx, "alice", repository.Page{})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.True(t, done[0].Reussi)

	_, err = env.exercises.MarkCompleted(ctx, alice, 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = env.exercises.MarkCompleted(ctx, nil, exercise.ID)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestExerciseDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	exercises, err := env.exercises.List(ctx, repository.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, exercises, 2)

	_, err = env.exercises.Delete(ctx, exercises[0].ID)
	require.NoError(t, err)
	_, err = env.exercises.Delete(ctx, exercises[0].ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
