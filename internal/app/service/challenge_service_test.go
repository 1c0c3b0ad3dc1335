package service

import (
	"context"
	"testing"
	"time"

	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/model"
	"dactylo_api/internal/domain/repository"
	"dactylo_api/internal/platform/database/dbtest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Seeded challenge "Sprint".
const sprintID = 1

func TestRecordCompletionKeepsBestTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice")

	first, err := env.challenges.RecordCompletion(ctx, alice, RecordCompletionRequest{ChallengeID: sprintID, Temps: 12})
	require.NoError(t, err)
	assert.True(t, first.Improved)
	assert.Equal(t, 12.0, first.TempsReussite)
	assert.Equal(t, "alice", first.Pseudo)

	better, err := env.challenges.RecordCompletion(ctx, alice, RecordCompletionRequest{ChallengeID: sprintID, Temps: 9})
	require.NoError(t, err)
	assert.True(t, better.Improved)
	assert.Equal(t, 9.0, better.TempsReussite)

	worse, err := env.challenges.RecordCompletion(ctx, alice, RecordCompletionRequest{ChallengeID: sprintID, Temps: 12})
	require.NoError(t, err)
	assert.False(t, worse.Improved)
	assert.Equal(t, 9.0, worse.TempsReussite)

	rows, err := env.challenges.ListCompletionsByUser(ctx, "alice", repository.Page{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 9.0, rows[0].TempsReussite)
}

func TestRecordCompletionValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice")
	env.addUser(t, "bob")
	admin := env.addAdmin(t, "root")

	_, err := env.challenges.RecordCompletion(ctx, alice, RecordCompletionRequest{ChallengeID: sprintID, Temps: 0})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	_, err = env.challenges.RecordCompletion(ctx, alice, RecordCompletionRequest{ChallengeID: sprintID, Pseudo: "bob", Temps: 5})
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = env.challenges.RecordCompletion(ctx, nil, RecordCompletionRequest{ChallengeID: sprintID, Pseudo: "bob", Temps: 5})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = env.challenges.RecordCompletion(ctx, alice, RecordCompletionRequest{ChallengeID: 999, Temps: 5})
	assert.ErrorIs(t, err, common.ErrNotFound)

	outcome, err := env.challenges.RecordCompletion(ctx, admin, RecordCompletionRequest{ChallengeID: sprintID, Pseudo: "bob", Temps: 5})
	require.NoError(t, err)
	assert.Equal(t, "bob", outcome.Pseudo)
}

func TestLeaderboardOrdersByBestTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	tick := 0
	env.challenges.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for pseudo, temps := range map[string][]float64{
		"alice": {30.5, 28},
		"bob":   {25},
		"carol": {40, 41},
	} {
		user := env.addUser(t, pseudo)
		for _, v := range temps {
			_, err := env.challenges.RecordCompletion(ctx, user, RecordCompletionRequest{ChallengeID: sprintID, Temps: v})
			require.NoError(t, err)
		}
	}

	board, err := env.challenges.Leaderboard(ctx, sprintID, 10)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, "bob", board[0].Pseudo)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "alice", board[1].Pseudo)
	assert.Equal(t, 28.0, board[1].TempsReussite)
	assert.Equal(t, "carol", board[2].Pseudo)
	assert.Equal(t, 40.0, board[2].TempsReussite)

	top, err := env.challenges.Leaderboard(ctx, sprintID, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	_, err = env.challenges.Leaderboard(ctx, 999, 10)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")

	_, err := env.challenges.RecordCompletion(ctx, alice, RecordCompletionRequest{ChallengeID: sprintID, Temps: 10})
	require.NoError(t, err)

	_, err = env.challenges.DeleteCompletion(ctx, bob, "alice", sprintID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = env.challenges.DeleteCompletion(ctx, alice, "alice", sprintID)
	require.NoError(t, err)

	_, err = env.challenges.DeleteCompletion(ctx, alice, "alice", sprintID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeletingChallengeRemovesCompletions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice")

	_, err := env.challenges.RecordCompletion(ctx, alice, RecordCompletionRequest{ChallengeID: sprintID, Temps: 10})
	require.NoError(t, err)

	_, err = env.challenges.Delete(ctx, sprintID)
	require.NoError(t, err)

	rows, err := env.challenges.ListBestCompletions(ctx, repository.Page{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWeeklyCounter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	weekly, err := env.challenges.WeeklyCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, weekly.Compteur)

	next, err := env.challenges.AdvanceWeeklyCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	next, err = env.challenges.AdvanceWeeklyCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	weekly, err = env.challenges.WeeklyCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, weekly.Compteur)
}

// contendedChallengeRepo makes the first conflicts completion inserts collide
// with a row that another request inserted concurrently.
type contendedChallengeRepo struct {
	repository.ChallengeRepository
	conflicts int
	attempts  int
}

func (r *contendedChallengeRepo) InsertCompletion(ctx context.Context, tx *sqlx.Tx, c *model.ChallengeCompletion) error {
	r.attempts++
	if r.attempts <= r.conflicts {
		return common.Errorf("réussite déjà enregistrée: %w", common.ErrConflict)
	}
	return r.ChallengeRepository.InsertCompletion(ctx, tx, c)
}

func TestRecordCompletionRetriesFirstInsertConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice")

	repo := &contendedChallengeRepo{ChallengeRepository: repository.NewChallengeRepository(env.db), conflicts: 1}
	svc := NewChallengeService(repo, env.users, env.db, dbtest.Logger())

	outcome, err := svc.RecordCompletion(ctx, alice, RecordCompletionRequest{ChallengeID: sprintID, Temps: 14})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.attempts)
	assert.Equal(t, 14.0, outcome.TempsReussite)

	rows, err := svc.ListCompletionsByUser(ctx, "alice", repository.Page{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 14.0, rows[0].TempsReussite)
}

func TestRecordCompletionSurfacesRepeatedConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice")

	repo := &contendedChallengeRepo{ChallengeRepository: repository.NewChallengeRepository(env.db), conflicts: 100}
	svc := NewChallengeService(repo, env.users, env.db, dbtest.Logger())

	_, err := svc.RecordCompletion(ctx, alice, RecordCompletionRequest{ChallengeID: sprintID, Temps: 14})
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, 2, repo.attempts)

	rows, err := svc.ListCompletionsByUser(ctx, "alice", repository.Page{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
