package service

import (
	"context"
	"testing"
	"time"

	"dactylo_api/internal/common/security"
	"dactylo_api/internal/domain/model"
	"dactylo_api/internal/domain/repository"
	"dactylo_api/internal/platform/database/dbtest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Alice#2024pw"

type testEnv struct {
	db         *sqlx.DB
	users      repository.UserRepository
	hasher     *security.PasswordHasher
	tokens     *security.TokenIssuer
	policy     security.PasswordPolicy
	auth       *AuthService
	userSvc    *UserService
	courses    *CourseService
	challenges *ChallengeService
	badges     *BadgeService
	groups     *GroupService
	exercises  *ExerciseService
	stats      *StatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t, true)
	logger := dbtest.Logger()

	env := &testEnv{
		db:     db,
		users:  repository.NewUserRepository(db),
		hasher: security.NewPasswordHasher(bcrypt.MinCost),
		tokens: security.NewTokenIssuer([]byte("test-secret"), time.Hour),
		policy: security.DefaultPasswordPolicy(),
	}
	env.auth = NewAuthService(env.users, env.hasher, env.tokens, env.policy, logger)
	env.userSvc = NewUserService(env.users, env.hasher, env.policy, logger)
	env.courses = NewCourseService(repository.NewCourseRepository(db), db, logger)
	env.challenges = NewChallengeService(repository.NewChallengeRepository(db), env.users, db, logger)
	env.badges = NewBadgeService(repository.NewBadgeRepository(db), env.users, logger)
	env.groups = NewGroupService(repository.NewGroupRepository(db), env.users, db, logger)
	env.exercises = NewExerciseService(repository.NewExerciseRepository(db))
	env.stats = NewStatService(repository.NewStatRepository(db), env.users, db, logger)
	return env
}

// addUser creates a user through the service and returns the stored row.
func (e *testEnv) addUser(t *testing.T, pseudo string) *model.User {
	t.Helper()
	ctx := context.Background()
	_, err := e.userSvc.Create(ctx, CreateUserRequest{
		Pseudo:     pseudo,
		MotDePasse: testPassword,
		Nom:        "Nom",
		Prenom:     "Prenom",
		Courriel:   pseudo + "@example.com",
	})
	require.NoError(t, err)

	user, err := e.users.FindByPseudo(ctx, nil, pseudo)
	require.NoError(t, err)
	return user
}

func (e *testEnv) addAdmin(t *testing.T, pseudo string) *model.User {
	t.Helper()
	user := e.addUser(t, pseudo)
	_, err := e.db.Exec(`UPDATE utilisateurs SET est_admin = 1 WHERE pseudo = ?`, pseudo)
	require.NoError(t, err)
	user.EstAdmin = true
	return user
}
