package service

import (
	"context"
	"testing"

	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/model"
	"dactylo_api/internal/domain/repository"
	"dactylo_api/internal/platform/database/dbtest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCourseSlug(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	course, err := env.courses.CreateCourse(ctx, CreateCourseRequest{Titre: "Accents et cédilles", Duree: 20, Difficulte: "moyen"})
	require.NoError(t, err)
	assert.Equal(t, "accents-et-cedilles", course.Slug)

	found, err := env.courses.GetCourseBySlug(ctx, "accents-et-cedilles")
	require.NoError(t, err)
	assert.Equal(t, course.ID, found.ID)

	_, err = env.courses.CreateCourse(ctx, CreateCourseRequest{})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestSubCourseNumbering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.courses.CreateCourse(ctx, CreateCourseRequest{Titre: "Premier"})
	require.NoError(t, err)
	second, err := env.courses.CreateCourse(ctx, CreateCourseRequest{Titre: "Second"})
	require.NoError(t, err)

	a, err := env.courses.CreateSubCourse(ctx, CreateSubCourseRequest{ParentID: first.ID, Titre: "a"})
	require.NoError(t, err)
	b, err := env.courses.CreateSubCourse(ctx, CreateSubCourseRequest{ParentID: first.ID, Titre: "b"})
	require.NoError(t, err)
	c, err := env.courses.CreateSubCourse(ctx, CreateSubCourseRequest{ParentID: second.ID, Titre: "c"})
	require.NoError(t, err)

	assert.EqualValues(t, 1, a.ID)
	assert.EqualValues(t, 2, b.ID)
	assert.EqualValues(t, 1, c.ID)

	subs, err := env.courses.ListSubCourses(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "a", subs[0].Titre)
	assert.Equal(t, "b", subs[1].Titre)

	// Numbering continues after the highest id even when a gap exists.
	_, err = env.courses.DeleteSubCourse(ctx, first.ID, 1)
	require.NoError(t, err)
	d, err := env.courses.CreateSubCourse(ctx, CreateSubCourseRequest{ParentID: first.ID, Titre: "d"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, d.ID)
}

func TestSubCourseUnknownParent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.courses.CreateSubCourse(ctx, CreateSubCourseRequest{ParentID: 999, Titre: "x"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = env.courses.ListSubCourses(ctx, 999)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = env.courses.GetSubCourse(ctx, 999, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteCourseCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	course, err := env.courses.GetCourseBySlug(ctx, "les-bases-du-clavier")
	require.NoError(t, err)
	subs, err := env.courses.ListSubCourses(ctx, course.ID)
	require.NoError(t, err)
	require.NotEmpty(t, subs)

	_, err = env.courses.DeleteCourse(ctx, course.ID)
	require.NoError(t, err)

	_, err = env.courses.GetSubCourse(ctx, course.ID, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)

	courses, err := env.courses.ListCourses(ctx, repository.Page{})
	require.NoError(t, err)
	assert.Len(t, courses, 2)
}

// contendedCourseRepo reports a duplicate sub-course id for the first conflicts inserts.
type contendedCourseRepo struct {
	repository.CourseRepository
	conflicts int
	attempts  int
}

func (r *contendedCourseRepo) CreateSubCourse(ctx context.Context, tx *sqlx.Tx, sub *model.SubCourse) error {
	r.attempts++
	if r.attempts <= r.conflicts {
		return common.Errorf("sous-cours %d/%d existe déjà: %w", sub.ParentID, sub.ID, common.ErrConflict)
	}
	return r.CourseRepository.CreateSubCourse(ctx, tx, sub)
}

func TestCreateSubCourseRetriesAfterConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	repo := &contendedCourseRepo{CourseRepository: repository.NewCourseRepository(env.db), conflicts: 1}
	svc := NewCourseService(repo, env.db, dbtest.Logger())

	parent, err := svc.CreateCourse(ctx, CreateCourseRequest{Titre: "Retente"})
	require.NoError(t, err)

	sub, err := svc.CreateSubCourse(ctx, CreateSubCourseRequest{ParentID: parent.ID, Titre: "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.attempts)
	assert.EqualValues(t, 1, sub.ID)

	next, err := svc.CreateSubCourse(ctx, CreateSubCourseRequest{ParentID: parent.ID, Titre: "b"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, next.ID)
}

func TestCreateSubCourseGivesUpAfterThreeConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	repo := &contendedCourseRepo{CourseRepository: repository.NewCourseRepository(env.db), conflicts: 100}
	svc := NewCourseService(repo, env.db, dbtest.Logger())

	parent, err := svc.CreateCourse(ctx, CreateCourseRequest{Titre: "Bloque"})
	require.NoError(t, err)

	_, err = svc.CreateSubCourse(ctx, CreateSubCourseRequest{ParentID: parent.ID, Titre: "a"})
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, subCourseAttempts, repo.attempts)
	assert.Equal(t, 3, repo.attempts)

	subs, err := svc.ListSubCourses(ctx, parent.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
