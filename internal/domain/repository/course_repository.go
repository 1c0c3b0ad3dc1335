package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/model"

	"github.com/jmoiron/sqlx"
)

type CourseRepository interface {
	CreateCourse(ctx context.Context, course *model.Course) error
	FindCourseByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Course, error)
	FindCourseBySlug(ctx context.Context, slug string) (*model.Course, error)
	ListCourses(ctx context.Context, page Page) ([]model.Course, error)
	DeleteCourse(ctx context.Context, id int64) error

	NextSubCourseID(ctx context.Context, tx *sqlx.Tx, parentID int64) (int64, error)
	CreateSubCourse(ctx context.Context, tx *sqlx.Tx, sub *model.SubCourse) error
	FindSubCourse(ctx context.Context, parentID, id int64) (*model.SubCourse, error)
	ListSubCourses(ctx context.Context, parentID int64) ([]model.SubCourse, error)
	DeleteSubCourse(ctx context.Context, parentID, id int64) error
}

type sqlCourseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sqlx.DB) CourseRepository {
	return &sqlCourseRepository{db: db}
}

func (r *sqlCourseRepository) CreateCourse(ctx context.Context, c *model.Course) error {
	query := r.db.Rebind(`INSERT INTO cours (titre, slug, description, duree, difficulte)
	          VALUES (?, ?, ?, ?, ?) RETURNING id_cours`)
	if err := r.db.QueryRowxContext(ctx, query, c.Titre, c.Slug, c.Description, c.Duree, c.Difficulte).Scan(&c.ID); err != nil {
		return fmt.Errorf("courseRepository.CreateCourse: %w", err)
	}
	return nil
}

func (r *sqlCourseRepository) FindCourseByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Course, error) {
	q := runner(r.db, tx)
	query := q.Rebind(`SELECT id_cours, titre, slug, description, duree, difficulte FROM cours WHERE id_cours = ?`)

	course := &model.Course{}
	if err := sqlx.GetContext(ctx, q, course, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("cours %d non trouvé: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("courseRepository.FindCourseByID: %w", err)
	}
	return course, nil
}

func (r *sqlCourseRepository) FindCourseBySlug(ctx context.Context, slug string) (*model.Course, error) {
	query := r.db.Rebind(`SELECT id_cours, titre, slug, description, duree, difficulte FROM cours WHERE slug = ? ORDER BY id_cours LIMIT 1`)

	course := &model.Course{}
	if err := r.db.GetContext(ctx, course, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("cours '%s' non trouvé: %w", slug, common.ErrNotFound)
		}
		return nil, fmt.Errorf("courseRepository.FindCourseBySlug: %w", err)
	}
	return course, nil
}

func (r *sqlCourseRepository) ListCourses(ctx context.Context, page Page) ([]model.Course, error) {
	page = page.Normalize()
	query := r.db.Rebind(`SELECT id_cours, titre, slug, description, duree, difficulte FROM cours ORDER BY id_cours LIMIT ? OFFSET ?`)

	courses := []model.Course{}
	if err := r.db.SelectContext(ctx, &courses, query, page.Limit, page.Skip); err != nil {
		return nil, fmt.Errorf("courseRepository.ListCourses: %w", err)
	}
	return courses, nil
}

func (r *sqlCourseRepository) DeleteCourse(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM cours WHERE id_cours = ?`)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("courseRepository.DeleteCourse: %w", err)
	}
	return expectAffected(res, fmt.Sprintf("cours %d non trouvé", id))
}

// NextSubCourseID returns max(id)+1 for the parent, or 1 when it has no sub-course yet.
func (r *sqlCourseRepository) NextSubCourseID(ctx context.Context, tx *sqlx.Tx, parentID int64) (int64, error) {
	q := runner(r.db, tx)
	query := q.Rebind(`SELECT COALESCE(MAX(id_sous_cours), 0) + 1 FROM sous_cours WHERE id_cours_parent = ?`)

	var next int64
	if err := q.QueryRowxContext(ctx, query, parentID).Scan(&next); err != nil {
		return 0, fmt.Errorf("courseRepository.NextSubCourseID: %w", err)
	}
	return next, nil
}

func (r *sqlCourseRepository) CreateSubCourse(ctx context.Context, tx *sqlx.Tx, s *model.SubCourse) error {
	q := runner(r.db, tx)
	query := q.Rebind(`INSERT INTO sous_cours (id_cours_parent, id_sous_cours, titre, contenu, chemin_img)
	          VALUES (?, ?, ?, ?, ?)`)
	if _, err := q.ExecContext(ctx, query, s.ParentID, s.ID, s.Titre, s.Contenu, s.CheminImg); err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("sous-cours %d/%d existe déjà: %w", s.ParentID, s.ID, common.ErrConflict)
		}
		return fmt.Errorf("courseRepository.CreateSubCourse: %w", err)
	}
	return nil
}

func (r *sqlCourseRepository) FindSubCourse(ctx context.Context, parentID, id int64) (*model.SubCourse, error) {
	query := r.db.Rebind(`SELECT id_cours_parent, id_sous_cours, titre, contenu, chemin_img
	          FROM sous_cours WHERE id_cours_parent = ? AND id_sous_cours = ?`)

	sub := &model.SubCourse{}
	if err := r.db.GetContext(ctx, sub, query, parentID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sous-cours %d/%d non trouvé: %w", parentID, id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("courseRepository.FindSubCourse: %w", err)
	}
	return sub, nil
}

func (r *sqlCourseRepository) ListSubCourses(ctx context.Context, parentID int64) ([]model.SubCourse, error) {
	query := r.db.Rebind(`SELECT id_cours_parent, id_sous_cours, titre, contenu, chemin_img
	          FROM sous_cours WHERE id_cours_parent = ? ORDER BY id_sous_cours`)

	subs := []model.SubCourse{}
	if err := r.db.SelectContext(ctx, &subs, query, parentID); err != nil {
		return nil, fmt.Errorf("courseRepository.ListSubCourses: %w", err)
	}
	return subs, nil
}

func (r *sqlCourseRepository) DeleteSubCourse(ctx context.Context, parentID, id int64) error {
	query := r.db.Rebind(`DELETE FROM sous_cours WHERE id_cours_parent = ? AND id_sous_cours = ?`)
	res, err := r.db.ExecContext(ctx, query, parentID, id)
	if err != nil {
		return fmt.Errorf("courseRepository.DeleteSubCourse: %w", err)
	}
	return expectAffected(res, fmt.Sprintf("sous-cours %d/%d non trouvé", parentID, id))
}
