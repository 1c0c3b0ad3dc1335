package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/model"

	"github.com/jmoiron/sqlx"
)

type ExerciseRepository interface {
	Create(ctx context.Context, exercise *model.Exercise) error
	FindByID(ctx context.Context, id int64) (*model.Exercise, error)
	List(ctx context.Context, page Page) ([]model.Exercise, error)
	Delete(ctx context.Context, id int64) error

	MarkCompleted(ctx context.Context, pseudo string, exerciseID int64, at time.Time) error
	ListCompletedByUser(ctx context.Context, pseudo string, page Page) ([]model.ExerciseCompletion, error)
}

type sqlExerciseRepository struct {
	db *sqlx.DB
}

func NewExerciseRepository(db *sqlx.DB) ExerciseRepository {
	return &sqlExerciseRepository{db: db}
}

func (r *sqlExerciseRepository) Create(ctx context.Context, e *model.Exercise) error {
	query := r.db.Rebind(`INSERT INTO exercices (titre, description) VALUES (?, ?) RETURNING id_exercice`)
	if err := r.db.QueryRowxContext(ctx, query, e.Titre, e.Description).Scan(&e.ID); err != nil {
		return fmt.Errorf("exerciseRepository.Create: %w", err)
	}
	return nil
}

func (r *sqlExerciseRepository) FindByID(ctx context.Context, id int64) (*model.Exercise, error) {
	query := r.db.Rebind(`SELECT id_exercice, titre, description FROM exercices WHERE id_exercice = ?`)

	exercise := &model.Exercise{}
	if err := r.db.GetContext(ctx, exercise, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("exercice %d non trouvé: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("exerciseRepository.FindByID: %w", err)
	}
	return exercise, nil
}

func (r *sqlExerciseRepository) List(ctx context.Context, page Page) ([]model.Exercise, error) {
	page = page.Normalize()
	query := r.db.Rebind(`SELECT id_exercice, titre, description FROM exercices ORDER BY id_exercice LIMIT ? OFFSET ?`)

	exercises := []model.Exercise{}
	if err := r.db.SelectContext(ctx, &exercises, query, page.Limit, page.Skip); err != nil {
		return nil, fmt.Errorf("exerciseRepository.List: %w", err)
	}
	return exercises, nil
}

func (r *sqlExerciseRepository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM exercices WHERE id_exercice = ?`)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("exerciseRepository.Delete: %w", err)
	}
	return expectAffected(res, fmt.Sprintf("exercice %d non trouvé", id))
}

// MarkCompleted keeps the first completion date when called again.
func (r *sqlExerciseRepository) MarkCompleted(ctx context.Context, pseudo string, exerciseID int64, at time.Time) error {
	query := r.db.Rebind(`INSERT INTO exercices_utilisateurs (pseudo, id_exercice, reussi, date_reussite) VALUES (?, ?, ?, ?)
	          ON CONFLICT (pseudo, id_exercice) DO UPDATE SET reussi = excluded.reussi`)
	if _, err := r.db.ExecContext(ctx, query, pseudo, exerciseID, true, at); err != nil {
		if common.IsForeignKeyViolation(err) {
			return fmt.Errorf("utilisateur ou exercice inconnu: %w", common.ErrNotFound)
		}
		return fmt.Errorf("exerciseRepository.MarkCompleted: %w", err)
	}
	return nil
}

func (r *sqlExerciseRepository) ListCompletedByUser(ctx context.Context, pseudo string, page Page) ([]model.ExerciseCompletion, error) {
	page = page.Normalize()
	query := r.db.Rebind(`
	SELECT e.id_exercice, e.titre, e.description, eu.pseudo, eu.reussi, eu.date_reussite
	FROM exercices_utilisateurs eu
	JOIN exercices e ON e.id_exercice = eu.id_exercice
	WHERE eu.pseudo = ? AND eu.reussi = ?
	ORDER BY eu.date_reussite, e.id_exercice
	LIMIT ? OFFSET ?`)

	completed := []model.ExerciseCompletion{}
	if err := r.db.SelectContext(ctx, &completed, query, pseudo, true, page.Limit, page.Skip); err != nil {
		return nil, fmt.Errorf("exerciseRepository.ListCompletedByUser: %w", err)
	}
	return completed, nil
}
