package repository

import (
	"context"
	"fmt"

	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/model"

	"github.com/jmoiron/sqlx"
)

type StatRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, stat *model.Stat) error
	// ListByUser filters on statType unless it is empty.
	ListByUser(ctx context.Context, pseudo, statType string, page Page) ([]model.Stat, error)
}

type sqlStatRepository struct {
	db *sqlx.DB
}

func NewStatRepository(db *sqlx.DB) StatRepository {
	return &sqlStatRepository{db: db}
}

func (r *sqlStatRepository) Create(ctx context.Context, tx *sqlx.Tx, s *model.Stat) error {
	q := runner(r.db, tx)
	query := q.Rebind(`INSERT INTO statistiques (pseudo, type_stat, valeur, horodatage)
	          VALUES (?, ?, ?, ?) RETURNING id_stat`)
	if err := q.QueryRowxContext(ctx, query, s.Pseudo, s.Type, s.Valeur, s.Horodatage).Scan(&s.ID); err != nil {
		if common.IsForeignKeyViolation(err) {
			return fmt.Errorf("utilisateur '%s' non trouvé: %w", s.Pseudo, common.ErrNotFound)
		}
		return fmt.Errorf("statRepository.Create: %w", err)
	}
	return nil
}

func (r *sqlStatRepository) ListByUser(ctx context.Context, pseudo, statType string, page Page) ([]model.Stat, error) {
	page = page.Normalize()

	query := `SELECT id_stat, pseudo, type_stat, valeur, horodatage FROM statistiques WHERE pseudo = ?`
	args := []interface{}{pseudo}
	if statType != "" {
		query += ` AND type_stat = ?`
		args = append(args, statType)
	}
	query += ` ORDER BY horodatage, id_stat LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Skip)

	stats := []model.Stat{}
	if err := r.db.SelectContext(ctx, &stats, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("statRepository.ListByUser: %w", err)
	}
	return stats, nil
}
