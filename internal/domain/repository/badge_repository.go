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

type BadgeRepository interface {
	Create(ctx context.Context, badge *model.Badge) error
	FindByID(ctx context.Context, id int64) (*model.Badge, error)
	List(ctx context.Context, page Page) ([]model.Badge, error)
	Delete(ctx context.Context, id int64) error

	// Grant is a no-op when the user already holds the badge.
	Grant(ctx context.Context, pseudo string, badgeID int64, at time.Time) error
	Revoke(ctx context.Context, pseudo string, badgeID int64) error
	ListByUser(ctx context.Context, pseudo string, page Page) ([]model.UserBadge, error)
}

type sqlBadgeRepository struct {
	db *sqlx.DB
}

func NewBadgeRepository(db *sqlx.DB) BadgeRepository {
	return &sqlBadgeRepository{db: db}
}

func (r *sqlBadgeRepository) Create(ctx context.Context, b *model.Badge) error {
	query := r.db.Rebind(`INSERT INTO badges (titre, description, chemin_img) VALUES (?, ?, ?) RETURNING id_badge`)
	if err := r.db.QueryRowxContext(ctx, query, b.Titre, b.Description, b.CheminImg).Scan(&b.ID); err != nil {
		return fmt.Errorf("badgeRepository.Create: %w", err)
	}
	return nil
}

func (r *sqlBadgeRepository) FindByID(ctx context.Context, id int64) (*model.Badge, error) {
	query := r.db.Rebind(`SELECT id_badge, titre, description, chemin_img FROM badges WHERE id_badge = ?`)

	badge := &model.Badge{}
	if err := r.db.GetContext(ctx, badge, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("badge %d non trouvé: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("badgeRepository.FindByID: %w", err)
	}
	return badge, nil
}

func (r *sqlBadgeRepository) List(ctx context.Context, page Page) ([]model.Badge, error) {
	page = page.Normalize()
	query := r.db.Rebind(`SELECT id_badge, titre, description, chemin_img FROM badges ORDER BY id_badge LIMIT ? OFFSET ?`)

	badges := []model.Badge{}
	if err := r.db.SelectContext(ctx, &badges, query, page.Limit, page.Skip); err != nil {
		return nil, fmt.Errorf("badgeRepository.List: %w", err)
	}
	return badges, nil
}

func (r *sqlBadgeRepository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM badges WHERE id_badge = ?`)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("badgeRepository.Delete: %w", err)
	}
	return expectAffected(res, fmt.Sprintf("badge %d non trouvé", id))
}

func (r *sqlBadgeRepository) Grant(ctx context.Context, pseudo string, badgeID int64, at time.Time) error {
	query := r.db.Rebind(`INSERT INTO badges_utilisateurs (pseudo, id_badge, date_obtention) VALUES (?, ?, ?)
	          ON CONFLICT (pseudo, id_badge) DO NOTHING`)
	if _, err := r.db.ExecContext(ctx, query, pseudo, badgeID, at); err != nil {
		if common.IsForeignKeyViolation(err) {
			return fmt.Errorf("utilisateur ou badge inconnu: %w", common.ErrNotFound)
		}
		return fmt.Errorf("badgeRepository.Grant: %w", err)
	}
	return nil
}

func (r *sqlBadgeRepository) Revoke(ctx context.Context, pseudo string, badgeID int64) error {
	query := r.db.Rebind(`DELETE FROM badges_utilisateurs WHERE pseudo = ? AND id_badge = ?`)
	res, err := r.db.ExecContext(ctx, query, pseudo, badgeID)
	if err != nil {
		return fmt.Errorf("badgeRepository.Revoke: %w", err)
	}
	return expectAffected(res, "badge non attribué à cet utilisateur")
}

func (r *sqlBadgeRepository) ListByUser(ctx context.Context, pseudo string, page Page) ([]model.UserBadge, error) {
	page = page.Normalize()
	query := r.db.Rebind(`
	SELECT b.id_badge, b.titre, b.description, b.chemin_img, bu.pseudo, bu.date_obtention
	FROM badges_utilisateurs bu
	JOIN badges b ON b.id_badge = bu.id_badge
	WHERE bu.pseudo = ?
	ORDER BY bu.date_obtention, b.id_badge
	LIMIT ? OFFSET ?`)

	badges := []model.UserBadge{}
	if err := r.db.SelectContext(ctx, &badges, query, pseudo, page.Limit, page.Skip); err != nil {
		return nil, fmt.Errorf("badgeRepository.ListByUser: %w", err)
	}
	return badges, nil
}
