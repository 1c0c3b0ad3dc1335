package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/model"
	"dactylo_api/internal/platform/database"

	"github.com/jmoiron/sqlx"
)

type GroupRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, group *model.Group) error
	FindByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Group, error)
	// LockByID loads the group and, on PostgreSQL, holds its row lock until tx ends.
	LockByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Group, error)
	List(ctx context.Context, page Page) ([]model.Group, error)
	Delete(ctx context.Context, tx *sqlx.Tx, id int64) error

	FindMembership(ctx context.Context, tx *sqlx.Tx, pseudo string, groupID int64) (*model.Membership, error)
	AddMembership(ctx context.Context, tx *sqlx.Tx, m *model.Membership) error
	RemoveMembership(ctx context.Context, tx *sqlx.Tx, pseudo string, groupID int64) error
	CountAdmins(ctx context.Context, tx *sqlx.Tx, groupID int64) (int, error)
	ListMembers(ctx context.Context, groupID int64, admins bool) ([]model.UserPublic, error)
	ListMemberships(ctx context.Context, page Page) ([]model.Membership, error)
	ListMembershipsByUser(ctx context.Context, pseudo string, page Page) ([]model.Membership, error)
}

type sqlGroupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) GroupRepository {
	return &sqlGroupRepository{db: db}
}

func (r *sqlGroupRepository) Create(ctx context.Context, tx *sqlx.Tx, g *model.Group) error {
	q := runner(r.db, tx)
	query := q.Rebind(`INSERT INTO groupes (nom, description) VALUES (?, ?) RETURNING id_groupe`)
	if err := q.QueryRowxContext(ctx, query, g.Nom, g.Description).Scan(&g.ID); err != nil {
		return fmt.Errorf("groupRepository.Create: %w", err)
	}
	return nil
}

func (r *sqlGroupRepository) FindByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Group, error) {
	return r.findByID(ctx, runner(r.db, tx), id, "")
}

func (r *sqlGroupRepository) LockByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Group, error) {
	q := runner(r.db, tx)
	return r.findByID(ctx, q, id, database.LockClause(q))
}

func (r *sqlGroupRepository) findByID(ctx context.Context, q sqlx.ExtContext, id int64, suffix string) (*model.Group, error) {
	query := q.Rebind(`SELECT id_groupe, nom, description FROM groupes WHERE id_groupe = ?` + suffix)

	group := &model.Group{}
	if err := sqlx.GetContext(ctx, q, group, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("groupe %d non trouvé: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("groupRepository.FindByID: %w", err)
	}
	return group, nil
}

func (r *sqlGroupRepository) List(ctx context.Context, page Page) ([]model.Group, error) {
	page = page.Normalize()
	query := r.db.Rebind(`SELECT id_groupe, nom, description FROM groupes ORDER BY id_groupe LIMIT ? OFFSET ?`)

	groups := []model.Group{}
	if err := r.db.SelectContext(ctx, &groups, query, page.Limit, page.Skip); err != nil {
		return nil, fmt.Errorf("groupRepository.List: %w", err)
	}
	return groups, nil
}

// Delete removes the group; memberships go with it through ON DELETE CASCADE.
func (r *sqlGroupRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	q := runner(r.db, tx)
	query := q.Rebind(`DELETE FROM groupes WHERE id_groupe = ?`)
	res, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("groupRepository.Delete: %w", err)
	}
	return expectAffected(res, fmt.Sprintf("groupe %d non trouvé", id))
}

func (r *sqlGroupRepository) FindMembership(ctx context.Context, tx *sqlx.Tx, pseudo string, groupID int64) (*model.Membership, error) {
	q := runner(r.db, tx)
	query := q.Rebind(`SELECT pseudo, id_groupe, est_admin FROM groupes_utilisateurs WHERE pseudo = ? AND id_groupe = ?`)

	m := &model.Membership{}
	if err := sqlx.GetContext(ctx, q, m, query, pseudo, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("relation utilisateur-groupe non trouvée: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("groupRepository.FindMembership: %w", err)
	}
	return m, nil
}

func (r *sqlGroupRepository) AddMembership(ctx context.Context, tx *sqlx.Tx, m *model.Membership) error {
	q := runner(r.db, tx)
	query := q.Rebind(`INSERT INTO groupes_utilisateurs (pseudo, id_groupe, est_admin) VALUES (?, ?, ?)`)
	if _, err := q.ExecContext(ctx, query, m.Pseudo, m.GroupID, m.EstAdmin); err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("l'utilisateur appartient déjà à ce groupe: %w", common.ErrConflict)
		}
		return fmt.Errorf("groupRepository.AddMembership: %w", err)
	}
	return nil
}

func (r *sqlGroupRepository) RemoveMembership(ctx context.Context, tx *sqlx.Tx, pseudo string, groupID int64) error {
	q := runner(r.db, tx)
	query := q.Rebind(`DELETE FROM groupes_utilisateurs WHERE pseudo = ? AND id_groupe = ?`)
	res, err := q.ExecContext(ctx, query, pseudo, groupID)
	if err != nil {
		return fmt.Errorf("groupRepository.RemoveMembership: %w", err)
	}
	return expectAffected(res, "relation utilisateur-groupe non trouvée")
}

func (r *sqlGroupRepository) CountAdmins(ctx context.Context, tx *sqlx.Tx, groupID int64) (int, error) {
	q := runner(r.db, tx)
	query := q.Rebind(`SELECT COUNT(*) FROM groupes_utilisateurs WHERE id_groupe = ? AND est_admin = ?`)

	var count int
	if err := q.QueryRowxContext(ctx, query, groupID, true).Scan(&count); err != nil {
		return 0, fmt.Errorf("groupRepository.CountAdmins: %w", err)
	}
	return count, nil
}

func (r *sqlGroupRepository) ListMembers(ctx context.Context, groupID int64, admins bool) ([]model.UserPublic, error) {
	query := r.db.Rebind(`
	SELECT u.pseudo, u.nom, u.prenom
	FROM groupes_utilisateurs gu
	JOIN utilisateurs u ON u.pseudo = gu.pseudo
	WHERE gu.id_groupe = ? AND gu.est_admin = ?
	ORDER BY u.pseudo`)

	users := []model.UserPublic{}
	if err := r.db.SelectContext(ctx, &users, query, groupID, admins); err != nil {
		return nil, fmt.Errorf("groupRepository.ListMembers: %w", err)
	}
	return users, nil
}

func (r *sqlGroupRepository) ListMemberships(ctx context.Context, page Page) ([]model.Membership, error) {
	page = page.Normalize()
	query := r.db.Rebind(`SELECT pseudo, id_groupe, est_admin FROM groupes_utilisateurs
	          ORDER BY id_groupe, pseudo LIMIT ? OFFSET ?`)

	memberships := []model.Membership{}
	if err := r.db.SelectContext(ctx, &memberships, query, page.Limit, page.Skip); err != nil {
		return nil, fmt.Errorf("groupRepository.ListMemberships: %w", err)
	}
	return memberships, nil
}

func (r *sqlGroupRepository) ListMembershipsByUser(ctx context.Context, pseudo string, page Page) ([]model.Membership, error) {
	page = page.Normalize()
	query := r.db.Rebind(`SELECT pseudo, id_groupe, est_admin FROM groupes_utilisateurs
	          WHERE pseudo = ? ORDER BY id_groupe LIMIT ? OFFSET ?`)

	memberships := []model.Membership{}
	if err := r.db.SelectContext(ctx, &memberships, query, pseudo, page.Limit, page.Skip); err != nil {
		return nil, fmt.Errorf("groupRepository.ListMembershipsByUser: %w", err)
	}
	return memberships, nil
}
