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

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByPseudo(ctx context.Context, tx *sqlx.Tx, pseudo string) (*model.User, error)
	List(ctx context.Context, page Page) ([]model.UserPublic, error)
	UpdatePassword(ctx context.Context, pseudo, hashedPassword string) error
	UpdateChallengeCounter(ctx context.Context, pseudo string, value int) error
	// LockByPseudo loads the user and, on PostgreSQL, holds its row lock until tx ends.
	LockByPseudo(ctx context.Context, tx *sqlx.Tx, pseudo string) (*model.User, error)
	AddToSummary(ctx context.Context, tx *sqlx.Tx, pseudo string, practiceTime, coursesDone int) error
	RefreshWordsPerMinute(ctx context.Context, tx *sqlx.Tx, pseudo, statType string) error
	Delete(ctx context.Context, pseudo string) error
}

type sqlUserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &sqlUserRepository{db: db}
}

const userColumns = `pseudo, mot_de_passe, nom, prenom, courriel, est_admin, cpt_defi, moy_mots_par_minute, num_cours, temps_total`

func (r *sqlUserRepository) Create(ctx context.Context, u *model.User) error {
	query := r.db.Rebind(`INSERT INTO utilisateurs (` + userColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		u.Pseudo, u.HashedPassword, u.Nom, u.Prenom, u.Courriel, u.EstAdmin,
		u.CptDefi, u.MoyMotsParMinute, u.NumCours, u.TempsTotal,
	)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("l'utilisateur '%s' existe déjà: %w", u.Pseudo, common.ErrConflict)
		}
		return fmt.Errorf("userRepository.Create: %w", err)
	}
	return nil
}

func (r *sqlUserRepository) FindByPseudo(ctx context.Context, tx *sqlx.Tx, pseudo string) (*model.User, error) {
	return r.findByPseudo(ctx, runner(r.db, tx), pseudo, "")
}

func (r *sqlUserRepository) LockByPseudo(ctx context.Context, tx *sqlx.Tx, pseudo string) (*model.User, error) {
	q := runner(r.db, tx)
	return r.findByPseudo(ctx, q, pseudo, database.LockClause(q))
}

func (r *sqlUserRepository) findByPseudo(ctx context.Context, q sqlx.ExtContext, pseudo, suffix string) (*model.User, error) {
	query := q.Rebind(`SELECT ` + userColumns + ` FROM utilisateurs WHERE pseudo = ?` + suffix)

	user := &model.User{}
	if err := sqlx.GetContext(ctx, q, user, query, pseudo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("utilisateur '%s' non trouvé: %w", pseudo, common.ErrNotFound)
		}
		return nil, fmt.Errorf("userRepository.FindByPseudo: %w", err)
	}
	return user, nil
}

func (r *sqlUserRepository) List(ctx context.Context, page Page) ([]model.UserPublic, error) {
	page = page.Normalize()
	query := r.db.Rebind(`SELECT pseudo, nom, prenom FROM utilisateurs ORDER BY pseudo LIMIT ? OFFSET ?`)

	users := []model.UserPublic{}
	if err := r.db.SelectContext(ctx, &users, query, page.Limit, page.Skip); err != nil {
		return nil, fmt.Errorf("userRepository.List: %w", err)
	}
	return users, nil
}

func (r *sqlUserRepository) UpdatePassword(ctx context.Context, pseudo, hashedPassword string) error {
	query := r.db.Rebind(`UPDATE utilisateurs SET mot_de_passe = ? WHERE pseudo = ?`)
	res, err := r.db.ExecContext(ctx, query, hashedPassword, pseudo)
	if err != nil {
		return fmt.Errorf("userRepository.UpdatePassword: %w", err)
	}
	return expectAffected(res, "utilisateur '"+pseudo+"' non trouvé")
}

func (r *sqlUserRepository) UpdateChallengeCounter(ctx context.Context, pseudo string, value int) error {
	query := r.db.Rebind(`UPDATE utilisateurs SET cpt_defi = ? WHERE pseudo = ?`)
	res, err := r.db.ExecContext(ctx, query, value, pseudo)
	if err != nil {
		return fmt.Errorf("userRepository.UpdateChallengeCounter: %w", err)
	}
	return expectAffected(res, "utilisateur '"+pseudo+"' non trouvé")
}

// AddToSummary increments the practice time and completed-course counters in place.
func (r *sqlUserRepository) AddToSummary(ctx context.Context, tx *sqlx.Tx, pseudo string, practiceTime, coursesDone int) error {
	q := runner(r.db, tx)
	query := q.Rebind(`UPDATE utilisateurs SET temps_total = temps_total + ?, num_cours = num_cours + ? WHERE pseudo = ?`)
	res, err := q.ExecContext(ctx, query, practiceTime, coursesDone, pseudo)
	if err != nil {
		return fmt.Errorf("userRepository.AddToSummary: %w", err)
	}
	return expectAffected(res, "utilisateur '"+pseudo+"' non trouvé")
}

// RefreshWordsPerMinute recomputes moy_mots_par_minute as the rounded average of the
// user's logged values of statType.
func (r *sqlUserRepository) RefreshWordsPerMinute(ctx context.Context, tx *sqlx.Tx, pseudo, statType string) error {
	q := runner(r.db, tx)
	query := q.Rebind(`UPDATE utilisateurs SET moy_mots_par_minute = COALESCE((
		SELECT CAST(ROUND(CAST(AVG(valeur) AS NUMERIC)) AS INTEGER)
		FROM statistiques WHERE pseudo = ? AND type_stat = ?
	), 0) WHERE pseudo = ?`)
	res, err := q.ExecContext(ctx, query, pseudo, statType, pseudo)
	if err != nil {
		return fmt.Errorf("userRepository.RefreshWordsPerMinute: %w", err)
	}
	return expectAffected(res, "utilisateur '"+pseudo+"' non trouvé")
}

func (r *sqlUserRepository) Delete(ctx context.Context, pseudo string) error {
	query := r.db.Rebind(`DELETE FROM utilisateurs WHERE pseudo = ?`)
	res, err := r.db.ExecContext(ctx, query, pseudo)
	if err != nil {
		return fmt.Errorf("userRepository.Delete: %w", err)
	}
	return expectAffected(res, "utilisateur '"+pseudo+"' non trouvé")
}

// expectAffected turns a statement that touched no row into common.ErrNotFound.
func expectAffected(res sql.Result, notFound string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", notFound, common.ErrNotFound)
	}
	return nil
}
