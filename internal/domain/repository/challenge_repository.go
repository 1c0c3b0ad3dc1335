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

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *model.Challenge) error
	FindByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Challenge, error)
	List(ctx context.Context, page Page) ([]model.Challenge, error)
	Delete(ctx context.Context, id int64) error

	FindCompletion(ctx context.Context, tx *sqlx.Tx, pseudo string, challengeID int64) (*model.ChallengeCompletion, error)
	InsertCompletion(ctx context.Context, tx *sqlx.Tx, c *model.ChallengeCompletion) error
	// ImproveCompletionTime only writes when temps is strictly below the stored time.
	ImproveCompletionTime(ctx context.Context, tx *sqlx.Tx, id int64, temps float64, at time.Time) (bool, error)
	DeleteCompletion(ctx context.Context, pseudo string, challengeID int64) error
	ListBestCompletions(ctx context.Context, page Page) ([]model.ChallengeCompletion, error)
	ListCompletionsByUser(ctx context.Context, pseudo string, page Page) ([]model.ChallengeCompletion, error)
	Leaderboard(ctx context.Context, challengeID int64, limit int) ([]model.LeaderboardEntry, error)

	GetWeeklyCounter(ctx context.Context, tx *sqlx.Tx) (int, error)
	SetWeeklyCounter(ctx context.Context, tx *sqlx.Tx, value int) error
}

type sqlChallengeRepository struct {
	db *sqlx.DB
}

func NewChallengeRepository(db *sqlx.DB) ChallengeRepository {
	return &sqlChallengeRepository{db: db}
}

func (r *sqlChallengeRepository) Create(ctx context.Context, c *model.Challenge) error {
	query := r.db.Rebind(`INSERT INTO defis (titre, description) VALUES (?, ?) RETURNING id_defi`)
	if err := r.db.QueryRowxContext(ctx, query, c.Titre, c.Description).Scan(&c.ID); err != nil {
		return fmt.Errorf("challengeRepository.Create: %w", err)
	}
	return nil
}

func (r *sqlChallengeRepository) FindByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Challenge, error) {
	q := runner(r.db, tx)
	query := q.Rebind(`SELECT id_defi, titre, description FROM defis WHERE id_defi = ?`)

	challenge := &model.Challenge{}
	if err := sqlx.GetContext(ctx, q, challenge, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("défi %d non trouvé: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("challengeRepository.FindByID: %w", err)
	}
	return challenge, nil
}

func (r *sqlChallengeRepository) List(ctx context.Context, page Page) ([]model.Challenge, error) {
	page = page.Normalize()
	query := r.db.Rebind(`SELECT id_defi, titre, description FROM defis ORDER BY id_defi LIMIT ? OFFSET ?`)

	challenges := []model.Challenge{}
	if err := r.db.SelectContext(ctx, &challenges, query, page.Limit, page.Skip); err != nil {
		return nil, fmt.Errorf("challengeRepository.List: %w", err)
	}
	return challenges, nil
}

func (r *sqlChallengeRepository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM defis WHERE id_defi = ?`)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("challengeRepository.Delete: %w", err)
	}
	return expectAffected(res, fmt.Sprintf("défi %d non trouvé", id))
}

const completionColumns = `id_reussite, id_defi, pseudo, temps_reussite, date_reussite`

func (r *sqlChallengeRepository) FindCompletion(ctx context.Context, tx *sqlx.Tx, pseudo string, challengeID int64) (*model.ChallengeCompletion, error) {
	q := runner(r.db, tx)
	query := q.Rebind(`SELECT ` + completionColumns + ` FROM reussites_defi WHERE pseudo = ? AND id_defi = ?`)

	completion := &model.ChallengeCompletion{}
	if err := sqlx.GetContext(ctx, q, completion, query, pseudo, challengeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("réussite de défi non trouvée: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("challengeRepository.FindCompletion: %w", err)
	}
	return completion, nil
}

func (r *sqlChallengeRepository) InsertCompletion(ctx context.Context, tx *sqlx.Tx, c *model.ChallengeCompletion) error {
	q := runner(r.db, tx)
	query := q.Rebind(`INSERT INTO reussites_defi (id_defi, pseudo, temps_reussite, date_reussite)
	          VALUES (?, ?, ?, ?) RETURNING id_reussite`)
	if err := q.QueryRowxContext(ctx, query, c.ChallengeID, c.Pseudo, c.TempsReussite, c.DateReussite).Scan(&c.ID); err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("réussite déjà enregistrée: %w", common.ErrConflict)
		}
		return fmt.Errorf("challengeRepository.InsertCompletion: %w", err)
	}
	return nil
}

func (r *sqlChallengeRepository) ImproveCompletionTime(ctx context.Context, tx *sqlx.Tx, id int64, temps float64, at time.Time) (bool, error) {
	q := runner(r.db, tx)
	query := q.Rebind(`UPDATE reussites_defi SET temps_reussite = ?, date_reussite = ?
	          WHERE id_reussite = ? AND temps_reussite > ?`)
	res, err := q.ExecContext(ctx, query, temps, at, id, temps)
	if err != nil {
		return false, fmt.Errorf("challengeRepository.ImproveCompletionTime: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("challengeRepository.ImproveCompletionTime: %w", err)
	}
	return n == 1, nil
}

func (r *sqlChallengeRepository) DeleteCompletion(ctx context.Context, pseudo string, challengeID int64) error {
	query := r.db.Rebind(`DELETE FROM reussites_defi WHERE pseudo = ? AND id_defi = ?`)
	res, err := r.db.ExecContext(ctx, query, pseudo, challengeID)
	if err != nil {
		return fmt.Errorf("challengeRepository.DeleteCompletion: %w", err)
	}
	return expectAffected(res, "réussite de défi non trouvée")
}

// bestCompletions keeps, per (user, challenge), the rows holding the minimum time.
const bestCompletions = `
	SELECT r.id_reussite, r.id_defi, r.pseudo, r.temps_reussite, r.date_reussite
	FROM reussites_defi r
	JOIN (
		SELECT pseudo, id_defi, MIN(temps_reussite) AS meilleur_temps
		FROM reussites_defi
		GROUP BY pseudo, id_defi
	) best ON best.pseudo = r.pseudo
	      AND best.id_defi = r.id_defi
	      AND best.meilleur_temps = r.temps_reussite`

func (r *sqlChallengeRepository) ListBestCompletions(ctx context.Context, page Page) ([]model.ChallengeCompletion, error) {
	page = page.Normalize()
	query := r.db.Rebind(bestCompletions + ` ORDER BY r.id_defi, r.temps_reussite, r.pseudo LIMIT ? OFFSET ?`)

	completions := []model.ChallengeCompletion{}
	if err := r.db.SelectContext(ctx, &completions, query, page.Limit, page.Skip); err != nil {
		return nil, fmt.Errorf("challengeRepository.ListBestCompletions: %w", err)
	}
	return completions, nil
}

func (r *sqlChallengeRepository) ListCompletionsByUser(ctx context.Context, pseudo string, page Page) ([]model.ChallengeCompletion, error) {
	page = page.Normalize()
	query := r.db.Rebind(`SELECT ` + completionColumns + ` FROM reussites_defi
	          WHERE pseudo = ? ORDER BY id_defi LIMIT ? OFFSET ?`)

	completions := []model.ChallengeCompletion{}
	if err := r.db.SelectContext(ctx, &completions, query, pseudo, page.Limit, page.Skip); err != nil {
		return nil, fmt.Errorf("challengeRepository.ListCompletionsByUser: %w", err)
	}
	return completions, nil
}

// Leaderboard ranks users by their best time on one challenge, fastest first.
func (r *sqlChallengeRepository) Leaderboard(ctx context.Context, challengeID int64, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	query := r.db.Rebind(`
	SELECT r.pseudo, r.temps_reussite, r.date_reussite
	FROM reussites_defi r
	JOIN (
		SELECT pseudo, MIN(temps_reussite) AS meilleur_temps
		FROM reussites_defi
		WHERE id_defi = ?
		GROUP BY pseudo
	) best ON best.pseudo = r.pseudo AND best.meilleur_temps = r.temps_reussite
	WHERE r.id_defi = ?
	ORDER BY r.temps_reussite ASC, r.date_reussite ASC
	LIMIT ?`)

	entries := []model.LeaderboardEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, challengeID, challengeID, limit); err != nil {
		return nil, fmt.Errorf("challengeRepository.Leaderboard: %w", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// GetWeeklyCounter returns common.ErrNotFound while the singleton row does not exist.
func (r *sqlChallengeRepository) GetWeeklyCounter(ctx context.Context, tx *sqlx.Tx) (int, error) {
	q := runner(r.db, tx)
	var value int
	err := q.QueryRowxContext(ctx, `SELECT compteur FROM defi_semaine WHERE id = 1`).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("compteur du défi de la semaine absent: %w", common.ErrNotFound)
		}
		return 0, fmt.Errorf("challengeRepository.GetWeeklyCounter: %w", err)
	}
	return value, nil
}

func (r *sqlChallengeRepository) SetWeeklyCounter(ctx context.Context, tx *sqlx.Tx, value int) error {
	q := runner(r.db, tx)
	query := q.Rebind(`INSERT INTO defi_semaine (id, compteur) VALUES (1, ?)
	          ON CONFLICT (id) DO UPDATE SET compteur = excluded.compteur`)
	if _, err := q.ExecContext(ctx, query, value); err != nil {
		return fmt.Errorf("challengeRepository.SetWeeklyCounter: %w", err)
	}
	return nil
}
