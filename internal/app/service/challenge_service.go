package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/model"
	"dactylo_api/internal/domain/repository"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ChallengeService struct {
	challengeRepo repository.ChallengeRepository
	userRepo      repository.UserRepository
	db            *sqlx.DB
	logger        logrus.FieldLogger
	now           func() time.Time
}

func NewChallengeService(
	challengeRepo repository.ChallengeRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	logger logrus.FieldLogger,
) *ChallengeService {
	return &ChallengeService{
		challengeRepo: challengeRepo,
		userRepo:      userRepo,
		db:            db,
		logger:        logger,
		now:           time.Now,
	}
}

type CreateChallengeRequest struct {
	Titre       string `json:"titre_defi"`
	Description string `json:"description_defi"`
}

type RecordCompletionRequest struct {
	ChallengeID int64
	Pseudo      string // empty means the caller
	Temps       float64
}

func (s *ChallengeService) Create(ctx context.Context, req CreateChallengeRequest) (*model.Challenge, error) {
	if strings.TrimSpace(req.Titre) == "" {
		return nil, common.Errorf("titre_defi est requis: %w", common.ErrBadRequest)
	}
	challenge := &model.Challenge{Titre: req.Titre, Description: req.Description}
	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

func (s *ChallengeService) Get(ctx context.Context, id int64) (*model.Challenge, error) {
	return s.challengeRepo.FindByID(ctx, nil, id)
}

func (s *ChallengeService) List(ctx context.Context, page repository.Page) ([]model.Challenge, error) {
	return s.challengeRepo.List(ctx, page)
}

func (s *ChallengeService) Delete(ctx context.Context, id int64) (*common.MessageResponse, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := s.challengeRepo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &common.MessageResponse{Message: fmt.Sprintf("Défi '%s' supprimé avec succès.", challenge.Titre)}, nil
}

// RecordCompletion stores a completion time, keeping only the best (smallest) time
// per user and challenge. The returned row is what is stored after the call.
func (s *ChallengeService) RecordCompletion(ctx context.Context, actor *model.User, req RecordCompletionRequest) (*model.CompletionOutcome, error) {
	if req.Pseudo == "" && actor != nil {
		req.Pseudo = actor.Pseudo
	}
	if err := authorizeSelfOrAdmin(actor, req.Pseudo); err != nil {
		return nil, err
	}
	if math.IsNaN(req.Temps) || math.IsInf(req.Temps, 0) || req.Temps <= 0 {
		return nil, common.Errorf("temps_reussite doit être strictement positif: %w", common.ErrBadRequest)
	}

	outcome, err := s.recordCompletion(ctx, req)
	if errors.Is(err, common.ErrConflict) {
		// A concurrent first submission inserted the row; the second pass updates it.
		outcome, err = s.recordCompletion(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"pseudo":  outcome.Pseudo,
		"id_defi": outcome.ChallengeID,
		"temps":   req.Temps,
		"best":    outcome.TempsReussite,
	}).Debug("challenge completion recorded")
	return outcome, nil
}

func (s *ChallengeService) recordCompletion(ctx context.Context, req RecordCompletionRequest) (*model.CompletionOutcome, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.userRepo.FindByPseudo(ctx, tx, req.Pseudo); err != nil {
		return nil, err
	}
	if _, err := s.challengeRepo.FindByID(ctx, tx, req.ChallengeID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	outcome := &model.CompletionOutcome{}

	existing, err := s.challengeRepo.FindCompletion(ctx, tx, req.Pseudo, req.ChallengeID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		outcome.ChallengeCompletion = model.ChallengeCompletion{
			ChallengeID:   req.ChallengeID,
			Pseudo:        req.Pseudo,
			TempsReussite: req.Temps,
			DateReussite:  now,
		}
		if err := s.challengeRepo.InsertCompletion(ctx, tx, &outcome.ChallengeCompletion); err != nil {
			return nil, err
		}
		outcome.Improved = true
	case err != nil:
		return nil, err
	default:
		improved, err := s.challengeRepo.ImproveCompletionTime(ctx, tx, existing.ID, req.Temps, now)
		if err != nil {
			return nil, err
		}
		if improved {
			existing.TempsReussite = req.Temps
			existing.DateReussite = now
		}
		outcome.ChallengeCompletion = *existing
		outcome.Improved = improved
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	return outcome, nil
}

func (s *ChallengeService) DeleteCompletion(ctx context.Context, actor *model.User, pseudo string, challengeID int64) (*common.MessageResponse, error) {
	if err := authorizeSelfOrAdmin(actor, pseudo); err != nil {
		return nil, err
	}
	if err := s.challengeRepo.DeleteCompletion(ctx, pseudo, challengeID); err != nil {
		return nil, err
	}
	return &common.MessageResponse{
		Message: fmt.Sprintf("Réussite du défi %d de '%s' supprimée avec succès.", challengeID, pseudo),
	}, nil
}

func (s *ChallengeService) ListBestCompletions(ctx context.Context, page repository.Page) ([]model.ChallengeCompletion, error) {
	return s.challengeRepo.ListBestCompletions(ctx, page)
}

func (s *ChallengeService) ListCompletionsByUser(ctx context.Context, pseudo string, page repository.Page) ([]model.ChallengeCompletion, error) {
	return s.challengeRepo.ListCompletionsByUser(ctx, pseudo, page)
}

func (s *ChallengeService) Leaderboard(ctx context.Context, challengeID int64, limit int) ([]model.LeaderboardEntry, error) {
	if _, err := s.challengeRepo.FindByID(ctx, nil, challengeID); err != nil {
		return nil, err
	}
	return s.challengeRepo.Leaderboard(ctx, challengeID, limit)
}

// WeeklyCounter reports 0 until the scheduled job has run once.
func (s *ChallengeService) WeeklyCounter(ctx context.Context) (*model.WeeklyChallenge, error) {
	value, err := s.challengeRepo.GetWeeklyCounter(ctx, nil)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return &model.WeeklyChallenge{Compteur: 0}, nil
		}
		return nil, err
	}
	return &model.WeeklyChallenge{Compteur: value}, nil
}

// AdvanceWeeklyCounter creates the counter with 1 on first run and increments it afterwards.
func (s *ChallengeService) AdvanceWeeklyCounter(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	next := 1
	current, err := s.challengeRepo.GetWeeklyCounter(ctx, tx)
	switch {
	case err == nil:
		next = current + 1
	case !errors.Is(err, common.ErrNotFound):
		return 0, err
	}

	if err := s.challengeRepo.SetWeeklyCounter(ctx, tx, next); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, common.Errorf("failed to commit transaction: %w", err)
	}
	return next, nil
}
