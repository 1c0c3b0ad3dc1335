package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/model"
	"dactylo_api/internal/domain/repository"
)

type ExerciseService struct {
	exerciseRepo repository.ExerciseRepository
}

func NewExerciseService(exerciseRepo repository.ExerciseRepository) *ExerciseService {
	return &ExerciseService{exerciseRepo: exerciseRepo}
}

type CreateExerciseRequest struct {
	Titre       string `json:"titre_exercice"`
	Description string `json:"description_exercice"`
}

func (s *ExerciseService) Create(ctx context.Context, req CreateExerciseRequest) (*model.Exercise, error) {
	if strings.TrimSpace(req.Titre) == "" {
		return nil, common.Errorf("titre_exercice est requis: %w", common.ErrBadRequest)
	}
	exercise := &model.Exercise{Titre: req.Titre, Description: req.Description}
	if err := s.exerciseRepo.Create(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

func (s *ExerciseService) Get(ctx context.Context, id int64) (*model.Exercise, error) {
	return s.exerciseRepo.FindByID(ctx, id)
}

func (s *ExerciseService) List(ctx context.Context, page repository.Page) ([]model.Exercise, error) {
	return s.exerciseRepo.List(ctx, page)
}

func (s *ExerciseService) Delete(ctx context.Context, id int64) (*common.MessageResponse, error) {
	exercise, err := s.exerciseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.exerciseRepo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &common.MessageResponse{Message: fmt.Sprintf("Exercice '%s' supprimé avec succès.", exercise.Titre)}, nil
}

// MarkCompleted records that the caller finished the exercise; repeating it is harmless.
func (s *ExerciseService) MarkCompleted(ctx context.Context, actor *model.User, exerciseID int64) (*common.MessageResponse, error) {
	if actor == nil {
		return nil, common.ErrUnauthorized
	}
	exercise, err := s.exerciseRepo.FindByID(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if err := s.exerciseRepo.MarkCompleted(ctx, actor.Pseudo, exerciseID, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &common.MessageResponse{Message: fmt.Sprintf("Exercice '%s' réussi.", exercise.Titre)}, nil
}

func (s *ExerciseService) ListCompletedByUser(ctx context.Context, pseudo string, page repository.Page) ([]model.ExerciseCompletion, error) {
	return s.exerciseRepo.ListCompletedByUser(ctx, pseudo, page)
}
