package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/model"
	"dactylo_api/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

type BadgeService struct {
	badgeRepo repository.BadgeRepository
	userRepo  repository.UserRepository
	logger    logrus.FieldLogger
}

func NewBadgeService(badgeRepo repository.BadgeRepository, userRepo repository.UserRepository, logger logrus.FieldLogger) *BadgeService {
	return &BadgeService{badgeRepo: badgeRepo, userRepo: userRepo, logger: logger}
}

type CreateBadgeRequest struct {
	Titre       string `json:"titre_badge"`
	Description string `json:"description_badge"`
	CheminImg   string `json:"chemin_img_badge"`
}

func (s *BadgeService) Create(ctx context.Context, req CreateBadgeRequest) (*model.Badge, error) {
	if strings.TrimSpace(req.Titre) == "" {
		return nil, common.Errorf("titre_badge est requis: %w", common.ErrBadRequest)
	}
	badge := &model.Badge{Titre: req.Titre, Description: req.Description, CheminImg: req.CheminImg}
	if err := s.badgeRepo.Create(ctx, badge); err != nil {
		return nil, err
	}
	return badge, nil
}

func (s *BadgeService) Get(ctx context.Context, id int64) (*model.Badge, error) {
	return s.badgeRepo.FindByID(ctx, id)
}

func (s *BadgeService) List(ctx context.Context, page repository.Page) ([]model.Badge, error) {
	return s.badgeRepo.List(ctx, page)
}

func (s *BadgeService) Delete(ctx context.Context, id int64) (*common.MessageResponse, error) {
	badge, err := s.badgeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.badgeRepo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &common.MessageResponse{Message: fmt.Sprintf("Badge '%s' supprimé avec succès.", badge.Titre)}, nil
}

// Grant awards the badge. Only site admins may grant, and granting a badge the user already holds changes nothing.
func (s *BadgeService) Grant(ctx context.Context, actor *model.User, badgeID int64, pseudo string) (*common.MessageResponse, error) {
	if err := authorizeSiteAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByPseudo(ctx, nil, pseudo); err != nil {
		return nil, err
	}
	badge, err := s.badgeRepo.FindByID(ctx, badgeID)
	if err != nil {
		return nil, err
	}
	if err := s.badgeRepo.Grant(ctx, pseudo, badgeID, time.Now().UTC()); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"pseudo": pseudo, "id_badge": badgeID}).Info("badge granted")
	return &common.MessageResponse{Message: fmt.Sprintf("Badge '%s' attribué à '%s'.", badge.Titre, pseudo)}, nil
}

func (s *BadgeService) Revoke(ctx context.Context, actor *model.User, badgeID int64, pseudo string) (*common.MessageResponse, error) {
	if err := authorizeSiteAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.badgeRepo.Revoke(ctx, pseudo, badgeID); err != nil {
		return nil, err
	}
	return &common.MessageResponse{Message: fmt.Sprintf("Badge %d retiré à '%s'.", badgeID, pseudo)}, nil
}

func (s *BadgeService) ListByUser(ctx context.Context, pseudo string, page repository.Page) ([]model.UserBadge, error) {
	return s.badgeRepo.ListByUser(ctx, pseudo, page)
}
