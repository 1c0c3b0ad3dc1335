package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"dactylo_api/internal/common"
	"dactylo_api/internal/common/security"
	"dactylo_api/internal/domain/model"
	"dactylo_api/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

// MaxPseudoLength bounds the primary key of utilisateurs.
const MaxPseudoLength = 15

type UserService struct {
	userRepo repository.UserRepository
	hasher   *security.PasswordHasher
	policy   security.PasswordPolicy
	logger   logrus.FieldLogger
}

func NewUserService(
	userRepo repository.UserRepository,
	hasher *security.PasswordHasher,
	policy security.PasswordPolicy,
	logger logrus.FieldLogger,
) *UserService {
	return &UserService{userRepo: userRepo, hasher: hasher, policy: policy, logger: logger}
}

type CreateUserRequest struct {
	Pseudo     string `json:"pseudo"`
	MotDePasse string `json:"mot_de_passe"`
	Nom        string `json:"nom"`
	Prenom     string `json:"prenom"`
	Courriel   string `json:"courriel"`
}

func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*model.UserProfile, error) {
	req.Pseudo = strings.TrimSpace(req.Pseudo)
	if req.Pseudo == "" || req.Nom == "" || req.Prenom == "" || req.Courriel == "" {
		return nil, common.Errorf("pseudo, nom, prenom et courriel sont requis: %w", common.ErrBadRequest)
	}
	if utf8.RuneCountInString(req.Pseudo) > MaxPseudoLength {
		return nil, common.Errorf("le pseudo ne peut pas dépasser %d caractères: %w", MaxPseudoLength, common.ErrBadRequest)
	}
	if !strings.Contains(req.Courriel, "@") {
		return nil, common.Errorf("courriel invalide: %w", common.ErrBadRequest)
	}
	if err := s.policy.Check(req.MotDePasse); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(req.MotDePasse)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Pseudo:         req.Pseudo,
		HashedPassword: hashed,
		Nom:            req.Nom,
		Prenom:         req.Prenom,
		Courriel:       req.Courriel,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.WithField("pseudo", user.Pseudo).Info("user created")

	profile := user.Profile()
	return &profile, nil
}

func (s *UserService) List(ctx context.Context, page repository.Page) ([]model.UserPublic, error) {
	return s.userRepo.List(ctx, page)
}

func (s *UserService) GetPublic(ctx context.Context, pseudo string) (*model.UserPublic, error) {
	user, err := s.userRepo.FindByPseudo(ctx, nil, pseudo)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

func (s *UserService) GetProfile(ctx context.Context, pseudo string) (*model.UserProfile, error) {
	user, err := s.userRepo.FindByPseudo(ctx, nil, pseudo)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// SetChallengeCounter stores the user's cptDefi. Only the user or a site admin may change it.
func (s *UserService) SetChallengeCounter(ctx context.Context, actor *model.User, pseudo string, value int) (*model.UserProfile, error) {
	if err := authorizeSelfOrAdmin(actor, pseudo); err != nil {
		return nil, err
	}
	if value < 0 {
		return nil, common.Errorf("cptDefi doit être positif: %w", common.ErrBadRequest)
	}
	if err := s.userRepo.UpdateChallengeCounter(ctx, pseudo, value); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, pseudo)
}

func (s *UserService) Delete(ctx context.Context, actor *model.User, pseudo string) (*common.MessageResponse, error) {
	if err := authorizeSelfOrAdmin(actor, pseudo); err != nil {
		return nil, err
	}
	if err := s.userRepo.Delete(ctx, pseudo); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"pseudo": pseudo, "by": actor.Pseudo}).Info("user deleted")
	return &common.MessageResponse{Message: fmt.Sprintf("Utilisateur '%s' supprimé avec succès.", pseudo)}, nil
}

// Stats returns the stored summary figures with the string encoding the clients expect.
func (s *UserService) Stats(ctx context.Context, pseudo string) (*model.UserStats, error) {
	user, err := s.userRepo.FindByPseudo(ctx, nil, pseudo)
	if err != nil {
		return nil, err
	}
	return &model.UserStats{
		MoyMotsParMinute: strconv.Itoa(user.MoyMotsParMinute),
		NumCours:         strconv.Itoa(user.NumCours),
		TempsTotal:       strconv.Itoa(user.TempsTotal),
	}, nil
}

// authorizeSelfOrAdmin lets a user act on their own records and site admins on anyone's.
func authorizeSelfOrAdmin(actor *model.User, pseudo string) error {
	if actor == nil {
		return common.ErrUnauthorized
	}
	if actor.Pseudo != pseudo && !actor.EstAdmin {
		return common.Errorf("action réservée à '%s' ou à un administrateur: %w", pseudo, common.ErrForbidden)
	}
	return nil
}

func authorizeSiteAdmin(actor *model.User) error {
	if actor == nil {
		return common.ErrUnauthorized
	}
	if !actor.EstAdmin {
		return common.Errorf("action réservée à un administrateur: %w", common.ErrForbidden)
	}
	return nil
}
