package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dactylo_api/internal/common"
	"dactylo_api/internal/common/security"
	"dactylo_api/internal/domain/model"
	"dactylo_api/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

type AuthService struct {
	userRepo repository.UserRepository
	hasher   *security.PasswordHasher
	tokens   *security.TokenIssuer
	policy   security.PasswordPolicy
	logger   logrus.FieldLogger
}

func NewAuthService(
	userRepo repository.UserRepository,
	hasher *security.PasswordHasher,
	tokens *security.TokenIssuer,
	policy security.PasswordPolicy,
	logger logrus.FieldLogger,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		policy:   policy,
		logger:   logger,
	}
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ChangePasswordRequest struct {
	AncienMotDePasse  string `json:"ancien_mot_de_passe"`
	NouveauMotDePasse string `json:"nouveau_mot_de_passe"`
}

// Login checks the credentials and issues a bearer token for the user.
// Unknown pseudo and wrong password both yield common.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, pseudo, password string) (*TokenResponse, error) {
	if pseudo == "" || password == "" {
		return nil, common.ErrUnauthorized
	}

	user, err := s.userRepo.FindByPseudo(ctx, nil, pseudo)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	token, expiresAt, err := s.tokens.Issue(user.Pseudo)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.logger.WithField("pseudo", user.Pseudo).Debug("token issued")
	return &TokenResponse{AccessToken: token, TokenType: security.TokenType, ExpiresAt: expiresAt}, nil
}

// UserBySubject loads the user a verified token was issued for.
func (s *AuthService) UserBySubject(ctx context.Context, subject string) (*model.User, error) {
	user, err := s.userRepo.FindByPseudo(ctx, nil, subject)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, user *model.User, req ChangePasswordRequest) error {
	if !s.hasher.Verify(req.AncienMotDePasse, user.HashedPassword) {
		return common.Errorf("ancien mot de passe incorrect: %w", common.ErrBadRequest)
	}
	if req.NouveauMotDePasse == "" {
		return common.Errorf("le nouveau mot de passe ne peut pas être vide: %w", common.ErrBadRequest)
	}
	if err := s.policy.Check(req.NouveauMotDePasse); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(req.NouveauMotDePasse)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.Pseudo, hashed); err != nil {
		return err
	}
	user.HashedPassword = hashed
	return nil
}
