package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/model"
	"dactylo_api/internal/domain/repository"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type GroupService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	db        *sqlx.DB
	logger    logrus.FieldLogger
}

func NewGroupService(
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	logger logrus.FieldLogger,
) *GroupService {
	return &GroupService{groupRepo: groupRepo, userRepo: userRepo, db: db, logger: logger}
}

type CreateGroupRequest struct {
	Nom         string `json:"nom_groupe"`
	Description string `json:"description_groupe"`
}

type AddMemberRequest struct {
	GroupID  int64
	Pseudo   string
	EstAdmin bool
}

// Create inserts the group and makes its creator the first admin, atomically.
func (s *GroupService) Create(ctx context.Context, actor *model.User, req CreateGroupRequest) (*model.Group, error) {
	if actor == nil {
		return nil, common.ErrUnauthorized
	}
	if strings.TrimSpace(req.Nom) == "" {
		return nil, common.Errorf("nom_groupe est requis: %w", common.ErrBadRequest)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	group := &model.Group{Nom: req.Nom, Description: req.Description}
	if err := s.groupRepo.Create(ctx, tx, group); err != nil {
		return nil, err
	}
	admin := &model.Membership{Pseudo: actor.Pseudo, GroupID: group.ID, EstAdmin: true}
	if err := s.groupRepo.AddMembership(ctx, tx, admin); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"id_groupe": group.ID, "admin": actor.Pseudo}).Info("group created")
	return group, nil
}

func (s *GroupService) Get(ctx context.Context, id int64) (*model.Group, error) {
	return s.groupRepo.FindByID(ctx, nil, id)
}

func (s *GroupService) List(ctx context.Context, page repository.Page) ([]model.Group, error) {
	return s.groupRepo.List(ctx, page)
}

// Delete is reserved to the group's admins and site admins.
func (s *GroupService) Delete(ctx context.Context, actor *model.User, id int64) (*common.MessageResponse, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	group, err := s.groupRepo.LockByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeGroupAdmin(ctx, tx, actor, id); err != nil {
		return nil, err
	}
	if err := s.groupRepo.Delete(ctx, tx, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	return &common.MessageResponse{Message: fmt.Sprintf("Groupe '%s' supprimé avec succès.", group.Nom)}, nil
}

// AddMember joins a user to a group. When the membership already exists it is
// returned unchanged, whatever admin flag was asked for.
func (s *GroupService) AddMember(ctx context.Context, actor *model.User, req AddMemberRequest) (*model.Membership, error) {
	if actor == nil {
		return nil, common.ErrUnauthorized
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.groupRepo.LockByID(ctx, tx, req.GroupID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByPseudo(ctx, tx, req.Pseudo); err != nil {
		return nil, err
	}

	existing, err := s.groupRepo.FindMembership(ctx, tx, req.Pseudo, req.GroupID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	// Anyone may join as a plain member; promoting needs a group or site admin.
	if req.EstAdmin || actor.Pseudo != req.Pseudo {
		if err := s.authorizeGroupAdmin(ctx, tx, actor, req.GroupID); err != nil {
			return nil, err
		}
	}

	membership := &model.Membership{Pseudo: req.Pseudo, GroupID: req.GroupID, EstAdmin: req.EstAdmin}
	if err := s.groupRepo.AddMembership(ctx, tx, membership); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	return membership, nil
}

// RemoveMember deletes the membership and, when no admin is left, the group itself.
// The group row stays locked for the whole sequence so two removals cannot both
// observe a remaining admin.
func (s *GroupService) RemoveMember(ctx context.Context, actor *model.User, groupID int64, pseudo string) (*model.MembershipRemoval, error) {
	if actor == nil {
		return nil, common.ErrUnauthorized
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	group, err := s.groupRepo.LockByID(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	if actor.Pseudo != pseudo {
		if err := s.authorizeGroupAdmin(ctx, tx, actor, groupID); err != nil {
			return nil, err
		}
	}

	if err := s.groupRepo.RemoveMembership(ctx, tx, pseudo, groupID); err != nil {
		return nil, err
	}
	admins, err := s.groupRepo.CountAdmins(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}

	result := &model.MembershipRemoval{
		Detail: fmt.Sprintf("'%s' a quitté le groupe '%s'.", pseudo, group.Nom),
	}
	if admins == 0 {
		if err := s.groupRepo.Delete(ctx, tx, groupID); err != nil {
			return nil, err
		}
		result.GroupDeleted = true
		result.Detail = fmt.Sprintf("'%s' a quitté le groupe '%s'; le groupe, sans administrateur, a été supprimé.", pseudo, group.Nom)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	if result.GroupDeleted {
		s.logger.WithField("id_groupe", groupID).Info("group deleted after last admin left")
	}
	return result, nil
}

func (s *GroupService) ListAdmins(ctx context.Context, groupID int64) ([]model.UserPublic, error) {
	return s.listMembers(ctx, groupID, true)
}

func (s *GroupService) ListMembers(ctx context.Context, groupID int64) ([]model.UserPublic, error) {
	return s.listMembers(ctx, groupID, false)
}

func (s *GroupService) listMembers(ctx context.Context, groupID int64, admins bool) ([]model.UserPublic, error) {
	if _, err := s.groupRepo.FindByID(ctx, nil, groupID); err != nil {
		return nil, err
	}
	return s.groupRepo.ListMembers(ctx, groupID, admins)
}

func (s *GroupService) ListMemberships(ctx context.Context, page repository.Page) ([]model.Membership, error) {
	return s.groupRepo.ListMemberships(ctx, page)
}

func (s *GroupService) ListMembershipsByUser(ctx context.Context, pseudo string, page repository.Page) ([]model.Membership, error) {
	return s.groupRepo.ListMembershipsByUser(ctx, pseudo, page)
}

func (s *GroupService) authorizeGroupAdmin(ctx context.Context, tx *sqlx.Tx, actor *model.User, groupID int64) error {
	if actor == nil {
		return common.ErrUnauthorized
	}
	if actor.EstAdmin {
		return nil
	}
	m, err := s.groupRepo.FindMembership(ctx, tx, actor.Pseudo, groupID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.Errorf("action réservée aux administrateurs du groupe: %w", common.ErrForbidden)
		}
		return err
	}
	if !m.EstAdmin {
		return common.Errorf("action réservée aux administrateurs du groupe: %w", common.ErrForbidden)
	}
	return nil
}
