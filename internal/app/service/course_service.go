package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/model"
	"dactylo_api/internal/domain/repository"

	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// subCourseAttempts bounds the retries when two inserts race for the same sub-course id.
const subCourseAttempts = 3

type CourseService struct {
	courseRepo repository.CourseRepository
	db         *sqlx.DB // For transactions
	logger     logrus.FieldLogger
}

func NewCourseService(courseRepo repository.CourseRepository, db *sqlx.DB, logger logrus.FieldLogger) *CourseService {
	return &CourseService{courseRepo: courseRepo, db: db, logger: logger}
}

type CreateCourseRequest struct {
	Titre       string `json:"titre_cours"`
	Description string `json:"description_cours"`
	Duree       int    `json:"duree_cours"`
	Difficulte  string `json:"difficulte_cours"`
}

type CreateSubCourseRequest struct {
	ParentID  int64  `json:"id_cours_parent"`
	Titre     string `json:"titre_sous_cours"`
	Contenu   string `json:"contenu_cours"`
	CheminImg string `json:"chemin_img_sous_cours"`
}

func (s *CourseService) CreateCourse(ctx context.Context, req CreateCourseRequest) (*model.Course, error) {
	if strings.TrimSpace(req.Titre) == "" {
		return nil, common.Errorf("titre_cours est requis: %w", common.ErrBadRequest)
	}
	if req.Duree < 0 {
		return nil, common.Errorf("duree_cours doit être positive: %w", common.ErrBadRequest)
	}

	course := &model.Course{
		Titre:       req.Titre,
		Slug:        slug.Make(req.Titre),
		Description: req.Description,
		Duree:       req.Duree,
		Difficulte:  req.Difficulte,
	}
	if err := s.courseRepo.CreateCourse(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) GetCourse(ctx context.Context, id int64) (*model.Course, error) {
	return s.courseRepo.FindCourseByID(ctx, nil, id)
}

func (s *CourseService) GetCourseBySlug(ctx context.Context, courseSlug string) (*model.Course, error) {
	return s.courseRepo.FindCourseBySlug(ctx, courseSlug)
}

func (s *CourseService) ListCourses(ctx context.Context, page repository.Page) ([]model.Course, error) {
	return s.courseRepo.ListCourses(ctx, page)
}

// DeleteCourse removes the course and, through the foreign key, its sub-courses.
func (s *CourseService) DeleteCourse(ctx context.Context, id int64) (*common.MessageResponse, error) {
	course, err := s.courseRepo.FindCourseByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := s.courseRepo.DeleteCourse(ctx, id); err != nil {
		return nil, err
	}
	return &common.MessageResponse{Message: fmt.Sprintf("Cours '%s' supprimé avec succès.", course.Titre)}, nil
}

// CreateSubCourse numbers the new sub-course max+1 within its parent. A concurrent
// insert that grabbed the same number surfaces as ErrConflict and is retried.
func (s *CourseService) CreateSubCourse(ctx context.Context, req CreateSubCourseRequest) (*model.SubCourse, error) {
	if strings.TrimSpace(req.Titre) == "" {
		return nil, common.Errorf("titre_sous_cours est requis: %w", common.ErrBadRequest)
	}

	var err error
	for attempt := 1; attempt <= subCourseAttempts; attempt++ {
		var sub *model.SubCourse
		sub, err = s.insertSubCourse(ctx, req)
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, common.ErrConflict) {
			return nil, err
		}
		s.logger.WithFields(logrus.Fields{
			"id_cours_parent": req.ParentID,
			"attempt":         attempt,
		}).Warn("sub-course id taken, retrying")
	}
	return nil, err
}

func (s *CourseService) insertSubCourse(ctx context.Context, req CreateSubCourseRequest) (*model.SubCourse, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.courseRepo.FindCourseByID(ctx, tx, req.ParentID); err != nil {
		return nil, err
	}

	next, err := s.courseRepo.NextSubCourseID(ctx, tx, req.ParentID)
	if err != nil {
		return nil, err
	}

	sub := &model.SubCourse{
		ParentID:  req.ParentID,
		ID:        next,
		Titre:     req.Titre,
		Contenu:   req.Contenu,
		CheminImg: req.CheminImg,
	}
	if err := s.courseRepo.CreateSubCourse(ctx, tx, sub); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		if common.IsUniqueViolation(err) {
			return nil, common.Errorf("sous-cours %d/%d existe déjà: %w", sub.ParentID, sub.ID, common.ErrConflict)
		}
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	return sub, nil
}

// ListSubCourses returns the parent's sub-courses ordered by id; an unknown parent is a 404.
func (s *CourseService) ListSubCourses(ctx context.Context, parentID int64) ([]model.SubCourse, error) {
	if _, err := s.courseRepo.FindCourseByID(ctx, nil, parentID); err != nil {
		return nil, err
	}
	return s.courseRepo.ListSubCourses(ctx, parentID)
}

func (s *CourseService) GetSubCourse(ctx context.Context, parentID, id int64) (*model.SubCourse, error) {
	return s.courseRepo.FindSubCourse(ctx, parentID, id)
}

func (s *CourseService) DeleteSubCourse(ctx context.Context, parentID, id int64) (*common.MessageResponse, error) {
	sub, err := s.courseRepo.FindSubCourse(ctx, parentID, id)
	if err != nil {
		return nil, err
	}
	if err := s.courseRepo.DeleteSubCourse(ctx, parentID, id); err != nil {
		return nil, err
	}
	return &common.MessageResponse{Message: fmt.Sprintf("Sous-cours '%s' supprimé avec succès.", sub.Titre)}, nil
}
