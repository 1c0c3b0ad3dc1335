package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"dactylo_api/internal/common"
	"dactylo_api/internal/domain/model"
	"dactylo_api/internal/domain/repository"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	maxStatTypeLength = 50
	exportSheet       = "Sheet1"
	exportPageSize    = repository.MaxLimit
)

type StatService struct {
	statRepo repository.StatRepository
	userRepo repository.UserRepository
	db       *sqlx.DB
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewStatService(
	statRepo repository.StatRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	logger logrus.FieldLogger,
) *StatService {
	return &StatService{statRepo: statRepo, userRepo: userRepo, db: db, logger: logger, now: time.Now}
}

type RecordStatRequest struct {
	Type   string  `json:"type_stat"`
	Valeur float64 `json:"valeur"`
}

// Record appends an entry to the caller's stat log and refreshes the summary
// figures kept on the user row for the well-known stat types.
func (s *StatService) Record(ctx context.Context, actor *model.User, req RecordStatRequest) (*model.Stat, error) {
	if actor == nil {
		return nil, common.ErrUnauthorized
	}
	req.Type = strings.TrimSpace(req.Type)
	if req.Type == "" || len(req.Type) > maxStatTypeLength {
		return nil, common.Errorf("type_stat est requis (%d caractères au plus): %w", maxStatTypeLength, common.ErrBadRequest)
	}
	if math.IsNaN(req.Valeur) || math.IsInf(req.Valeur, 0) {
		return nil, common.Errorf("valeur invalide: %w", common.ErrBadRequest)
	}
	switch req.Type {
	case model.StatWordsPerMinute, model.StatPracticeTime, model.StatCourseDone:
		if req.Valeur < 0 {
			return nil, common.Errorf("valeur doit être positive pour '%s': %w", req.Type, common.ErrBadRequest)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Concurrent posts for one user queue here so each sees the previous commit.
	if _, err := s.userRepo.LockByPseudo(ctx, tx, actor.Pseudo); err != nil {
		return nil, err
	}

	stat := &model.Stat{
		Pseudo:     actor.Pseudo,
		Type:       req.Type,
		Valeur:     req.Valeur,
		Horodatage: s.now().Unix(),
	}
	if err := s.statRepo.Create(ctx, tx, stat); err != nil {
		return nil, err
	}
	if err := s.refreshSummary(ctx, tx, stat); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	return stat, nil
}

func (s *StatService) refreshSummary(ctx context.Context, tx *sqlx.Tx, stat *model.Stat) error {
	switch stat.Type {
	case model.StatWordsPerMinute:
		return s.userRepo.RefreshWordsPerMinute(ctx, tx, stat.Pseudo, model.StatWordsPerMinute)
	case model.StatPracticeTime:
		return s.userRepo.AddToSummary(ctx, tx, stat.Pseudo, int(math.Round(stat.Valeur)), 0)
	case model.StatCourseDone:
		return s.userRepo.AddToSummary(ctx, tx, stat.Pseudo, 0, 1)
	}
	return nil
}

func (s *StatService) History(ctx context.Context, pseudo, statType string, page repository.Page) ([]model.Stat, error) {
	if _, err := s.userRepo.FindByPseudo(ctx, nil, pseudo); err != nil {
		return nil, err
	}
	return s.statRepo.ListByUser(ctx, pseudo, strings.TrimSpace(statType), page)
}

// Export writes the whole stat log of a user to w as an XLSX workbook.
func (s *StatService) Export(ctx context.Context, actor *model.User, pseudo string, w io.Writer) error {
	if err := authorizeSelfOrAdmin(actor, pseudo); err != nil {
		return err
	}
	if _, err := s.userRepo.FindByPseudo(ctx, nil, pseudo); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{"id_stat", "type_stat", "valeur", "horodatage", "date"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := 2
	for skip := 0; ; skip += exportPageSize {
		stats, err := s.statRepo.ListByUser(ctx, pseudo, "", repository.Page{Skip: skip, Limit: exportPageSize})
		if err != nil {
			return err
		}
		for _, st := range stats {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []interface{}{
				st.ID,
				st.Type,
				st.Valeur,
				st.Horodatage,
				time.Unix(st.Horodatage, 0).UTC().Format(time.RFC3339),
			}
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}
		if len(stats) < exportPageSize {
			break
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"pseudo": pseudo, "rows": row - 2}).Debug("stats exported")
	return nil
}
