package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/garyjia/lotflow/internal/application/port"
	"github.com/garyjia/lotflow/internal/domain/entity"
	"github.com/garyjia/lotflow/internal/domain/workflow"
)

// Report is a rendered export file
type Report struct {
	Filename string
	Content  []byte
}

// ExportService renders lot status workbooks and optionally archives them
type ExportService interface {
	ExportCMLots(ctx context.Context, filter entity.LotFilter) (*Report, error)
	ExportPackLots(ctx context.Context, filter entity.LotFilter) (*Report, error)
	ListArchived(ctx context.Context, entityType string) ([]string, error)
	ReadArchived(ctx context.Context, entityType, filename string) (*Report, error)
}

type exportServiceImpl struct {
	lots       LotService
	renderer   port.WorkbookRenderer
	archive    port.ReportStore
	cmEngine   *workflow.Engine[workflow.CMLotStatus]
	packEngine *workflow.Engine[workflow.PackLotStatus]
	logger     Logger
	now        func() time.Time
}

// NewExportService creates a new ExportService. archive may be nil to disable archiving.
func NewExportService(
	lots LotService,
	renderer port.WorkbookRenderer,
	archive port.ReportStore,
	cmEngine *workflow.Engine[workflow.CMLotStatus],
	packEngine *workflow.Engine[workflow.PackLotStatus],
	logger Logger,
) ExportService {
	return &exportServiceImpl{
		lots:       lots,
		renderer:   renderer,
		archive:    archive,
		cmEngine:   cmEngine,
		packEngine: packEngine,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *exportServiceImpl) ExportCMLots(ctx context.Context, filter entity.LotFilter) (*Report, error) {
	lots, err := s.lots.ListCMLots(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := make([]port.StatusRow, 0, len(lots))
	for _, lot := range lots {
		rows = append(rows, statusRow(s.cmEngine, workflow.CMLotStatus(lot.Status), lot.ID, lot.Code, lot.Material, lot.UpdatedAt))
	}

	return s.render(ctx, entity.EntityCMLot, "CM lot status", rows)
}

func (s *exportServiceImpl) ExportPackLots(ctx context.Context, filter entity.LotFilter) (*Report, error) {
	lots, err := s.lots.ListPackLots(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := make([]port.StatusRow, 0, len(lots))
	for _, lot := range lots {
		detail := fmt.Sprintf("cm lot %d", lot.CMLotID)
		if lot.RequiresLyophilization {
			detail += ", lyophilized"
		}
		rows = append(rows, statusRow(s.packEngine, workflow.PackLotStatus(lot.Status), lot.ID, lot.Code, detail, lot.UpdatedAt))
	}

	return s.render(ctx, entity.EntityPackLot, "Pack lot status", rows)
}

func (s *exportServiceImpl) ListArchived(ctx context.Context, entityType string) ([]string, error) {
	if s.archive == nil {
		return nil, nil
	}
	if err := checkExportEntity(entityType); err != nil {
		return nil, err
	}
	return s.archive.List(ctx, entityType)
}

func (s *exportServiceImpl) ReadArchived(ctx context.Context, entityType, filename string) (*Report, error) {
	if err := checkExportEntity(entityType); err != nil {
		return nil, err
	}
	if s.archive == nil || filename == "" || path.Base(filename) != filename {
		return nil, fmt.Errorf("report %s: %w", filename, ErrNotFound)
	}

	content, err := s.archive.Read(ctx, path.Join(entityType, filename))
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", filename, ErrNotFound)
	}
	return &Report{Filename: filename, Content: content}, nil
}

func (s *exportServiceImpl) render(ctx context.Context, entityType, title string, rows []port.StatusRow) (*Report, error) {
	generated := s.now().UTC()

	content, err := s.renderer.Render(port.StatusReport{
		Title:       title,
		GeneratedAt: generated,
		Rows:        rows,
	})
	if err != nil {
		s.logger.Error("Failed to render export", "error", err, "entity_type", entityType)
		return nil, err
	}

	report := &Report{
		Filename: fmt.Sprintf("%s_status_%s.xlsx", entityType, generated.Format("20060102_150405")),
		Content:  content,
	}

	if s.archive != nil {
		if err := s.archive.Save(ctx, path.Join(entityType, report.Filename), content); err != nil {
			s.logger.Error("Failed to archive export", "error", err, "filename", report.Filename)
		}
	}

	s.logger.Info("Export rendered", "entity_type", entityType, "rows", len(rows), "filename", report.Filename)
	return report, nil
}

func statusRow[S workflow.Status](e *workflow.Engine[S], status S, id int64, code, detail string, updated time.Time) port.StatusRow {
	info := e.StatusInfo(status)
	return port.StatusRow{
		ID:         id,
		Code:       code,
		Detail:     detail,
		Status:     string(status),
		Label:      info.Label,
		Color:      info.Color,
		Stage:      e.ProductionStage(status),
		StageCount: len(e.Stages()),
		Completed:  e.IsCompleted(status),
		Terminal:   e.IsTerminal(status),
		UpdatedAt:  updated,
	}
}

func checkExportEntity(entityType string) error {
	if entityType != entity.EntityCMLot && entityType != entity.EntityPackLot {
		return invalidInput("unknown entity type %q", entityType)
	}
	return nil
}
