package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/lotflow/internal/application/dispatcher"
	"github.com/garyjia/lotflow/internal/application/port"
	"github.com/garyjia/lotflow/internal/domain/entity"
	"github.com/garyjia/lotflow/internal/domain/event"
	"github.com/garyjia/lotflow/internal/domain/workflow"
)

// EvidenceService records the facts CM lot guards are evaluated against
type EvidenceService interface {
	RecordCollection(ctx context.Context, c *entity.CollectionEvent) error
	RecordProcessingStep(ctx context.Context, step *entity.ProcessingStep) error
	RequireQCTest(ctx context.Context, req *entity.QCRequirement) error
	RecordQCResult(ctx context.Context, result *entity.QCResult) error
	RecordQADecision(ctx context.Context, decision *entity.QADecision) error
	Summary(ctx context.Context, cmLotID int64) (*entity.CMLotEvidence, error)
}

type evidenceServiceImpl struct {
	cmLotRepo    port.CMLotRepository
	evidenceRepo port.EvidenceRepository
	engine       *workflow.Engine[workflow.CMLotStatus]
	dispatcher   dispatcher.Dispatcher
	logger       Logger
}

// NewEvidenceService creates a new EvidenceService
func NewEvidenceService(
	cmLotRepo port.CMLotRepository,
	evidenceRepo port.EvidenceRepository,
	engine *workflow.Engine[workflow.CMLotStatus],
	d dispatcher.Dispatcher,
	logger Logger,
) EvidenceService {
	return &evidenceServiceImpl{
		cmLotRepo:    cmLotRepo,
		evidenceRepo: evidenceRepo,
		engine:       engine,
		dispatcher:   d,
		logger:       logger,
	}
}

// RecordCollection records a collection event
func (s *evidenceServiceImpl) RecordCollection(ctx context.Context, c *entity.CollectionEvent) error {
	if c.Volume < 0 {
		return invalidInput("volume must not be negative")
	}
	return s.record(ctx, c.CMLotID, workflow.EvidenceCollections, func() error {
		return s.evidenceRepo.AddCollection(ctx, c)
	})
}

// RecordProcessingStep records a processing step
func (s *evidenceServiceImpl) RecordProcessingStep(ctx context.Context, step *entity.ProcessingStep) error {
	step.StepName = strings.TrimSpace(step.StepName)
	if step.StepName == "" {
		return invalidInput("step name is required")
	}
	return s.record(ctx, step.CMLotID, workflow.EvidenceProcessingSteps, func() error {
		return s.evidenceRepo.AddProcessingStep(ctx, step)
	})
}

// RequireQCTest adds a test code that must have a result before QC can complete
func (s *evidenceServiceImpl) RequireQCTest(ctx context.Context, req *entity.QCRequirement) error {
	req.TestCode = normalizeTestCode(req.TestCode)
	if req.TestCode == "" {
		return invalidInput("test code is required")
	}
	return s.record(ctx, req.CMLotID, workflow.EvidenceQCResults, func() error {
		return s.evidenceRepo.AddQCRequirement(ctx, req)
	})
}

// RecordQCResult records a QC test result
func (s *evidenceServiceImpl) RecordQCResult(ctx context.Context, result *entity.QCResult) error {
	result.TestCode = normalizeTestCode(result.TestCode)
	if result.TestCode == "" {
		return invalidInput("test code is required")
	}
	return s.record(ctx, result.CMLotID, workflow.EvidenceQCResults, func() error {
		return s.evidenceRepo.AddQCResult(ctx, result)
	})
}

// RecordQADecision records the QA decision; a second decision for the same lot is refused
func (s *evidenceServiceImpl) RecordQADecision(ctx context.Context, decision *entity.QADecision) error {
	decision.Decision = strings.ToUpper(strings.TrimSpace(decision.Decision))
	if decision.Decision != entity.QADecisionRelease && decision.Decision != entity.QADecisionReject {
		return invalidInput("decision must be %s or %s", entity.QADecisionRelease, entity.QADecisionReject)
	}

	existing, err := s.evidenceRepo.GetQADecision(ctx, decision.CMLotID)
	if err != nil {
		return err
	}
	if existing != nil {
		return invalidInput("cm lot %d already has a QA decision", decision.CMLotID)
	}

	return s.record(ctx, decision.CMLotID, workflow.EvidenceQADecision, func() error {
		return s.evidenceRepo.AddQADecision(ctx, decision)
	})
}

// Summary returns the guard counters of a CM lot
func (s *evidenceServiceImpl) Summary(ctx context.Context, cmLotID int64) (*entity.CMLotEvidence, error) {
	if _, err := s.openLot(ctx, cmLotID, false); err != nil {
		return nil, err
	}
	return s.evidenceRepo.Summarize(ctx, cmLotID)
}

// record checks the lot accepts evidence, runs write and publishes an evidence event
func (s *evidenceServiceImpl) record(ctx context.Context, cmLotID int64, kind workflow.EvidenceKind, write func() error) error {
	lot, err := s.openLot(ctx, cmLotID, true)
	if err != nil {
		return err
	}

	if err := write(); err != nil {
		s.logger.Error("Failed to record evidence", "error", err, "cm_lot_id", cmLotID, "kind", kind)
		return err
	}

	s.logger.Info("Evidence recorded", "cm_lot_id", cmLotID, "kind", kind)

	if s.dispatcher != nil {
		evt := event.NewEvent(event.TypeEvidenceRecorded, entity.EntityCMLot, cmLotID, map[string]interface{}{
			"kind":        kind.String(),
			event.KeyCode: lot.Code,
		})
		if err := s.dispatcher.Dispatch(ctx, evt); err != nil {
			s.logger.Error("Event handlers failed", "event_type", evt.Type, "error", err)
		}
	}

	return nil
}

func (s *evidenceServiceImpl) openLot(ctx context.Context, cmLotID int64, writable bool) (*entity.CMLot, error) {
	lot, err := s.cmLotRepo.GetByID(ctx, cmLotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, fmt.Errorf("cm lot %d: %w", cmLotID, ErrNotFound)
	}
	if writable && s.engine.IsTerminal(workflow.CMLotStatus(lot.Status)) {
		return nil, fmt.Errorf("cm lot %s is %s: %w", lot.Code, lot.Status, ErrLotClosed)
	}
	return lot, nil
}

func normalizeTestCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
