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

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateCMLotInput carries the fields of a new CM lot
type CreateCMLotInput struct {
	Code      string `json:"code"`
	Material  string `json:"material"`
	CreatedBy string `json:"created_by"`
}

// CreatePackLotInput carries the fields of a new pack lot
type CreatePackLotInput struct {
	Code                   string `json:"code"`
	CMLotID                int64  `json:"cm_lot_id"`
	RequiresLyophilization bool   `json:"requires_lyophilization"`
	CreatedBy              string `json:"created_by"`
}

// LotService manages CM lots and pack lots through their lifecycles
type LotService interface {
	CreateCMLot(ctx context.Context, in CreateCMLotInput) (*entity.CMLot, error)
	GetCMLot(ctx context.Context, id int64) (*entity.CMLot, error)
	ListCMLots(ctx context.Context, filter entity.LotFilter) ([]*entity.CMLot, error)
	TransitionCMLot(ctx context.Context, id int64, to, actor, note string) (*entity.StatusHistory, error)
	CMLotTransitions(ctx context.Context, id int64) ([]TransitionOption, error)

	CreatePackLot(ctx context.Context, in CreatePackLotInput) (*entity.PackLot, error)
	GetPackLot(ctx context.Context, id int64) (*entity.PackLot, error)
	ListPackLots(ctx context.Context, filter entity.LotFilter) ([]*entity.PackLot, error)
	TransitionPackLot(ctx context.Context, id int64, to, actor, note string) (*entity.StatusHistory, error)
	PackLotTransitions(ctx context.Context, id int64) ([]TransitionOption, error)

	History(ctx context.Context, entityType string, id int64) ([]*entity.StatusHistory, error)
}

type lotServiceImpl struct {
	cmLotRepo    port.CMLotRepository
	packLotRepo  port.PackLotRepository
	evidenceRepo port.EvidenceRepository
	deps         transitionDeps

	cmLots   lifecycle[workflow.CMLotStatus]
	packLots lifecycle[workflow.PackLotStatus]
}

// NewLotService creates a new LotService over the given engines
func NewLotService(
	cmLotRepo port.CMLotRepository,
	packLotRepo port.PackLotRepository,
	evidenceRepo port.EvidenceRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	cmEngine *workflow.Engine[workflow.CMLotStatus],
	packEngine *workflow.Engine[workflow.PackLotStatus],
	logger Logger,
) LotService {
	s := &lotServiceImpl{
		cmLotRepo:    cmLotRepo,
		packLotRepo:  packLotRepo,
		evidenceRepo: evidenceRepo,
		deps: transitionDeps{
			history:    historyRepo,
			txManager:  txManager,
			dispatcher: d,
			logger:     logger,
		},
	}

	s.cmLots = lifecycle[workflow.CMLotStatus]{
		entityType: entity.EntityCMLot,
		eventType:  event.TypeLotStatusChanged,
		engine:     cmEngine,
		load:       s.loadCMLot,
		evidence:   s.cmLotEvidence,
		cas:        cmLotRepo.CompareAndSetStatus,
	}
	s.packLots = lifecycle[workflow.PackLotStatus]{
		entityType: entity.EntityPackLot,
		eventType:  event.TypeLotStatusChanged,
		engine:     packEngine,
		load:       s.loadPackLot,
		evidence:   s.packLotEvidence,
		cas:        packLotRepo.CompareAndSetStatus,
	}

	return s
}

// CreateCMLot opens a new CM lot
func (s *lotServiceImpl) CreateCMLot(ctx context.Context, in CreateCMLotInput) (*entity.CMLot, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, invalidInput("code is required")
	}

	existing, err := s.cmLotRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, invalidInput("cm lot %s already exists", code)
	}

	lot := &entity.CMLot{
		Code:      code,
		Material:  strings.TrimSpace(in.Material),
		Status:    string(workflow.CMLotOpen),
		CreatedBy: in.CreatedBy,
	}

	err = s.deps.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.cmLotRepo.Create(txCtx, lot); err != nil {
			return fmt.Errorf("create cm lot: %w", err)
		}
		return s.recordCreation(txCtx, entity.EntityCMLot, lot.ID, lot.Status, in.CreatedBy)
	})
	if err != nil {
		s.deps.logger.Error("Failed to create CM lot", "error", err, "code", code)
		return nil, err
	}

	s.deps.logger.Info("CM lot created", "id", lot.ID, "code", lot.Code)
	publish(ctx, s.deps, event.NewEvent(event.TypeLotCreated, entity.EntityCMLot, lot.ID, map[string]interface{}{
		event.KeyNewStatus: lot.Status,
		event.KeyActor:     in.CreatedBy,
		event.KeyCode:      lot.Code,
	}))

	return lot, nil
}

// GetCMLot retrieves a CM lot by ID
func (s *lotServiceImpl) GetCMLot(ctx context.Context, id int64) (*entity.CMLot, error) {
	lot, err := s.cmLotRepo.GetByID(ctx, id)
	if err != nil {
		s.deps.logger.Error("Failed to get CM lot", "error", err, "id", id)
		return nil, err
	}
	if lot == nil {
		return nil, fmt.Errorf("cm lot %d: %w", id, ErrNotFound)
	}
	return lot, nil
}

// ListCMLots lists CM lots, optionally by status
func (s *lotServiceImpl) ListCMLots(ctx context.Context, filter entity.LotFilter) ([]*entity.CMLot, error) {
	if filter.Status != "" {
		if _, err := parseStatus[workflow.CMLotStatus](filter.Status); err != nil {
			return nil, err
		}
	}
	return s.cmLotRepo.List(ctx, filter)
}

// TransitionCMLot moves a CM lot to the given status if the engine allows it
func (s *lotServiceImpl) TransitionCMLot(ctx context.Context, id int64, to, actor, note string) (*entity.StatusHistory, error) {
	return applyTransition(ctx, s.deps, s.cmLots, id, to, actor, note)
}

// CMLotTransitions lists the successors of a CM lot's current status with their validation results
func (s *lotServiceImpl) CMLotTransitions(ctx context.Context, id int64) ([]TransitionOption, error) {
	return availableTransitions(ctx, s.cmLots, id)
}

// CreatePackLot plans a pack lot from an Approved CM lot
func (s *lotServiceImpl) CreatePackLot(ctx context.Context, in CreatePackLotInput) (*entity.PackLot, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, invalidInput("code is required")
	}

	source, err := s.cmLotRepo.GetByID(ctx, in.CMLotID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("cm lot %d: %w", in.CMLotID, ErrNotFound)
	}
	if workflow.CMLotStatus(source.Status) != workflow.CMLotApproved {
		return nil, fmt.Errorf("cm lot %s is %s: %w", source.Code, source.Status, ErrSourceNotApproved)
	}

	existing, err := s.packLotRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, invalidInput("pack lot %s already exists", code)
	}

	lot := &entity.PackLot{
		Code:                   code,
		CMLotID:                source.ID,
		RequiresLyophilization: in.RequiresLyophilization,
		Status:                 string(workflow.PackLotPlanned),
		CreatedBy:              in.CreatedBy,
	}

	err = s.deps.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.packLotRepo.Create(txCtx, lot); err != nil {
			return fmt.Errorf("create pack lot: %w", err)
		}
		return s.recordCreation(txCtx, entity.EntityPackLot, lot.ID, lot.Status, in.CreatedBy)
	})
	if err != nil {
		s.deps.logger.Error("Failed to create pack lot", "error", err, "code", code)
		return nil, err
	}

	s.deps.logger.Info("Pack lot created", "id", lot.ID, "code", lot.Code, "cm_lot_id", lot.CMLotID)
	publish(ctx, s.deps, event.NewEvent(event.TypeLotCreated, entity.EntityPackLot, lot.ID, map[string]interface{}{
		event.KeyNewStatus: lot.Status,
		event.KeyActor:     in.CreatedBy,
		event.KeyCode:      lot.Code,
	}))

	return lot, nil
}

// GetPackLot retrieves a pack lot by ID
func (s *lotServiceImpl) GetPackLot(ctx context.Context, id int64) (*entity.PackLot, error) {
	lot, err := s.packLotRepo.GetByID(ctx, id)
	if err != nil {
		s.deps.logger.Error("Failed to get pack lot", "error", err, "id", id)
		return nil, err
	}
	if lot == nil {
		return nil, fmt.Errorf("pack lot %d: %w", id, ErrNotFound)
	}
	return lot, nil
}

// ListPackLots lists pack lots, optionally by status
func (s *lotServiceImpl) ListPackLots(ctx context.Context, filter entity.LotFilter) ([]*entity.PackLot, error) {
	if filter.Status != "" {
		if _, err := parseStatus[workflow.PackLotStatus](filter.Status); err != nil {
			return nil, err
		}
	}
	return s.packLotRepo.List(ctx, filter)
}

// TransitionPackLot moves a pack lot to the given status if the engine allows it
func (s *lotServiceImpl) TransitionPackLot(ctx context.Context, id int64, to, actor, note string) (*entity.StatusHistory, error) {
	return applyTransition(ctx, s.deps, s.packLots, id, to, actor, note)
}

// PackLotTransitions lists the successors of a pack lot's current status with their validation results
func (s *lotServiceImpl) PackLotTransitions(ctx context.Context, id int64) ([]TransitionOption, error) {
	return availableTransitions(ctx, s.packLots, id)
}

// History returns the status trail of a lot
func (s *lotServiceImpl) History(ctx context.Context, entityType string, id int64) ([]*entity.StatusHistory, error) {
	switch entityType {
	case entity.EntityCMLot:
		if _, err := s.GetCMLot(ctx, id); err != nil {
			return nil, err
		}
	case entity.EntityPackLot:
		if _, err := s.GetPackLot(ctx, id); err != nil {
			return nil, err
		}
	default:
		return nil, invalidInput("unknown entity type %q", entityType)
	}
	return s.deps.history.ListByEntity(ctx, entityType, id)
}

func (s *lotServiceImpl) recordCreation(ctx context.Context, entityType string, id int64, status, actor string) error {
	err := s.deps.history.Create(ctx, &entity.StatusHistory{
		EntityType: entityType,
		EntityID:   id,
		NewStatus:  status,
		Actor:      actor,
		Note:       "created",
	})
	if err != nil {
		return fmt.Errorf("create history: %w", err)
	}
	return nil
}

func (s *lotServiceImpl) loadCMLot(ctx context.Context, id int64) (string, string, bool, error) {
	lot, err := s.cmLotRepo.GetByID(ctx, id)
	if err != nil || lot == nil {
		return "", "", false, err
	}
	return lot.Status, lot.Code, true, nil
}

func (s *lotServiceImpl) loadPackLot(ctx context.Context, id int64) (string, string, bool, error) {
	lot, err := s.packLotRepo.GetByID(ctx, id)
	if err != nil || lot == nil {
		return "", "", false, err
	}
	return lot.Status, lot.Code, true, nil
}

// cmLotEvidence maps the stored evidence summary to what the guard asks for
func (s *lotServiceImpl) cmLotEvidence(ctx context.Context, id int64, kind workflow.EvidenceKind) (workflow.Evidence, error) {
	if kind == workflow.EvidenceNone {
		return nil, nil
	}

	summary, err := s.evidenceRepo.Summarize(ctx, id)
	if err != nil {
		return nil, err
	}
	return CMLotEvidenceFor(kind, summary), nil
}

func (s *lotServiceImpl) packLotEvidence(ctx context.Context, id int64, kind workflow.EvidenceKind) (workflow.Evidence, error) {
	if kind != workflow.EvidenceLyophilization {
		return nil, nil
	}

	lot, err := s.packLotRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, fmt.Errorf("pack lot %d: %w", id, ErrNotFound)
	}
	return workflow.Lyophilization{Required: lot.RequiresLyophilization}, nil
}

// CMLotEvidenceFor builds the typed guard evidence of the given kind from a stored summary.
// Only a RELEASE decision satisfies the approval guard.
func CMLotEvidenceFor(kind workflow.EvidenceKind, summary *entity.CMLotEvidence) workflow.Evidence {
	if summary == nil {
		return nil
	}

	switch kind {
	case workflow.EvidenceCollections:
		return workflow.Collections{Count: summary.CollectionsCount}
	case workflow.EvidenceProcessingSteps:
		return workflow.ProcessingSteps{Count: summary.ProcessingStepsCount}
	case workflow.EvidenceQCResults:
		return workflow.QCResults{Required: summary.QCTestsRequired, Recorded: summary.QCResultsCount}
	case workflow.EvidenceQADecision:
		return workflow.QADecision{Recorded: summary.QAReleased}
	default:
		return nil
	}
}
