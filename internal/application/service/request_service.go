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

// CreateRequestInput carries the fields of a new request
type CreateRequestInput struct {
	Title       string  `json:"title"`
	CMLotID     *int64  `json:"cm_lot_id,omitempty"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	RequestedBy string  `json:"requested_by"`
}

// RequestService manages material requests
type RequestService interface {
	CreateRequest(ctx context.Context, in CreateRequestInput) (*entity.Request, error)
	GetRequest(ctx context.Context, id int64) (*entity.Request, error)
	ListRequests(ctx context.Context, filter entity.LotFilter) ([]*entity.Request, error)
	TransitionRequest(ctx context.Context, id int64, to, actor, note string) (*entity.StatusHistory, error)
	RequestTransitions(ctx context.Context, id int64) ([]TransitionOption, error)
	History(ctx context.Context, id int64) ([]*entity.StatusHistory, error)
}

type requestServiceImpl struct {
	requestRepo port.RequestRepository
	cmLotRepo   port.CMLotRepository
	deps        transitionDeps
	requests    lifecycle[workflow.RequestStatus]
}

// NewRequestService creates a new RequestService
func NewRequestService(
	requestRepo port.RequestRepository,
	cmLotRepo port.CMLotRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	engine *workflow.Engine[workflow.RequestStatus],
	logger Logger,
) RequestService {
	s := &requestServiceImpl{
		requestRepo: requestRepo,
		cmLotRepo:   cmLotRepo,
		deps: transitionDeps{
			history:    historyRepo,
			txManager:  txManager,
			dispatcher: d,
			logger:     logger,
		},
	}

	s.requests = lifecycle[workflow.RequestStatus]{
		entityType: entity.EntityRequest,
		eventType:  event.TypeRequestStatusChanged,
		engine:     engine,
		load:       s.load,
		evidence: func(context.Context, int64, workflow.EvidenceKind) (workflow.Evidence, error) {
			return nil, nil
		},
		cas: requestRepo.CompareAndSetStatus,
	}

	return s
}

// CreateRequest creates a request in Draft
func (s *requestServiceImpl) CreateRequest(ctx context.Context, in CreateRequestInput) (*entity.Request, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalidInput("title is required")
	}
	if in.Quantity < 0 {
		return nil, invalidInput("quantity must not be negative")
	}

	if in.CMLotID != nil {
		lot, err := s.cmLotRepo.GetByID(ctx, *in.CMLotID)
		if err != nil {
			return nil, err
		}
		if lot == nil {
			return nil, fmt.Errorf("cm lot %d: %w", *in.CMLotID, ErrNotFound)
		}
	}

	req := &entity.Request{
		Title:       title,
		CMLotID:     in.CMLotID,
		Quantity:    in.Quantity,
		Unit:        strings.TrimSpace(in.Unit),
		RequestedBy: in.RequestedBy,
		Status:      string(workflow.RequestDraft),
	}

	err := s.deps.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		return s.deps.history.Create(txCtx, &entity.StatusHistory{
			EntityType: entity.EntityRequest,
			EntityID:   req.ID,
			NewStatus:  req.Status,
			Actor:      in.RequestedBy,
			Note:       "created",
		})
	})
	if err != nil {
		s.deps.logger.Error("Failed to create request", "error", err, "title", title)
		return nil, err
	}

	s.deps.logger.Info("Request created", "id", req.ID, "title", req.Title)
	publish(ctx, s.deps, event.NewEvent(event.TypeRequestCreated, entity.EntityRequest, req.ID, map[string]interface{}{
		event.KeyNewStatus: req.Status,
		event.KeyActor:     in.RequestedBy,
		event.KeyCode:      req.Title,
	}))

	return req, nil
}

// GetRequest retrieves a request by ID
func (s *requestServiceImpl) GetRequest(ctx context.Context, id int64) (*entity.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		s.deps.logger.Error("Failed to get request", "error", err, "id", id)
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("request %d: %w", id, ErrNotFound)
	}
	return req, nil
}

// ListRequests lists requests, optionally by status
func (s *requestServiceImpl) ListRequests(ctx context.Context, filter entity.LotFilter) ([]*entity.Request, error) {
	if filter.Status != "" {
		if _, err := parseStatus[workflow.RequestStatus](filter.Status); err != nil {
			return nil, err
		}
	}
	return s.requestRepo.List(ctx, filter)
}

// TransitionRequest moves a request to the given status
func (s *requestServiceImpl) TransitionRequest(ctx context.Context, id int64, to, actor, note string) (*entity.StatusHistory, error) {
	return applyTransition(ctx, s.deps, s.requests, id, to, actor, note)
}

// RequestTransitions lists the successors of a request's current status
func (s *requestServiceImpl) RequestTransitions(ctx context.Context, id int64) ([]TransitionOption, error) {
	return availableTransitions(ctx, s.requests, id)
}

// History returns the status trail of a request
func (s *requestServiceImpl) History(ctx context.Context, id int64) ([]*entity.StatusHistory, error) {
	if _, err := s.GetRequest(ctx, id); err != nil {
		return nil, err
	}
	return s.deps.history.ListByEntity(ctx, entity.EntityRequest, id)
}

func (s *requestServiceImpl) load(ctx context.Context, id int64) (string, string, bool, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil || req == nil {
		return "", "", false, err
	}
	return req.Status, req.Title, true, nil
}
