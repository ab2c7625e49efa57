package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/lotflow/internal/application/dispatcher"
	"github.com/garyjia/lotflow/internal/application/metrics"
	"github.com/garyjia/lotflow/internal/application/port"
	"github.com/garyjia/lotflow/internal/domain/entity"
	"github.com/garyjia/lotflow/internal/domain/event"
	"github.com/garyjia/lotflow/internal/domain/workflow"
)

// TransitionOption is one listed successor of an entity together with its validation outcome
type TransitionOption struct {
	To        string             `json:"to"`
	Label     string             `json:"label"`
	Color     string             `json:"color"`
	Evidence  string             `json:"evidence,omitempty"`
	Valid     bool               `json:"valid"`
	Error     string             `json:"error,omitempty"`
	Rejection workflow.Rejection `json:"rejection,omitempty"`
}

// lifecycle binds one engine to the storage of the entity it governs
type lifecycle[S workflow.Status] struct {
	entityType string
	eventType  event.Type
	engine     *workflow.Engine[S]

	// load returns the current status and display code, or found=false
	load func(ctx context.Context, id int64) (status, code string, found bool, err error)

	// evidence gathers what the guard on current -> next reads
	evidence func(ctx context.Context, id int64, kind workflow.EvidenceKind) (workflow.Evidence, error)

	cas func(ctx context.Context, id int64, expected, next string) (bool, error)
}

// transitionDeps are the collaborators every lifecycle shares
type transitionDeps struct {
	history    port.HistoryRepository
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

func parseStatus[S workflow.Status](raw string) (S, error) {
	s := S(raw)
	if !s.Valid() {
		return s, fmt.Errorf("%w: %w: %q", ErrInvalidInput, workflow.ErrInvalidStatus, raw)
	}
	return s, nil
}

// validate loads an entity and checks current -> next against the engine without writing
func validate[S workflow.Status](ctx context.Context, lc lifecycle[S], id int64, next S) (S, string, workflow.Result, error) {
	var zero S
	raw, code, found, err := lc.load(ctx, id)
	if err != nil {
		return zero, "", workflow.Result{}, err
	}
	if !found {
		return zero, "", workflow.Result{}, fmt.Errorf("%s %d: %w", lc.entityType, id, ErrNotFound)
	}

	current := S(raw)
	ev, err := lc.evidence(ctx, id, lc.engine.RequiredEvidence(current, next))
	if err != nil {
		return current, code, workflow.Result{}, fmt.Errorf("gather evidence: %w", err)
	}

	return current, code, lc.engine.ValidateTransition(current, next, ev), nil
}

// applyTransition validates and commits a status change, appends history
// and dispatches the status-changed event after commit.
func applyTransition[S workflow.Status](ctx context.Context, deps transitionDeps, lc lifecycle[S], id int64, to, actor, note string) (*entity.StatusHistory, error) {
	next, err := parseStatus[S](to)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	var record *entity.StatusHistory
	var code string
	var outcome workflow.Result

	err = deps.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, lotCode, result, err := validate(txCtx, lc, id, next)
		if err != nil {
			return err
		}
		code = lotCode

		if !result.Valid {
			metrics.RecordValidation(lc.entityType, result)
			return &TransitionError{
				EntityType: lc.entityType,
				EntityID:   id,
				From:       string(current),
				To:         string(next),
				Result:     result,
			}
		}

		ok, err := lc.cas(txCtx, id, string(current), string(next))
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if !ok {
			metrics.RecordConflict(lc.entityType)
			return fmt.Errorf("%s %d: %w", lc.entityType, id, ErrStatusConflict)
		}

		record = &entity.StatusHistory{
			EntityType:     lc.entityType,
			EntityID:       id,
			PreviousStatus: string(current),
			NewStatus:      string(next),
			Actor:          actor,
			Note:           note,
			Timestamp:      time.Now(),
		}
		if err := deps.history.Create(txCtx, record); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		outcome = result
		return nil
	})
	if err != nil {
		deps.logger.Error("Transition refused",
			"entity_type", lc.entityType,
			"id", id,
			"to", to,
			"error", err,
		)
		return nil, err
	}

	// a valid outcome is counted once the status change has committed
	metrics.RecordValidation(lc.entityType, outcome)
	metrics.RecordApplied(lc.entityType, record.NewStatus, started)
	deps.logger.Info("Status changed",
		"entity_type", lc.entityType,
		"id", id,
		"from", record.PreviousStatus,
		"to", record.NewStatus,
		"actor", actor,
	)

	publish(ctx, deps, event.NewEvent(lc.eventType, lc.entityType, id, map[string]interface{}{
		event.KeyPreviousStatus: record.PreviousStatus,
		event.KeyNewStatus:      record.NewStatus,
		event.KeyActor:          actor,
		event.KeyCode:           code,
	}))

	return record, nil
}

// availableTransitions lists every successor of the entity's current status with its validation result
func availableTransitions[S workflow.Status](ctx context.Context, lc lifecycle[S], id int64) ([]TransitionOption, error) {
	raw, _, found, err := lc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s %d: %w", lc.entityType, id, ErrNotFound)
	}

	current := S(raw)
	successors := lc.engine.Successors(current)
	options := make([]TransitionOption, 0, len(successors))

	for _, next := range successors {
		kind := lc.engine.RequiredEvidence(current, next)
		ev, err := lc.evidence(ctx, id, kind)
		if err != nil {
			return nil, fmt.Errorf("gather evidence: %w", err)
		}

		result := lc.engine.ValidateTransition(current, next, ev)
		info := lc.engine.StatusInfo(next)
		options = append(options, TransitionOption{
			To:        string(next),
			Label:     info.Label,
			Color:     info.Color,
			Evidence:  kind.String(),
			Valid:     result.Valid,
			Error:     result.Error,
			Rejection: result.Rejection,
		})
	}

	return options, nil
}

// publish dispatches evt; handler failures are logged and never undo the committed change
func publish(ctx context.Context, deps transitionDeps, evt *event.Event) {
	if deps.dispatcher == nil {
		return
	}
	if err := deps.dispatcher.Dispatch(ctx, evt); err != nil {
		deps.logger.Error("Event handlers failed",
			"event_type", evt.Type,
			"entity_type", evt.EntityType,
			"entity_id", evt.EntityID,
			"error", err,
		)
	}
}
