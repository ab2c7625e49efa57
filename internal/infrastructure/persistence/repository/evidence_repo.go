package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/lotflow/internal/application/port"
	"github.com/garyjia/lotflow/internal/domain/entity"
)

// EvidenceRepository implements port.EvidenceRepository
type EvidenceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEvidenceRepository creates a new evidence repository
func NewEvidenceRepository(db *sql.DB, logger *zap.Logger) port.EvidenceRepository {
	return &EvidenceRepository{
		db:     db,
		logger: logger,
	}
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return now()
	}
	return t
}

// insert runs an INSERT and returns the new row ID
func (r *EvidenceRepository) insert(ctx context.Context, what, query string, args ...interface{}) (int64, error) {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to record evidence", zap.String("kind", what), zap.Error(err))
		return 0, fmt.Errorf("failed to create %s: %w", what, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// AddCollection records a collection event
func (r *EvidenceRepository) AddCollection(ctx context.Context, c *entity.CollectionEvent) error {
	c.CollectedAt = orNow(c.CollectedAt)
	id, err := r.insert(ctx, "collection event", `
		INSERT INTO collection_events (cm_lot_id, volume, unit, notes, recorded_by, collected_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.CMLotID, c.Volume, c.Unit, c.Notes, c.RecordedBy, c.CollectedAt)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

// AddProcessingStep records a processing step
func (r *EvidenceRepository) AddProcessingStep(ctx context.Context, step *entity.ProcessingStep) error {
	step.PerformedAt = orNow(step.PerformedAt)
	id, err := r.insert(ctx, "processing step", `
		INSERT INTO processing_steps (cm_lot_id, step_name, notes, recorded_by, performed_at)
		VALUES (?, ?, ?, ?, ?)
	`, step.CMLotID, step.StepName, step.Notes, step.RecordedBy, step.PerformedAt)
	if err != nil {
		return err
	}
	step.ID = id
	return nil
}

// AddQCRequirement registers a required QC test; registering the same code twice
// is a no-op that reports the existing row's ID.
func (r *EvidenceRepository) AddQCRequirement(ctx context.Context, req *entity.QCRequirement) error {
	// last_insert_rowid is not set by the DO UPDATE branch, so the id comes from RETURNING
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO qc_requirements (cm_lot_id, test_code) VALUES (?, ?)
		ON CONFLICT (cm_lot_id, test_code) DO UPDATE SET test_code = excluded.test_code
		RETURNING id
	`, req.CMLotID, req.TestCode).Scan(&req.ID)
	if err != nil {
		r.logger.Error("Failed to record evidence", zap.String("kind", "qc requirement"), zap.Error(err))
		return fmt.Errorf("failed to create qc requirement: %w", err)
	}
	return nil
}

// AddQCResult records a QC test result
func (r *EvidenceRepository) AddQCResult(ctx context.Context, result *entity.QCResult) error {
	result.RecordedAt = orNow(result.RecordedAt)
	id, err := r.insert(ctx, "qc result", `
		INSERT INTO qc_results (cm_lot_id, test_code, passed, value, recorded_by, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, result.CMLotID, result.TestCode, result.Passed, result.Value, result.RecordedBy, result.RecordedAt)
	if err != nil {
		return err
	}
	result.ID = id
	return nil
}

// AddQADecision records the QA decision; a lot holds at most one
func (r *EvidenceRepository) AddQADecision(ctx context.Context, decision *entity.QADecision) error {
	decision.DecidedAt = orNow(decision.DecidedAt)
	id, err := r.insert(ctx, "qa decision", `
		INSERT INTO qa_decisions (cm_lot_id, decision, rationale, decided_by, decided_at)
		VALUES (?, ?, ?, ?, ?)
	`, decision.CMLotID, decision.Decision, decision.Rationale, decision.DecidedBy, decision.DecidedAt)
	if err != nil {
		return err
	}
	decision.ID = id
	return nil
}

// ListCollections returns the collection events of a CM lot in recording order
func (r *EvidenceRepository) ListCollections(ctx context.Context, cmLotID int64) ([]*entity.CollectionEvent, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT id, cm_lot_id, volume, unit, notes, recorded_by, collected_at
		FROM collection_events WHERE cm_lot_id = ? ORDER BY id ASC
	`, cmLotID)
	if err != nil {
		r.logger.Error("Failed to list collections", zap.Int64("cm_lot_id", cmLotID), zap.Error(err))
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var out []*entity.CollectionEvent
	for rows.Next() {
		var c entity.CollectionEvent
		if err := rows.Scan(&c.ID, &c.CMLotID, &c.Volume, &c.Unit, &c.Notes, &c.RecordedBy, &c.CollectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ListProcessingSteps returns the processing steps of a CM lot in recording order
func (r *EvidenceRepository) ListProcessingSteps(ctx context.Context, cmLotID int64) ([]*entity.ProcessingStep, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT id, cm_lot_id, step_name, notes, recorded_by, performed_at
		FROM processing_steps WHERE cm_lot_id = ? ORDER BY id ASC
	`, cmLotID)
	if err != nil {
		r.logger.Error("Failed to list processing steps", zap.Int64("cm_lot_id", cmLotID), zap.Error(err))
		return nil, fmt.Errorf("failed to list processing steps: %w", err)
	}
	defer rows.Close()

	var out []*entity.ProcessingStep
	for rows.Next() {
		var s entity.ProcessingStep
		if err := rows.Scan(&s.ID, &s.CMLotID, &s.StepName, &s.Notes, &s.RecordedBy, &s.PerformedAt); err != nil {
			return nil, fmt.Errorf("failed to scan processing step: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// ListQCResults returns the QC results of a CM lot in recording order
func (r *EvidenceRepository) ListQCResults(ctx context.Context, cmLotID int64) ([]*entity.QCResult, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT id, cm_lot_id, test_code, passed, value, recorded_by, recorded_at
		FROM qc_results WHERE cm_lot_id = ? ORDER BY id ASC
	`, cmLotID)
	if err != nil {
		r.logger.Error("Failed to list QC results", zap.Int64("cm_lot_id", cmLotID), zap.Error(err))
		return nil, fmt.Errorf("failed to list qc results: %w", err)
	}
	defer rows.Close()

	var out []*entity.QCResult
	for rows.Next() {
		var q entity.QCResult
		if err := rows.Scan(&q.ID, &q.CMLotID, &q.TestCode, &q.Passed, &q.Value, &q.RecordedBy, &q.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan qc result: %w", err)
		}
		out = append(out, &q)
	}
	return out, rows.Err()
}

// GetQADecision returns the QA decision of a CM lot, or nil if none was recorded
func (r *EvidenceRepository) GetQADecision(ctx context.Context, cmLotID int64) (*entity.QADecision, error) {
	var d entity.QADecision
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, cm_lot_id, decision, rationale, decided_by, decided_at
		FROM qa_decisions WHERE cm_lot_id = ?
	`, cmLotID).Scan(&d.ID, &d.CMLotID, &d.Decision, &d.Rationale, &d.DecidedBy, &d.DecidedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get QA decision", zap.Int64("cm_lot_id", cmLotID), zap.Error(err))
		return nil, fmt.Errorf("failed to get qa decision: %w", err)
	}
	return &d, nil
}

// Summarize returns the guard counters of a CM lot.
// QC results count distinct required test codes that have at least one result.
// QAReleased is set only by a RELEASE decision.
func (r *EvidenceRepository) Summarize(ctx context.Context, cmLotID int64) (*entity.CMLotEvidence, error) {
	exec := getExecutor(ctx, r.db)
	var ev entity.CMLotEvidence

	err := exec.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM collection_events WHERE cm_lot_id = ?),
			(SELECT COUNT(*) FROM processing_steps WHERE cm_lot_id = ?),
			(SELECT COUNT(DISTINCT q.test_code) FROM qc_results q
				JOIN qc_requirements req ON req.cm_lot_id = q.cm_lot_id AND req.test_code = q.test_code
				WHERE q.cm_lot_id = ?),
			(SELECT COUNT(*) FROM qa_decisions WHERE cm_lot_id = ?),
			(SELECT COUNT(*) FROM qa_decisions WHERE cm_lot_id = ? AND decision = ?)
	`, cmLotID, cmLotID, cmLotID, cmLotID, cmLotID, entity.QADecisionRelease).Scan(
		&ev.CollectionsCount,
		&ev.ProcessingStepsCount,
		&ev.QCResultsCount,
		&ev.HasQADecision,
		&ev.QAReleased,
	)
	if err != nil {
		r.logger.Error("Failed to summarize evidence", zap.Int64("cm_lot_id", cmLotID), zap.Error(err))
		return nil, fmt.Errorf("failed to summarize evidence: %w", err)
	}

	rows, err := exec.QueryContext(ctx, `
		SELECT test_code FROM qc_requirements WHERE cm_lot_id = ? ORDER BY test_code ASC
	`, cmLotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list qc requirements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan qc requirement: %w", err)
		}
		ev.QCTestsRequired = append(ev.QCTestsRequired, code)
	}

	return &ev, rows.Err()
}

// Verify interface compliance
var _ port.EvidenceRepository = (*EvidenceRepository)(nil)
