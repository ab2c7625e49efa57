package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/lotflow/internal/application/port"
	"github.com/garyjia/lotflow/internal/domain/entity"
)

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `id, title, cm_lot_id, quantity, unit, requested_by, status, created_at, updated_at`

func scanRequest(s rowScanner) (*entity.Request, error) {
	var req entity.Request
	var cmLotID sql.NullInt64

	err := s.Scan(
		&req.ID,
		&req.Title,
		&cmLotID,
		&req.Quantity,
		&req.Unit,
		&req.RequestedBy,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if cmLotID.Valid {
		req.CMLotID = &cmLotID.Int64
	}
	return &req, nil
}

// Create inserts a new request
func (r *RequestRepository) Create(ctx context.Context, req *entity.Request) error {
	query := `
		INSERT INTO requests (
			title, cm_lot_id, quantity, unit, requested_by, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var cmLotID sql.NullInt64
	if req.CMLotID != nil {
		cmLotID = sql.NullInt64{Int64: *req.CMLotID, Valid: true}
	}

	ts := now()
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		req.Title,
		cmLotID,
		req.Quantity,
		req.Unit,
		req.RequestedBy,
		req.Status,
		ts,
		ts,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.String("title", req.Title), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	req.ID = id
	req.CreatedAt = ts
	req.UpdatedAt = ts
	return nil
}

// GetByID retrieves a request by ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = ?`

	req, err := scanRequest(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return req, nil
}

// List retrieves requests newest first, optionally filtered by status
func (r *RequestRepository) List(ctx context.Context, filter entity.LotFilter) ([]*entity.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE (? = '' OR status = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	limit, offset := pageArgs(filter)
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, filter.Status, filter.Status, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var reqs []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		reqs = append(reqs, req)
	}

	return reqs, rows.Err()
}

// CompareAndSetStatus updates the status only if it still equals expected
func (r *RequestRepository) CompareAndSetStatus(ctx context.Context, id int64, expected, next string) (bool, error) {
	query := `UPDATE requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, next, now(), id, expected)
	if err != nil {
		r.logger.Error("Failed to update request status", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to update request status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n == 1, nil
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
