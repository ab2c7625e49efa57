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

// CMLotRepository implements port.CMLotRepository
type CMLotRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCMLotRepository creates a new CM lot repository
func NewCMLotRepository(db *sql.DB, logger *zap.Logger) port.CMLotRepository {
	return &CMLotRepository{
		db:     db,
		logger: logger,
	}
}

const cmLotColumns = `id, code, material, status, created_by, created_at, updated_at`

func scanCMLot(s rowScanner) (*entity.CMLot, error) {
	var lot entity.CMLot
	err := s.Scan(
		&lot.ID,
		&lot.Code,
		&lot.Material,
		&lot.Status,
		&lot.CreatedBy,
		&lot.CreatedAt,
		&lot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// Create inserts a new CM lot
func (r *CMLotRepository) Create(ctx context.Context, lot *entity.CMLot) error {
	query := `
		INSERT INTO cm_lots (code, material, status, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	ts := now()
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		lot.Code,
		lot.Material,
		lot.Status,
		lot.CreatedBy,
		ts,
		ts,
	)
	if err != nil {
		r.logger.Error("Failed to create CM lot", zap.String("code", lot.Code), zap.Error(err))
		return fmt.Errorf("failed to create cm lot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	lot.ID = id
	lot.CreatedAt = ts
	lot.UpdatedAt = ts
	return nil
}

// GetByID retrieves a CM lot by ID
func (r *CMLotRepository) GetByID(ctx context.Context, id int64) (*entity.CMLot, error) {
	query := `SELECT ` + cmLotColumns + ` FROM cm_lots WHERE id = ?`

	lot, err := scanCMLot(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get CM lot by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get cm lot: %w", err)
	}

	return lot, nil
}

// GetByCode retrieves a CM lot by its business code
func (r *CMLotRepository) GetByCode(ctx context.Context, code string) (*entity.CMLot, error) {
	query := `SELECT ` + cmLotColumns + ` FROM cm_lots WHERE code = ?`

	lot, err := scanCMLot(getExecutor(ctx, r.db).QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get CM lot by code", zap.String("code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to get cm lot: %w", err)
	}

	return lot, nil
}

// List retrieves CM lots newest first, optionally filtered by status
func (r *CMLotRepository) List(ctx context.Context, filter entity.LotFilter) ([]*entity.CMLot, error) {
	query := `
		SELECT ` + cmLotColumns + `
		FROM cm_lots
		WHERE (? = '' OR status = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	limit, offset := pageArgs(filter)
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, filter.Status, filter.Status, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list CM lots", zap.Error(err))
		return nil, fmt.Errorf("failed to list cm lots: %w", err)
	}
	defer rows.Close()

	var lots []*entity.CMLot
	for rows.Next() {
		lot, err := scanCMLot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cm lot: %w", err)
		}
		lots = append(lots, lot)
	}

	return lots, rows.Err()
}

// CompareAndSetStatus updates the status only if it still equals expected
func (r *CMLotRepository) CompareAndSetStatus(ctx context.Context, id int64, expected, next string) (bool, error) {
	query := `UPDATE cm_lots SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, next, now(), id, expected)
	if err != nil {
		r.logger.Error("Failed to update CM lot status",
			zap.Int64("id", id),
			zap.String("from", expected),
			zap.String("to", next),
			zap.Error(err))
		return false, fmt.Errorf("failed to update cm lot status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n == 1, nil
}

// Verify interface compliance
var _ port.CMLotRepository = (*CMLotRepository)(nil)
