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

// PackLotRepository implements port.PackLotRepository
type PackLotRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPackLotRepository creates a new pack lot repository
func NewPackLotRepository(db *sql.DB, logger *zap.Logger) port.PackLotRepository {
	return &PackLotRepository{
		db:     db,
		logger: logger,
	}
}

const packLotColumns = `id, code, cm_lot_id, requires_lyophilization, status, created_by, created_at, updated_at`

func scanPackLot(s rowScanner) (*entity.PackLot, error) {
	var lot entity.PackLot
	err := s.Scan(
		&lot.ID,
		&lot.Code,
		&lot.CMLotID,
		&lot.RequiresLyophilization,
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

// Create inserts a new pack lot
func (r *PackLotRepository) Create(ctx context.Context, lot *entity.PackLot) error {
	query := `
		INSERT INTO pack_lots (
			code, cm_lot_id, requires_lyophilization, status, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	ts := now()
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		lot.Code,
		lot.CMLotID,
		lot.RequiresLyophilization,
		lot.Status,
		lot.CreatedBy,
		ts,
		ts,
	)
	if err != nil {
		r.logger.Error("Failed to create pack lot", zap.String("code", lot.Code), zap.Error(err))
		return fmt.Errorf("failed to create pack lot: %w", err)
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

// GetByID retrieves a pack lot by ID
func (r *PackLotRepository) GetByID(ctx context.Context, id int64) (*entity.PackLot, error) {
	query := `SELECT ` + packLotColumns + ` FROM pack_lots WHERE id = ?`

	lot, err := scanPackLot(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get pack lot by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get pack lot: %w", err)
	}

	return lot, nil
}

// GetByCode retrieves a pack lot by its business code
func (r *PackLotRepository) GetByCode(ctx context.Context, code string) (*entity.PackLot, error) {
	query := `SELECT ` + packLotColumns + ` FROM pack_lots WHERE code = ?`

	lot, err := scanPackLot(getExecutor(ctx, r.db).QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get pack lot by code", zap.String("code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to get pack lot: %w", err)
	}

	return lot, nil
}

// List retrieves pack lots newest first, optionally filtered by status
func (r *PackLotRepository) List(ctx context.Context, filter entity.LotFilter) ([]*entity.PackLot, error) {
	query := `
		SELECT ` + packLotColumns + `
		FROM pack_lots
		WHERE (? = '' OR status = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	limit, offset := pageArgs(filter)
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, filter.Status, filter.Status, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list pack lots", zap.Error(err))
		return nil, fmt.Errorf("failed to list pack lots: %w", err)
	}
	defer rows.Close()

	var lots []*entity.PackLot
	for rows.Next() {
		lot, err := scanPackLot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pack lot: %w", err)
		}
		lots = append(lots, lot)
	}

	return lots, rows.Err()
}

// CompareAndSetStatus updates the status only if it still equals expected
func (r *PackLotRepository) CompareAndSetStatus(ctx context.Context, id int64, expected, next string) (bool, error) {
	query := `UPDATE pack_lots SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, next, now(), id, expected)
	if err != nil {
		r.logger.Error("Failed to update pack lot status",
			zap.Int64("id", id),
			zap.String("from", expected),
			zap.String("to", next),
			zap.Error(err))
		return false, fmt.Errorf("failed to update pack lot status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n == 1, nil
}

// Verify interface compliance
var _ port.PackLotRepository = (*PackLotRepository)(nil)
