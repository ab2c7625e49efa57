package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/lotflow/internal/application/port"
	"github.com/garyjia/lotflow/internal/domain/entity"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new unread notification
func (r *NotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	query := `
		INSERT INTO notifications (entity_type, entity_id, message, read, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	notification.CreatedAt = orNow(notification.CreatedAt)
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		notification.EntityType,
		notification.EntityID,
		notification.Message,
		notification.Read,
		notification.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("entity_type", notification.EntityType),
			zap.Int64("entity_id", notification.EntityID),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	notification.ID = id
	return nil
}

// ListUnread returns unread notifications, newest first
func (r *NotificationRepository) ListUnread(ctx context.Context, limit int) ([]*entity.Notification, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(ctx, `
		SELECT id, entity_type, entity_id, message, read, created_at
		FROM notifications
		WHERE read = 0
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
}

// List returns all notifications, newest first
func (r *NotificationRepository) List(ctx context.Context, limit, offset int) ([]*entity.Notification, error) {
	limit, offset = pageArgs(entity.LotFilter{Limit: limit, Offset: offset})
	return r.query(ctx, `
		SELECT id, entity_type, entity_id, message, read, created_at
		FROM notifications
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
}

// MarkRead flags a notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) (bool, error) {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *NotificationRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.Notification, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		if err := rows.Scan(&n.ID, &n.EntityType, &n.EntityID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
