package service

import (
	"context"
	"fmt"

	"github.com/garyjia/lotflow/internal/application/dispatcher"
	"github.com/garyjia/lotflow/internal/application/port"
	"github.com/garyjia/lotflow/internal/domain/entity"
	"github.com/garyjia/lotflow/internal/domain/event"
)

// NotificationService turns status changes into in-app notifications
type NotificationService interface {
	// Register subscribes the service to status change events
	Register(d dispatcher.Dispatcher)

	HandleStatusChanged(ctx context.Context, evt *event.Event) error
	ListUnread(ctx context.Context, limit int) ([]*entity.Notification, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	logger           Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo port.NotificationRepository, logger Logger) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeLotStatusChanged, "notifications", s.HandleStatusChanged)
	d.SubscribeNamed(event.TypeRequestStatusChanged, "notifications", s.HandleStatusChanged)
}

// HandleStatusChanged records one notification per status change event
func (s *notificationServiceImpl) HandleStatusChanged(ctx context.Context, evt *event.Event) error {
	n := &entity.Notification{
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
		Message:    statusChangeMessage(evt),
	}

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to create notification", "error", err, "event_id", evt.ID)
		return err
	}

	s.logger.Info("Notification created",
		"id", n.ID,
		"entity_type", n.EntityType,
		"entity_id", n.EntityID,
	)
	return nil
}

// ListUnread returns unread notifications, newest first
func (s *notificationServiceImpl) ListUnread(ctx context.Context, limit int) ([]*entity.Notification, error) {
	return s.notificationRepo.ListUnread(ctx, limit)
}

// List returns all notifications, newest first
func (s *notificationServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Notification, error) {
	return s.notificationRepo.List(ctx, limit, offset)
}

// MarkRead flags a notification as read
func (s *notificationServiceImpl) MarkRead(ctx context.Context, id int64) error {
	ok, err := s.notificationRepo.MarkRead(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("notification %d: %w", id, ErrNotFound)
	}
	return nil
}

var entityNames = map[string]string{
	entity.EntityCMLot:   "CM lot",
	entity.EntityPackLot: "Pack lot",
	entity.EntityRequest: "Request",
}

func statusChangeMessage(evt *event.Event) string {
	name, ok := entityNames[evt.EntityType]
	if !ok {
		name = evt.EntityType
	}

	subject := fmt.Sprintf("%s %d", name, evt.EntityID)
	if code := evt.GetPayloadString(event.KeyCode); code != "" {
		subject = fmt.Sprintf("%s %s", name, code)
	}

	msg := fmt.Sprintf("%s moved from %s to %s",
		subject,
		evt.GetPayloadString(event.KeyPreviousStatus),
		evt.GetPayloadString(event.KeyNewStatus),
	)
	if actor := evt.GetPayloadString(event.KeyActor); actor != "" {
		msg += " by " + actor
	}
	return msg
}
