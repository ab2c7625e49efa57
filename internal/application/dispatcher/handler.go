package dispatcher

import (
	"context"

	"github.com/garyjia/lotflow/internal/domain/event"
)

// Handler reacts to a lifecycle event
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a registered handler
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// ForEntity wraps h so it only sees events raised by the given entity type
func ForEntity(entityType string, h Handler) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		if evt.EntityType != entityType {
			return nil
		}
		return h(ctx, evt)
	}
}
