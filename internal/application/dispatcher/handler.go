package dispatcher

import (
	"context"

	"github.com/garyjia/legal-approval/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	EventType   event.Type
	Handler     Handler
	Description string
}

// anyType is the subscription key for handlers that receive every event
const anyType event.Type = "*"
