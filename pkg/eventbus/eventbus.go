// Package eventbus defines the contract for publishing post-commit domain
// events to interested collaborators.
package eventbus

import (
	"context"

	"github.com/solventhq/walletcore/pkg/domain/events"
)

// HandlerFunc processes one event. Errors are logged by the bus, never
// propagated to the publisher.
type HandlerFunc func(ctx context.Context, e events.Event) error

// EventBus dispatches domain events to registered handlers.
type EventBus interface {
	// Publish dispatches the event to all handlers registered for its type.
	Publish(ctx context.Context, e events.Event) error
	// Register subscribes a handler to an event type.
	Register(eventType string, handler HandlerFunc)
}
