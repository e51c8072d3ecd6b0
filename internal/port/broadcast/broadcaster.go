// Package broadcast defines the port for pushing real-time events to
// connected websocket clients. The generate flow publishes generation
// progress here so collaborators who are not the SSE caller still see it.
package broadcast

import "context"

// Event types published by the generate flow.
const (
	EventGenerationOutput  = "generation.output"
	EventGenerationStatus  = "generation.status"
	EventPlanVersionCreate = "plan.version.created"
)

// Broadcaster sends real-time events to all connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all connected clients.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
