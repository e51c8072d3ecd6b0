package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/codeverse-ai/codeverse/internal/port/broadcast"
)

// GenerationOutputEvent is broadcast for every section-labeled chunk relayed
// during a generation run, so collaborators see the same stream as the SSE
// caller.
type GenerationOutputEvent struct {
	PlanID     string `json:"plan_id"`
	Chunk      string `json:"chunk"`
	OutputType string `json:"output_type"`
}

// GenerationStatusEvent is broadcast when a generation run starts, completes
// or fails.
type GenerationStatusEvent struct {
	PlanID string `json:"plan_id"`
	Status string `json:"status"` // "started", "completed", "failed"
	Error  string `json:"error,omitempty"`
}

// PlanVersionCreatedEvent is broadcast after a generation run persists a new
// plan version.
type PlanVersionCreatedEvent struct {
	PlanID    string `json:"plan_id"`
	VersionID string `json:"version_id"`
	Version   int    `json:"version"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}

var _ broadcast.Broadcaster = (*Hub)(nil)
