package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/codeverse-ai/codeverse/internal/domain"
	"github.com/codeverse-ai/codeverse/internal/service"
)

// GeneratePlan handles POST /api/business/plans/{id}/generate.
//
// The response is an SSE stream of section-labeled chunks:
//
//	data: {"chunk": "...", "output_type": "plan"}
//
// terminated by either {"type":"complete"} or {"type":"error","message":...}.
// Errors detected before the first chunk (unknown plan, missing user_message)
// are returned as plain JSON with the proper status code instead.
func (h *Handlers) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	planID := urlParam(r, "id")
	req, ok := readJSON[service.GenerateRequest](w, r, generateBodyLimit)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	started := false
	start := func() {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		started = true
	}

	emit := func(ev service.StreamEvent) error {
		if !started {
			start()
		}
		return writeSSE(w, flusher, ev)
	}

	err := h.Generate.Generate(r.Context(), planID, req, emit)
	if err != nil {
		if !started {
			writeDomainError(w, err, "plan not found")
			return
		}
		_ = writeSSE(w, flusher, sseTerminator{Type: "error", Message: clientMessage(err)})
		return
	}

	if !started {
		start()
	}
	_ = writeSSE(w, flusher, sseTerminator{Type: "complete"})
}

type sseTerminator struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// writeSSE writes one SSE data frame and flushes it.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// clientMessage keeps internal error details out of the stream.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUpstream):
		return "agent error"
	case errors.Is(err, domain.ErrValidation):
		return validationMessage(err)
	default:
		return "generation failed"
	}
}
