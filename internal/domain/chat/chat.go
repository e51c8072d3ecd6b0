// Package chat defines the chat session tied to a plan: the running exchange
// of user notes and assistant clarifying questions across generation runs.
package chat

import (
	"fmt"
	"time"

	"github.com/codeverse-ai/codeverse/internal/domain"
)

// Status represents the lifecycle state of a chat session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known session status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusCompleted
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in a session transcript.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Session is the conversation attached to a plan. The whole transcript is
// stored as one JSONB column, matching the write pattern of the generate
// flow: messages are only ever appended in pairs at the end of a run.
type Session struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"plan_id"`
	Messages  []Message `json:"messages"`
	Status    Status    `json:"status"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LatestAssistantContent returns the content of the newest assistant message,
// or "" if the transcript has none. The generate flow uses it to recover the
// previous clarifying questions.
func (s *Session) LatestAssistantContent() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}

// CreateRequest holds the fields for opening a session on a plan.
type CreateRequest struct {
	PlanID   string    `json:"plan_id"`
	Messages []Message `json:"messages,omitempty"`
	Status   Status    `json:"status,omitempty"`
}

// UpdateRequest replaces the transcript and/or status; nil means unchanged.
type UpdateRequest struct {
	Messages *[]Message `json:"messages,omitempty"`
	Status   *Status    `json:"status,omitempty"`
}

// ValidateCreateRequest validates the fields of a session creation request.
func ValidateCreateRequest(req CreateRequest) error {
	if req.PlanID == "" {
		return fmt.Errorf("plan_id is required: %w", domain.ErrValidation)
	}
	if req.Status != "" && !req.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", req.Status, domain.ErrValidation)
	}
	return validateMessages(req.Messages)
}

// ValidateUpdateRequest validates the fields of a session update request.
func ValidateUpdateRequest(req UpdateRequest) error {
	if req.Status != nil && !req.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", *req.Status, domain.ErrValidation)
	}
	if req.Messages != nil {
		return validateMessages(*req.Messages)
	}
	return nil
}

func validateMessages(msgs []Message) error {
	for i, m := range msgs {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("message %d has unknown role %q: %w", i, m.Role, domain.ErrValidation)
		}
		if m.Content == "" {
			return fmt.Errorf("message %d has empty content: %w", i, domain.ErrValidation)
		}
	}
	return nil
}
