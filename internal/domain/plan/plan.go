// Package plan defines the Plan and PlanVersion domain entities.
package plan

import "time"

// Status represents the lifecycle state of a plan.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is a known plan status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Plan is an implementation plan drafted for a repository. Its content lives
// in immutable PlanVersion rows; the Plan row carries the mutable metadata.
type Plan struct {
	ID           string    `json:"id"`
	RepositoryID string    `json:"repository_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	TargetBranch string    `json:"target_branch"`
	Status       Status    `json:"status"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Version is one immutable snapshot of a plan's markdown content. Version
// numbers start at 1 and increase by one per generation run.
type Version struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"plan_id"`
	Content   string    `json:"content"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest holds the fields for creating a new plan.
type CreateRequest struct {
	RepositoryID string `json:"repository_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	TargetBranch string `json:"target_branch"`
	Status       Status `json:"status,omitempty"`
}

// UpdateRequest holds the mutable plan fields; nil means unchanged.
type UpdateRequest struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	TargetBranch *string `json:"target_branch,omitempty"`
	Status       *Status `json:"status,omitempty"`
}

// CreateVersionRequest holds the fields for recording a plan version by hand.
// The generate flow assigns the version number itself; this request is for
// the explicit POST /plans/{id}/plan_versions route.
type CreateVersionRequest struct {
	Content string `json:"content"`
	Version int    `json:"version,omitempty"`
}
