// Package repo defines the Repository domain entity.
package repo

import "time"

// Repository represents a local code repository that plans are drafted
// against. Path is the working directory the planning agent is launched in.
type Repository struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	GitURL        string    `json:"git_url,omitempty"`
	DefaultBranch string    `json:"default_branch"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateRequest holds the fields needed to register a repository.
type CreateRequest struct {
	Name          string `json:"name"`
	Path          string `json:"path"`
	GitURL        string `json:"git_url,omitempty"`
	DefaultBranch string `json:"default_branch,omitempty"`
}

// UpdateRequest holds the mutable repository fields; nil means unchanged.
type UpdateRequest struct {
	Name          *string `json:"name,omitempty"`
	Path          *string `json:"path,omitempty"`
	GitURL        *string `json:"git_url,omitempty"`
	DefaultBranch *string `json:"default_branch,omitempty"`
}

// DefaultBranchFallback is used when a create request leaves the branch empty.
const DefaultBranchFallback = "main"
