package plan

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/codeverse-ai/codeverse/internal/domain"
)

// ValidateCreateRequest validates the fields of a plan creation request.
func ValidateCreateRequest(req CreateRequest) error {
	if req.RepositoryID == "" {
		return fmt.Errorf("repository_id is required: %w", domain.ErrValidation)
	}
	if req.Name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if err := validateName(req.Name); err != nil {
		return err
	}
	if req.TargetBranch == "" {
		return fmt.Errorf("target_branch is required: %w", domain.ErrValidation)
	}
	if req.Status != "" && !req.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", req.Status, domain.ErrValidation)
	}
	if len(req.Description) > 2000 {
		return fmt.Errorf("description exceeds 2000 characters: %w", domain.ErrValidation)
	}
	return nil
}

// ValidateUpdateRequest validates the fields of a plan update request.
func ValidateUpdateRequest(req UpdateRequest) error {
	if req.Name != nil {
		if *req.Name == "" {
			return fmt.Errorf("name cannot be empty: %w", domain.ErrValidation)
		}
		if err := validateName(*req.Name); err != nil {
			return err
		}
	}
	if req.TargetBranch != nil && *req.TargetBranch == "" {
		return fmt.Errorf("target_branch cannot be empty: %w", domain.ErrValidation)
	}
	if req.Status != nil && !req.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", *req.Status, domain.ErrValidation)
	}
	if req.Description != nil && len(*req.Description) > 2000 {
		return fmt.Errorf("description exceeds 2000 characters: %w", domain.ErrValidation)
	}
	return nil
}

// ValidateCreateVersionRequest validates an explicit plan-version creation.
func ValidateCreateVersionRequest(req CreateVersionRequest) error {
	if strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("content is required: %w", domain.ErrValidation)
	}
	if req.Version < 0 {
		return fmt.Errorf("version cannot be negative: %w", domain.ErrValidation)
	}
	return nil
}

func validateName(name string) error {
	if len(name) > 255 {
		return fmt.Errorf("name exceeds 255 characters: %w", domain.ErrValidation)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("name contains control characters: %w", domain.ErrValidation)
		}
	}
	return nil
}
