package repo

import (
	"fmt"
	"path/filepath"
	"regexp"
	"unicode"

	"github.com/codeverse-ai/codeverse/internal/domain"
)

// sshURLPattern matches git SSH URLs like git@host:user/repo.git
var sshURLPattern = regexp.MustCompile(`^git@[^:]+:.+`)

// ValidateCreateRequest validates the fields of a repository creation request.
func ValidateCreateRequest(req CreateRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if err := validateName(req.Name); err != nil {
		return err
	}
	if req.Path == "" {
		return fmt.Errorf("path is required: %w", domain.ErrValidation)
	}
	if !filepath.IsAbs(req.Path) {
		return fmt.Errorf("path must be absolute: %w", domain.ErrValidation)
	}
	if req.GitURL != "" && !IsValidGitURL(req.GitURL) {
		return fmt.Errorf("git_url must start with https:// or match git@host:path format: %w", domain.ErrValidation)
	}
	return nil
}

// ValidateUpdateRequest validates the fields of a repository update request.
func ValidateUpdateRequest(req UpdateRequest) error {
	if req.Name != nil {
		if *req.Name == "" {
			return fmt.Errorf("name cannot be empty: %w", domain.ErrValidation)
		}
		if err := validateName(*req.Name); err != nil {
			return err
		}
	}
	if req.Path != nil {
		if *req.Path == "" {
			return fmt.Errorf("path cannot be empty: %w", domain.ErrValidation)
		}
		if !filepath.IsAbs(*req.Path) {
			return fmt.Errorf("path must be absolute: %w", domain.ErrValidation)
		}
	}
	if req.GitURL != nil && *req.GitURL != "" && !IsValidGitURL(*req.GitURL) {
		return fmt.Errorf("git_url must start with https:// or match git@host:path format: %w", domain.ErrValidation)
	}
	if req.DefaultBranch != nil && *req.DefaultBranch == "" {
		return fmt.Errorf("default_branch cannot be empty: %w", domain.ErrValidation)
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

// IsValidGitURL checks that the URL is either HTTPS or a git SSH URL.
func IsValidGitURL(url string) bool {
	if len(url) > 7 && url[:8] == "https://" {
		return true
	}
	return sshURLPattern.MatchString(url)
}
