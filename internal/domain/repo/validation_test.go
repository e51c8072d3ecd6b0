package repo

import (
	"errors"
	"strings"
	"testing"

	"github.com/codeverse-ai/codeverse/internal/domain"
)

func TestValidateCreateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid minimal request",
			req:     CreateRequest{Name: "my-repo", Path: "/srv/repos/my-repo"},
			wantErr: false,
		},
		{
			name: "valid request with all fields",
			req: CreateRequest{
				Name:          "my-repo",
				Path:          "/srv/repos/my-repo",
				GitURL:        "https://github.com/user/repo.git",
				DefaultBranch: "develop",
			},
			wantErr: false,
		},
		{
			name:    "valid request with SSH URL",
			req:     CreateRequest{Name: "my-repo", Path: "/srv/repos/my-repo", GitURL: "git@github.com:user/repo.git"},
			wantErr: false,
		},
		{
			name:    "missing name",
			req:     CreateRequest{Path: "/srv/repos/x"},
			wantErr: true,
			errMsg:  "name is required",
		},
		{
			name:    "missing path",
			req:     CreateRequest{Name: "my-repo"},
			wantErr: true,
			errMsg:  "path is required",
		},
		{
			name:    "relative path",
			req:     CreateRequest{Name: "my-repo", Path: "repos/my-repo"},
			wantErr: true,
			errMsg:  "path must be absolute",
		},
		{
			name:    "name too long",
			req:     CreateRequest{Name: strings.Repeat("a", 256), Path: "/srv/x"},
			wantErr: true,
			errMsg:  "name exceeds 255 characters",
		},
		{
			name:    "name with control characters",
			req:     CreateRequest{Name: "my\trepo", Path: "/srv/x"},
			wantErr: true,
			errMsg:  "control characters",
		},
		{
			name:    "invalid git URL",
			req:     CreateRequest{Name: "my-repo", Path: "/srv/x", GitURL: "ftp://host/repo"},
			wantErr: true,
			errMsg:  "git_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCreateRequest(tt.req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, domain.ErrValidation) {
					t.Errorf("error %v is not domain.ErrValidation", err)
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateUpdateRequest(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name    string
		req     UpdateRequest
		wantErr bool
	}{
		{name: "empty update is valid", req: UpdateRequest{}, wantErr: false},
		{name: "valid name change", req: UpdateRequest{Name: str("renamed")}, wantErr: false},
		{name: "empty name rejected", req: UpdateRequest{Name: str("")}, wantErr: true},
		{name: "relative path rejected", req: UpdateRequest{Path: str("x/y")}, wantErr: true},
		{name: "empty branch rejected", req: UpdateRequest{DefaultBranch: str("")}, wantErr: true},
		{name: "clearing git URL is valid", req: UpdateRequest{GitURL: str("")}, wantErr: false},
		{name: "bad git URL rejected", req: UpdateRequest{GitURL: str("not-a-url")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpdateRequest(tt.req)
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("error %v is not domain.ErrValidation", err)
			}
		})
	}
}
