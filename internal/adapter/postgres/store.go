package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeverse-ai/codeverse/internal/domain"
	"github.com/codeverse-ai/codeverse/internal/domain/repo"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Repositories ---

const repositoryColumns = `id, name, path, git_url, default_branch, version, created_at, updated_at`

func (s *Store) ListRepositories(ctx context.Context) ([]repo.Repository, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+repositoryColumns+` FROM repositories ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()

	var repos []repo.Repository
	for rows.Next() {
		r, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

func (s *Store) GetRepository(ctx context.Context, id string) (*repo.Repository, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE id = $1`, id)

	r, err := scanRepository(row)
	if err != nil {
		return nil, notFoundWrap(err, "get repository %s", id)
	}
	return &r, nil
}

func (s *Store) CreateRepository(ctx context.Context, req repo.CreateRequest) (*repo.Repository, error) {
	branch := req.DefaultBranch
	if branch == "" {
		branch = repo.DefaultBranchFallback
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO repositories (name, path, git_url, default_branch)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+repositoryColumns,
		req.Name, req.Path, req.GitURL, branch)

	r, err := scanRepository(row)
	if err != nil {
		return nil, conflictWrap(err, "create repository")
	}
	return &r, nil
}

func (s *Store) UpdateRepository(ctx context.Context, id string, version int, req repo.UpdateRequest) (*repo.Repository, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE repositories SET
		   name = COALESCE($3, name),
		   path = COALESCE($4, path),
		   git_url = COALESCE($5, git_url),
		   default_branch = COALESCE($6, default_branch),
		   version = version + 1
		 WHERE id = $1 AND version = $2
		 RETURNING `+repositoryColumns,
		id, version, req.Name, req.Path, req.GitURL, req.DefaultBranch)

	r, err := scanRepository(row)
	if err != nil {
		// Distinguish a stale version from a missing row.
		if _, getErr := s.GetRepository(ctx, id); getErr == nil {
			return nil, fmt.Errorf("update repository %s: %w", id, domain.ErrConflict)
		}
		return nil, conflictWrap(err, "update repository %s", id)
	}
	return &r, nil
}

func (s *Store) DeleteRepository(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM repositories WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete repository %s", id)
}

func scanRepository(row scannable) (repo.Repository, error) {
	var r repo.Repository
	err := row.Scan(&r.ID, &r.Name, &r.Path, &r.GitURL, &r.DefaultBranch, &r.Version, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}
