package postgres

import (
	"context"
	"fmt"

	"github.com/codeverse-ai/codeverse/internal/domain"
	"github.com/codeverse-ai/codeverse/internal/domain/plan"
)

// --- Plans ---

const planColumns = `id, repository_id, name, description, target_branch, status, version, created_at, updated_at`

func (s *Store) ListPlans(ctx context.Context, repositoryID string) ([]plan.Plan, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+planColumns+` FROM plans WHERE repository_id = $1 ORDER BY created_at DESC`,
		repositoryID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []plan.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (s *Store) GetPlan(ctx context.Context, id string) (*plan.Plan, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = $1`, id)

	p, err := scanPlan(row)
	if err != nil {
		return nil, notFoundWrap(err, "get plan %s", id)
	}
	return &p, nil
}

func (s *Store) ListPlanIterations(ctx context.Context, id string) ([]plan.Plan, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+planColumns+` FROM plans
		 WHERE repository_id = (SELECT repository_id FROM plans WHERE id = $1)
		   AND name = (SELECT name FROM plans WHERE id = $1)
		 ORDER BY created_at ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("list plan iterations %s: %w", id, err)
	}
	defer rows.Close()

	var plans []plan.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("list plan iterations %s: %w", id, domain.ErrNotFound)
	}
	return plans, nil
}

func (s *Store) CreatePlan(ctx context.Context, req plan.CreateRequest) (*plan.Plan, error) {
	status := req.Status
	if status == "" {
		status = plan.StatusDraft
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO plans (repository_id, name, description, target_branch, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+planColumns,
		req.RepositoryID, req.Name, req.Description, req.TargetBranch, string(status))

	p, err := scanPlan(row)
	if err != nil {
		return nil, conflictWrap(err, "create plan")
	}
	return &p, nil
}

func (s *Store) UpdatePlan(ctx context.Context, id string, version int, req plan.UpdateRequest) (*plan.Plan, error) {
	var status *string
	if req.Status != nil {
		v := string(*req.Status)
		status = &v
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE plans SET
		   name = COALESCE($3, name),
		   description = COALESCE($4, description),
		   target_branch = COALESCE($5, target_branch),
		   status = COALESCE($6, status),
		   version = version + 1
		 WHERE id = $1 AND version = $2
		 RETURNING `+planColumns,
		id, version, req.Name, req.Description, req.TargetBranch, status)

	p, err := scanPlan(row)
	if err != nil {
		if _, getErr := s.GetPlan(ctx, id); getErr == nil {
			return nil, fmt.Errorf("update plan %s: %w", id, domain.ErrConflict)
		}
		return nil, notFoundWrap(err, "update plan %s", id)
	}
	return &p, nil
}

func (s *Store) DeletePlan(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete plan %s", id)
}

func scanPlan(row scannable) (plan.Plan, error) {
	var p plan.Plan
	err := row.Scan(&p.ID, &p.RepositoryID, &p.Name, &p.Description, &p.TargetBranch, &p.Status, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// --- Plan versions ---

const planVersionColumns = `id, plan_id, content, version, created_at`

func (s *Store) ListPlanVersions(ctx context.Context, planID string) ([]plan.Version, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+planVersionColumns+` FROM plan_versions WHERE plan_id = $1 ORDER BY version DESC`,
		planID)
	if err != nil {
		return nil, fmt.Errorf("list plan versions: %w", err)
	}
	defer rows.Close()

	var versions []plan.Version
	for rows.Next() {
		v, err := scanPlanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (s *Store) GetPlanVersion(ctx context.Context, id string) (*plan.Version, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+planVersionColumns+` FROM plan_versions WHERE id = $1`, id)

	v, err := scanPlanVersion(row)
	if err != nil {
		return nil, notFoundWrap(err, "get plan version %s", id)
	}
	return &v, nil
}

func (s *Store) LatestPlanVersion(ctx context.Context, planID string) (*plan.Version, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+planVersionColumns+` FROM plan_versions
		 WHERE plan_id = $1 ORDER BY version DESC LIMIT 1`, planID)

	v, err := scanPlanVersion(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest plan version %s: %w", planID, err)
	}
	return &v, nil
}

func (s *Store) CreatePlanVersion(ctx context.Context, planID string, content string, version int) (*plan.Version, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO plan_versions (plan_id, content, version)
		 VALUES ($1, $2, $3)
		 RETURNING `+planVersionColumns,
		planID, content, version)

	v, err := scanPlanVersion(row)
	if err != nil {
		return nil, conflictWrap(err, "create plan version %d for plan %s", version, planID)
	}
	return &v, nil
}

func (s *Store) DeletePlanVersion(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM plan_versions WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete plan version %s", id)
}

func scanPlanVersion(row scannable) (plan.Version, error) {
	var v plan.Version
	err := row.Scan(&v.ID, &v.PlanID, &v.Content, &v.Version, &v.CreatedAt)
	return v, err
}
