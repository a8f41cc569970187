// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/pulsewatch/pulsewatch/internal/types"
)

func (s *Storage) GetPlanByID(ctx context.Context, id int64) (*types.Plan, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetPlanByID")
	defer span.End()

	var p types.Plan
	err := s.db.Statement(ctx).
		Select("id", "name", "price", "frequency", "max_servers", "max_users", "max_projects", "description").
		From("plans").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&p.ID, &p.Name, &p.Price, &p.Frequency, &p.MaxServers, &p.MaxUsers, &p.MaxProjects, &p.Description)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return &p, nil
}

func (s *Storage) ListPlans(ctx context.Context) ([]*types.Plan, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListPlans")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("id", "name", "price", "frequency", "max_servers", "max_users", "max_projects", "description").
		From("plans").
		OrderBy("id ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*types.Plan
	for rows.Next() {
		var p types.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Frequency, &p.MaxServers, &p.MaxUsers, &p.MaxProjects, &p.Description); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return plans, nil
}

func (s *Storage) CreatePlan(ctx context.Context, p *types.Plan) (*types.Plan, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreatePlan")
	defer span.End()

	var created types.Plan
	err := s.db.Statement(ctx).
		Insert("plans").
		Columns("name", "price", "frequency", "max_servers", "max_users", "max_projects", "description").
		Values(p.Name, p.Price, p.Frequency, p.MaxServers, p.MaxUsers, p.MaxProjects, p.Description).
		Suffix("RETURNING id, name, price, frequency, max_servers, max_users, max_projects, description").
		QueryRowContext(ctx).
		Scan(&created.ID, &created.Name, &created.Price, &created.Frequency, &created.MaxServers, &created.MaxUsers, &created.MaxProjects, &created.Description)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to insert plan: %w", err)
	}

	return &created, nil
}

func (s *Storage) UpdatePlan(ctx context.Context, p *types.Plan) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdatePlan")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("plans").
		Set("name", p.Name).
		Set("price", p.Price).
		Set("frequency", p.Frequency).
		Set("max_servers", p.MaxServers).
		Set("max_users", p.MaxUsers).
		Set("max_projects", p.MaxProjects).
		Set("description", p.Description).
		Where(sq.Eq{"id": p.ID}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) DeletePlan(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeletePlan")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Delete("plans").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return nil
}

func (s *Storage) ListProjectRoles(ctx context.Context) ([]*types.ProjectRole, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListProjectRoles")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("id", "name", "description").
		From("project_roles").
		OrderBy("id ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list project roles: %w", err)
	}
	defer rows.Close()

	var roles []*types.ProjectRole
	for rows.Next() {
		var r types.ProjectRole
		if err := rows.Scan(&r.ID, &r.Name, &r.Description); err != nil {
			return nil, fmt.Errorf("failed to scan project role: %w", err)
		}
		roles = append(roles, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return roles, nil
}

func (s *Storage) GetProjectRoleByID(ctx context.Context, id int64) (*types.ProjectRole, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetProjectRoleByID")
	defer span.End()

	var r types.ProjectRole
	err := s.db.Statement(ctx).
		Select("id", "name", "description").
		From("project_roles").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&r.ID, &r.Name, &r.Description)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project role: %w", err)
	}

	return &r, nil
}
