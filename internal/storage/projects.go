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

const projectColumns = "id, name, description, owner_id, api_key, encryption_key, created_at"

func (s *Storage) CreateProject(ctx context.Context, p *types.Project) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateProject")
	defer span.End()

	var created types.Project
	err := s.db.Statement(ctx).
		Insert("projects").
		Columns("id", "name", "description", "owner_id", "api_key", "encryption_key").
		Values(p.ID, p.Name, p.Description, p.OwnerID, p.APIKey, p.EncryptionKey).
		Suffix("RETURNING "+projectColumns).
		QueryRowContext(ctx).
		Scan(&created.ID, &created.Name, &created.Description, &created.OwnerID, &created.APIKey, &created.EncryptionKey, &created.CreatedAt)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}

	return &created, nil
}

func (s *Storage) GetProjectByID(ctx context.Context, id string) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetProjectByID")
	defer span.End()

	var p types.Project
	err := s.db.Statement(ctx).
		Select("id", "name", "description", "owner_id", "api_key", "encryption_key", "created_at").
		From("projects").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.APIKey, &p.EncryptionKey, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &p, nil
}

// ListProjectsByUserID returns the projects a user can see: the ones they own
// plus the ones they joined through a membership.
func (s *Storage) ListProjectsByUserID(ctx context.Context, userID string) ([]*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListProjectsByUserID")
	defer span.End()

	query := s.db.Statement(ctx).
		Select("p.id", "p.name", "p.description", "p.owner_id", "p.api_key", "p.encryption_key", "p.created_at").
		From("projects p").
		LeftJoin("project_user m ON p.id = m.project_id AND m.user_id = ?", userID).
		Where(sq.Or{
			sq.Eq{"p.owner_id": userID},
			sq.Expr("m.user_id IS NOT NULL"),
		}).
		OrderBy("p.created_at DESC")

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*types.Project
	for rows.Next() {
		var p types.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.APIKey, &p.EncryptionKey, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return projects, nil
}

// LatestOwnedProject returns the most recently created project owned by the
// user, or ErrNotFound if they own none.
func (s *Storage) LatestOwnedProject(ctx context.Context, ownerID string) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "storage.LatestOwnedProject")
	defer span.End()

	var p types.Project
	err := s.db.Statement(ctx).
		Select("id", "name", "description", "owner_id", "api_key", "encryption_key", "created_at").
		From("projects").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC").
		Limit(1).
		QueryRowContext(ctx).
		Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.APIKey, &p.EncryptionKey, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest owned project: %w", err)
	}

	return &p, nil
}

func (s *Storage) CountOwnedProjects(ctx context.Context, ownerID string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountOwnedProjects")
	defer span.End()

	var count int
	err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("projects").
		Where(sq.Eq{"owner_id": ownerID}).
		QueryRowContext(ctx).
		Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count owned projects: %w", err)
	}

	return count, nil
}

func (s *Storage) UpdateProject(ctx context.Context, p *types.Project) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateProject")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("projects").
		Set("name", p.Name).
		Set("description", p.Description).
		Where(sq.Eq{"id": p.ID}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
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

func (s *Storage) UpdateProjectKeys(ctx context.Context, id, apiKey, encryptionKey string) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateProjectKeys")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("projects").
		Set("api_key", apiKey).
		Set("encryption_key", encryptionKey).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update project keys: %w", err)
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

func (s *Storage) DeleteProject(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteProject")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Delete("projects").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (s *Storage) CountProjects(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountProjects")
	defer span.End()

	var count int
	err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("projects").
		QueryRowContext(ctx).
		Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}

	return count, nil
}
