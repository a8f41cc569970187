// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pulsewatch/pulsewatch/internal/types"
)

func (s *Storage) CreateServer(ctx context.Context, srv *types.Server) (*types.Server, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateServer")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate server ID: %w", err)
	}

	var created types.Server
	err = s.db.Statement(ctx).
		Insert("servers").
		Columns("id", "project_id", "name", "host", "port", "description", "token", "status", "is_active").
		Values(id.String(), srv.ProjectID, srv.Name, srv.Host, srv.Port, srv.Description, srv.Token, srv.Status, srv.IsActive).
		Suffix("RETURNING id, project_id, name, host, port, description, token, status, is_active, created_at").
		QueryRowContext(ctx).
		Scan(&created.ID, &created.ProjectID, &created.Name, &created.Host, &created.Port, &created.Description, &created.Token, &created.Status, &created.IsActive, &created.CreatedAt)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		if IsForeignKeyViolation(err) {
			return nil, ErrForeignKeyViolation
		}
		return nil, fmt.Errorf("failed to insert server: %w", err)
	}

	return &created, nil
}

func (s *Storage) GetServerByID(ctx context.Context, projectID, id string) (*types.Server, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetServerByID")
	defer span.End()

	var srv types.Server
	err := s.db.Statement(ctx).
		Select("id", "project_id", "name", "host", "port", "description", "token", "status", "is_active", "created_at").
		From("servers").
		Where(sq.Eq{"id": id, "project_id": projectID}).
		QueryRowContext(ctx).
		Scan(&srv.ID, &srv.ProjectID, &srv.Name, &srv.Host, &srv.Port, &srv.Description, &srv.Token, &srv.Status, &srv.IsActive, &srv.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get server: %w", err)
	}

	return &srv, nil
}

func (s *Storage) ListServersByProjectID(ctx context.Context, projectID string) ([]*types.Server, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListServersByProjectID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("id", "project_id", "name", "host", "port", "description", "token", "status", "is_active", "created_at").
		From("servers").
		Where(sq.Eq{"project_id": projectID}).
		OrderBy("created_at ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	defer rows.Close()

	var servers []*types.Server
	for rows.Next() {
		var srv types.Server
		if err := rows.Scan(&srv.ID, &srv.ProjectID, &srv.Name, &srv.Host, &srv.Port, &srv.Description, &srv.Token, &srv.Status, &srv.IsActive, &srv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan server: %w", err)
		}
		servers = append(servers, &srv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return servers, nil
}

func (s *Storage) CountServersByProjectID(ctx context.Context, projectID string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountServersByProjectID")
	defer span.End()

	var count int
	err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("servers").
		Where(sq.Eq{"project_id": projectID}).
		QueryRowContext(ctx).
		Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count servers: %w", err)
	}

	return count, nil
}

func (s *Storage) UpdateServer(ctx context.Context, srv *types.Server) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateServer")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("servers").
		Set("name", srv.Name).
		Set("host", srv.Host).
		Set("port", srv.Port).
		Set("description", srv.Description).
		Set("is_active", srv.IsActive).
		Where(sq.Eq{"id": srv.ID, "project_id": srv.ProjectID}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update server: %w", err)
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

func (s *Storage) DeleteServer(ctx context.Context, projectID, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteServer")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("servers").
		Where(sq.Eq{"id": id, "project_id": projectID}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
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
