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

func (s *Storage) AddMember(ctx context.Context, projectID, userID string, roleID int64) error {
	ctx, span := s.tracer.Start(ctx, "storage.AddMember")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Insert("project_user").
		Columns("project_id", "user_id", "project_role_id").
		Values(projectID, userID, roleID).
		ExecContext(ctx)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		if IsForeignKeyViolation(err) {
			return ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

func (s *Storage) GetMembership(ctx context.Context, projectID, userID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetMembership")
	defer span.End()

	var m types.Membership
	err := s.db.Statement(ctx).
		Select("project_id", "user_id", "project_role_id", "created_at").
		From("project_user").
		Where(sq.Eq{"project_id": projectID, "user_id": userID}).
		QueryRowContext(ctx).
		Scan(&m.ProjectID, &m.UserID, &m.RoleID, &m.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return &m, nil
}

// ListMembersByProjectID returns membership rows joined with user and role
// details. The owner is not included; callers merge it in.
func (s *Storage) ListMembersByProjectID(ctx context.Context, projectID string) ([]*types.Member, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListMembersByProjectID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("u.id", "u.name", "u.email", "m.project_role_id", "r.name").
		From("project_user m").
		Join("users u ON u.id = m.user_id").
		Join("project_roles r ON r.id = m.project_role_id").
		Where(sq.Eq{"m.project_id": projectID}).
		OrderBy("m.created_at ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*types.Member
	for rows.Next() {
		var m types.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.RoleID, &m.RoleName); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return members, nil
}

func (s *Storage) CountMembersByProjectID(ctx context.Context, projectID string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountMembersByProjectID")
	defer span.End()

	var count int
	err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("project_user").
		Where(sq.Eq{"project_id": projectID}).
		QueryRowContext(ctx).
		Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}

	return count, nil
}

func (s *Storage) UpdateMemberRole(ctx context.Context, projectID, userID string, roleID int64) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateMemberRole")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("project_user").
		Set("project_role_id", roleID).
		Where(sq.Eq{"project_id": projectID, "user_id": userID}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
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

func (s *Storage) RemoveMember(ctx context.Context, projectID, userID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoveMember")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("project_user").
		Where(sq.Eq{"project_id": projectID, "user_id": userID}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
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
