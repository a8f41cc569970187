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

func (s *Storage) CreateUser(ctx context.Context, u *types.User) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateUser")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID: %w", err)
	}

	var created types.User
	err = s.db.Statement(ctx).
		Insert("users").
		Columns("id", "name", "email", "password_hash", "global_role", "plan_id", "is_active").
		Values(id.String(), u.Name, u.Email, u.PasswordHash, u.GlobalRole, u.PlanID, u.IsActive).
		Suffix("RETURNING id, name, email, password_hash, global_role, plan_id, is_active, created_at").
		QueryRowContext(ctx).
		Scan(&created.ID, &created.Name, &created.Email, &created.PasswordHash, &created.GlobalRole, &created.PlanID, &created.IsActive, &created.CreatedAt)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &created, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetUserByID")
	defer span.End()

	return s.getUser(ctx, sq.Eq{"id": id})
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetUserByEmail")
	defer span.End()

	return s.getUser(ctx, sq.Eq{"email": email})
}

func (s *Storage) getUser(ctx context.Context, pred interface{}) (*types.User, error) {
	var u types.User
	err := s.db.Statement(ctx).
		Select("id", "name", "email", "password_hash", "global_role", "plan_id", "is_active", "created_at").
		From("users").
		Where(pred).
		QueryRowContext(ctx).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.GlobalRole, &u.PlanID, &u.IsActive, &u.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListUsers")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("id", "name", "email", "password_hash", "global_role", "plan_id", "is_active", "created_at").
		From("users").
		OrderBy("created_at DESC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*types.User
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.GlobalRole, &u.PlanID, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return users, nil
}

func (s *Storage) UpdateUser(ctx context.Context, u *types.User) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateUser")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("users").
		Set("name", u.Name).
		Set("email", u.Email).
		Set("global_role", u.GlobalRole).
		Set("plan_id", u.PlanID).
		Set("is_active", u.IsActive).
		Where(sq.Eq{"id": u.ID}).
		ExecContext(ctx)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to update user: %w", err)
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

func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteUser")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Delete("users").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountUsers")
	defer span.End()

	var count int
	err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("users").
		QueryRowContext(ctx).
		Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}
