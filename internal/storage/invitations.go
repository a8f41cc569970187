// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/pulsewatch/pulsewatch/internal/types"
)

const invitationColumns = "id, project_id, email, project_role_id, token, status, created_at, expires_at"

func (s *Storage) CreateInvitation(ctx context.Context, inv *types.Invitation) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateInvitation")
	defer span.End()

	// The service builds the complete row: expires_at is derived from its
	// created_at, so both must be persisted as given.
	var created types.Invitation
	err := s.db.Statement(ctx).
		Insert("project_invitations").
		Columns("id", "project_id", "email", "project_role_id", "token", "status", "created_at", "expires_at").
		Values(inv.ID, inv.ProjectID, inv.Email, inv.RoleID, inv.Token, inv.Status, inv.CreatedAt, inv.ExpiresAt).
		Suffix("RETURNING "+invitationColumns).
		QueryRowContext(ctx).
		Scan(&created.ID, &created.ProjectID, &created.Email, &created.RoleID, &created.Token, &created.Status, &created.CreatedAt, &created.ExpiresAt)

	if err != nil {
		// The partial unique index on (project_id, email) WHERE status =
		// 'pending' turns concurrent duplicate issues into this error.
		if IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		if IsForeignKeyViolation(err) {
			return nil, ErrForeignKeyViolation
		}
		return nil, fmt.Errorf("failed to insert invitation: %w", err)
	}

	return &created, nil
}

func (s *Storage) GetInvitationByToken(ctx context.Context, token string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetInvitationByToken")
	defer span.End()

	return s.getInvitation(ctx, sq.Eq{"token": token})
}

func (s *Storage) GetInvitationByID(ctx context.Context, id string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetInvitationByID")
	defer span.End()

	return s.getInvitation(ctx, sq.Eq{"id": id})
}

func (s *Storage) getInvitation(ctx context.Context, pred interface{}) (*types.Invitation, error) {
	var inv types.Invitation
	err := s.db.Statement(ctx).
		Select("id", "project_id", "email", "project_role_id", "token", "status", "created_at", "expires_at").
		From("project_invitations").
		Where(pred).
		QueryRowContext(ctx).
		Scan(&inv.ID, &inv.ProjectID, &inv.Email, &inv.RoleID, &inv.Token, &inv.Status, &inv.CreatedAt, &inv.ExpiresAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return &inv, nil
}

func (s *Storage) HasPendingInvitation(ctx context.Context, projectID, email string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.HasPendingInvitation")
	defer span.End()

	var count int
	err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("project_invitations").
		Where(sq.Eq{"project_id": projectID, "email": email, "status": types.InvitationPending}).
		QueryRowContext(ctx).
		Scan(&count)

	if err != nil {
		return false, fmt.Errorf("failed to check pending invitation: %w", err)
	}

	return count > 0, nil
}

func (s *Storage) ListPendingInvitationsByProjectID(ctx context.Context, projectID string) ([]*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListPendingInvitationsByProjectID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("id", "project_id", "email", "project_role_id", "token", "status", "created_at", "expires_at").
		From("project_invitations").
		Where(sq.Eq{"project_id": projectID, "status": types.InvitationPending}).
		OrderBy("created_at DESC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*types.Invitation
	for rows.Next() {
		var inv types.Invitation
		if err := rows.Scan(&inv.ID, &inv.ProjectID, &inv.Email, &inv.RoleID, &inv.Token, &inv.Status, &inv.CreatedAt, &inv.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, &inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return invitations, nil
}

func (s *Storage) UpdateInvitationStatus(ctx context.Context, id string, status types.InvitationStatus) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateInvitationStatus")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("project_invitations").
		Set("status", status).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update invitation status: %w", err)
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

func (s *Storage) UpdateInvitationToken(ctx context.Context, id, token string) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateInvitationToken")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("project_invitations").
		Set("token", token).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update invitation token: %w", err)
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

func (s *Storage) DeleteInvitation(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteInvitation")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Delete("project_invitations").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	return nil
}

func (s *Storage) CountExpiredPending(ctx context.Context, now time.Time) (int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountExpiredPending")
	defer span.End()

	var count int
	err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("project_invitations").
		Where(sq.Eq{"status": types.InvitationPending}).
		Where(sq.Lt{"expires_at": now}).
		QueryRowContext(ctx).
		Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count expired invitations: %w", err)
	}

	return count, nil
}

// ExpirePending bulk-transitions pending invitations past their expiry to
// expired. Safe to run repeatedly; returns the number of rows transitioned.
func (s *Storage) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ExpirePending")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("project_invitations").
		Set("status", types.InvitationExpired).
		Where(sq.Eq{"status": types.InvitationPending}).
		Where(sq.Lt{"expires_at": now}).
		ExecContext(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return rows, nil
}

func (s *Storage) CountInvitationsByStatus(ctx context.Context, status types.InvitationStatus) (int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountInvitationsByStatus")
	defer span.End()

	var count int
	err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("project_invitations").
		Where(sq.Eq{"status": status}).
		QueryRowContext(ctx).
		Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count invitations: %w", err)
	}

	return count, nil
}
