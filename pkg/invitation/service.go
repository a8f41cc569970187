// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

// Package invitation implements the project invitation lifecycle: issuing,
// resending, cancelling and accepting invitations, plus the expiry sweep.
package invitation

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pulsewatch/pulsewatch/internal/db"
	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/mail"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/storage"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
	"github.com/pulsewatch/pulsewatch/pkg/access"
)

var (
	ErrInvalidInput   = errors.New("invalid invitation input")
	ErrInvalidRole    = errors.New("invalid project role for invitation")
	ErrSelfInvite     = errors.New("cannot invite the project owner")
	ErrAlreadyMember  = errors.New("user is already a project member")
	ErrConflict       = errors.New("a pending invitation already exists for this email")
	ErrLimitReached   = errors.New("plan user limit reached")
	ErrInvalidToken   = errors.New("invitation is invalid or has already been used")
	ErrExpired        = errors.New("invitation has expired")
	ErrNotFound       = errors.New("invitation not found")
	ErrDeliveryFailed = errors.New("failed to deliver invitation email")
)

// EmailMismatchError is returned from Accept when the authenticated user is
// not the invitee. It carries the invited address so the caller can tell the
// user which account to sign in with.
type EmailMismatchError struct {
	InvitedEmail string
}

func (e *EmailMismatchError) Error() string {
	return fmt.Sprintf("invitation was issued to %s", e.InvitedEmail)
}

type Service struct {
	storage  StorageInterface
	dbClient db.DBClientInterface
	mailer   mail.MailerInterface
	lifetime time.Duration

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface

	now func() time.Time
}

func NewService(storage StorageInterface, dbClient db.DBClientInterface, mailer mail.MailerInterface, lifetime time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	return &Service{
		storage:  storage,
		dbClient: dbClient,
		mailer:   mailer,
		lifetime: lifetime,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
		now:      time.Now,
	}
}

// Issue creates a pending invitation and emails it to the invitee. Delivery
// is part of the operation: if the email cannot be sent the invitation is
// removed again so a failed issue leaves no trace.
func (s *Service) Issue(ctx context.Context, project *types.Project, inviter *types.User, email string, roleID int64) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.Issue")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInvalidInput
	}
	if roleID == access.RoleOwner {
		return nil, ErrInvalidRole
	}

	role, err := s.storage.GetProjectRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidRole
		}
		return nil, err
	}

	owner, err := s.storage.GetUserByID(ctx, project.OwnerID)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(owner.Email, email) {
		return nil, ErrSelfInvite
	}

	// An existing account with this address must not already be a member.
	invitee, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if invitee != nil {
		if _, err := s.storage.GetMembership(ctx, project.ID, invitee.ID); err == nil {
			return nil, ErrAlreadyMember
		} else if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}

	pending, err := s.storage.HasPendingInvitation(ctx, project.ID, email)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrConflict
	}

	if err := s.checkUserLimit(ctx, owner, project); err != nil {
		return nil, err
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	created, err := s.storage.CreateInvitation(ctx, &types.Invitation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ProjectID: project.ID,
		Email:     email,
		RoleID:    roleID,
		Token:     token,
		Status:    types.InvitationPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.lifetime),
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrConflict
		}
		return nil, err
	}

	if err := s.mailer.SendProjectInvitation(ctx, project, created, inviter, role.Name); err != nil {
		s.logger.Errorf("invitation delivery failed for %s on project %s: %v", email, project.ID, err)
		if delErr := s.storage.DeleteInvitation(ctx, created.ID); delErr != nil {
			s.logger.Errorf("failed to remove undelivered invitation %s: %v", created.ID, delErr)
		}
		return nil, ErrDeliveryFailed
	}

	s.logger.Infof("invitation %s issued for %s on project %s", created.ID, email, project.ID)
	return created, nil
}

// Resend regenerates the invitation token and sends a fresh email. The
// expiry window is not extended; resending a stale invitation does not
// revive it.
func (s *Service) Resend(ctx context.Context, project *types.Project, inviter *types.User, invitationID string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.Resend")
	defer span.End()

	inv, err := s.getProjectInvitation(ctx, project, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.Status != types.InvitationPending {
		return nil, ErrInvalidToken
	}
	if !s.now().Before(inv.ExpiresAt) {
		return nil, ErrExpired
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	if err := s.storage.UpdateInvitationToken(ctx, inv.ID, token); err != nil {
		return nil, err
	}
	inv.Token = token

	role, err := s.storage.GetProjectRoleByID(ctx, inv.RoleID)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendProjectInvitation(ctx, project, inv, inviter, role.Name); err != nil {
		return nil, ErrDeliveryFailed
	}

	return inv, nil
}

// Cancel removes a pending invitation. Accepted and expired invitations are
// kept for the record.
func (s *Service) Cancel(ctx context.Context, project *types.Project, invitationID string) error {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.Cancel")
	defer span.End()

	inv, err := s.getProjectInvitation(ctx, project, invitationID)
	if err != nil {
		return err
	}
	if inv.Status != types.InvitationPending {
		return ErrInvalidToken
	}
	return s.storage.DeleteInvitation(ctx, inv.ID)
}

func (s *Service) ListPending(ctx context.Context, projectID string) ([]*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.ListPending")
	defer span.End()

	return s.storage.ListPendingInvitationsByProjectID(ctx, projectID)
}

// Accept redeems an invitation token for the authenticated user. The
// membership insert and the status flip happen in one transaction. Accepting
// a project the user already belongs to succeeds without a second membership
// row.
func (s *Service) Accept(ctx context.Context, token string, user *types.User) (*types.Project, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.Accept")
	defer span.End()

	inv, err := s.storage.GetInvitationByToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if inv.Status != types.InvitationPending {
		return nil, ErrInvalidToken
	}

	if !s.now().Before(inv.ExpiresAt) {
		// Mark it on first touch so the pending list stays honest even
		// between sweeps.
		if err := s.storage.UpdateInvitationStatus(ctx, inv.ID, types.InvitationExpired); err != nil {
			s.logger.Errorf("failed to mark invitation %s expired: %v", inv.ID, err)
		}
		return nil, ErrExpired
	}

	if !strings.EqualFold(user.Email, inv.Email) {
		return nil, &EmailMismatchError{InvitedEmail: inv.Email}
	}

	project, err := s.storage.GetProjectByID(ctx, inv.ProjectID)
	if err != nil {
		return nil, err
	}

	if project.OwnerID == user.ID {
		if err := s.storage.UpdateInvitationStatus(ctx, inv.ID, types.InvitationAccepted); err != nil {
			return nil, err
		}
		return project, nil
	}

	if _, err := s.storage.GetMembership(ctx, project.ID, user.ID); err == nil {
		if err := s.storage.UpdateInvitationStatus(ctx, inv.ID, types.InvitationAccepted); err != nil {
			return nil, err
		}
		return project, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	err = s.dbClient.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.storage.AddMember(txCtx, project.ID, user.ID, inv.RoleID); err != nil {
			return err
		}
		return s.storage.UpdateInvitationStatus(txCtx, inv.ID, types.InvitationAccepted)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("user %s joined project %s via invitation %s", user.ID, project.ID, inv.ID)
	return project, nil
}

func (s *Service) CountExpiredPending(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.CountExpiredPending")
	defer span.End()

	return s.storage.CountExpiredPending(ctx, s.now())
}

// SweepExpired flips every stale pending invitation to expired and reports
// how many rows changed.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.SweepExpired")
	defer span.End()

	count, err := s.storage.ExpirePending(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Infof("marked %d invitations as expired", count)
	}
	return count, nil
}

func (s *Service) getProjectInvitation(ctx context.Context, project *types.Project, invitationID string) (*types.Invitation, error) {
	inv, err := s.storage.GetInvitationByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if inv.ProjectID != project.ID {
		return nil, ErrNotFound
	}
	return inv, nil
}

// checkUserLimit enforces the owner's plan seat limit: the owner plus current
// members plus outstanding invitations must stay within max_users.
func (s *Service) checkUserLimit(ctx context.Context, owner *types.User, project *types.Project) error {
	plan, err := s.storage.GetPlanByID(ctx, owner.PlanID)
	if err != nil {
		return err
	}
	if plan.MaxUsers < 0 {
		return nil
	}

	members, err := s.storage.CountMembersByProjectID(ctx, project.ID)
	if err != nil {
		return err
	}
	pending, err := s.storage.ListPendingInvitationsByProjectID(ctx, project.ID)
	if err != nil {
		return err
	}
	if 1+members+len(pending) >= plan.MaxUsers {
		return ErrLimitReached
	}
	return nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
