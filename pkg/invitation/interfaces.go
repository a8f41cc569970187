// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"time"

	"github.com/pulsewatch/pulsewatch/internal/types"
)

//go:generate mockgen -package invitation -destination ./mock_storage.go -source=./interfaces.go StorageInterface
//go:generate mockgen -package invitation -destination ./mock_mailer.go github.com/pulsewatch/pulsewatch/internal/mail MailerInterface

type StorageInterface interface {
	GetProjectByID(ctx context.Context, id string) (*types.Project, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetPlanByID(ctx context.Context, id int64) (*types.Plan, error)
	GetProjectRoleByID(ctx context.Context, id int64) (*types.ProjectRole, error)

	GetMembership(ctx context.Context, projectID, userID string) (*types.Membership, error)
	AddMember(ctx context.Context, projectID, userID string, roleID int64) error
	CountMembersByProjectID(ctx context.Context, projectID string) (int, error)

	CreateInvitation(ctx context.Context, inv *types.Invitation) (*types.Invitation, error)
	GetInvitationByID(ctx context.Context, id string) (*types.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*types.Invitation, error)
	HasPendingInvitation(ctx context.Context, projectID, email string) (bool, error)
	ListPendingInvitationsByProjectID(ctx context.Context, projectID string) ([]*types.Invitation, error)
	UpdateInvitationStatus(ctx context.Context, id string, status types.InvitationStatus) error
	UpdateInvitationToken(ctx context.Context, id, token string) error
	DeleteInvitation(ctx context.Context, id string) error
	CountExpiredPending(ctx context.Context, now time.Time) (int, error)
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

type ServiceInterface interface {
	Issue(ctx context.Context, project *types.Project, inviter *types.User, email string, roleID int64) (*types.Invitation, error)
	Resend(ctx context.Context, project *types.Project, inviter *types.User, invitationID string) (*types.Invitation, error)
	Cancel(ctx context.Context, project *types.Project, invitationID string) error
	ListPending(ctx context.Context, projectID string) ([]*types.Invitation, error)
	Accept(ctx context.Context, token string, user *types.User) (*types.Project, error)
	CountExpiredPending(ctx context.Context) (int, error)
	SweepExpired(ctx context.Context) (int64, error)
}
