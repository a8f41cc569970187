// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"time"

	"github.com/pulsewatch/pulsewatch/internal/types"
)

type StorageInterface interface {
	// Users
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	ListUsers(ctx context.Context) ([]*types.User, error)
	UpdateUser(ctx context.Context, u *types.User) error
	DeleteUser(ctx context.Context, id string) error

	// Plans
	GetPlanByID(ctx context.Context, id int64) (*types.Plan, error)
	ListPlans(ctx context.Context) ([]*types.Plan, error)
	CreatePlan(ctx context.Context, p *types.Plan) (*types.Plan, error)
	UpdatePlan(ctx context.Context, p *types.Plan) error
	DeletePlan(ctx context.Context, id int64) error

	// Project roles
	ListProjectRoles(ctx context.Context) ([]*types.ProjectRole, error)
	GetProjectRoleByID(ctx context.Context, id int64) (*types.ProjectRole, error)

	// Projects
	CreateProject(ctx context.Context, p *types.Project) (*types.Project, error)
	GetProjectByID(ctx context.Context, id string) (*types.Project, error)
	ListProjectsByUserID(ctx context.Context, userID string) ([]*types.Project, error)
	LatestOwnedProject(ctx context.Context, ownerID string) (*types.Project, error)
	CountOwnedProjects(ctx context.Context, ownerID string) (int, error)
	UpdateProject(ctx context.Context, p *types.Project) error
	UpdateProjectKeys(ctx context.Context, id, apiKey, encryptionKey string) error
	DeleteProject(ctx context.Context, id string) error
	CountProjects(ctx context.Context) (int, error)
	CountUsers(ctx context.Context) (int, error)

	// Memberships
	AddMember(ctx context.Context, projectID, userID string, roleID int64) error
	GetMembership(ctx context.Context, projectID, userID string) (*types.Membership, error)
	ListMembersByProjectID(ctx context.Context, projectID string) ([]*types.Member, error)
	CountMembersByProjectID(ctx context.Context, projectID string) (int, error)
	UpdateMemberRole(ctx context.Context, projectID, userID string, roleID int64) error
	RemoveMember(ctx context.Context, projectID, userID string) error

	// Invitations
	CreateInvitation(ctx context.Context, inv *types.Invitation) (*types.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*types.Invitation, error)
	GetInvitationByID(ctx context.Context, id string) (*types.Invitation, error)
	HasPendingInvitation(ctx context.Context, projectID, email string) (bool, error)
	ListPendingInvitationsByProjectID(ctx context.Context, projectID string) ([]*types.Invitation, error)
	UpdateInvitationStatus(ctx context.Context, id string, status types.InvitationStatus) error
	UpdateInvitationToken(ctx context.Context, id, token string) error
	DeleteInvitation(ctx context.Context, id string) error
	CountExpiredPending(ctx context.Context, now time.Time) (int, error)
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
	CountInvitationsByStatus(ctx context.Context, status types.InvitationStatus) (int, error)

	// Servers
	CreateServer(ctx context.Context, srv *types.Server) (*types.Server, error)
	GetServerByID(ctx context.Context, projectID, id string) (*types.Server, error)
	ListServersByProjectID(ctx context.Context, projectID string) ([]*types.Server, error)
	CountServersByProjectID(ctx context.Context, projectID string) (int, error)
	UpdateServer(ctx context.Context, srv *types.Server) error
	DeleteServer(ctx context.Context, projectID, id string) error
}
