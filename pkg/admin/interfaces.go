// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package admin

import (
	"context"

	"github.com/pulsewatch/pulsewatch/internal/types"
)

//go:generate mockgen -package admin -destination ./mock_storage.go -source=./interfaces.go StorageInterface

type StorageInterface interface {
	CountUsers(ctx context.Context) (int, error)
	CountProjects(ctx context.Context) (int, error)
	CountInvitationsByStatus(ctx context.Context, status types.InvitationStatus) (int, error)

	ListUsers(ctx context.Context) ([]*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	UpdateUser(ctx context.Context, u *types.User) error
	DeleteUser(ctx context.Context, id string) error

	ListPlans(ctx context.Context) ([]*types.Plan, error)
	CreatePlan(ctx context.Context, p *types.Plan) (*types.Plan, error)
	UpdatePlan(ctx context.Context, p *types.Plan) error
	DeletePlan(ctx context.Context, id int64) error

	ListProjectRoles(ctx context.Context) ([]*types.ProjectRole, error)
}

// DashboardStats is the admin landing summary.
type DashboardStats struct {
	Users               int `json:"users"`
	Projects            int `json:"projects"`
	PendingInvitations  int `json:"pending_invitations"`
	AcceptedInvitations int `json:"accepted_invitations"`
	ExpiredInvitations  int `json:"expired_invitations"`
}

type ServiceInterface interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
	ListUsers(ctx context.Context) ([]*types.User, error)
	UpdateUser(ctx context.Context, id string, globalRole types.GlobalRole, planID int64, isActive bool) (*types.User, error)
	DeleteUser(ctx context.Context, id string) error
	ListPlans(ctx context.Context) ([]*types.Plan, error)
	CreatePlan(ctx context.Context, p *types.Plan) (*types.Plan, error)
	UpdatePlan(ctx context.Context, p *types.Plan) error
	DeletePlan(ctx context.Context, id int64) error
	ListProjectRoles(ctx context.Context) ([]*types.ProjectRole, error)
}
