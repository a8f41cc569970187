// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package member

import (
	"context"

	"github.com/pulsewatch/pulsewatch/internal/types"
)

//go:generate mockgen -package member -destination ./mock_storage.go -source=./interfaces.go StorageInterface

type StorageInterface interface {
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetPlanByID(ctx context.Context, id int64) (*types.Plan, error)
	GetProjectRoleByID(ctx context.Context, id int64) (*types.ProjectRole, error)

	GetMembership(ctx context.Context, projectID, userID string) (*types.Membership, error)
	AddMember(ctx context.Context, projectID, userID string, roleID int64) error
	ListMembersByProjectID(ctx context.Context, projectID string) ([]*types.Member, error)
	CountMembersByProjectID(ctx context.Context, projectID string) (int, error)
	UpdateMemberRole(ctx context.Context, projectID, userID string, roleID int64) error
	RemoveMember(ctx context.Context, projectID, userID string) error
}

// AddResult reports how Add resolved: an immediate membership for an existing
// account, or an invitation for an address without one.
type AddResult struct {
	Member     *types.Member     `json:"member,omitempty"`
	Invitation *types.Invitation `json:"invitation,omitempty"`
}

type ServiceInterface interface {
	List(ctx context.Context, project *types.Project) ([]*types.Member, error)
	Add(ctx context.Context, project *types.Project, actor *types.User, email string, roleID int64) (*AddResult, error)
	UpdateRole(ctx context.Context, project *types.Project, userID string, roleID int64) error
	Remove(ctx context.Context, project *types.Project, userID string) error
}
