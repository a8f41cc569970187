// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package project

import (
	"context"

	"github.com/pulsewatch/pulsewatch/internal/types"
)

//go:generate mockgen -package project -destination ./mock_storage.go -source=./interfaces.go StorageInterface

type StorageInterface interface {
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetPlanByID(ctx context.Context, id int64) (*types.Plan, error)

	CreateProject(ctx context.Context, p *types.Project) (*types.Project, error)
	ListProjectsByUserID(ctx context.Context, userID string) ([]*types.Project, error)
	LatestOwnedProject(ctx context.Context, ownerID string) (*types.Project, error)
	CountOwnedProjects(ctx context.Context, ownerID string) (int, error)
	UpdateProject(ctx context.Context, p *types.Project) error
	UpdateProjectKeys(ctx context.Context, id, apiKey, encryptionKey string) error
	DeleteProject(ctx context.Context, id string) error
}

type ServiceInterface interface {
	Create(ctx context.Context, owner *types.User, name, description string) (*types.Project, error)
	List(ctx context.Context, userID string) ([]*types.Project, error)
	Update(ctx context.Context, project *types.Project, name, description string) (*types.Project, error)
	RotateKeys(ctx context.Context, project *types.Project) (*types.Project, error)
	Delete(ctx context.Context, project *types.Project) error
	LatestOwned(ctx context.Context, ownerID string) (*types.Project, error)
}
