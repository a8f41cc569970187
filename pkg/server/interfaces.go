// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package server

import (
	"context"

	"github.com/pulsewatch/pulsewatch/internal/types"
)

//go:generate mockgen -package server -destination ./mock_storage.go -source=./interfaces.go StorageInterface

type StorageInterface interface {
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetPlanByID(ctx context.Context, id int64) (*types.Plan, error)

	CreateServer(ctx context.Context, srv *types.Server) (*types.Server, error)
	GetServerByID(ctx context.Context, projectID, id string) (*types.Server, error)
	ListServersByProjectID(ctx context.Context, projectID string) ([]*types.Server, error)
	CountServersByProjectID(ctx context.Context, projectID string) (int, error)
	UpdateServer(ctx context.Context, srv *types.Server) error
	DeleteServer(ctx context.Context, projectID, id string) error
}

// UpdateParams carries the mutable server fields.
type UpdateParams struct {
	Name        string `json:"name"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

type ServiceInterface interface {
	Create(ctx context.Context, project *types.Project, name, host string, port int, description string) (*types.Server, error)
	Get(ctx context.Context, project *types.Project, serverID string) (*types.Server, error)
	List(ctx context.Context, projectID string) ([]*types.Server, error)
	Update(ctx context.Context, project *types.Project, serverID string, params UpdateParams) (*types.Server, error)
	Delete(ctx context.Context, project *types.Project, serverID string) error
}
