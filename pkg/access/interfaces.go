// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package access

import (
	"context"

	"github.com/pulsewatch/pulsewatch/internal/types"
)

//go:generate mockgen -package access -destination ./mock_storage.go -source=./interfaces.go StorageInterface

type StorageInterface interface {
	GetProjectByID(ctx context.Context, id string) (*types.Project, error)
	GetMembership(ctx context.Context, projectID, userID string) (*types.Membership, error)
}
