// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"

	"github.com/pulsewatch/pulsewatch/internal/types"
)

//go:generate mockgen -package authentication -destination ./mock_storage.go -source=./interfaces.go StorageInterface

// StorageInterface is the subset of internal/storage this package needs.
type StorageInterface interface {
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
}

type ServiceInterface interface {
	Register(ctx context.Context, name, email, password string) (*types.User, error)
	Login(ctx context.Context, email, password string) (*types.User, error)
}
