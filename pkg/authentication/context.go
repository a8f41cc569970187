// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"

	"github.com/pulsewatch/pulsewatch/internal/types"
)

// Define a private custom type to avoid collisions
type contextKey struct{}

var userContextKey = contextKey{}

// WithUser returns a new context carrying the authenticated user.
func WithUser(ctx context.Context, u *types.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext retrieves the authenticated user from the context, or nil
// when the request is anonymous.
func UserFromContext(ctx context.Context) *types.User {
	u, _ := ctx.Value(userContextKey).(*types.User)
	return u
}
