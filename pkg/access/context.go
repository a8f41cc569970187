// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package access

import (
	"context"

	"github.com/pulsewatch/pulsewatch/internal/types"
)

type projectContextKey struct{}
type levelContextKey struct{}

var projectKey projectContextKey
var levelKey levelContextKey

// ContextWithProject stores the resolved project and the caller's capability
// tier so downstream handlers never re-fetch or re-validate.
func ContextWithProject(ctx context.Context, p *types.Project, l Level) context.Context {
	ctx = context.WithValue(ctx, projectKey, p)
	return context.WithValue(ctx, levelKey, l)
}

func ProjectFromContext(ctx context.Context) *types.Project {
	p, _ := ctx.Value(projectKey).(*types.Project)
	return p
}

func LevelFromContext(ctx context.Context) Level {
	if l, ok := ctx.Value(levelKey).(Level); ok {
		return l
	}
	return LevelDenied
}
