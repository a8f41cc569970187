// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

// Package access holds the project permission model: the mapping from
// ownership and membership roles to capability tiers, and the middleware
// that enforces it on project-scoped routes.
package access

import (
	"github.com/pulsewatch/pulsewatch/internal/types"
)

// Level is a project capability tier. Ordering matters: higher levels include
// every capability of the levels below them.
type Level int

const (
	LevelDenied Level = iota
	LevelViewer
	LevelDeveloper
	LevelEngineer
	LevelAdmin
	LevelOwner
)

// Project role ids as seeded in the project_roles table.
const (
	RoleOwner     int64 = 1
	RoleAdmin     int64 = 2
	RoleEngineer  int64 = 3
	RoleDeveloper int64 = 4
	RoleViewer    int64 = 5
)

func (l Level) String() string {
	switch l {
	case LevelOwner:
		return "owner"
	case LevelAdmin:
		return "admin"
	case LevelEngineer:
		return "engineer"
	case LevelDeveloper:
		return "developer"
	case LevelViewer:
		return "viewer"
	default:
		return "denied"
	}
}

// ResolveAccess determines the capability tier of a user on a project.
// Ownership is checked first; the owner never has a membership row. A nil
// membership for a non-owner means no access at all.
func ResolveAccess(userID string, project *types.Project, membership *types.Membership) Level {
	if project.OwnerID == userID {
		return LevelOwner
	}
	if membership == nil {
		return LevelDenied
	}

	switch membership.RoleID {
	case RoleOwner, RoleAdmin:
		// A role-1 membership is owner-equivalent for day-to-day
		// administration but never unlocks the owner-only capabilities.
		return LevelAdmin
	case RoleEngineer:
		return LevelEngineer
	case RoleDeveloper:
		return LevelDeveloper
	case RoleViewer:
		return LevelViewer
	default:
		return LevelDenied
	}
}

func (l Level) CanViewProject() bool {
	return l > LevelDenied
}

// Owner-only capabilities. Membership management, settings and deletion are
// reserved for the actual project owner.
func (l Level) CanManageMembers() bool  { return l == LevelOwner }
func (l Level) CanManageSettings() bool { return l == LevelOwner }
func (l Level) CanDeleteProject() bool  { return l == LevelOwner }

func (l Level) CanManageServers() bool {
	return l >= LevelEngineer
}

func (l Level) CanViewServers() bool {
	return l > LevelDenied
}
