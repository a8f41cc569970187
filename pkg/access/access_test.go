// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package access_test

import (
	"testing"

	"github.com/pulsewatch/pulsewatch/internal/types"
	"github.com/pulsewatch/pulsewatch/pkg/access"
)

func TestResolveAccess(t *testing.T) {
	project := &types.Project{ID: "project-1", OwnerID: "owner-1"}

	tests := []struct {
		name       string
		userID     string
		membership *types.Membership
		want       access.Level
	}{
		{
			name:   "owner outranks everything",
			userID: "owner-1",
			// An owner with a stray viewer membership row still resolves
			// to owner.
			membership: &types.Membership{ProjectID: "project-1", UserID: "owner-1", RoleID: access.RoleViewer},
			want:       access.LevelOwner,
		},
		{
			name:       "no membership means no access",
			userID:     "stranger",
			membership: nil,
			want:       access.LevelDenied,
		},
		{
			name:       "admin membership",
			userID:     "user-2",
			membership: &types.Membership{ProjectID: "project-1", UserID: "user-2", RoleID: access.RoleAdmin},
			want:       access.LevelAdmin,
		},
		{
			name:       "owner role membership caps at admin",
			userID:     "user-3",
			membership: &types.Membership{ProjectID: "project-1", UserID: "user-3", RoleID: access.RoleOwner},
			want:       access.LevelAdmin,
		},
		{
			name:       "engineer membership",
			userID:     "user-4",
			membership: &types.Membership{ProjectID: "project-1", UserID: "user-4", RoleID: access.RoleEngineer},
			want:       access.LevelEngineer,
		},
		{
			name:       "developer membership",
			userID:     "user-5",
			membership: &types.Membership{ProjectID: "project-1", UserID: "user-5", RoleID: access.RoleDeveloper},
			want:       access.LevelDeveloper,
		},
		{
			name:       "viewer membership",
			userID:     "user-6",
			membership: &types.Membership{ProjectID: "project-1", UserID: "user-6", RoleID: access.RoleViewer},
			want:       access.LevelViewer,
		},
		{
			name:       "unknown role id resolves to denied",
			userID:     "user-7",
			membership: &types.Membership{ProjectID: "project-1", UserID: "user-7", RoleID: 42},
			want:       access.LevelDenied,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := access.ResolveAccess(test.userID, project, test.membership)
			if got != test.want {
				t.Fatalf("expected level %v, got %v", test.want, got)
			}
		})
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		level            access.Level
		canView          bool
		canManageMembers bool
		canManageServers bool
	}{
		{access.LevelDenied, false, false, false},
		{access.LevelViewer, true, false, false},
		{access.LevelDeveloper, true, false, false},
		{access.LevelEngineer, true, false, true},
		{access.LevelAdmin, true, false, true},
		{access.LevelOwner, true, true, true},
	}

	for _, test := range tests {
		t.Run(test.level.String(), func(t *testing.T) {
			if got := test.level.CanViewProject(); got != test.canView {
				t.Errorf("CanViewProject: expected %v, got %v", test.canView, got)
			}
			if got := test.level.CanManageMembers(); got != test.canManageMembers {
				t.Errorf("CanManageMembers: expected %v, got %v", test.canManageMembers, got)
			}
			if got := test.level.CanManageServers(); got != test.canManageServers {
				t.Errorf("CanManageServers: expected %v, got %v", test.canManageServers, got)
			}
			// Settings and deletion follow member management: owner only.
			if got := test.level.CanManageSettings(); got != test.canManageMembers {
				t.Errorf("CanManageSettings: expected %v, got %v", test.canManageMembers, got)
			}
			if got := test.level.CanDeleteProject(); got != test.canManageMembers {
				t.Errorf("CanDeleteProject: expected %v, got %v", test.canManageMembers, got)
			}
		})
	}
}
