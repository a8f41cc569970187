// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package member

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/storage"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
	"github.com/pulsewatch/pulsewatch/pkg/access"
	"github.com/pulsewatch/pulsewatch/pkg/invitation"
)

func newTestService(storage StorageInterface, invitations invitation.ServiceInterface) *Service {
	return NewService(
		storage,
		invitations,
		tracing.NewNoopTracer(),
		monitoring.NewNoopMonitor(),
		logging.NewNoopLogger(),
	)
}

func TestService_List(t *testing.T) {
	project := &types.Project{ID: "project-1", OwnerID: "owner-1"}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().GetUserByID(gomock.Any(), "owner-1").Return(&types.User{
		ID:    "owner-1",
		Name:  "Olive",
		Email: "owner@example.com",
	}, nil)
	mockStorage.EXPECT().ListMembersByProjectID(gomock.Any(), "project-1").Return([]*types.Member{
		{UserID: "user-2", Name: "Devon", RoleID: access.RoleEngineer, RoleName: "Engineer"},
	}, nil)

	s := newTestService(mockStorage, invitation.NewMockServiceInterface(ctrl))
	members, err := s.List(context.Background(), project)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 effective members, got %d", len(members))
	}
	if !members[0].IsOwner || members[0].UserID != "owner-1" {
		t.Errorf("expected the owner first, got %+v", members[0])
	}
	if members[1].UserID != "user-2" || members[1].IsOwner {
		t.Errorf("unexpected second member: %+v", members[1])
	}
}

func TestService_Add(t *testing.T) {
	project := &types.Project{ID: "project-1", OwnerID: "owner-1"}
	actor := &types.User{ID: "owner-1", Email: "owner@example.com", PlanID: 2}

	testCases := []struct {
		name           string
		email          string
		roleID         int64
		setupMocks     func(*MockStorageInterface, *invitation.MockServiceInterface)
		expectedErr    error
		wantMember     bool
		wantInvitation bool
	}{
		{
			name:   "existing account becomes a member directly",
			email:  "dev@example.com",
			roleID: access.RoleDeveloper,
			setupMocks: func(mockStorage *MockStorageInterface, _ *invitation.MockServiceInterface) {
				mockStorage.EXPECT().GetUserByEmail(gomock.Any(), "dev@example.com").Return(&types.User{ID: "user-2", Name: "Devon", Email: "dev@example.com"}, nil)
				mockStorage.EXPECT().GetProjectRoleByID(gomock.Any(), access.RoleDeveloper).Return(&types.ProjectRole{ID: access.RoleDeveloper, Name: "Developer"}, nil)
				mockStorage.EXPECT().GetMembership(gomock.Any(), "project-1", "user-2").Return(nil, storage.ErrNotFound)
				mockStorage.EXPECT().GetUserByID(gomock.Any(), "owner-1").Return(actor, nil)
				mockStorage.EXPECT().GetPlanByID(gomock.Any(), int64(2)).Return(&types.Plan{ID: 2, MaxUsers: 10}, nil)
				mockStorage.EXPECT().CountMembersByProjectID(gomock.Any(), "project-1").Return(1, nil)
				mockStorage.EXPECT().AddMember(gomock.Any(), "project-1", "user-2", access.RoleDeveloper).Return(nil)
			},
			wantMember: true,
		},
		{
			name:   "unknown address is invited instead",
			email:  "new@example.com",
			roleID: access.RoleViewer,
			setupMocks: func(mockStorage *MockStorageInterface, mockInvitations *invitation.MockServiceInterface) {
				mockStorage.EXPECT().GetUserByEmail(gomock.Any(), "new@example.com").Return(nil, storage.ErrNotFound)
				mockInvitations.EXPECT().Issue(gomock.Any(), project, actor, "new@example.com", access.RoleViewer).Return(&types.Invitation{ID: "inv-1"}, nil)
			},
			wantInvitation: true,
		},
		{
			name:   "adding the owner",
			email:  "owner@example.com",
			roleID: access.RoleViewer,
			setupMocks: func(mockStorage *MockStorageInterface, _ *invitation.MockServiceInterface) {
				mockStorage.EXPECT().GetUserByEmail(gomock.Any(), "owner@example.com").Return(&types.User{ID: "owner-1"}, nil)
			},
			expectedErr: ErrOwnerImmutable,
		},
		{
			name:   "already a member",
			email:  "dev@example.com",
			roleID: access.RoleDeveloper,
			setupMocks: func(mockStorage *MockStorageInterface, _ *invitation.MockServiceInterface) {
				mockStorage.EXPECT().GetUserByEmail(gomock.Any(), "dev@example.com").Return(&types.User{ID: "user-2"}, nil)
				mockStorage.EXPECT().GetProjectRoleByID(gomock.Any(), access.RoleDeveloper).Return(&types.ProjectRole{ID: access.RoleDeveloper}, nil)
				mockStorage.EXPECT().GetMembership(gomock.Any(), "project-1", "user-2").Return(&types.Membership{}, nil)
			},
			expectedErr: ErrAlreadyMember,
		},
		{
			name:   "owner role cannot be granted",
			email:  "dev@example.com",
			roleID: access.RoleOwner,
			setupMocks: func(mockStorage *MockStorageInterface, _ *invitation.MockServiceInterface) {
				mockStorage.EXPECT().GetUserByEmail(gomock.Any(), "dev@example.com").Return(&types.User{ID: "user-2"}, nil)
			},
			expectedErr: ErrInvalidRole,
		},
		{
			name:   "plan seat limit reached",
			email:  "dev@example.com",
			roleID: access.RoleDeveloper,
			setupMocks: func(mockStorage *MockStorageInterface, _ *invitation.MockServiceInterface) {
				mockStorage.EXPECT().GetUserByEmail(gomock.Any(), "dev@example.com").Return(&types.User{ID: "user-2"}, nil)
				mockStorage.EXPECT().GetProjectRoleByID(gomock.Any(), access.RoleDeveloper).Return(&types.ProjectRole{ID: access.RoleDeveloper}, nil)
				mockStorage.EXPECT().GetMembership(gomock.Any(), "project-1", "user-2").Return(nil, storage.ErrNotFound)
				mockStorage.EXPECT().GetUserByID(gomock.Any(), "owner-1").Return(actor, nil)
				mockStorage.EXPECT().GetPlanByID(gomock.Any(), int64(2)).Return(&types.Plan{ID: 2, MaxUsers: 2}, nil)
				mockStorage.EXPECT().CountMembersByProjectID(gomock.Any(), "project-1").Return(1, nil)
			},
			expectedErr: ErrLimitReached,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockInvitations := invitation.NewMockServiceInterface(ctrl)
			tc.setupMocks(mockStorage, mockInvitations)

			s := newTestService(mockStorage, mockInvitations)
			result, err := s.Add(context.Background(), project, actor, tc.email, tc.roleID)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantMember && result.Member == nil {
				t.Fatalf("expected a direct membership, got %+v", result)
			}
			if tc.wantInvitation && result.Invitation == nil {
				t.Fatalf("expected an invitation, got %+v", result)
			}
		})
	}
}

func TestService_UpdateRole(t *testing.T) {
	project := &types.Project{ID: "project-1", OwnerID: "owner-1"}

	testCases := []struct {
		name        string
		userID      string
		roleID      int64
		setupMocks  func(*MockStorageInterface)
		expectedErr error
	}{
		{
			name:   "success",
			userID: "user-2",
			roleID: access.RoleAdmin,
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetProjectRoleByID(gomock.Any(), access.RoleAdmin).Return(&types.ProjectRole{ID: access.RoleAdmin}, nil)
				mockStorage.EXPECT().UpdateMemberRole(gomock.Any(), "project-1", "user-2", access.RoleAdmin).Return(nil)
			},
		},
		{
			name:        "owner role change is refused",
			userID:      "owner-1",
			roleID:      access.RoleViewer,
			setupMocks:  func(*MockStorageInterface) {},
			expectedErr: ErrOwnerImmutable,
		},
		{
			name:   "unknown member",
			userID: "ghost",
			roleID: access.RoleViewer,
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetProjectRoleByID(gomock.Any(), access.RoleViewer).Return(&types.ProjectRole{ID: access.RoleViewer}, nil)
				mockStorage.EXPECT().UpdateMemberRole(gomock.Any(), "project-1", "ghost", access.RoleViewer).Return(storage.ErrNotFound)
			},
			expectedErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			tc.setupMocks(mockStorage)

			s := newTestService(mockStorage, invitation.NewMockServiceInterface(ctrl))
			err := s.UpdateRole(context.Background(), project, tc.userID, tc.roleID)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_Remove(t *testing.T) {
	project := &types.Project{ID: "project-1", OwnerID: "owner-1"}

	testCases := []struct {
		name        string
		userID      string
		setupMocks  func(*MockStorageInterface)
		expectedErr error
	}{
		{
			name:   "success",
			userID: "user-2",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().RemoveMember(gomock.Any(), "project-1", "user-2").Return(nil)
			},
		},
		{
			name:        "owner removal is refused",
			userID:      "owner-1",
			setupMocks:  func(*MockStorageInterface) {},
			expectedErr: ErrOwnerImmutable,
		},
		{
			name:   "unknown member",
			userID: "ghost",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().RemoveMember(gomock.Any(), "project-1", "ghost").Return(storage.ErrNotFound)
			},
			expectedErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			tc.setupMocks(mockStorage)

			s := newTestService(mockStorage, invitation.NewMockServiceInterface(ctrl))
			err := s.Remove(context.Background(), project, tc.userID)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
