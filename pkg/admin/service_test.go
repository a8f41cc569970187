// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package admin

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
)

func newTestService(storage StorageInterface) *Service {
	return NewService(
		storage,
		tracing.NewNoopTracer(),
		monitoring.NewNoopMonitor(),
		logging.NewNoopLogger(),
	)
}

func TestService_Dashboard(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().CountUsers(gomock.Any()).Return(12, nil)
	mockStorage.EXPECT().CountProjects(gomock.Any()).Return(5, nil)
	mockStorage.EXPECT().CountInvitationsByStatus(gomock.Any(), types.InvitationPending).Return(3, nil)
	mockStorage.EXPECT().CountInvitationsByStatus(gomock.Any(), types.InvitationAccepted).Return(9, nil)
	mockStorage.EXPECT().CountInvitationsByStatus(gomock.Any(), types.InvitationExpired).Return(1, nil)

	s := newTestService(mockStorage)
	stats, err := s.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Users != 12 || stats.Projects != 5 || stats.PendingInvitations != 3 || stats.AcceptedInvitations != 9 || stats.ExpiredInvitations != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestService_UpdateUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().GetUserByID(gomock.Any(), "user-1").Return(&types.User{
		ID:         "user-1",
		GlobalRole: types.GlobalRoleUser,
		PlanID:     1,
		IsActive:   true,
	}, nil)
	mockStorage.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, u *types.User) error {
			if u.GlobalRole != types.GlobalRoleAdmin || u.PlanID != 3 || u.IsActive {
				t.Errorf("unexpected update payload: %+v", u)
			}
			return nil
		})

	s := newTestService(mockStorage)
	if _, err := s.UpdateUser(context.Background(), "user-1", types.GlobalRoleAdmin, 3, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mockStorage.EXPECT().GetUserByID(gomock.Any(), "ghost").Return(nil, storage.ErrNotFound)
	if _, err := s.UpdateUser(context.Background(), "ghost", types.GlobalRoleUser, 1, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_DeletePlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().DeletePlan(gomock.Any(), int64(2)).Return(storage.ErrForeignKeyViolation)

	s := newTestService(mockStorage)
	if err := s.DeletePlan(context.Background(), 2); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse for an assigned plan, got %v", err)
	}
}
