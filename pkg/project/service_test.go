// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package project

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
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

func TestService_Create(t *testing.T) {
	owner := &types.User{ID: "owner-1", PlanID: 1}

	testCases := []struct {
		name        string
		projectName string
		setupMocks  func(*MockStorageInterface)
		expectedErr error
	}{
		{
			name:        "success",
			projectName: "  Checkout  ",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetPlanByID(gomock.Any(), int64(1)).Return(&types.Plan{ID: 1, MaxProjects: 1}, nil)
				mockStorage.EXPECT().CountOwnedProjects(gomock.Any(), "owner-1").Return(0, nil)
				mockStorage.EXPECT().CreateProject(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, p *types.Project) (*types.Project, error) {
						if p.Name != "Checkout" {
							t.Errorf("expected trimmed name, got %q", p.Name)
						}
						if !strings.HasPrefix(p.APIKey, "pw_") {
							t.Errorf("expected pw_ api key, got %q", p.APIKey)
						}
						if len(p.EncryptionKey) != 64 {
							t.Errorf("expected 32-byte hex encryption key, got %d chars", len(p.EncryptionKey))
						}
						if p.ID == "" {
							t.Error("expected a generated project id")
						}
						return p, nil
					})
			},
		},
		{
			name:        "plan project limit reached",
			projectName: "Checkout",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetPlanByID(gomock.Any(), int64(1)).Return(&types.Plan{ID: 1, MaxProjects: 1}, nil)
				mockStorage.EXPECT().CountOwnedProjects(gomock.Any(), "owner-1").Return(1, nil)
			},
			expectedErr: ErrLimitReached,
		},
		{
			name:        "unlimited plan skips the count",
			projectName: "Checkout",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetPlanByID(gomock.Any(), int64(1)).Return(&types.Plan{ID: 1, MaxProjects: -1}, nil)
				mockStorage.EXPECT().CreateProject(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, p *types.Project) (*types.Project, error) {
						return p, nil
					})
			},
		},
		{
			name:        "blank name",
			projectName: "   ",
			setupMocks:  func(*MockStorageInterface) {},
			expectedErr: ErrInvalidInput,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			tc.setupMocks(mockStorage)

			s := newTestService(mockStorage)
			created, err := s.Create(context.Background(), owner, tc.projectName, "desc")

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if created.OwnerID != "owner-1" {
				t.Fatalf("unexpected owner: %+v", created)
			}
		})
	}
}

func TestService_RotateKeys(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	project := &types.Project{ID: "project-1", APIKey: "pw_old", EncryptionKey: "old"}

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().UpdateProjectKeys(gomock.Any(), "project-1", gomock.Not("pw_old"), gomock.Not("old")).Return(nil)

	s := newTestService(mockStorage)
	updated, err := s.RotateKeys(context.Background(), project)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.APIKey == "pw_old" || updated.EncryptionKey == "old" {
		t.Fatalf("expected fresh credentials, got %+v", updated)
	}
	if !strings.HasPrefix(updated.APIKey, "pw_") {
		t.Fatalf("expected pw_ prefix, got %q", updated.APIKey)
	}
}

func TestService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	project := &types.Project{ID: "project-1", Name: "Old"}

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().UpdateProject(gomock.Any(), gomock.Any()).Return(nil)

	s := newTestService(mockStorage)
	updated, err := s.Update(context.Background(), project, "New name", "new desc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "New name" || updated.Description != "new desc" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := s.Update(context.Background(), project, "  ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
}
