// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"errors"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/mock/gomock"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/storage"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
	"github.com/pulsewatch/pulsewatch/pkg/access"
)

// fakeDBClient runs transaction bodies inline.
type fakeDBClient struct {
	txErr error
}

func (f *fakeDBClient) Statement(ctx context.Context) sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func (f *fakeDBClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if f.txErr != nil {
		return f.txErr
	}
	return fn(ctx)
}

func (f *fakeDBClient) Close() {}

func newTestService(storage StorageInterface, mailer *MockMailerInterface, now time.Time) *Service {
	s := NewService(
		storage,
		&fakeDBClient{},
		mailer,
		7*24*time.Hour,
		tracing.NewNoopTracer(),
		monitoring.NewNoopMonitor(),
		logging.NewNoopLogger(),
	)
	s.now = func() time.Time { return now }
	return s
}

func TestService_Issue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	project := &types.Project{ID: "project-1", Name: "Checkout", OwnerID: "owner-1"}
	inviter := &types.User{ID: "owner-1", Email: "owner@example.com", PlanID: 2}
	owner := &types.User{ID: "owner-1", Email: "owner@example.com", PlanID: 2}
	role := &types.ProjectRole{ID: access.RoleEngineer, Name: "Engineer"}
	proPlan := &types.Plan{ID: 2, Name: "Pro", MaxUsers: 10}

	testCases := []struct {
		name        string
		email       string
		roleID      int64
		setupMocks  func(*MockStorageInterface, *MockMailerInterface)
		expectedErr error
	}{
		{
			name:   "success",
			email:  "Dev@Example.com",
			roleID: access.RoleEngineer,
			setupMocks: func(mockStorage *MockStorageInterface, mockMailer *MockMailerInterface) {
				mockStorage.EXPECT().GetProjectRoleByID(gomock.Any(), access.RoleEngineer).Return(role, nil)
				mockStorage.EXPECT().GetUserByID(gomock.Any(), "owner-1").Return(owner, nil)
				mockStorage.EXPECT().GetUserByEmail(gomock.Any(), "dev@example.com").Return(nil, storage.ErrNotFound)
				mockStorage.EXPECT().HasPendingInvitation(gomock.Any(), "project-1", "dev@example.com").Return(false, nil)
				mockStorage.EXPECT().GetPlanByID(gomock.Any(), int64(2)).Return(proPlan, nil)
				mockStorage.EXPECT().CountMembersByProjectID(gomock.Any(), "project-1").Return(2, nil)
				mockStorage.EXPECT().ListPendingInvitationsByProjectID(gomock.Any(), "project-1").Return(nil, nil)
				mockStorage.EXPECT().CreateInvitation(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, inv *types.Invitation) (*types.Invitation, error) {
						if inv.Email != "dev@example.com" {
							t.Errorf("expected normalized email, got %s", inv.Email)
						}
						if inv.ID == "" {
							t.Error("expected the service to assign the ID")
						}
						if !inv.CreatedAt.Equal(now) {
							t.Errorf("expected created_at %v, got %v", now, inv.CreatedAt)
						}
						if inv.Status != types.InvitationPending {
							t.Errorf("expected pending status, got %s", inv.Status)
						}
						if !inv.ExpiresAt.Equal(now.Add(7 * 24 * time.Hour)) {
							t.Errorf("unexpected expiry %v", inv.ExpiresAt)
						}
						if inv.Token == "" {
							t.Error("expected a token to be generated")
						}
						return inv, nil
					})
				mockMailer.EXPECT().SendProjectInvitation(gomock.Any(), project, gomock.Any(), inviter, "Engineer").Return(nil)
			},
		},
		{
			name:        "owner role is not invitable",
			email:       "dev@example.com",
			roleID:      access.RoleOwner,
			setupMocks:  func(*MockStorageInterface, *MockMailerInterface) {},
			expectedErr: ErrInvalidRole,
		},
		{
			name:   "unknown role",
			email:  "dev@example.com",
			roleID: 42,
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockMailerInterface) {
				mockStorage.EXPECT().GetProjectRoleByID(gomock.Any(), int64(42)).Return(nil, storage.ErrNotFound)
			},
			expectedErr: ErrInvalidRole,
		},
		{
			name:   "inviting the owner",
			email:  "owner@example.com",
			roleID: access.RoleEngineer,
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockMailerInterface) {
				mockStorage.EXPECT().GetProjectRoleByID(gomock.Any(), access.RoleEngineer).Return(role, nil)
				mockStorage.EXPECT().GetUserByID(gomock.Any(), "owner-1").Return(owner, nil)
			},
			expectedErr: ErrSelfInvite,
		},
		{
			name:   "invitee is already a member",
			email:  "dev@example.com",
			roleID: access.RoleEngineer,
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockMailerInterface) {
				mockStorage.EXPECT().GetProjectRoleByID(gomock.Any(), access.RoleEngineer).Return(role, nil)
				mockStorage.EXPECT().GetUserByID(gomock.Any(), "owner-1").Return(owner, nil)
				mockStorage.EXPECT().GetUserByEmail(gomock.Any(), "dev@example.com").Return(&types.User{ID: "user-2"}, nil)
				mockStorage.EXPECT().GetMembership(gomock.Any(), "project-1", "user-2").Return(&types.Membership{}, nil)
			},
			expectedErr: ErrAlreadyMember,
		},
		{
			name:   "pending invitation already exists",
			email:  "dev@example.com",
			roleID: access.RoleEngineer,
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockMailerInterface) {
				mockStorage.EXPECT().GetProjectRoleByID(gomock.Any(), access.RoleEngineer).Return(role, nil)
				mockStorage.EXPECT().GetUserByID(gomock.Any(), "owner-1").Return(owner, nil)
				mockStorage.EXPECT().GetUserByEmail(gomock.Any(), "dev@example.com").Return(nil, storage.ErrNotFound)
				mockStorage.EXPECT().HasPendingInvitation(gomock.Any(), "project-1", "dev@example.com").Return(true, nil)
			},
			expectedErr: ErrConflict,
		},
		{
			name:   "plan seat limit reached",
			email:  "dev@example.com",
			roleID: access.RoleEngineer,
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockMailerInterface) {
				mockStorage.EXPECT().GetProjectRoleByID(gomock.Any(), access.RoleEngineer).Return(role, nil)
				mockStorage.EXPECT().GetUserByID(gomock.Any(), "owner-1").Return(owner, nil)
				mockStorage.EXPECT().GetUserByEmail(gomock.Any(), "dev@example.com").Return(nil, storage.ErrNotFound)
				mockStorage.EXPECT().HasPendingInvitation(gomock.Any(), "project-1", "dev@example.com").Return(false, nil)
				mockStorage.EXPECT().GetPlanByID(gomock.Any(), int64(2)).Return(&types.Plan{ID: 2, MaxUsers: 3}, nil)
				mockStorage.EXPECT().CountMembersByProjectID(gomock.Any(), "project-1").Return(1, nil)
				mockStorage.EXPECT().ListPendingInvitationsByProjectID(gomock.Any(), "project-1").Return([]*types.Invitation{{ID: "inv-0"}}, nil)
			},
			expectedErr: ErrLimitReached,
		},
		{
			name:   "delivery failure rolls the invitation back",
			email:  "dev@example.com",
			roleID: access.RoleEngineer,
			setupMocks: func(mockStorage *MockStorageInterface, mockMailer *MockMailerInterface) {
				mockStorage.EXPECT().GetProjectRoleByID(gomock.Any(), access.RoleEngineer).Return(role, nil)
				mockStorage.EXPECT().GetUserByID(gomock.Any(), "owner-1").Return(owner, nil)
				mockStorage.EXPECT().GetUserByEmail(gomock.Any(), "dev@example.com").Return(nil, storage.ErrNotFound)
				mockStorage.EXPECT().HasPendingInvitation(gomock.Any(), "project-1", "dev@example.com").Return(false, nil)
				mockStorage.EXPECT().GetPlanByID(gomock.Any(), int64(2)).Return(proPlan, nil)
				mockStorage.EXPECT().CountMembersByProjectID(gomock.Any(), "project-1").Return(0, nil)
				mockStorage.EXPECT().ListPendingInvitationsByProjectID(gomock.Any(), "project-1").Return(nil, nil)
				mockStorage.EXPECT().CreateInvitation(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, inv *types.Invitation) (*types.Invitation, error) {
						return inv, nil
					})
				mockMailer.EXPECT().SendProjectInvitation(gomock.Any(), project, gomock.Any(), inviter, "Engineer").Return(errors.New("smtp down"))
				mockStorage.EXPECT().DeleteInvitation(gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedErr: ErrDeliveryFailed,
		},
		{
			name:        "blank email",
			email:       "   ",
			roleID:      access.RoleEngineer,
			setupMocks:  func(*MockStorageInterface, *MockMailerInterface) {},
			expectedErr: ErrInvalidInput,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockMailer := NewMockMailerInterface(ctrl)
			tc.setupMocks(mockStorage, mockMailer)

			s := newTestService(mockStorage, mockMailer, now)
			inv, err := s.Issue(context.Background(), project, inviter, tc.email, tc.roleID)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if inv == nil || inv.ProjectID != "project-1" {
				t.Fatalf("unexpected invitation: %+v", inv)
			}
		})
	}
}

func TestService_Accept(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	project := &types.Project{ID: "project-1", Name: "Checkout", OwnerID: "owner-1"}
	user := &types.User{ID: "user-2", Email: "dev@example.com"}

	pending := func() *types.Invitation {
		return &types.Invitation{
			ID:        "inv-1",
			ProjectID: "project-1",
			Email:     "dev@example.com",
			RoleID:    access.RoleEngineer,
			Token:     "tok-1",
			Status:    types.InvitationPending,
			ExpiresAt: now.Add(time.Hour),
		}
	}

	testCases := []struct {
		name        string
		user        *types.User
		setupMocks  func(*MockStorageInterface)
		expectedErr error
		wantProject bool
	}{
		{
			name: "success joins the project transactionally",
			user: user,
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), "tok-1").Return(pending(), nil)
				mockStorage.EXPECT().GetProjectByID(gomock.Any(), "project-1").Return(project, nil)
				mockStorage.EXPECT().GetMembership(gomock.Any(), "project-1", "user-2").Return(nil, storage.ErrNotFound)
				mockStorage.EXPECT().AddMember(gomock.Any(), "project-1", "user-2", access.RoleEngineer).Return(nil)
				mockStorage.EXPECT().UpdateInvitationStatus(gomock.Any(), "inv-1", types.InvitationAccepted).Return(nil)
			},
			wantProject: true,
		},
		{
			name: "unknown token",
			user: user,
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), "tok-1").Return(nil, storage.ErrNotFound)
			},
			expectedErr: ErrInvalidToken,
		},
		{
			name: "already accepted token cannot be replayed",
			user: user,
			setupMocks: func(mockStorage *MockStorageInterface) {
				inv := pending()
				inv.Status = types.InvitationAccepted
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), "tok-1").Return(inv, nil)
			},
			expectedErr: ErrInvalidToken,
		},
		{
			name: "expired invitation is marked on touch",
			user: user,
			setupMocks: func(mockStorage *MockStorageInterface) {
				inv := pending()
				inv.ExpiresAt = now.Add(-time.Second)
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), "tok-1").Return(inv, nil)
				mockStorage.EXPECT().UpdateInvitationStatus(gomock.Any(), "inv-1", types.InvitationExpired).Return(nil)
			},
			expectedErr: ErrExpired,
		},
		{
			name: "expiring exactly now is expired",
			user: user,
			setupMocks: func(mockStorage *MockStorageInterface) {
				inv := pending()
				inv.ExpiresAt = now
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), "tok-1").Return(inv, nil)
				mockStorage.EXPECT().UpdateInvitationStatus(gomock.Any(), "inv-1", types.InvitationExpired).Return(nil)
			},
			expectedErr: ErrExpired,
		},
		{
			name: "wrong account",
			user: &types.User{ID: "user-3", Email: "other@example.com"},
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), "tok-1").Return(pending(), nil)
			},
			expectedErr: errMismatch,
		},
		{
			name: "owner accepting their own project short-circuits",
			user: &types.User{ID: "owner-1", Email: "dev@example.com"},
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), "tok-1").Return(pending(), nil)
				mockStorage.EXPECT().GetProjectByID(gomock.Any(), "project-1").Return(project, nil)
				mockStorage.EXPECT().UpdateInvitationStatus(gomock.Any(), "inv-1", types.InvitationAccepted).Return(nil)
			},
			wantProject: true,
		},
		{
			name: "existing member accepts without a duplicate row",
			user: user,
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().GetInvitationByToken(gomock.Any(), "tok-1").Return(pending(), nil)
				mockStorage.EXPECT().GetProjectByID(gomock.Any(), "project-1").Return(project, nil)
				mockStorage.EXPECT().GetMembership(gomock.Any(), "project-1", "user-2").Return(&types.Membership{}, nil)
				mockStorage.EXPECT().UpdateInvitationStatus(gomock.Any(), "inv-1", types.InvitationAccepted).Return(nil)
			},
			wantProject: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			tc.setupMocks(mockStorage)

			s := newTestService(mockStorage, NewMockMailerInterface(ctrl), now)
			got, err := s.Accept(context.Background(), "tok-1", tc.user)

			if tc.expectedErr != nil {
				if errors.Is(tc.expectedErr, errMismatch) {
					var mismatch *EmailMismatchError
					if !errors.As(err, &mismatch) {
						t.Fatalf("expected email mismatch error, got %v", err)
					}
					if mismatch.InvitedEmail != "dev@example.com" {
						t.Fatalf("expected invited email in error, got %q", mismatch.InvitedEmail)
					}
					return
				}
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantProject && (got == nil || got.ID != "project-1") {
				t.Fatalf("unexpected project: %+v", got)
			}
		})
	}
}

// errMismatch is a marker used by the Accept table to select the errors.As
// branch.
var errMismatch = errors.New("email mismatch")

func TestService_Resend(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	project := &types.Project{ID: "project-1", OwnerID: "owner-1"}
	inviter := &types.User{ID: "owner-1", Email: "owner@example.com"}

	testCases := []struct {
		name        string
		setupMocks  func(*MockStorageInterface, *MockMailerInterface)
		expectedErr error
	}{
		{
			name: "success rotates the token without extending expiry",
			setupMocks: func(mockStorage *MockStorageInterface, mockMailer *MockMailerInterface) {
				inv := &types.Invitation{
					ID:        "inv-1",
					ProjectID: "project-1",
					RoleID:    access.RoleViewer,
					Token:     "old-token",
					Status:    types.InvitationPending,
					ExpiresAt: now.Add(time.Hour),
				}
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), "inv-1").Return(inv, nil)
				mockStorage.EXPECT().UpdateInvitationToken(gomock.Any(), "inv-1", gomock.Not("old-token")).Return(nil)
				mockStorage.EXPECT().GetProjectRoleByID(gomock.Any(), access.RoleViewer).Return(&types.ProjectRole{ID: access.RoleViewer, Name: "Viewer"}, nil)
				mockMailer.EXPECT().SendProjectInvitation(gomock.Any(), project, gomock.Any(), inviter, "Viewer").Return(nil)
			},
		},
		{
			name: "accepted invitation cannot be resent",
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockMailerInterface) {
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), "inv-1").Return(&types.Invitation{
					ID:        "inv-1",
					ProjectID: "project-1",
					Status:    types.InvitationAccepted,
				}, nil)
			},
			expectedErr: ErrInvalidToken,
		},
		{
			name: "stale invitation cannot be resent",
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockMailerInterface) {
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), "inv-1").Return(&types.Invitation{
					ID:        "inv-1",
					ProjectID: "project-1",
					Status:    types.InvitationPending,
					ExpiresAt: now.Add(-time.Minute),
				}, nil)
			},
			expectedErr: ErrExpired,
		},
		{
			name: "invitation from another project is invisible",
			setupMocks: func(mockStorage *MockStorageInterface, _ *MockMailerInterface) {
				mockStorage.EXPECT().GetInvitationByID(gomock.Any(), "inv-1").Return(&types.Invitation{
					ID:        "inv-1",
					ProjectID: "project-9",
					Status:    types.InvitationPending,
				}, nil)
			},
			expectedErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockMailer := NewMockMailerInterface(ctrl)
			tc.setupMocks(mockStorage, mockMailer)

			s := newTestService(mockStorage, mockMailer, now)
			_, err := s.Resend(context.Background(), project, inviter, "inv-1")

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

func TestService_Cancel(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	project := &types.Project{ID: "project-1", OwnerID: "owner-1"}

	t.Run("deletes a pending invitation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockStorage := NewMockStorageInterface(ctrl)
		mockStorage.EXPECT().GetInvitationByID(gomock.Any(), "inv-1").Return(&types.Invitation{
			ID:        "inv-1",
			ProjectID: "project-1",
			Status:    types.InvitationPending,
		}, nil)
		mockStorage.EXPECT().DeleteInvitation(gomock.Any(), "inv-1").Return(nil)

		s := newTestService(mockStorage, NewMockMailerInterface(ctrl), now)
		if err := s.Cancel(context.Background(), project, "inv-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("accepted invitations are history, not cancellable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockStorage := NewMockStorageInterface(ctrl)
		mockStorage.EXPECT().GetInvitationByID(gomock.Any(), "inv-1").Return(&types.Invitation{
			ID:        "inv-1",
			ProjectID: "project-1",
			Status:    types.InvitationAccepted,
		}, nil)

		s := newTestService(mockStorage, NewMockMailerInterface(ctrl), now)
		if err := s.Cancel(context.Background(), project, "inv-1"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestService_SweepExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().ExpirePending(gomock.Any(), now).Return(int64(3), nil)

	s := newTestService(mockStorage, NewMockMailerInterface(ctrl), now)
	count, err := s.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 expired invitations, got %d", count)
	}
}
