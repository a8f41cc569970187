// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package access_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/session"
	"github.com/pulsewatch/pulsewatch/internal/storage"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
	"github.com/pulsewatch/pulsewatch/pkg/access"
	"github.com/pulsewatch/pulsewatch/pkg/authentication"
)

func newTestMiddleware(s access.StorageInterface) *access.Middleware {
	return access.NewMiddleware(s, tracing.NewNoopTracer(), logging.NewNoopLogger())
}

// projectRequest builds a request routed as /{projectID} with the given user
// and session in context.
func projectRequest(projectID string, user *types.User, sess *session.Session) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/"+projectID, nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("projectID", projectID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)

	if user != nil {
		ctx = authentication.WithUser(ctx, user)
	}
	if sess != nil {
		ctx = session.ContextWithSession(ctx, sess)
	}
	return req.WithContext(ctx)
}

func TestMiddleware_ProjectContext(t *testing.T) {
	project := &types.Project{ID: "project-1", Name: "Checkout", OwnerID: "owner-1"}

	t.Run("grants the owner full access", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStorage := access.NewMockStorageInterface(ctrl)
		mockStorage.EXPECT().GetProjectByID(gomock.Any(), "project-1").Return(project, nil)

		sess := &session.Session{}
		req := projectRequest("project-1", &types.User{ID: "owner-1"}, sess)
		rec := httptest.NewRecorder()

		var level access.Level
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			level = access.LevelFromContext(r.Context())
			if p := access.ProjectFromContext(r.Context()); p == nil || p.ID != "project-1" {
				t.Errorf("expected project-1 in context, got %+v", p)
			}
			w.WriteHeader(http.StatusOK)
		})

		newTestMiddleware(mockStorage).ProjectContext()(inner).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if level != access.LevelOwner {
			t.Errorf("expected owner level, got %v", level)
		}
		if sess.LastProjectID != "project-1" {
			t.Errorf("expected session to remember project-1, got %q", sess.LastProjectID)
		}
	})

	t.Run("resolves a member through their role", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStorage := access.NewMockStorageInterface(ctrl)
		mockStorage.EXPECT().GetProjectByID(gomock.Any(), "project-1").Return(project, nil)
		mockStorage.EXPECT().
			GetMembership(gomock.Any(), "project-1", "user-2").
			Return(&types.Membership{ProjectID: "project-1", UserID: "user-2", RoleID: access.RoleViewer}, nil)

		req := projectRequest("project-1", &types.User{ID: "user-2"}, nil)
		rec := httptest.NewRecorder()

		var level access.Level
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			level = access.LevelFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		newTestMiddleware(mockStorage).ProjectContext()(inner).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if level != access.LevelViewer {
			t.Errorf("expected viewer level, got %v", level)
		}
	})

	t.Run("hides an unknown project behind a 404", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStorage := access.NewMockStorageInterface(ctrl)
		mockStorage.EXPECT().GetProjectByID(gomock.Any(), "ghost").Return(nil, storage.ErrNotFound)

		req := projectRequest("ghost", &types.User{ID: "user-2"}, nil)
		rec := httptest.NewRecorder()

		newTestMiddleware(mockStorage).ProjectContext()(panicHandler(t)).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("refuses a non-member with a 403", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStorage := access.NewMockStorageInterface(ctrl)
		mockStorage.EXPECT().GetProjectByID(gomock.Any(), "project-1").Return(project, nil)
		mockStorage.EXPECT().
			GetMembership(gomock.Any(), "project-1", "stranger").
			Return(nil, storage.ErrNotFound)

		req := projectRequest("project-1", &types.User{ID: "stranger"}, nil)
		rec := httptest.NewRecorder()

		newTestMiddleware(mockStorage).ProjectContext()(panicHandler(t)).ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStorage := access.NewMockStorageInterface(ctrl)

		req := projectRequest("project-1", nil, nil)
		rec := httptest.NewRecorder()

		newTestMiddleware(mockStorage).ProjectContext()(panicHandler(t)).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestMiddleware_RequireOwner(t *testing.T) {
	tests := []struct {
		name     string
		level    access.Level
		wantCode int
	}{
		{"owner passes", access.LevelOwner, http.StatusOK},
		{"admin member is refused", access.LevelAdmin, http.StatusForbidden},
		{"viewer is refused", access.LevelViewer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockStorage := access.NewMockStorageInterface(ctrl)

			req := httptest.NewRequest(http.MethodDelete, "/", nil)
			ctx := authentication.WithUser(req.Context(), &types.User{ID: "user-1"})
			ctx = access.ContextWithProject(ctx, &types.Project{ID: "project-1"}, tt.level)
			req = req.WithContext(ctx)
			rec := httptest.NewRecorder()

			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			newTestMiddleware(mockStorage).RequireOwner()(inner).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestMiddleware_RequireServerManager(t *testing.T) {
	tests := []struct {
		name     string
		level    access.Level
		wantCode int
	}{
		{"engineer passes", access.LevelEngineer, http.StatusOK},
		{"owner passes", access.LevelOwner, http.StatusOK},
		{"developer is refused", access.LevelDeveloper, http.StatusForbidden},
		{"viewer is refused", access.LevelViewer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockStorage := access.NewMockStorageInterface(ctrl)

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			ctx := access.ContextWithProject(req.Context(), &types.Project{ID: "project-1"}, tt.level)
			req = req.WithContext(ctx)
			rec := httptest.NewRecorder()

			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			newTestMiddleware(mockStorage).RequireServerManager()(inner).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestMiddleware_ModeGates(t *testing.T) {
	admin := &types.User{ID: "admin-1", GlobalRole: types.GlobalRoleAdmin}
	regular := &types.User{ID: "user-1", GlobalRole: types.GlobalRoleUser}

	t.Run("admin mode surface refuses regular users", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStorage := access.NewMockStorageInterface(ctrl)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := authentication.WithUser(req.Context(), regular)
		ctx = session.ContextWithSession(ctx, &session.Session{})
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()

		newTestMiddleware(mockStorage).RequireAdminMode()(panicHandler(t)).ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("admin mode surface redirects admins in personal mode", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStorage := access.NewMockStorageInterface(ctrl)

		sess := &session.Session{AdminMode: false}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := authentication.WithUser(req.Context(), admin)
		ctx = session.ContextWithSession(ctx, sess)
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()

		newTestMiddleware(mockStorage).RequireAdminMode()(panicHandler(t)).ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/api/v0/projects" {
			t.Errorf("expected redirect to /api/v0/projects, got %q", loc)
		}
		if len(sess.Flashes) == 0 {
			t.Error("expected a flash message on the session")
		}
	})

	t.Run("admin mode surface admits admins in admin mode", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStorage := access.NewMockStorageInterface(ctrl)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := authentication.WithUser(req.Context(), admin)
		ctx = session.ContextWithSession(ctx, &session.Session{AdminMode: true})
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()

		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		newTestMiddleware(mockStorage).RequireAdminMode()(inner).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("user mode surface redirects admins in admin mode", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStorage := access.NewMockStorageInterface(ctrl)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := authentication.WithUser(req.Context(), admin)
		ctx = session.ContextWithSession(ctx, &session.Session{AdminMode: true})
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()

		newTestMiddleware(mockStorage).RequireUserMode()(panicHandler(t)).ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/api/v0/admin/dashboard" {
			t.Errorf("expected redirect to /api/v0/admin/dashboard, got %q", loc)
		}
	})

	t.Run("user mode surface admits regular users", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStorage := access.NewMockStorageInterface(ctrl)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := authentication.WithUser(req.Context(), regular)
		ctx = session.ContextWithSession(ctx, &session.Session{})
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()

		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		newTestMiddleware(mockStorage).RequireUserMode()(inner).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

// panicHandler fails the test if the middleware lets the request through.
func panicHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("expected the middleware to stop the request")
	})
}
