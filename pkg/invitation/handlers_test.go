// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/session"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
	"github.com/pulsewatch/pulsewatch/pkg/authentication"
)

func newTestAPI(service ServiceInterface) *API {
	return NewAPI(service, tracing.NewNoopTracer(), logging.NewNoopLogger())
}

// acceptRequest builds a GET on the accept link with the token as a route
// param. A nil user means an anonymous visitor.
func acceptRequest(token string, user *types.User, sess *session.Session) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/invitations/"+token+"/accept", nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("token", token)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)

	if user != nil {
		ctx = authentication.WithUser(ctx, user)
	}
	if sess != nil {
		ctx = session.ContextWithSession(ctx, sess)
	}
	return req.WithContext(ctx)
}

func TestAPI_Accept(t *testing.T) {
	user := &types.User{ID: "user-2", Email: "dev@example.com"}
	project := &types.Project{ID: "project-1", Name: "Checkout"}

	t.Run("anonymous visitor is parked and sent to sign in", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := NewMockServiceInterface(ctrl)

		sess := &session.Session{ID: "sess-1"}
		rec := httptest.NewRecorder()

		newTestAPI(mockService).accept(rec, acceptRequest("tok-1", nil, sess))

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/api/v0/auth/login" {
			t.Fatalf("expected sign-in redirect, got %q", loc)
		}
		if sess.InvitationToken != "tok-1" {
			t.Fatalf("expected token parked in session, got %q", sess.InvitationToken)
		}
		if len(sess.Flashes) != 1 || sess.Flashes[0].Level != "info" {
			t.Fatalf("expected an info flash, got %+v", sess.Flashes)
		}
	})

	t.Run("signed-in acceptance clears the parked token and redirects to the project", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := NewMockServiceInterface(ctrl)
		mockService.EXPECT().
			Accept(gomock.Any(), "tok-1", user).
			Return(project, nil)

		sess := &session.Session{ID: "sess-1", UserID: "user-2", InvitationToken: "tok-1"}
		rec := httptest.NewRecorder()

		newTestAPI(mockService).accept(rec, acceptRequest("tok-1", user, sess))

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/api/v0/projects/project-1" {
			t.Fatalf("expected project redirect, got %q", loc)
		}
		if sess.InvitationToken != "" {
			t.Fatalf("expected parked token to be cleared, got %q", sess.InvitationToken)
		}
		if len(sess.Flashes) != 1 || sess.Flashes[0].Level != "success" {
			t.Fatalf("expected a success flash, got %+v", sess.Flashes)
		}
	})

	t.Run("parked token is cleared even when the accept fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := NewMockServiceInterface(ctrl)
		mockService.EXPECT().
			Accept(gomock.Any(), "tok-1", user).
			Return(nil, ErrInvalidToken)

		sess := &session.Session{ID: "sess-1", UserID: "user-2", InvitationToken: "tok-1"}
		rec := httptest.NewRecorder()

		newTestAPI(mockService).accept(rec, acceptRequest("tok-1", user, sess))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if sess.InvitationToken != "" {
			t.Fatalf("expected parked token to be cleared, got %q", sess.InvitationToken)
		}
	})

	t.Run("wrong account gets a forbidden response", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := NewMockServiceInterface(ctrl)
		mockService.EXPECT().
			Accept(gomock.Any(), "tok-1", user).
			Return(nil, &EmailMismatchError{InvitedEmail: "other@example.com"})

		rec := httptest.NewRecorder()

		newTestAPI(mockService).accept(rec, acceptRequest("tok-1", user, &session.Session{ID: "sess-1"}))

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("stale link gets a gone response", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := NewMockServiceInterface(ctrl)
		mockService.EXPECT().
			Accept(gomock.Any(), "tok-1", user).
			Return(nil, ErrExpired)

		rec := httptest.NewRecorder()

		newTestAPI(mockService).accept(rec, acceptRequest("tok-1", user, &session.Session{ID: "sess-1"}))

		if rec.Code != http.StatusGone {
			t.Fatalf("expected 410, got %d", rec.Code)
		}
	})
}
