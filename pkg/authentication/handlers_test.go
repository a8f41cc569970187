// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/session"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
)

func newTestAPI(service ServiceInterface) *API {
	return NewAPI(
		service,
		NewTokenManager("test-secret", time.Hour),
		false,
		tracing.NewNoopTracer(),
		monitoring.NewNoopMonitor(),
		logging.NewNoopLogger(),
	)
}

func credentialsBody() *strings.Reader {
	return strings.NewReader(`{"name":"Ada","email":"ada@example.com","password":"s3cret-pass"}`)
}

func sessionRequest(method, target string, body *strings.Reader, sess *session.Session) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(session.ContextWithSession(req.Context(), sess))
}

func TestAPI_Register(t *testing.T) {
	user := &types.User{ID: "user-1", Email: "ada@example.com"}

	t.Run("responds with the created user", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := NewMockServiceInterface(ctrl)
		mockService.EXPECT().
			Register(gomock.Any(), "Ada", "ada@example.com", "s3cret-pass").
			Return(user, nil)

		sess := &session.Session{ID: "sess-1"}
		rec := httptest.NewRecorder()

		newTestAPI(mockService).register(rec, sessionRequest(http.MethodPost, "/api/v0/auth/register", credentialsBody(), sess))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if sess.UserID != "user-1" {
			t.Fatalf("expected session bound to user-1, got %q", sess.UserID)
		}
		if len(rec.Result().Cookies()) == 0 {
			t.Fatal("expected an auth cookie to be set")
		}
	})

	t.Run("parked invitation sends the new account back to the accept flow", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := NewMockServiceInterface(ctrl)
		mockService.EXPECT().
			Register(gomock.Any(), "Ada", "ada@example.com", "s3cret-pass").
			Return(user, nil)

		sess := &session.Session{ID: "sess-1", InvitationToken: "tok-1"}
		rec := httptest.NewRecorder()

		newTestAPI(mockService).register(rec, sessionRequest(http.MethodPost, "/api/v0/auth/register", credentialsBody(), sess))

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/invitations/tok-1/accept" {
			t.Fatalf("expected accept redirect, got %q", loc)
		}
		if sess.UserID != "user-1" {
			t.Fatalf("expected session bound to user-1, got %q", sess.UserID)
		}
	})

	t.Run("maps a taken email to 409", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := NewMockServiceInterface(ctrl)
		mockService.EXPECT().
			Register(gomock.Any(), "Ada", "ada@example.com", "s3cret-pass").
			Return(nil, ErrEmailTaken)

		rec := httptest.NewRecorder()

		newTestAPI(mockService).register(rec, sessionRequest(http.MethodPost, "/api/v0/auth/register", credentialsBody(), &session.Session{ID: "sess-1"}))

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}

func TestAPI_Login(t *testing.T) {
	user := &types.User{ID: "user-1", Email: "ada@example.com"}

	t.Run("responds with the user", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := NewMockServiceInterface(ctrl)
		mockService.EXPECT().
			Login(gomock.Any(), "ada@example.com", "s3cret-pass").
			Return(user, nil)

		sess := &session.Session{ID: "sess-1"}
		rec := httptest.NewRecorder()

		newTestAPI(mockService).login(rec, sessionRequest(http.MethodPost, "/api/v0/auth/login", credentialsBody(), sess))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if sess.UserID != "user-1" {
			t.Fatalf("expected session bound to user-1, got %q", sess.UserID)
		}
	})

	t.Run("parked invitation sends the user back to the accept flow", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := NewMockServiceInterface(ctrl)
		mockService.EXPECT().
			Login(gomock.Any(), "ada@example.com", "s3cret-pass").
			Return(user, nil)

		sess := &session.Session{ID: "sess-1", InvitationToken: "tok-1"}
		rec := httptest.NewRecorder()

		newTestAPI(mockService).login(rec, sessionRequest(http.MethodPost, "/api/v0/auth/login", credentialsBody(), sess))

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/invitations/tok-1/accept" {
			t.Fatalf("expected accept redirect, got %q", loc)
		}
	})

	t.Run("maps bad credentials to 401", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockService := NewMockServiceInterface(ctrl)
		mockService.EXPECT().
			Login(gomock.Any(), "ada@example.com", "s3cret-pass").
			Return(nil, ErrInvalidCredentials)

		rec := httptest.NewRecorder()

		newTestAPI(mockService).login(rec, sessionRequest(http.MethodPost, "/api/v0/auth/login", credentialsBody(), &session.Session{ID: "sess-1"}))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
