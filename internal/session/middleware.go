// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
)

// CookieName carries the opaque session id; the session itself never leaves
// the server.
const CookieName = "pw_sid"

type contextKey struct{}

var sessionContextKey contextKey

func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionContextKey).(*Session); ok {
		return s
	}
	return nil
}

type Middleware struct {
	store  StoreInterface
	secure bool

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewMiddleware(store StoreInterface, secure bool, tracer tracing.TracingInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		store:  store,
		secure: secure,
		tracer: tracer,
		logger: logger,
	}
}

// Load attaches the request's session to the context, creating a fresh one
// when no valid cookie is present, and persists it after the handler ran.
func (m *Middleware) Load() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "session.Middleware.Load")
			defer span.End()

			sess := m.lookup(ctx, r)
			if sess.IsNew() {
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					Secure:   m.secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx = ContextWithSession(ctx, sess)
			next.ServeHTTP(w, r.WithContext(ctx))

			if err := m.store.Save(ctx, sess); err != nil {
				m.logger.Errorf("failed to persist session %s: %v", sess.ID, err)
			}
		})
	}
}

func (m *Middleware) lookup(ctx context.Context, r *http.Request) *Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return m.store.New()
	}

	sess, err := m.store.Get(ctx, cookie.Value)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			m.logger.Errorf("failed to load session: %v", err)
		}
		return m.store.New()
	}

	return sess
}
