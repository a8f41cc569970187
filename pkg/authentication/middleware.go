// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
)

type Middleware struct {
	verifier TokenVerifierInterface
	storage  StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewMiddleware(verifier TokenVerifierInterface, storage StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		verifier: verifier,
		storage:  storage,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// Authenticate verifies the session token, loads the user and injects it
// into the request context. Requests without a valid token are rejected.
func (m *Middleware) Authenticate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "authentication.Middleware.Authenticate")
			defer span.End()

			token, found := m.getToken(r)
			if !found {
				m.unauthorizedResponse(w, "authentication required")
				return
			}

			userID, err := m.verifier.VerifyToken(token)
			if err != nil {
				m.logger.Debugf("token verification failed: %v", err)
				m.unauthorizedResponse(w, "invalid token")
				return
			}

			user, err := m.storage.GetUserByID(ctx, userID)
			if err != nil {
				m.logger.Debugf("token subject %s not found: %v", userID, err)
				m.unauthorizedResponse(w, "invalid token")
				return
			}

			if !user.IsActive {
				m.unauthorizedResponse(w, "account is not active")
				return
			}

			ctx = WithUser(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Identify is the lenient variant: it injects the user when a valid token is
// present and lets the request through anonymously otherwise. Used on routes
// that behave differently for signed-in visitors.
func (m *Middleware) Identify() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "authentication.Middleware.Identify")
			defer span.End()

			token, found := m.getToken(r)
			if !found {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			userID, err := m.verifier.VerifyToken(token)
			if err != nil {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			user, err := m.storage.GetUserByID(ctx, userID)
			if err != nil || !user.IsActive {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

// getToken prefers the Authorization header (RFC 6750) and falls back to the
// session cookie set at login.
func (m *Middleware) getToken(r *http.Request) (string, bool) {
	if bearer := r.Header.Get("Authorization"); bearer != "" {
		if strings.HasPrefix(bearer, "Bearer ") {
			return strings.TrimPrefix(bearer, "Bearer "), true
		}
		return "", false
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (m *Middleware) unauthorizedResponse(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  http.StatusUnauthorized,
		"message": message,
	}); err != nil {
		m.logger.Errorf("failed to encode unauthorized response: %v", err)
	}
}
