// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package access

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/session"
	"github.com/pulsewatch/pulsewatch/internal/storage"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
	"github.com/pulsewatch/pulsewatch/pkg/authentication"
)

type Middleware struct {
	storage StorageInterface

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewMiddleware(storage StorageInterface, tracer tracing.TracingInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		storage: storage,
		tracer:  tracer,
		logger:  logger,
	}
}

// ProjectContext resolves the {projectID} URL parameter, computes the caller's
// capability tier on that project and injects both into the request context.
// Unknown projects get a 404; known projects the caller cannot see get a 403,
// so project ids stay enumerable only to members.
func (m *Middleware) ProjectContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "access.Middleware.ProjectContext")
			defer span.End()

			user := authentication.UserFromContext(ctx)
			if user == nil {
				m.errorResponse(w, http.StatusUnauthorized, "authentication required")
				return
			}

			projectID := chi.URLParam(r, "projectID")
			if projectID == "" {
				m.errorResponse(w, http.StatusNotFound, "project not found")
				return
			}

			project, err := m.storage.GetProjectByID(ctx, projectID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					m.errorResponse(w, http.StatusNotFound, "project not found")
					return
				}
				m.logger.Errorf("failed to load project %s: %v", projectID, err)
				m.errorResponse(w, http.StatusInternalServerError, "internal server error")
				return
			}

			var membership *types.Membership
			if project.OwnerID != user.ID {
				membership, err = m.storage.GetMembership(ctx, project.ID, user.ID)
				if err != nil && !errors.Is(err, storage.ErrNotFound) {
					m.logger.Errorf("failed to load membership for user %s on project %s: %v", user.ID, project.ID, err)
					m.errorResponse(w, http.StatusInternalServerError, "internal server error")
					return
				}
			}

			level := ResolveAccess(user.ID, project, membership)
			if !level.CanViewProject() {
				m.logger.Security().AccessDenied(user.ID, project.ID)
				m.errorResponse(w, http.StatusForbidden, "access denied")
				return
			}

			if sess := session.FromContext(ctx); sess != nil {
				sess.LastProjectID = project.ID
			}

			ctx = ContextWithProject(ctx, project, level)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOwner gates owner-only operations. It must run after ProjectContext.
func (m *Middleware) RequireOwner() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if LevelFromContext(r.Context()) != LevelOwner {
				if user := authentication.UserFromContext(r.Context()); user != nil {
					if project := ProjectFromContext(r.Context()); project != nil {
						m.logger.Security().AccessDenied(user.ID, project.ID)
					}
				}
				m.errorResponse(w, http.StatusForbidden, "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireServerManager gates server mutations on CanManageServers. It must
// run after ProjectContext.
func (m *Middleware) RequireServerManager() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !LevelFromContext(r.Context()).CanManageServers() {
				m.errorResponse(w, http.StatusForbidden, "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdminMode gates the administration surface. Non-admin users get a
// hard 403; admins browsing in personal mode are nudged back to the admin
// dashboard instead.
func (m *Middleware) RequireAdminMode() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := authentication.UserFromContext(r.Context())
			if user == nil || user.GlobalRole != types.GlobalRoleAdmin {
				m.errorResponse(w, http.StatusForbidden, "access denied")
				return
			}

			sess := session.FromContext(r.Context())
			if sess == nil || !sess.AdminMode {
				if sess != nil {
					sess.AddFlash("info", "switch to admin mode to manage the platform")
				}
				w.Header().Set("Location", "/api/v0/projects")
				w.WriteHeader(http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireUserMode keeps admins browsing in admin mode out of the personal
// project surface until they switch back.
func (m *Middleware) RequireUserMode() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := authentication.UserFromContext(r.Context())
			sess := session.FromContext(r.Context())
			if user != nil && user.GlobalRole == types.GlobalRoleAdmin && sess != nil && sess.AdminMode {
				sess.AddFlash("info", "switch to personal mode to work on projects")
				w.Header().Set("Location", "/api/v0/admin/dashboard")
				w.WriteHeader(http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) errorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  status,
		"message": message,
	}); err != nil {
		m.logger.Errorf("failed to encode error response: %v", err)
	}
}
