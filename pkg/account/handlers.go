// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

// Package account exposes the signed-in user's own account: profile info and
// the admin/personal mode switch.
package account

import (
	"context"
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
	"github.com/pulsewatch/pulsewatch/pkg/project"
)

type API struct {
	projects project.ServiceInterface

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewAPI(projects project.ServiceInterface, tracer tracing.TracingInterface, logger logging.LoggerInterface) *API {
	return &API{
		projects: projects,
		tracer:   tracer,
		logger:   logger,
	}
}

func (a *API) RegisterEndpoints(r chi.Router) {
	r.Get("/", a.show)
	r.Post("/switch", a.switchMode)
}

type accountResponse struct {
	User          *types.User `json:"user"`
	AdminMode     bool        `json:"admin_mode"`
	LastProjectID string      `json:"last_project_id,omitempty"`
}

func (a *API) show(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "account.API.show")
	defer span.End()

	user := authentication.UserFromContext(ctx)
	resp := accountResponse{User: user}
	if sess := session.FromContext(ctx); sess != nil {
		resp.AdminMode = sess.AdminMode
		resp.LastProjectID = sess.LastProjectID
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// switchMode toggles between the admin and personal surfaces. Only global
// admins have two modes; everyone else gets a 403.
func (a *API) switchMode(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "account.API.switchMode")
	defer span.End()

	user := authentication.UserFromContext(ctx)
	if user.GlobalRole != types.GlobalRoleAdmin {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  http.StatusForbidden,
			"message": "access denied",
		})
		return
	}

	sess := session.FromContext(ctx)
	if sess == nil {
		a.logger.Errorf("mode switch without a session for user %s", user.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sess.AdminMode = !sess.AdminMode
	a.logger.Security().ModeSwitch(user.ID, sess.AdminMode)

	location := "/api/v0/admin/dashboard"
	if !sess.AdminMode {
		location = a.personalLanding(ctx, user.ID, sess)
	}
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusSeeOther)
}

// personalLanding picks where an admin lands when leaving admin mode: the
// project they last touched, else their newest project, else the project
// list where they can create one.
func (a *API) personalLanding(ctx context.Context, userID string, sess *session.Session) string {
	if sess.LastProjectID != "" {
		return "/api/v0/projects/" + sess.LastProjectID
	}

	latest, err := a.projects.LatestOwned(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.logger.Errorf("failed to look up latest project for user %s: %v", userID, err)
		}
		return "/api/v0/projects"
	}
	return "/api/v0/projects/" + latest.ID
}
