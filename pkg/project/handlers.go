// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package project

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/session"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/pkg/access"
	"github.com/pulsewatch/pulsewatch/pkg/authentication"
)

type API struct {
	service ServiceInterface

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewAPI(service ServiceInterface, tracer tracing.TracingInterface, logger logging.LoggerInterface) *API {
	return &API{
		service: service,
		tracer:  tracer,
		logger:  logger,
	}
}

// RegisterCollectionEndpoints mounts the routes that do not target a single
// project yet.
func (a *API) RegisterCollectionEndpoints(r chi.Router) {
	r.Get("/", a.list)
	r.Post("/", a.create)
}

// RegisterViewEndpoints and RegisterManageEndpoints mount the per-project
// routes; the router wraps them in ProjectContext and gates mutations on
// ownership.
func (a *API) RegisterViewEndpoints(r chi.Router) {
	r.Get("/", a.get)
}

func (a *API) RegisterManageEndpoints(r chi.Router) {
	r.Patch("/", a.update)
	r.Post("/keys/rotate", a.rotateKeys)
	r.Delete("/", a.remove)
}

type upsertRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "project.API.list")
	defer span.End()

	user := authentication.UserFromContext(ctx)
	projects, err := a.service.List(ctx, user.ID)
	if err != nil {
		a.logger.Errorf("failed to list projects for user %s: %v", user.ID, err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(projects)
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "project.API.create")
	defer span.End()

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := authentication.UserFromContext(ctx)
	created, err := a.service.Create(ctx, user, req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			a.errorResponse(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrLimitReached):
			a.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		default:
			a.logger.Errorf("failed to create project for user %s: %v", user.ID, err)
			a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

func (a *API) get(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "project.API.get")
	defer span.End()

	project := access.ProjectFromContext(ctx)

	// Agent credentials are only shown to people who can manage settings.
	if !access.LevelFromContext(ctx).CanManageSettings() {
		redacted := *project
		redacted.APIKey = ""
		project = &redacted
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(project)
}

func (a *API) update(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "project.API.update")
	defer span.End()

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project := access.ProjectFromContext(ctx)
	updated, err := a.service.Update(ctx, project, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			a.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		a.logger.Errorf("failed to update project %s: %v", project.ID, err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}

func (a *API) rotateKeys(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "project.API.rotateKeys")
	defer span.End()

	project := access.ProjectFromContext(ctx)
	updated, err := a.service.RotateKeys(ctx, project)
	if err != nil {
		a.logger.Errorf("failed to rotate keys for project %s: %v", project.ID, err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}

func (a *API) remove(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "project.API.remove")
	defer span.End()

	project := access.ProjectFromContext(ctx)
	if err := a.service.Delete(ctx, project); err != nil {
		a.logger.Errorf("failed to delete project %s: %v", project.ID, err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if sess := session.FromContext(ctx); sess != nil && sess.LastProjectID == project.ID {
		sess.LastProjectID = ""
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) errorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  status,
		"message": message,
	}); err != nil {
		a.logger.Errorf("failed to encode error response: %v", err)
	}
}
