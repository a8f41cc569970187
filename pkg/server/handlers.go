// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/pkg/access"
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

// RegisterViewEndpoints mounts the read side for every member.
func (a *API) RegisterViewEndpoints(r chi.Router) {
	r.Get("/servers", a.list)
	r.Get("/servers/{serverID}", a.get)
}

// RegisterManageEndpoints mounts the mutations; the router gates them with
// CanManageServers.
func (a *API) RegisterManageEndpoints(r chi.Router) {
	r.Post("/servers", a.create)
	r.Put("/servers/{serverID}", a.update)
	r.Delete("/servers/{serverID}", a.remove)
}

type createRequest struct {
	Name        string `json:"name"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Description string `json:"description"`
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "server.API.list")
	defer span.End()

	project := access.ProjectFromContext(ctx)
	servers, err := a.service.List(ctx, project.ID)
	if err != nil {
		a.logger.Errorf("failed to list servers for project %s: %v", project.ID, err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(servers)
}

func (a *API) get(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "server.API.get")
	defer span.End()

	project := access.ProjectFromContext(ctx)
	srv, err := a.service.Get(ctx, project, chi.URLParam(r, "serverID"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.errorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		a.logger.Errorf("failed to load server on project %s: %v", project.ID, err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(srv)
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "server.API.create")
	defer span.End()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project := access.ProjectFromContext(ctx)
	created, err := a.service.Create(ctx, project, req.Name, req.Host, req.Port, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			a.errorResponse(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrLimitReached):
			a.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		default:
			a.logger.Errorf("failed to register server on project %s: %v", project.ID, err)
			a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

func (a *API) update(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "server.API.update")
	defer span.End()

	var params UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		a.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project := access.ProjectFromContext(ctx)
	updated, err := a.service.Update(ctx, project, chi.URLParam(r, "serverID"), params)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			a.errorResponse(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInvalidInput):
			a.errorResponse(w, http.StatusBadRequest, err.Error())
		default:
			a.logger.Errorf("failed to update server on project %s: %v", project.ID, err)
			a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}

func (a *API) remove(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "server.API.remove")
	defer span.End()

	project := access.ProjectFromContext(ctx)
	if err := a.service.Delete(ctx, project, chi.URLParam(r, "serverID")); err != nil {
		if errors.Is(err, ErrNotFound) {
			a.errorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		a.logger.Errorf("failed to delete server on project %s: %v", project.ID, err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
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
