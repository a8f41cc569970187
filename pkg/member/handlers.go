// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package member

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/pkg/access"
	"github.com/pulsewatch/pulsewatch/pkg/authentication"
	"github.com/pulsewatch/pulsewatch/pkg/invitation"
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

// RegisterViewEndpoints mounts the read side, available to every member.
func (a *API) RegisterViewEndpoints(r chi.Router) {
	r.Get("/members", a.list)
}

// RegisterManageEndpoints mounts the mutations; the router guards them with
// the owner gate.
func (a *API) RegisterManageEndpoints(r chi.Router) {
	r.Post("/members", a.add)
	r.Patch("/members/{userID}", a.updateRole)
	r.Delete("/members/{userID}", a.remove)
}

type addRequest struct {
	Email  string `json:"email"`
	RoleID int64  `json:"project_role_id"`
}

type updateRoleRequest struct {
	RoleID int64 `json:"project_role_id"`
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "member.API.list")
	defer span.End()

	project := access.ProjectFromContext(ctx)
	members, err := a.service.List(ctx, project)
	if err != nil {
		a.logger.Errorf("failed to list members for project %s: %v", project.ID, err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(members)
}

func (a *API) add(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "member.API.add")
	defer span.End()

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project := access.ProjectFromContext(ctx)
	actor := authentication.UserFromContext(ctx)

	result, err := a.service.Add(ctx, project, actor, req.Email, req.RoleID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRole), errors.Is(err, invitation.ErrInvalidRole), errors.Is(err, invitation.ErrInvalidInput):
			a.errorResponse(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrOwnerImmutable),
			errors.Is(err, invitation.ErrAlreadyMember), errors.Is(err, invitation.ErrSelfInvite), errors.Is(err, invitation.ErrConflict):
			a.errorResponse(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrLimitReached), errors.Is(err, invitation.ErrLimitReached):
			a.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, invitation.ErrDeliveryFailed):
			a.errorResponse(w, http.StatusBadGateway, err.Error())
		default:
			a.logger.Errorf("failed to add member on project %s: %v", project.ID, err)
			a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(result)
}

func (a *API) updateRole(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "member.API.updateRole")
	defer span.End()

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project := access.ProjectFromContext(ctx)
	err := a.service.UpdateRole(ctx, project, chi.URLParam(r, "userID"), req.RoleID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			a.errorResponse(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrOwnerImmutable):
			a.errorResponse(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidRole):
			a.errorResponse(w, http.StatusBadRequest, err.Error())
		default:
			a.logger.Errorf("failed to update member role on project %s: %v", project.ID, err)
			a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) remove(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "member.API.remove")
	defer span.End()

	project := access.ProjectFromContext(ctx)
	err := a.service.Remove(ctx, project, chi.URLParam(r, "userID"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			a.errorResponse(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrOwnerImmutable):
			a.errorResponse(w, http.StatusConflict, err.Error())
		default:
			a.logger.Errorf("failed to remove member on project %s: %v", project.ID, err)
			a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		}
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
