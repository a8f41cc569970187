// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
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

func (a *API) RegisterEndpoints(r chi.Router) {
	r.Get("/dashboard", a.dashboard)
	r.Get("/users", a.listUsers)
	r.Patch("/users/{userID}", a.updateUser)
	r.Delete("/users/{userID}", a.deleteUser)
	r.Get("/plans", a.listPlans)
	r.Post("/plans", a.createPlan)
	r.Put("/plans/{planID}", a.updatePlan)
	r.Delete("/plans/{planID}", a.deletePlan)
	r.Get("/roles", a.listRoles)
}

func (a *API) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "admin.API.dashboard")
	defer span.End()

	stats, err := a.service.Dashboard(ctx)
	if err != nil {
		a.logger.Errorf("failed to collect dashboard stats: %v", err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "admin.API.listUsers")
	defer span.End()

	users, err := a.service.ListUsers(ctx)
	if err != nil {
		a.logger.Errorf("failed to list users: %v", err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(users)
}

type updateUserRequest struct {
	GlobalRole types.GlobalRole `json:"global_role"`
	PlanID     int64            `json:"plan_id"`
	IsActive   bool             `json:"is_active"`
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "admin.API.updateUser")
	defer span.End()

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GlobalRole != types.GlobalRoleAdmin && req.GlobalRole != types.GlobalRoleUser {
		a.errorResponse(w, http.StatusBadRequest, "invalid global role")
		return
	}

	user, err := a.service.UpdateUser(ctx, chi.URLParam(r, "userID"), req.GlobalRole, req.PlanID, req.IsActive)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.errorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		a.logger.Errorf("failed to update user: %v", err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(user)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "admin.API.deleteUser")
	defer span.End()

	if err := a.service.DeleteUser(ctx, chi.URLParam(r, "userID")); err != nil {
		if errors.Is(err, ErrNotFound) {
			a.errorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		a.logger.Errorf("failed to delete user: %v", err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listPlans(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "admin.API.listPlans")
	defer span.End()

	plans, err := a.service.ListPlans(ctx)
	if err != nil {
		a.logger.Errorf("failed to list plans: %v", err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(plans)
}

func (a *API) createPlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "admin.API.createPlan")
	defer span.End()

	var plan types.Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		a.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := a.service.CreatePlan(ctx, &plan)
	if err != nil {
		a.logger.Errorf("failed to create plan: %v", err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

func (a *API) updatePlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "admin.API.updatePlan")
	defer span.End()

	planID, err := strconv.ParseInt(chi.URLParam(r, "planID"), 10, 64)
	if err != nil {
		a.errorResponse(w, http.StatusBadRequest, "invalid plan id")
		return
	}

	var plan types.Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		a.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	plan.ID = planID

	if err := a.service.UpdatePlan(ctx, &plan); err != nil {
		if errors.Is(err, ErrNotFound) {
			a.errorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		a.logger.Errorf("failed to update plan: %v", err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(plan)
}

func (a *API) deletePlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "admin.API.deletePlan")
	defer span.End()

	planID, err := strconv.ParseInt(chi.URLParam(r, "planID"), 10, 64)
	if err != nil {
		a.errorResponse(w, http.StatusBadRequest, "invalid plan id")
		return
	}

	if err := a.service.DeletePlan(ctx, planID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			a.errorResponse(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInUse):
			a.errorResponse(w, http.StatusConflict, err.Error())
		default:
			a.logger.Errorf("failed to delete plan: %v", err)
			a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listRoles(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "admin.API.listRoles")
	defer span.End()

	roles, err := a.service.ListProjectRoles(ctx)
	if err != nil {
		a.logger.Errorf("failed to list project roles: %v", err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(roles)
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
