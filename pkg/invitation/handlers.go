// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"encoding/json"
	"errors"
	"fmt"
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

// RegisterProjectEndpoints mounts the management surface on a project-scoped
// router. The router is expected to run ProjectContext and the owner gate
// before these handlers.
func (a *API) RegisterProjectEndpoints(r chi.Router) {
	r.Get("/invitations", a.list)
	r.Post("/invitations", a.create)
	r.Post("/invitations/{invitationID}/resend", a.resend)
	r.Delete("/invitations/{invitationID}", a.cancel)
}

// RegisterPublicEndpoints mounts the accept flow. The route is reachable
// without authentication so invitees can sign up first.
func (a *API) RegisterPublicEndpoints(r chi.Router) {
	r.Get("/invitations/{token}/accept", a.accept)
}

type createRequest struct {
	Email  string `json:"email"`
	RoleID int64  `json:"project_role_id"`
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitation.API.list")
	defer span.End()

	project := access.ProjectFromContext(ctx)
	invitations, err := a.service.ListPending(ctx, project.ID)
	if err != nil {
		a.logger.Errorf("failed to list invitations for project %s: %v", project.ID, err)
		a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(invitations)
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitation.API.create")
	defer span.End()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project := access.ProjectFromContext(ctx)
	inviter := authentication.UserFromContext(ctx)

	inv, err := a.service.Issue(ctx, project, inviter, req.Email, req.RoleID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidRole):
			a.errorResponse(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrSelfInvite), errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrConflict):
			a.errorResponse(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrLimitReached):
			a.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ErrDeliveryFailed):
			a.errorResponse(w, http.StatusBadGateway, err.Error())
		default:
			a.logger.Errorf("failed to issue invitation on project %s: %v", project.ID, err)
			a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(inv)
}

func (a *API) resend(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitation.API.resend")
	defer span.End()

	project := access.ProjectFromContext(ctx)
	inviter := authentication.UserFromContext(ctx)

	inv, err := a.service.Resend(ctx, project, inviter, chi.URLParam(r, "invitationID"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			a.errorResponse(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInvalidToken):
			a.errorResponse(w, http.StatusConflict, "invitation is no longer pending")
		case errors.Is(err, ErrExpired):
			a.errorResponse(w, http.StatusGone, err.Error())
		case errors.Is(err, ErrDeliveryFailed):
			a.errorResponse(w, http.StatusBadGateway, err.Error())
		default:
			a.logger.Errorf("failed to resend invitation on project %s: %v", project.ID, err)
			a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(inv)
}

func (a *API) cancel(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitation.API.cancel")
	defer span.End()

	project := access.ProjectFromContext(ctx)
	if err := a.service.Cancel(ctx, project, chi.URLParam(r, "invitationID")); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			a.errorResponse(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInvalidToken):
			a.errorResponse(w, http.StatusConflict, "invitation is no longer pending")
		default:
			a.logger.Errorf("failed to cancel invitation on project %s: %v", project.ID, err)
			a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// accept redeems the token from the email link. Anonymous visitors have the
// token parked in their session and are sent to sign in; the auth handlers
// bring them back here afterwards.
func (a *API) accept(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invitation.API.accept")
	defer span.End()

	token := chi.URLParam(r, "token")
	sess := session.FromContext(ctx)

	user := authentication.UserFromContext(ctx)
	if user == nil {
		if sess != nil {
			sess.InvitationToken = token
			sess.AddFlash("info", "sign in or create an account to accept the invitation")
		}
		w.Header().Set("Location", "/api/v0/auth/login")
		w.WriteHeader(http.StatusSeeOther)
		return
	}

	if sess != nil {
		sess.InvitationToken = ""
	}

	project, err := a.service.Accept(ctx, token, user)
	if err != nil {
		var mismatch *EmailMismatchError
		switch {
		case errors.As(err, &mismatch):
			a.errorResponse(w, http.StatusForbidden, mismatch.Error())
		case errors.Is(err, ErrInvalidToken):
			a.errorResponse(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrExpired):
			a.errorResponse(w, http.StatusGone, err.Error())
		default:
			a.logger.Errorf("failed to accept invitation: %v", err)
			a.errorResponse(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	if sess != nil {
		sess.AddFlash("success", fmt.Sprintf("you joined %s", project.Name))
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v0/projects/%s", project.ID))
	w.WriteHeader(http.StatusSeeOther)
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
