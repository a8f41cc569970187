// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/session"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/types"
)

type API struct {
	service ServiceInterface
	tokens  *TokenManager
	secure  bool

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewAPI(service ServiceInterface, tokens *TokenManager, secure bool, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	return &API{
		service: service,
		tokens:  tokens,
		secure:  secure,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (a *API) RegisterEndpoints(r chi.Router) {
	r.Post("/api/v0/auth/register", a.register)
	r.Post("/api/v0/auth/login", a.login)
	r.Post("/api/v0/auth/logout", a.logout)
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "authentication.API.register")
	defer span.End()

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := a.service.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			a.logger.Errorf("registration failed: %v", err)
			http.Error(w, "registration failed", http.StatusInternalServerError)
		}
		return
	}

	a.establishSession(w, r, user)

	// A parked invitation token means the user registered to accept an
	// invitation; send them back into the accept flow.
	if sess := session.FromContext(ctx); sess != nil && sess.InvitationToken != "" {
		w.Header().Set("Location", fmt.Sprintf("/invitations/%s/accept", sess.InvitationToken))
		w.WriteHeader(http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(user)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "authentication.API.login")
	defer span.End()

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := a.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		a.logger.Errorf("login failed: %v", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	a.establishSession(w, r, user)

	if sess := session.FromContext(ctx); sess != nil && sess.InvitationToken != "" {
		w.Header().Set("Location", fmt.Sprintf("/invitations/%s/accept", sess.InvitationToken))
		w.WriteHeader(http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(user)
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "authentication.API.logout")
	defer span.End()

	if sess := session.FromContext(r.Context()); sess != nil {
		sess.UserID = ""
		sess.AdminMode = false
		sess.LastProjectID = ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
	})

	w.WriteHeader(http.StatusNoContent)
}

// establishSession issues the auth cookie and seeds session state. Admins
// enter admin mode by default.
func (a *API) establishSession(w http.ResponseWriter, r *http.Request, user *types.User) {
	token, err := a.tokens.IssueToken(user.ID)
	if err != nil {
		a.logger.Errorf("failed to issue token for user %s: %v", user.ID, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})

	if sess := session.FromContext(r.Context()); sess != nil {
		sess.UserID = user.ID
		sess.AdminMode = user.GlobalRole == types.GlobalRoleAdmin
	}
}
