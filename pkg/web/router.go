// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

// Package web assembles the HTTP surface: middleware stack, public routes,
// the project-scoped API and the admin surface.
package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pulsewatch/pulsewatch/internal/config"
	"github.com/pulsewatch/pulsewatch/internal/db"
	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/mail"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/session"
	"github.com/pulsewatch/pulsewatch/internal/storage"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/pkg/access"
	"github.com/pulsewatch/pulsewatch/pkg/account"
	"github.com/pulsewatch/pulsewatch/pkg/admin"
	"github.com/pulsewatch/pulsewatch/pkg/authentication"
	"github.com/pulsewatch/pulsewatch/pkg/invitation"
	"github.com/pulsewatch/pulsewatch/pkg/member"
	"github.com/pulsewatch/pulsewatch/pkg/metrics"
	"github.com/pulsewatch/pulsewatch/pkg/project"
	"github.com/pulsewatch/pulsewatch/pkg/server"
	"github.com/pulsewatch/pulsewatch/pkg/status"
)

func NewRouter(
	s storage.StorageInterface,
	dbClient db.DBClientInterface,
	sessionStore session.StoreInterface,
	mailer mail.MailerInterface,
	specs *config.EnvSpec,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	router.Use(
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS([]string{"*"}),
		session.NewMiddleware(sessionStore, specs.CookieSecure, tracer, logger).Load(),
	)

	tokens := authentication.NewTokenManager(specs.JWTSecret, specs.TokenLifetime)
	authMiddleware := authentication.NewMiddleware(tokens, s, tracer, monitor, logger)
	accessMiddleware := access.NewMiddleware(s, tracer, logger)

	authService := authentication.NewService(s, tracer, monitor, logger)
	invitationService := invitation.NewService(s, dbClient, mailer, specs.InvitationLifetime, tracer, monitor, logger)
	memberService := member.NewService(s, invitationService, tracer, monitor, logger)
	projectService := project.NewService(s, tracer, monitor, logger)
	serverService := server.NewService(s, tracer, monitor, logger)
	adminService := admin.NewService(s, tracer, monitor, logger)

	invitationAPI := invitation.NewAPI(invitationService, tracer, logger)
	memberAPI := member.NewAPI(memberService, tracer, logger)
	projectAPI := project.NewAPI(projectService, tracer, logger)
	serverAPI := server.NewAPI(serverService, tracer, logger)

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(tracer, monitor, logger).RegisterEndpoints(router)

	authentication.NewAPI(authService, tokens, specs.CookieSecure, tracer, monitor, logger).RegisterEndpoints(router)

	// The accept link from the invitation email works for anonymous
	// visitors too; they are identified if possible and parked otherwise.
	router.Group(func(r chi.Router) {
		r.Use(authMiddleware.Identify())
		invitationAPI.RegisterPublicEndpoints(r)
	})

	router.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate())

		r.Route("/api/v0/account", account.NewAPI(projectService, tracer, logger).RegisterEndpoints)

		r.Route("/api/v0/projects", func(r chi.Router) {
			r.Use(accessMiddleware.RequireUserMode())
			projectAPI.RegisterCollectionEndpoints(r)

			r.Route("/{projectID}", func(r chi.Router) {
				r.Use(accessMiddleware.ProjectContext())
				projectAPI.RegisterViewEndpoints(r)
				memberAPI.RegisterViewEndpoints(r)
				serverAPI.RegisterViewEndpoints(r)

				r.Group(func(r chi.Router) {
					r.Use(accessMiddleware.RequireServerManager())
					serverAPI.RegisterManageEndpoints(r)
				})

				r.Group(func(r chi.Router) {
					r.Use(accessMiddleware.RequireOwner())
					projectAPI.RegisterManageEndpoints(r)
					memberAPI.RegisterManageEndpoints(r)
					invitationAPI.RegisterProjectEndpoints(r)
				})
			})
		})

		r.Route("/api/v0/admin", func(r chi.Router) {
			r.Use(accessMiddleware.RequireAdminMode())
			admin.NewAPI(adminService, tracer, logger).RegisterEndpoints(r)
		})
	})

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}

func middlewareCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
