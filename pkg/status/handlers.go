// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
	"github.com/pulsewatch/pulsewatch/internal/version"
)

type API struct {
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewAPI(tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	return &API{
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Get("/api/v0/status", a.alive)
	mux.Get("/api/v0/version", a.version)
}

type statusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (a *API) alive(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "status.API.alive")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(statusResponse{Status: "ok", Version: version.Version}); err != nil {
		a.logger.Errorf("failed to encode status response: %v", err)
	}
}

func (a *API) version(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "status.API.version")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"version": version.Version}); err != nil {
		a.logger.Errorf("failed to encode version response: %v", err)
	}
}
