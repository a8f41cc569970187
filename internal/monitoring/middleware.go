// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pulsewatch/pulsewatch/internal/logging"
)

type Middleware struct {
	monitor MonitorInterface
	logger  logging.LoggerInterface
}

// ResponseTime records request durations labeled by the matched chi route
// pattern and response status.
func (m *Middleware) ResponseTime() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			tags := map[string]string{
				"route":  route,
				"status": strconv.Itoa(rw.statusCode),
			}

			if err := m.monitor.SetResponseTimeMetric(tags, time.Since(start).Seconds()); err != nil {
				m.logger.Errorf("failed to record response time: %v", err)
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func NewMiddleware(monitor MonitorInterface, logger logging.LoggerInterface) *Middleware {
	mdw := new(Middleware)

	mdw.monitor = monitor
	mdw.logger = logger

	return mdw
}
