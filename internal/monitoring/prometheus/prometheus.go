// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
)

var _ monitoring.MonitorInterface = (*Monitor)(nil)

type Monitor struct {
	service string

	responseTime    *prometheus.HistogramVec
	depAvailability *prometheus.GaugeVec

	logger logging.LoggerInterface
}

func (m *Monitor) GetService() string {
	return m.service
}

func (m *Monitor) SetResponseTimeMetric(tags map[string]string, seconds float64) error {
	metric, err := m.responseTime.GetMetricWith(tags)
	if err != nil {
		return err
	}

	metric.Observe(seconds)
	return nil
}

func (m *Monitor) SetDependencyAvailability(tags map[string]string, available float64) error {
	metric, err := m.depAvailability.GetMetricWith(tags)
	if err != nil {
		return err
	}

	metric.Set(available)
	return nil
}

func (m *Monitor) registerMetrics() {
	m.responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_time_seconds",
			Help: "Duration of HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": m.service,
			},
		},
		[]string{"route", "status"},
	)

	m.depAvailability = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dependency_available",
			Help: "Availability of external dependencies (1 up, 0 down).",
			ConstLabels: prometheus.Labels{
				"service": m.service,
			},
		},
		[]string{"dependency"},
	)

	prometheus.MustRegister(m.responseTime, m.depAvailability)
}

func NewMonitor(service string, logger logging.LoggerInterface) *Monitor {
	m := new(Monitor)

	m.service = service
	m.logger = logger

	m.registerMetrics()

	return m
}
