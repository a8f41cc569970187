// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var _ TracingInterface = (*Tracer)(nil)

type Tracer struct {
	tracer trace.Tracer
}

func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// NewTracer configures the global otel tracer provider from the config and
// returns a Tracer handle. With tracing disabled a noop tracer is returned.
func NewTracer(c *Config) *Tracer {
	t := new(Tracer)

	if !c.Enabled {
		t.tracer = noop.NewTracerProvider().Tracer("pulsewatch")
		return t
	}

	exporter := newExporter(c)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)
	otel.SetTracerProvider(tp)

	t.tracer = tp.Tracer("pulsewatch")
	return t
}

func newExporter(c *Config) sdktrace.SpanExporter {
	switch {
	case c.OtelGRPCEndpoint != "":
		exporter, err := otlptrace.New(
			context.Background(),
			otlptracegrpc.NewClient(
				otlptracegrpc.WithEndpoint(c.OtelGRPCEndpoint),
				otlptracegrpc.WithInsecure(),
			),
		)
		if err == nil {
			return exporter
		}
		c.Logger.Errorf("failed to create otlp grpc exporter: %v", err)
	case c.OtelHTTPEndpoint != "":
		exporter, err := otlptrace.New(
			context.Background(),
			otlptracehttp.NewClient(
				otlptracehttp.WithEndpoint(c.OtelHTTPEndpoint),
				otlptracehttp.WithInsecure(),
			),
		)
		if err == nil {
			return exporter
		}
		c.Logger.Errorf("failed to create otlp http exporter: %v", err)
	}

	exporter, err := stdouttrace.New()
	if err != nil {
		c.Logger.Fatalf("failed to create stdout trace exporter: %v", err)
	}
	return exporter
}

// NewNoopTracer returns a tracer that records nothing, for tests.
func NewNoopTracer() *Tracer {
	return &Tracer{tracer: noop.NewTracerProvider().Tracer("pulsewatch")}
}
