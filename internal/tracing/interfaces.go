// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type TracingInterface interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}
