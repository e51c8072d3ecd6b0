package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "codeverse"

// StartGenerationSpan starts a span for a plan generation run.
func StartGenerationSpan(ctx context.Context, planID, repositoryID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "generation",
		trace.WithAttributes(
			attribute.String("plan.id", planID),
			attribute.String("repository.id", repositoryID),
		),
	)
}

// StartTranscribeSpan starts a span for a speech-to-text call.
func StartTranscribeSpan(ctx context.Context, planID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "transcribe",
		trace.WithAttributes(
			attribute.String("plan.id", planID),
		),
	)
}
