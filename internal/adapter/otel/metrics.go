package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "codeverse"

// Metrics holds all CodeVerse metric instruments.
type Metrics struct {
	GenerationsStarted   metric.Int64Counter
	GenerationsCompleted metric.Int64Counter
	GenerationsFailed    metric.Int64Counter
	ChunksRelayed        metric.Int64Counter
	GenerationDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.GenerationsStarted, err = meter.Int64Counter("codeverse.generations.started",
		metric.WithDescription("Number of generation runs started"))
	if err != nil {
		return nil, err
	}

	m.GenerationsCompleted, err = meter.Int64Counter("codeverse.generations.completed",
		metric.WithDescription("Number of generation runs completed"))
	if err != nil {
		return nil, err
	}

	m.GenerationsFailed, err = meter.Int64Counter("codeverse.generations.failed",
		metric.WithDescription("Number of generation runs failed"))
	if err != nil {
		return nil, err
	}

	m.ChunksRelayed, err = meter.Int64Counter("codeverse.generation.chunks",
		metric.WithDescription("Number of section-labeled chunks relayed"))
	if err != nil {
		return nil, err
	}

	m.GenerationDuration, err = meter.Float64Histogram("codeverse.generation.duration_seconds",
		metric.WithDescription("Generation run duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
