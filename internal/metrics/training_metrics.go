package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("training-metrics")

// TrainingMetrics provides metrics collection for RL training sessions
type TrainingMetrics struct {
	sessionsStartedCounter   metric.Int64Counter
	sessionsCompletedCounter metric.Int64Counter
	sessionsFailedCounter    metric.Int64Counter
	sessionDurationHistogram metric.Float64Histogram
	rewardHistogram          metric.Float64Histogram
	sessionsActiveGauge      metric.Int64UpDownCounter
}

// NewTrainingMetrics creates a new training metrics collector
func NewTrainingMetrics() (*TrainingMetrics, error) {
	sessionsStartedCounter, err := meter.Int64Counter(
		"design_orchestrator.sessions.started",
		metric.WithDescription("Total number of training sessions started"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	sessionsCompletedCounter, err := meter.Int64Counter(
		"design_orchestrator.sessions.completed",
		metric.WithDescription("Total number of training sessions completed successfully"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	sessionsFailedCounter, err := meter.Int64Counter(
		"design_orchestrator.sessions.failed",
		metric.WithDescription("Total number of training sessions that failed"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	sessionDurationHistogram, err := meter.Float64Histogram(
		"design_orchestrator.session.duration",
		metric.WithDescription("Duration of a training session in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rewardHistogram, err := meter.Float64Histogram(
		"design_orchestrator.session.average_reward",
		metric.WithDescription("Average reward per training session"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	sessionsActiveGauge, err := meter.Int64UpDownCounter(
		"design_orchestrator.sessions.active",
		metric.WithDescription("Number of currently running training sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	return &TrainingMetrics{
		sessionsStartedCounter:   sessionsStartedCounter,
		sessionsCompletedCounter: sessionsCompletedCounter,
		sessionsFailedCounter:    sessionsFailedCounter,
		sessionDurationHistogram: sessionDurationHistogram,
		rewardHistogram:          rewardHistogram,
		sessionsActiveGauge:      sessionsActiveGauge,
	}, nil
}

// RecordSessionStarted records a new training session
func (tm *TrainingMetrics) RecordSessionStarted(ctx context.Context, sessionID string, iterations int) {
	tm.sessionsStartedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("session.iterations", iterations),
		),
	)
	tm.sessionsActiveGauge.Add(ctx, 1)
}

// RecordSessionCompleted records a successful training session
func (tm *TrainingMetrics) RecordSessionCompleted(ctx context.Context, sessionID string, converged bool, averageReward float64, duration time.Duration) {
	tm.sessionsCompletedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Bool("session.converged", converged),
		),
	)
	tm.sessionDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("status", "completed"),
		),
	)
	tm.rewardHistogram.Record(ctx, averageReward)
	tm.sessionsActiveGauge.Add(ctx, -1)
}

// RecordSessionFailed records a failed training session
func (tm *TrainingMetrics) RecordSessionFailed(ctx context.Context, sessionID, errorType string, duration time.Duration) {
	tm.sessionsFailedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("error.type", errorType),
		),
	)
	tm.sessionDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("status", "failed"),
		),
	)
	tm.sessionsActiveGauge.Add(ctx, -1)
}
