// Package rlloop runs the iterative evaluate-reward-improve training loop
// over a generated specification. Each session is local state: the record
// list is built inside Run and returned, never accumulated globally.
package rlloop

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/specfoundry/design-orchestrator/internal/evaluation"
	"github.com/specfoundry/design-orchestrator/internal/improve"
	"github.com/specfoundry/design-orchestrator/internal/reward"
	"github.com/specfoundry/design-orchestrator/internal/spec"
)

// ErrGenerationFailed wraps a generator failure on the first iteration,
// the only condition that aborts a whole session.
var ErrGenerationFailed = errors.New("specification generation failed")

// CodeInternalFailure marks a sentinel record for an iteration whose
// evaluation or improvement step failed internally.
const CodeInternalFailure = "internal_failure"

// Generator supplies the first candidate specification for a session.
type Generator interface {
	Generate(ctx context.Context, prompt string) (spec.Specification, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (spec.Specification, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (spec.Specification, error) {
	return f(ctx, prompt)
}

// Snapshot is one side of an iteration's before/after pair. Spec is nil on
// the before side of iteration 1.
type Snapshot struct {
	Spec  *spec.Specification `json:"spec"`
	Score float64             `json:"score"`
}

// Feedback is the structured advice attached to an iteration record.
type Feedback struct {
	Suggestions []string `json:"suggestions"`
	Confidence  float64  `json:"confidence"`
}

// IterationRecord is one immutable step of a session's audit trail.
type IterationRecord struct {
	Iteration   int               `json:"iteration_number"`
	Before      Snapshot          `json:"before"`
	After       Snapshot          `json:"after"`
	Evaluation  evaluation.Result `json:"evaluation"`
	Feedback    Feedback          `json:"feedback"`
	Reward      float64           `json:"reward"`
	Improvement float64           `json:"improvement"`
}

// Insights summarizes one finished session.
type Insights struct {
	ScoreDelta    float64 `json:"score_delta"`
	AverageReward float64 `json:"average_reward"`
	Converged     bool    `json:"converged"`
	ConvergedAt   int     `json:"converged_at,omitempty"`
}

// RunResult is the complete outcome of one training session.
type RunResult struct {
	Records   []IterationRecord  `json:"iterations"`
	FinalSpec spec.Specification `json:"final_spec"`
	Insights  Insights           `json:"insights"`
}

// Loop orchestrates generate, evaluate, reward, and improve for a fixed
// iteration budget.
type Loop struct {
	generator Generator
	evaluator *evaluation.Evaluator
	improver  *improve.Engine
	tracer    trace.Tracer
}

// New builds a Loop around a generator.
func New(generator Generator) *Loop {
	return &Loop{
		generator: generator,
		evaluator: evaluation.New(),
		improver:  improve.New(),
		tracer:    otel.Tracer("rlloop"),
	}
}

// Run executes exactly n iterations for the prompt and returns every
// record. The only fatal failure is generation on iteration 1; any later
// internal failure becomes a sentinel record and the loop continues so the
// requested budget is always honored. The context carries tracing only;
// the loop itself runs to completion once started.
//
// Observers are invoked synchronously as each record is produced, before
// the next iteration starts, so live streams see the session as it runs.
func (l *Loop) Run(ctx context.Context, prompt string, n int, observers ...func(IterationRecord)) (RunResult, error) {
	if n < 1 {
		return RunResult{}, fmt.Errorf("iteration budget must be at least 1, got %d", n)
	}

	ctx, span := l.tracer.Start(ctx, "rlloop.Run", trace.WithAttributes(
		attribute.Int("session.iterations", n),
	))
	defer span.End()

	current, err := l.generator.Generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		return RunResult{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	records := make([]IterationRecord, 0, n)
	prevScore := 0.0
	var prevSpec *spec.Specification
	converged := false
	convergedAt := 0

	notify := func(record IterationRecord) {
		for _, observe := range observers {
			if observe != nil {
				observe(record)
			}
		}
	}

	for i := 1; i <= n; i++ {
		record, ok := l.iterate(i, current, prompt, prevSpec, prevScore)
		if !ok {
			sentinel := sentinelRecord(i, current, prevSpec, prevScore)
			records = append(records, sentinel)
			notify(sentinel)
			prevSpec, prevScore = sentinel.After.Spec, sentinel.After.Score
			continue
		}

		records = append(records, record)
		notify(record)
		snap := current.Clone()
		prevSpec = &snap
		prevScore = record.After.Score

		if record.Evaluation.Severity == spec.SeverityNone {
			if !converged {
				converged = true
				convergedAt = i
			}
			continue
		}
		if i < n {
			current = l.improver.Improve(current, record.Evaluation.Issues)
		}
	}

	result := RunResult{
		Records:   records,
		FinalSpec: current,
		Insights:  insights(records, converged, convergedAt),
	}
	span.SetAttributes(
		attribute.Bool("session.converged", converged),
		attribute.Float64("session.score_delta", result.Insights.ScoreDelta),
	)
	return result, nil
}

// iterate evaluates one candidate and assembles its record. A panic in the
// evaluation pipeline reports ok=false so the caller can record a sentinel
// instead of aborting the session.
func (l *Loop) iterate(i int, current spec.Specification, prompt string, prevSpec *spec.Specification, prevScore float64) (record IterationRecord, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	result := l.evaluator.Evaluate(current, prompt)
	r := reward.Compute(result)

	after := current.Clone()
	record = IterationRecord{
		Iteration:  i,
		Before:     Snapshot{Spec: prevSpec, Score: prevScore},
		After:      Snapshot{Spec: &after, Score: result.Score},
		Evaluation: result,
		Feedback: Feedback{
			Suggestions: result.Suggestions(),
			Confidence:  confidence(result.Severity),
		},
		Reward: r,
	}
	if prevSpec != nil {
		record.Improvement = result.Score - prevScore
	}
	return record, true
}

func sentinelRecord(i int, current spec.Specification, prevSpec *spec.Specification, prevScore float64) IterationRecord {
	after := current.Clone()
	record := IterationRecord{
		Iteration: i,
		Before:    Snapshot{Spec: prevSpec, Score: prevScore},
		After:     Snapshot{Spec: &after, Score: 0},
		Evaluation: evaluation.Result{
			Score:    0,
			Severity: spec.SeverityMajor,
			Issues: []spec.Issue{{
				Code:     CodeInternalFailure,
				Message:  fmt.Sprintf("iteration %d failed internally and was skipped", i),
				Severity: spec.SeverityMajor,
			}},
			Feedback: fmt.Sprintf("iteration %d failed internally and was skipped", i),
		},
		Feedback: Feedback{Confidence: 0},
		Reward:   0,
	}
	if prevSpec != nil {
		record.Improvement = -prevScore
	}
	return record
}

// confidence grades how trustworthy the iteration's advice is, by worst
// finding severity.
func confidence(severity spec.Severity) float64 {
	switch severity {
	case spec.SeverityNone:
		return 0.95
	case spec.SeverityMinor:
		return 0.8
	default:
		return 0.5
	}
}

func insights(records []IterationRecord, converged bool, convergedAt int) Insights {
	out := Insights{Converged: converged, ConvergedAt: convergedAt}
	if len(records) == 0 {
		return out
	}
	sum := 0.0
	for _, r := range records {
		sum += r.Reward
	}
	out.AverageReward = math.Round(sum/float64(len(records))*10000) / 10000
	out.ScoreDelta = records[len(records)-1].After.Score - records[0].After.Score
	return out
}
