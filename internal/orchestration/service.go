package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/specfoundry/design-orchestrator/internal/cache"
	"github.com/specfoundry/design-orchestrator/internal/evaluation"
	"github.com/specfoundry/design-orchestrator/internal/extraction"
	"github.com/specfoundry/design-orchestrator/internal/metrics"
	"github.com/specfoundry/design-orchestrator/internal/models"
	"github.com/specfoundry/design-orchestrator/internal/reward"
	"github.com/specfoundry/design-orchestrator/internal/rlloop"
	"github.com/specfoundry/design-orchestrator/internal/spec"
)

var serviceTracer = otel.Tracer("orchestration")

// Service wires the computation pipeline to persistence, caching, and
// metrics. Persistence is fire-and-forget: a failing store write is logged
// and mirrored to the fallback log, never surfaced to the caller.
type Service struct {
	store     Store
	fallback  *FallbackLog
	cache     *cache.Cache
	metrics   *metrics.TrainingMetrics
	extractor *extraction.Extractor
	evaluator *evaluation.Evaluator
	loop      *rlloop.Loop
	tracer    trace.Tracer
}

// NewService creates the orchestration service.
func NewService(store Store, fallback *FallbackLog, c *cache.Cache, tm *metrics.TrainingMetrics) *Service {
	extractor := extraction.New()
	return &Service{
		store:     store,
		fallback:  fallback,
		cache:     c,
		metrics:   tm,
		extractor: extractor,
		evaluator: evaluation.New(),
		loop:      rlloop.New(extractor),
		tracer:    serviceTracer,
	}
}

// Generate extracts a specification from the prompt, evaluates it, and
// persists the pair. Responses are cached per prompt.
func (s *Service) Generate(ctx context.Context, prompt string) (models.EvaluationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "orchestration.generate")
	defer span.End()

	key := cache.Key("generate", prompt)
	if cached, ok := s.cache.Get(key); ok {
		metrics.RecordCacheHit()
		span.SetAttributes(attribute.Bool("cache.hit", true))
		resp := cached.(models.EvaluationResponse)
		resp.Cached = true
		return resp, nil
	}
	metrics.RecordCacheMiss()

	generated, err := s.extractor.Extract(prompt)
	if err != nil {
		span.RecordError(err)
		return models.EvaluationResponse{}, fmt.Errorf("failed to generate specification: %w", err)
	}

	resp := s.buildEvaluation(generated, prompt)
	resp.SpecID = uuid.New().String()

	s.persistEvaluation(resp, prompt)
	s.cache.Set(key, resp)

	span.SetAttributes(
		attribute.String("spec.id", resp.SpecID),
		attribute.Float64("evaluation.score", resp.Score),
	)
	return resp, nil
}

// Evaluate scores a caller-supplied specification without generation.
func (s *Service) Evaluate(ctx context.Context, sp spec.Specification, prompt string) models.EvaluationResponse {
	_, span := s.tracer.Start(ctx, "orchestration.evaluate")
	defer span.End()

	resp := s.buildEvaluation(sp, prompt)
	resp.SpecID = uuid.New().String()
	s.persistEvaluation(resp, prompt)

	span.SetAttributes(attribute.Float64("evaluation.score", resp.Score))
	return resp
}

// Train runs one RL session. When onIteration is non-nil it is invoked
// synchronously as each record is produced, which feeds the WebSocket live
// stream while the loop is still running.
func (s *Service) Train(ctx context.Context, prompt string, n int, onIteration func(sessionID string, record rlloop.IterationRecord)) (models.TrainResponse, error) {
	ctx, span := s.tracer.Start(ctx, "orchestration.train")
	defer span.End()

	sessionID := uuid.New().String()
	started := time.Now()
	s.metrics.RecordSessionStarted(ctx, sessionID, n)

	var observer func(rlloop.IterationRecord)
	if onIteration != nil {
		observer = func(record rlloop.IterationRecord) { onIteration(sessionID, record) }
	}

	result, err := s.loop.Run(ctx, prompt, n, observer)
	if err != nil {
		span.RecordError(err)
		s.metrics.RecordSessionFailed(ctx, sessionID, errorType(err), time.Since(started))
		return models.TrainResponse{}, err
	}

	session := models.TrainResponse{
		SessionID:  sessionID,
		Prompt:     prompt,
		Iterations: result.Records,
		FinalSpec:  result.FinalSpec,
		Insights:   result.Insights,
		CreatedAt:  started.UTC(),
	}
	s.persistSession(session)
	s.metrics.RecordSessionCompleted(ctx, sessionID, result.Insights.Converged, result.Insights.AverageReward, time.Since(started))

	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.Bool("session.converged", result.Insights.Converged),
	)
	return session, nil
}

// SessionIterations retrieves a persisted session's audit trail.
func (s *Service) SessionIterations(ctx context.Context, sessionID string) (models.SessionIterationsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "orchestration.session_iterations")
	defer span.End()

	out, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			span.RecordError(err)
		}
		return out, err
	}
	return out, nil
}

// Analytics aggregates training statistics across all persisted sessions.
func (s *Service) Analytics(ctx context.Context) (models.AnalyticsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "orchestration.analytics")
	defer span.End()

	out, err := s.store.Analytics(ctx)
	if err != nil {
		span.RecordError(err)
		return out, err
	}
	return out, nil
}

// GetUserByEmail exposes the user lookup for the login endpoint.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

// buildEvaluation runs the evaluator and reward model over a specification
// and maps the verdict to the public response shape.
func (s *Service) buildEvaluation(sp spec.Specification, prompt string) models.EvaluationResponse {
	result := s.evaluator.Evaluate(sp, prompt)
	return models.EvaluationResponse{
		Spec:              sp,
		Score:             result.Score,
		Completeness:      result.Breakdown.Completeness,
		FormatValidity:    result.Breakdown.FormatScore,
		Severity:          result.Severity,
		CriteriaBreakdown: result.CriteriaBreakdown,
		Issues:            result.Issues,
		Feedback:          result.Feedback,
		Suggestions:       result.Suggestions(),
		Reward:            reward.Compute(result),
	}
}

// persistEvaluation writes the spec and its evaluation in the background.
func (s *Service) persistEvaluation(resp models.EvaluationResponse, prompt string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.store.SaveSpec(ctx, resp.SpecID, prompt, resp.Spec); err != nil {
			s.recordWriteFailure("spec", resp.SpecID, err, resp)
			return
		}
		if err := s.store.SaveEvaluation(ctx, resp.SpecID, resp); err != nil {
			s.recordWriteFailure("evaluation", resp.SpecID, err, resp)
		}
	}()
}

// persistSession writes a finished session in the background.
func (s *Service) persistSession(session models.TrainResponse) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.store.SaveSession(ctx, session); err != nil {
			s.recordWriteFailure("session", session.SessionID, err, session)
		}
	}()
}

func (s *Service) recordWriteFailure(kind, id string, err error, payload any) {
	log.Printf(`{"level":"warn","message":"Database write failed, using fallback log","kind":"%s","id":"%s","error":"%v"}`, kind, id, err)
	if s.fallback == nil {
		return
	}
	if fbErr := s.fallback.Append(kind, payload); fbErr != nil {
		log.Printf(`{"level":"error","message":"Fallback write failed","kind":"%s","id":"%s","error":"%v"}`, kind, id, fbErr)
	}
}

func errorType(err error) string {
	if errors.Is(err, rlloop.ErrGenerationFailed) {
		return "generation_error"
	}
	return "internal_error"
}
