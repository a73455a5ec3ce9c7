package models

import (
	"time"

	"github.com/specfoundry/design-orchestrator/internal/rlloop"
	"github.com/specfoundry/design-orchestrator/internal/spec"
)

// GenerateRequest asks for a specification extracted from a prompt
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// EvaluateRequest asks for an evaluation of an existing specification.
// Spec carries no binding rule: a malformed or empty spec is a legitimate
// input that evaluates to a zero-score major verdict, not a 400.
type EvaluateRequest struct {
	Spec   spec.Specification `json:"spec"`
	Prompt string             `json:"prompt"`
}

// TrainRequest starts an RL training session for a prompt
type TrainRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	NIter  int    `json:"n_iter"`
}

// EvaluationResponse is the evaluation payload shared by the generate and
// evaluate endpoints. Field names are part of the public API contract.
type EvaluationResponse struct {
	SpecID            string             `json:"spec_id,omitempty"`
	Spec              spec.Specification `json:"spec"`
	Score             float64            `json:"score"`
	Completeness      int                `json:"completeness"`
	FormatValidity    int                `json:"format_validity"`
	Severity          spec.Severity      `json:"severity"`
	CriteriaBreakdown map[string]float64 `json:"criteria_breakdown"`
	Issues            []spec.Issue       `json:"issues"`
	Feedback          string             `json:"feedback"`
	Suggestions       []string           `json:"suggestions"`
	Reward            float64            `json:"reward"`
	Cached            bool               `json:"cached,omitempty"`
}

// TrainResponse is the full outcome of a training session
type TrainResponse struct {
	SessionID  string                   `json:"session_id"`
	Prompt     string                   `json:"prompt"`
	Iterations []rlloop.IterationRecord `json:"iterations"`
	FinalSpec  spec.Specification       `json:"final_spec"`
	Insights   rlloop.Insights          `json:"insights"`
	CreatedAt  time.Time                `json:"created_at"`
}

// SessionIterationsResponse returns the persisted audit trail of a session
type SessionIterationsResponse struct {
	SessionID  string                   `json:"session_id"`
	Prompt     string                   `json:"prompt"`
	Iterations []rlloop.IterationRecord `json:"iterations"`
	CreatedAt  time.Time                `json:"created_at"`
}

// AnalyticsResponse aggregates training statistics across sessions
type AnalyticsResponse struct {
	TotalSessions   int     `json:"total_sessions"`
	TotalIterations int     `json:"total_iterations"`
	AverageScore    float64 `json:"average_score"`
	AverageReward   float64 `json:"average_reward"`
	ConvergenceRate float64 `json:"convergence_rate"`
}

// TokenRequest exchanges an API key for a JWT (key travels in X-API-Key)
type TokenRequest struct {
	Subject string `json:"subject"`
}

// TokenResponse carries an issued JWT
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
