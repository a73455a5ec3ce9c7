package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/specfoundry/design-orchestrator/internal/models"
	"github.com/specfoundry/design-orchestrator/internal/rlloop"
	"github.com/specfoundry/design-orchestrator/internal/spec"
)

// ErrSessionNotFound reports a session ID with no persisted record.
var ErrSessionNotFound = errors.New("session not found")

// ErrUserNotFound reports an unknown login email.
var ErrUserNotFound = errors.New("user not found")

// ErrStoreUnavailable reports that no database is configured or reachable.
var ErrStoreUnavailable = errors.New("persistent store unavailable")

// Store is the persistence boundary for specifications, evaluations, and
// training sessions. The service layer treats writes as fire-and-forget:
// a failing store never blocks the computation pipeline.
type Store interface {
	SaveSpec(ctx context.Context, specID, prompt string, s spec.Specification) error
	SaveEvaluation(ctx context.Context, specID string, resp models.EvaluationResponse) error
	SaveSession(ctx context.Context, session models.TrainResponse) error
	GetSession(ctx context.Context, sessionID string) (models.SessionIterationsResponse, error)
	Analytics(ctx context.Context) (models.AnalyticsResponse, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// PostgresStore persists through a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// SaveSpec stores a generated specification keyed by its ID.
func (s *PostgresStore) SaveSpec(ctx context.Context, specID, prompt string, sp spec.Specification) error {
	payload, err := json.Marshal(sp)
	if err != nil {
		return fmt.Errorf("failed to encode spec: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO specs (id, prompt, design_type, payload)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`,
		specID, prompt, string(sp.DesignType), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save spec: %w", err)
	}
	return nil
}

// SaveEvaluation stores one evaluation verdict for a spec.
func (s *PostgresStore) SaveEvaluation(ctx context.Context, specID string, resp models.EvaluationResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode evaluation: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO evaluations (spec_id, score, severity, reward, payload)
		 VALUES ($1, $2, $3, $4, $5)`,
		specID, resp.Score, resp.Severity.String(), resp.Reward, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save evaluation: %w", err)
	}
	return nil
}

// SaveSession stores a finished training session with its full iteration
// trail in one transaction.
func (s *PostgresStore) SaveSession(ctx context.Context, session models.TrainResponse) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	finalSpec, err := json.Marshal(session.FinalSpec)
	if err != nil {
		return fmt.Errorf("failed to encode final spec: %w", err)
	}
	insights, err := json.Marshal(session.Insights)
	if err != nil {
		return fmt.Errorf("failed to encode insights: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO sessions (id, prompt, final_spec, insights, converged, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		session.SessionID, session.Prompt, finalSpec, insights,
		session.Insights.Converged, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	for _, record := range session.Iterations {
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to encode iteration %d: %w", record.Iteration, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO iterations (session_id, iteration_number, score, reward, improvement, payload)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			session.SessionID, record.Iteration, record.After.Score,
			record.Reward, record.Improvement, payload,
		)
		if err != nil {
			return fmt.Errorf("failed to save iteration %d: %w", record.Iteration, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// GetSession retrieves a session's iteration trail ordered by iteration
// number.
func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (models.SessionIterationsResponse, error) {
	var out models.SessionIterationsResponse

	err := s.pool.QueryRow(ctx,
		`SELECT id, prompt, created_at FROM sessions WHERE id = $1`,
		sessionID,
	).Scan(&out.SessionID, &out.Prompt, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return out, ErrSessionNotFound
		}
		return out, fmt.Errorf("failed to get session: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM iterations WHERE session_id = $1 ORDER BY iteration_number`,
		sessionID,
	)
	if err != nil {
		return out, fmt.Errorf("failed to query iterations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return out, fmt.Errorf("failed to scan iteration: %w", err)
		}
		var record rlloop.IterationRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return out, fmt.Errorf("failed to decode iteration: %w", err)
		}
		out.Iterations = append(out.Iterations, record)
	}
	if err = rows.Err(); err != nil {
		return out, fmt.Errorf("error iterating records: %w", err)
	}
	return out, nil
}

// Analytics aggregates scores and rewards across all sessions.
func (s *PostgresStore) Analytics(ctx context.Context) (models.AnalyticsResponse, error) {
	var out models.AnalyticsResponse

	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(DISTINCT sess.id),
			COUNT(it.id),
			COALESCE(AVG(it.score), 0),
			COALESCE(AVG(it.reward), 0),
			COALESCE(AVG(CASE WHEN sess.converged THEN 1.0 ELSE 0.0 END), 0)
		FROM sessions sess
		LEFT JOIN iterations it ON it.session_id = sess.id
	`).Scan(
		&out.TotalSessions,
		&out.TotalIterations,
		&out.AverageScore,
		&out.AverageReward,
		&out.ConvergenceRate,
	)
	if err != nil {
		return out, fmt.Errorf("failed to aggregate analytics: %w", err)
	}
	return out, nil
}

// GetUserByEmail looks up a user account for login.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	var roles []string

	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, hashed_password, roles, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.HashedPassword,
		&roles, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user, ErrUserNotFound
		}
		return user, fmt.Errorf("failed to get user: %w", err)
	}
	user.Roles = roles
	return user, nil
}

// UnavailableStore stands in when the service runs without a database.
// Every write fails, which routes the payload to the fallback log.
type UnavailableStore struct{}

func (UnavailableStore) SaveSpec(context.Context, string, string, spec.Specification) error {
	return ErrStoreUnavailable
}

func (UnavailableStore) SaveEvaluation(context.Context, string, models.EvaluationResponse) error {
	return ErrStoreUnavailable
}

func (UnavailableStore) SaveSession(context.Context, models.TrainResponse) error {
	return ErrStoreUnavailable
}

func (UnavailableStore) GetSession(context.Context, string) (models.SessionIterationsResponse, error) {
	return models.SessionIterationsResponse{}, ErrStoreUnavailable
}

func (UnavailableStore) Analytics(context.Context) (models.AnalyticsResponse, error) {
	return models.AnalyticsResponse{}, ErrStoreUnavailable
}

func (UnavailableStore) GetUserByEmail(context.Context, string) (models.User, error) {
	return models.User{}, ErrStoreUnavailable
}

// ConnectPool dials the database with a retry loop, for startup resilience
// while the database container is still coming up.
func ConnectPool(ctx context.Context, url string, retries int, interval time.Duration) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	for attempt := 1; attempt <= retries; attempt++ {
		pool, err = pgxpool.New(ctx, url)
		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				return pool, nil
			} else {
				err = pingErr
				pool.Close()
			}
		}
		if attempt < retries {
			time.Sleep(interval)
		}
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", retries, err)
}
