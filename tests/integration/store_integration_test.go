package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specfoundry/design-orchestrator/internal/extraction"
	"github.com/specfoundry/design-orchestrator/internal/models"
	"github.com/specfoundry/design-orchestrator/internal/orchestration"
	"github.com/specfoundry/design-orchestrator/internal/rlloop"
	"github.com/specfoundry/design-orchestrator/tests/helpers"
)

func TestPostgresStore_SpecAndEvaluationRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := helpers.GetTestDatabasePool(ctx, t)
	store := orchestration.NewPostgresStore(pool)

	extractor := extraction.New()
	generated, err := extractor.Extract(helpers.TablePrompt)
	require.NoError(t, err)

	specID := uuid.New().String()
	require.NoError(t, store.SaveSpec(ctx, specID, helpers.TablePrompt, generated))

	// Upsert path: a second save of the same ID must not fail.
	require.NoError(t, store.SaveSpec(ctx, specID, helpers.TablePrompt, generated))

	resp := models.EvaluationResponse{
		SpecID: specID,
		Spec:   generated,
		Score:  75,
		Reward: 0.14,
	}
	require.NoError(t, store.SaveEvaluation(ctx, specID, resp))

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM evaluations WHERE spec_id = $1`, specID)
		_, _ = pool.Exec(context.Background(), `DELETE FROM specs WHERE id = $1`, specID)
	})
}

func TestPostgresStore_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := helpers.GetTestDatabasePool(ctx, t)
	store := orchestration.NewPostgresStore(pool)

	loop := rlloop.New(extraction.New())
	result, err := loop.Run(ctx, helpers.TablePrompt, 3)
	require.NoError(t, err)

	session := models.TrainResponse{
		SessionID:  uuid.New().String(),
		Prompt:     helpers.TablePrompt,
		Iterations: result.Records,
		FinalSpec:  result.FinalSpec,
		Insights:   result.Insights,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.SaveSession(ctx, session))
	t.Cleanup(func() { helpers.CleanupSession(context.Background(), pool, session.SessionID) })

	got, err := store.GetSession(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, got.SessionID)
	assert.Equal(t, helpers.TablePrompt, got.Prompt)
	require.Len(t, got.Iterations, 3)
	assert.Equal(t, result.Records[0].After.Score, got.Iterations[0].After.Score)

	analytics, err := store.Analytics(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, analytics.TotalSessions, 1)
	assert.GreaterOrEqual(t, analytics.TotalIterations, 3)
}

func TestPostgresStore_UnknownSession(t *testing.T) {
	ctx := context.Background()
	pool := helpers.GetTestDatabasePool(ctx, t)
	store := orchestration.NewPostgresStore(pool)

	_, err := store.GetSession(ctx, uuid.New().String())
	assert.ErrorIs(t, err, orchestration.ErrSessionNotFound)
}

func TestPostgresStore_UserLookup(t *testing.T) {
	ctx := context.Background()
	pool := helpers.GetTestDatabasePool(ctx, t)
	store := orchestration.NewPostgresStore(pool)

	email := helpers.UniqueEmail("lookup")
	userID := helpers.SeedUser(ctx, t, pool, email, "integration-pass-1")

	user, err := store.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, email, user.Email)
	assert.Contains(t, user.Roles, "user")

	_, err = store.GetUserByEmail(ctx, helpers.UniqueEmail("missing"))
	assert.ErrorIs(t, err, orchestration.ErrUserNotFound)
}
