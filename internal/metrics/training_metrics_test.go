package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainingMetrics_Creation(t *testing.T) {
	t.Run("successfully create training metrics", func(t *testing.T) {
		metrics, err := NewTrainingMetrics()
		require.NoError(t, err)
		assert.NotNil(t, metrics)
		assert.NotNil(t, metrics.sessionsStartedCounter)
		assert.NotNil(t, metrics.sessionsCompletedCounter)
		assert.NotNil(t, metrics.sessionsFailedCounter)
		assert.NotNil(t, metrics.sessionDurationHistogram)
		assert.NotNil(t, metrics.rewardHistogram)
		assert.NotNil(t, metrics.sessionsActiveGauge)
	})
}

func TestTrainingMetrics_RecordSessionLifecycle(t *testing.T) {
	metrics, err := NewTrainingMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("record started and completed", func(t *testing.T) {
		assert.NotPanics(t, func() {
			metrics.RecordSessionStarted(ctx, "session-123", 5)
			metrics.RecordSessionCompleted(ctx, "session-123", true, 0.42, 2*time.Second)
		})
	})

	t.Run("record started and failed", func(t *testing.T) {
		assert.NotPanics(t, func() {
			metrics.RecordSessionStarted(ctx, "session-456", 3)
			metrics.RecordSessionFailed(ctx, "session-456", "generation_error", time.Second)
		})
	})

	t.Run("record various durations", func(t *testing.T) {
		durations := []time.Duration{
			100 * time.Millisecond,
			1 * time.Second,
			10 * time.Second,
		}
		for i, duration := range durations {
			sessionID := fmt.Sprintf("session-%d", i)
			metrics.RecordSessionStarted(ctx, sessionID, 3)
			metrics.RecordSessionCompleted(ctx, sessionID, i%2 == 0, float64(i)/10, duration)
		}
	})
}

func TestTrainingMetrics_ConcurrentRecording(t *testing.T) {
	metrics, err := NewTrainingMetrics()
	require.NoError(t, err)

	t.Run("handle concurrent metric recording", func(t *testing.T) {
		ctx := context.Background()
		done := make(chan bool)

		for i := 0; i < 10; i++ {
			go func(id int) {
				sessionID := fmt.Sprintf("concurrent-session-%d", id)
				metrics.RecordSessionStarted(ctx, sessionID, 3)

				duration := time.Duration(id) * 100 * time.Millisecond
				if id%2 == 0 {
					metrics.RecordSessionCompleted(ctx, sessionID, true, 0.5, duration)
				} else {
					metrics.RecordSessionFailed(ctx, sessionID, "internal_error", duration)
				}

				done <- true
			}(i)
		}

		for i := 0; i < 10; i++ {
			<-done
		}
	})
}
