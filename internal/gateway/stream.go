package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/specfoundry/design-orchestrator/internal/auth"
	"github.com/specfoundry/design-orchestrator/internal/models"
	"github.com/specfoundry/design-orchestrator/internal/orchestration"
	"github.com/specfoundry/design-orchestrator/internal/rlloop"
)

// TrainingStream streams training sessions over WebSocket, emitting one
// event per iteration as the RL loop runs.
type TrainingStream struct {
	service           *orchestration.Service
	jwtManager        *auth.JWTManager
	defaultIterations int
	maxIterations     int
	tracer            trace.Tracer
	upgrader          websocket.Upgrader
}

// NewTrainingStream creates a training stream handler.
func NewTrainingStream(service *orchestration.Service, jwtManager *auth.JWTManager, defaultIterations, maxIterations int) *TrainingStream {
	return &TrainingStream{
		service:           service,
		jwtManager:        jwtManager,
		defaultIterations: defaultIterations,
		maxIterations:     maxIterations,
		tracer:            otel.Tracer("training-stream"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origins once the frontend host is fixed
				return true
			},
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Stream handles GET /api/ws/train.
// @Summary Stream a training session live
// @Description WebSocket endpoint emitting session.started, one session.iteration per RL step, and session.complete
// @Tags design
// @Param prompt query string true "Design prompt"
// @Param n_iter query int false "Iteration budget"
// @Param token query string false "JWT (alternative to Authorization header)"
// @Success 101 "Switching Protocols"
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ws/train [get]
func (s *TrainingStream) Stream(c *gin.Context) {
	ctx, span := s.tracer.Start(c.Request.Context(), "training_stream.stream")
	defer span.End()

	if _, err := s.validateJWT(c); err != nil {
		span.RecordError(err)
		log.Printf(`{"level":"warn","message":"WebSocket auth failed","error":"%v"}`, err)
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error: "Unauthorized",
			Code:  models.ErrCodeUnauthorized,
		})
		return
	}

	prompt := c.Query("prompt")
	if prompt == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "prompt query parameter is required",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}

	n := s.defaultIterations
	if raw := c.Query("n_iter"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > s.maxIterations {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "n_iter out of range",
				Code:  models.ErrCodeValidationFailed,
			})
			return
		}
		n = parsed
	}
	span.SetAttributes(attribute.Int("training.n_iter", n))

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		log.Printf(`{"level":"warn","message":"WebSocket upgrade failed","error":"%v"}`, err)
		return
	}
	defer conn.Close()

	s.run(ctx, conn, prompt, n)
}

// run drives one training session over an upgraded connection. Write errors
// stop the stream but not the session, which finishes and persists normally.
func (s *TrainingStream) run(ctx context.Context, conn *websocket.Conn, prompt string, n int) {
	sessionID := ""
	alive := true

	send := func(event models.TrainingEvent) {
		if !alive {
			return
		}
		event.Timestamp = time.Now().UTC()
		if err := conn.WriteJSON(event); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf(`{"level":"warn","message":"WebSocket write failed","session_id":"%s","error":"%v"}`, sessionID, err)
			}
			alive = false
		}
	}

	session, err := s.service.Train(ctx, prompt, n, func(id string, record rlloop.IterationRecord) {
		if sessionID == "" {
			sessionID = id
			send(models.TrainingEvent{
				Type:      models.EventTypeSessionStarted,
				SessionID: id,
			})
		}
		send(models.TrainingEvent{
			Type:      models.EventTypeIteration,
			SessionID: sessionID,
			Iteration: &record,
		})
	})
	if err != nil {
		send(models.TrainingEvent{
			Type:  models.EventTypeError,
			Error: err.Error(),
		})
		return
	}

	send(models.TrainingEvent{
		Type:      models.EventTypeComplete,
		SessionID: session.SessionID,
		Insights:  &session.Insights,
	})

	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}

// validateJWT accepts the token from the query string or the Authorization
// header, the query form being the WebSocket convention.
func (s *TrainingStream) validateJWT(c *gin.Context) (*auth.Claims, error) {
	token := c.Query("token")
	if token == "" {
		header := c.GetHeader("Authorization")
		if len(header) > 7 && header[:7] == "Bearer " {
			token = header[7:]
		}
	}
	if token == "" {
		return nil, fmt.Errorf("missing JWT token")
	}
	return s.jwtManager.ValidateToken(c.Request.Context(), token)
}
