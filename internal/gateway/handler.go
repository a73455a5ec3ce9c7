package gateway

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/specfoundry/design-orchestrator/internal/auth"
	"github.com/specfoundry/design-orchestrator/internal/models"
	"github.com/specfoundry/design-orchestrator/internal/orchestration"
	"github.com/specfoundry/design-orchestrator/internal/rlloop"
)

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	service           *orchestration.Service
	jwtManager        *auth.JWTManager
	apiKeys           *auth.APIKeyVerifier
	tokenTTL          time.Duration
	defaultIterations int
	maxIterations     int
	readiness         func() error
}

// NewHandler creates a new gateway handler. readiness is probed by the
// /ready endpoint and may be nil.
func NewHandler(service *orchestration.Service, jwtManager *auth.JWTManager, apiKeys *auth.APIKeyVerifier, tokenTTL time.Duration, defaultIterations, maxIterations int, readiness func() error) *Handler {
	return &Handler{
		service:           service,
		jwtManager:        jwtManager,
		apiKeys:           apiKeys,
		tokenTTL:          tokenTTL,
		defaultIterations: defaultIterations,
		maxIterations:     maxIterations,
		readiness:         readiness,
	}
}

// IssueToken godoc
// @Summary Exchange an API key for a JWT
// @Description Validates the X-API-Key header and returns a service JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param X-API-Key header string true "Client API key"
// @Param request body models.TokenRequest false "Optional token subject"
// @Success 200 {object} models.TokenResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/token [post]
func (h *Handler) IssueToken(c *gin.Context) {
	key := c.GetHeader("X-API-Key")
	if key == "" || !h.apiKeys.Verify(key) {
		log.Printf(`{"level":"warn","message":"API key rejected","path":"%s"}`, c.Request.URL.Path)
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error: "Invalid API key",
			Code:  models.ErrCodeUnauthorized,
		})
		return
	}

	var req models.TokenRequest
	_ = c.ShouldBindJSON(&req) // body is optional
	subject := req.Subject
	if subject == "" {
		subject = "api-client"
	}

	token, err := h.jwtManager.GenerateToken(c.Request.Context(), subject, subject, []string{"client"}, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to generate token",
			Code:  models.ErrCodeInternalError,
		})
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.tokenTTL),
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate with email and password and return a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}

	user, err := h.service.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		log.Printf(`{"level":"warn","message":"User not found","email":"%s"}`, req.Email)
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error: "Invalid email or password",
			Code:  models.ErrCodeUnauthorized,
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		log.Printf(`{"level":"warn","message":"Invalid password","email":"%s"}`, req.Email)
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error: "Invalid email or password",
			Code:  models.ErrCodeUnauthorized,
		})
		return
	}

	roles := user.Roles
	if len(roles) == 0 {
		roles = []string{"user"}
	}
	token, err := h.jwtManager.GenerateToken(c.Request.Context(), user.ID, user.Email, roles, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to generate token",
			Code:  models.ErrCodeInternalError,
		})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.tokenTTL),
		User:      user.ToUserInfo(),
	})
}

// Generate godoc
// @Summary Generate a specification from a prompt
// @Description Extracts a structured design specification and evaluates it
// @Tags design
// @Accept json
// @Produce json
// @Param request body models.GenerateRequest true "Prompt"
// @Success 200 {object} models.EvaluationResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /generate [post]
func (h *Handler) Generate(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}

	resp, err := h.service.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		log.Printf(`{"level":"warn","message":"Generation failed","error":"%v"}`, err)
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error: "Failed to generate specification",
			Code:  models.ErrCodeGenerationFailed,
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Evaluate godoc
// @Summary Evaluate a specification
// @Description Scores a caller-supplied specification against its prompt
// @Tags design
// @Accept json
// @Produce json
// @Param request body models.EvaluateRequest true "Specification and prompt"
// @Success 200 {object} models.EvaluationResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /evaluate [post]
func (h *Handler) Evaluate(c *gin.Context) {
	var req models.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}

	c.JSON(http.StatusOK, h.service.Evaluate(c.Request.Context(), req.Spec, req.Prompt))
}

// Train godoc
// @Summary Run an RL training session
// @Description Generates a specification and improves it over n_iter iterations
// @Tags design
// @Accept json
// @Produce json
// @Param request body models.TrainRequest true "Prompt and iteration budget"
// @Success 200 {object} models.TrainResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /train [post]
func (h *Handler) Train(c *gin.Context) {
	var req models.TrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}

	n := req.NIter
	if n == 0 {
		n = h.defaultIterations
	}
	if n < 1 || n > h.maxIterations {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "n_iter out of range",
			Code:  models.ErrCodeValidationFailed,
		})
		return
	}

	session, err := h.service.Train(c.Request.Context(), req.Prompt, n, nil)
	if err != nil {
		if errors.Is(err, rlloop.ErrGenerationFailed) {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error: "Failed to generate initial specification",
				Code:  models.ErrCodeGenerationFailed,
			})
			return
		}
		log.Printf(`{"level":"error","message":"Training failed","error":"%v"}`, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Training session failed",
			Code:  models.ErrCodeInternalError,
		})
		return
	}

	c.JSON(http.StatusOK, session)
}

// SessionIterations godoc
// @Summary Get a session's iteration trail
// @Description Returns the persisted audit trail of one training session
// @Tags design
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionIterationsResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /sessions/{id}/iterations [get]
func (h *Handler) SessionIterations(c *gin.Context) {
	sessionID := c.Param("id")

	out, err := h.service.SessionIterations(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, orchestration.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: "Session not found",
				Code:  models.ErrCodeSessionNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to load session",
			Code:  models.ErrCodeInternalError,
		})
		return
	}

	c.JSON(http.StatusOK, out)
}

// Analytics godoc
// @Summary Aggregate training analytics
// @Description Returns score/reward aggregates across all sessions
// @Tags design
// @Produce json
// @Success 200 {object} models.AnalyticsResponse
// @Security BearerAuth
// @Router /analytics [get]
func (h *Handler) Analytics(c *gin.Context) {
	out, err := h.service.Analytics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to aggregate analytics",
			Code:  models.ErrCodeInternalError,
		})
		return
	}

	c.JSON(http.StatusOK, out)
}

// Health godoc
// @Summary Liveness probe
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary Readiness probe
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ready [get]
func (h *Handler) Ready(c *gin.Context) {
	if h.readiness != nil {
		if err := h.readiness(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
