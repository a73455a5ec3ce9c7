package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/specfoundry/design-orchestrator/internal/auth"
	"github.com/specfoundry/design-orchestrator/internal/cache"
	"github.com/specfoundry/design-orchestrator/internal/config"
	"github.com/specfoundry/design-orchestrator/internal/gateway"
	"github.com/specfoundry/design-orchestrator/internal/metrics"
	"github.com/specfoundry/design-orchestrator/internal/orchestration"
	"github.com/specfoundry/design-orchestrator/internal/ratelimit"

	_ "github.com/specfoundry/design-orchestrator/docs" // swagger docs
)

// @title Design Orchestrator API
// @version 1.0
// @description Prompt-to-specification service with evaluation, scoring, and RL-based improvement.
// @description
// @description Submit a natural-language design prompt, receive a structured specification with an
// @description evaluation verdict, and optionally run an improvement loop that iterates on the
// @description specification until it converges.

// @contact.name API Support
// @contact.email support@specfoundry.dev

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := initTracer(); err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var pool *pgxpool.Pool
	var store orchestration.Store = orchestration.UnavailableStore{}
	if cfg.Database.URL != "" {
		log.Println("Connecting to PostgreSQL database...")
		pool, err = orchestration.ConnectPool(context.Background(),
			cfg.Database.URL, cfg.Database.ConnectRetries, cfg.Database.RetryInterval.Std())
		if err != nil {
			log.Printf(`{"level":"warn","message":"Database unavailable, running on fallback log only","error":"%v"}`, err)
		} else {
			defer pool.Close()
			store = orchestration.NewPostgresStore(pool)
			log.Println("Connected to PostgreSQL database")
		}
	} else {
		log.Printf(`{"level":"warn","message":"No database configured, running on fallback log only"}`)
	}

	fallback, err := orchestration.NewFallbackLog(cfg.Fallback.Path)
	if err != nil {
		log.Fatalf("Failed to initialize fallback log: %v", err)
	}

	trainingMetrics, err := metrics.NewTrainingMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize training metrics: %v", err)
	}

	service := orchestration.NewService(store, fallback, cache.New(cfg.Cache.TTL.Std()), trainingMetrics)

	jwtManager, err := auth.NewJWTManager(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatalf("Failed to initialize JWT manager: %v", err)
	}
	apiKeys, err := auth.NewAPIKeyVerifier(cfg.Auth.APIKey)
	if err != nil {
		log.Fatalf("Failed to initialize API key verifier: %v", err)
	}

	readiness := func() error {
		if pool == nil {
			return nil // degraded but serving
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx)
	}

	handler := gateway.NewHandler(service, jwtManager, apiKeys,
		cfg.Auth.TokenTTL.Std(), cfg.Training.DefaultIterations, cfg.Training.MaxIterations, readiness)
	stream := gateway.NewTrainingStream(service, jwtManager,
		cfg.Training.DefaultIterations, cfg.Training.MaxIterations)
	limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	router := gateway.NewRouter(handler, stream, jwtManager, limiter, structuredLoggingMiddleware())

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // training sessions respond synchronously
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Design Orchestrator API server on %s\n", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// initTracer initializes OpenTelemetry tracing
func initTracer() error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)

	return nil
}

// structuredLoggingMiddleware provides structured JSON logging for all requests
func structuredLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		userID, _ := c.Get("user_id")

		logEntry := map[string]interface{}{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}
		if userID != nil {
			logEntry["user_id"] = userID
		}
		if len(c.Errors) > 0 {
			logEntry["errors"] = c.Errors.String()
		}

		logJSON, _ := json.Marshal(logEntry)
		log.Println(string(logJSON))
	}
}
