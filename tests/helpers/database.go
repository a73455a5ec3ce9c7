package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// GetTestDatabasePool creates a database connection pool for integration
// tests. The test is skipped when TEST_DATABASE_URL is not set.
func GetTestDatabasePool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		t.Fatalf("failed to parse database URL: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	return pool
}

// SeedUser inserts a user with a bcrypt-hashed password and returns its ID.
// The user is removed when the test finishes.
func SeedUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool, email, password string) string {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	userID := uuid.New().String()
	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, name, email, hashed_password, roles)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, "Integration Test User", email, string(hashed), []string{"user"})
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, userID)
	})

	return userID
}

// CleanupSession removes a session and its iterations.
func CleanupSession(ctx context.Context, pool *pgxpool.Pool, sessionID string) {
	_, _ = pool.Exec(ctx, `DELETE FROM iterations WHERE session_id = $1`, sessionID)
	_, _ = pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
}

// UniqueEmail generates a collision-free email for seeding.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.New().String()[:8])
}
