package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithEnvSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("API_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL.Std())
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
}

func TestLoad_MissingSecretsFails(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("API_KEY", "")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_YAMLFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9000
auth:
  jwt_secret: from-file
  api_key: file-key
  token_ttl: 1h
cache:
  ttl: 30s
training:
  default_iterations: 5
  max_iterations: 10
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("API_KEY", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port, "environment wins over file")
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL.Std())
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL.Std())
	assert.Equal(t, 5, cfg.Training.DefaultIterations)
}

func TestLoad_InvalidIterationBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
auth:
  jwt_secret: s
  api_key: k
training:
  default_iterations: 10
  max_iterations: 3
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("PORT", "")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestAddr(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}
