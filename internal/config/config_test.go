package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Abhinav7558/employee-management-system/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("EMS_AUTH_JWT_SECRET", "0123456789abcdef-secret")
	t.Setenv("EMS_DB_HOST", "db.internal")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "user", cfg.Auth.DefaultRole)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: "8081"
auth:
  jwt_secret: "a-very-long-test-secret"
validation:
  phone_pattern: "^[0-9]+$"
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "^[0-9]+$", cfg.Validation.PhonePattern)
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "3000"},
		Auth:   config.AuthConfig{JWTSecret: "short", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour},
	}
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "long-enough-secret-value"
	assert.NoError(t, cfg.Validate())
}
