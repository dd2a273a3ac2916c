package config

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.True(t, cfg.Server.OfficerSignupOpen)
	assert.Equal(t, "civicresolve", cfg.Mongo.Database)
	assert.Equal(t, "issue-limit", cfg.Redis.QueuePrefix)
	assert.Equal(t, 10, cfg.Redis.DailyLimit)
	assert.Equal(t, "civic-issues", cfg.Minio.Bucket)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ORIGINS", "https://a.city.gov,https://b.city.gov")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("ISSUE_DAILY_LIMIT", "4")
	t.Setenv("OFFICER_SIGNUP_OPEN", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.city.gov", "https://b.city.gov"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 4, cfg.Redis.DailyLimit)
	assert.False(t, cfg.Server.OfficerSignupOpen)
}

func TestValidate(t *testing.T) {
	err := (&Config{Redis: RedisConfig{DailyLimit: 0}}).Validate()
	require.Error(t, err)
	for _, key := range []string{"JWT_SECRET", "MONGODB_URI", "MINIO_ENDPOINT", "ISSUE_DAILY_LIMIT"} {
		assert.Contains(t, err.Error(), key)
	}

	ok := &Config{
		JWTSecret: "s",
		Mongo:     MongoConfig{URI: "mongodb://x"},
		Minio:     MinioConfig{Endpoint: "x"},
		Redis:     RedisConfig{DailyLimit: 1},
	}
	assert.NoError(t, ok.Validate())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "info", Format: "json"}, &buf)
	log.Info("hello", "ticket_id", "CIV-1")
	assert.Contains(t, buf.String(), `"ticket_id":"CIV-1"`)

	buf.Reset()
	log = NewLogger(LogConfig{Level: "warn", Format: "text"}, &buf)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), "\x1b[", "no colour outside a terminal")
}

func TestConnectRedisDisabled(t *testing.T) {
	client, err := ConnectRedis(context.Background(), RedisConfig{})
	assert.NoError(t, err)
	assert.Nil(t, client)
}
