package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/postbot?parseTime=true")
	t.Setenv("OWNER_ID", "100")
	t.Setenv("PUBLIC_BASE_URL", "https://bot.example.com")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, int64(100), cfg.OwnerID)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, 30, cfg.CodeDefaultDays)
	assert.Equal(t, 10*time.Minute, cfg.KeepAliveInterval)
	assert.False(t, cfg.S3Configured())
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("OWNER_ID", "")
	t.Setenv("PUBLIC_BASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
	assert.Contains(t, err.Error(), "MYSQL_DSN")
	assert.Contains(t, err.Error(), "OWNER_ID")
	assert.Contains(t, err.Error(), "PUBLIC_BASE_URL")
}

func TestLoadTrimsTrailingSlash(t *testing.T) {
	setRequired(t)
	t.Setenv("PUBLIC_BASE_URL", "https://bot.example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://bot.example.com", cfg.PublicBaseURL)
}

func TestLoadS3ValidationOnlyWhenBucketSet(t *testing.T) {
	setRequired(t)
	t.Setenv("S3_BUCKET", "posters")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_REGION")

	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("S3_ACCESS_KEY", "key")
	t.Setenv("S3_SECRET_KEY", "secret")
	t.Setenv("S3_PUBLIC_BASE_URL", "https://cdn.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.S3Configured())
	assert.Equal(t, "posters", cfg.S3Prefix)
}
