package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "CONVERT_QUALITY", "CONVERT_FILTER", "INVALID_FORMAT_POLICY", "SUPABASE_URL", "SUPABASE_BUCKET", "LOG_FILE", "LOG_COMPRESS", "MAX_TARGET_SIZE", "MAX_SOURCE_PIXELS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 85, cfg.Converter.Quality)
	assert.Equal(t, "lanczos", cfg.Converter.Filter)
	assert.Equal(t, "strict", cfg.Converter.InvalidFormatPolicy)
	assert.Equal(t, 10000, cfg.Converter.MaxTargetSize)
	assert.Equal(t, int64(100_000_000), cfg.Converter.MaxSourcePixels)
	assert.Equal(t, int64(10*1024*1024), cfg.Storage.MaxFileSize)
	assert.False(t, cfg.Supabase.Enabled())
	assert.Empty(t, cfg.Log.File)
	assert.Equal(t, 100, cfg.Log.MaxSize)
	assert.False(t, cfg.Log.Compress)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CONVERT_QUALITY", "70")
	t.Setenv("INVALID_FORMAT_POLICY", "lenient")
	t.Setenv("CACHE_DURATION", "90m")
	t.Setenv("QUEUE_WORKERS", "not-a-number")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_BUCKET", "images")
	t.Setenv("LOG_FILE", "/var/log/converter.log")
	t.Setenv("LOG_COMPRESS", "true")
	t.Setenv("MAX_TARGET_SIZE", "4096")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 70, cfg.Converter.Quality)
	assert.Equal(t, "lenient", cfg.Converter.InvalidFormatPolicy)
	assert.Equal(t, 90*time.Minute, cfg.Storage.CacheDuration)
	assert.Equal(t, 2, cfg.RabbitMQ.Workers)
	assert.True(t, cfg.Supabase.Enabled())
	assert.Equal(t, "/var/log/converter.log", cfg.Log.File)
	assert.True(t, cfg.Log.Compress)
	assert.Equal(t, 4096, cfg.Converter.MaxTargetSize)
}
