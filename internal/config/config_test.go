package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("S3_BUCKET", "client-files")
	t.Setenv("SYNC_DEBOUNCE_MS", "250")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Storage.MinIO.UseSSL)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, "client-files", cfg.Storage.S3.Bucket)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.Debounce())
}

func TestLoad_SyncDefaults(t *testing.T) {
	for _, k := range []string{"SYNC_DEBOUNCE_MS", "SYNC_SIGNED_URL_TTL_SEC", "SYNC_ROLLBACK_ON_FAILURE", "SYNC_ACTIVITY_LIMIT", "CHANGEFEED_DRIVER"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, 100*time.Millisecond, cfg.Sync.Debounce())
	assert.Equal(t, 365*24*time.Hour, cfg.Sync.SignedURLTTL())
	assert.False(t, cfg.Sync.RollbackOnFailure)
	assert.Equal(t, 50, cfg.Sync.ActivityLimit)
	assert.Equal(t, "postgres", cfg.Sync.ChangefeedDriver)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
