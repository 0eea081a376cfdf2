package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7101", cfg.App.HTTPPort)
	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.Equal(t, "pantry_global_v1", cfg.Storage.StateKey)
	assert.Equal(t, "memory", cfg.Remote.DBDriver)
	assert.Equal(t, "/rest/v1", cfg.Remote.BasePath)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PANTRY_HTTP_PORT", "9000")
	t.Setenv("PANTRY_CLOUD_ENDPOINT", "https://example.test/rest/v1/")
	t.Setenv("PANTRY_CLOUD_KEY", "anon")
	t.Setenv("PANTRY_REMOTE_DB_DRIVER", "SQLite")
	t.Setenv("PANTRY_REMOTE_DSN", "file::memory:")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.App.HTTPPort)
	assert.Equal(t, "https://example.test/rest/v1", cfg.Cloud.Endpoint)
	assert.Equal(t, "anon", cfg.Cloud.CredentialKey)
	assert.Equal(t, "sqlite", cfg.Remote.DBDriver)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("short seal key", func(t *testing.T) {
		t.Setenv("PANTRY_SEAL_KEY", "short")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("PANTRY_REMOTE_DB_DRIVER", "mongo")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("PANTRY_REMOTE_DB_DRIVER", "postgres")
		_, err := Load()
		assert.Error(t, err)
	})
}
