package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "test.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.True(t, cfg.Data.SeedOnStart)
	assert.Equal(t, "/uploads", cfg.Uploads.URLPrefix)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Database: DatabaseConfig{Driver: "postgres", Host: "localhost"},
			Auth:     AuthConfig{SessionTTL: time.Hour},
			App:      AppConfig{Environment: "development"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := base()
		cfg.Database.Driver = "mysql"
		assert.Error(t, cfg.Validate())
	})

	t.Run("production requires session secret", func(t *testing.T) {
		cfg := base()
		cfg.App.Environment = "production"
		assert.True(t, cfg.IsProduction())
		assert.Error(t, cfg.Validate())

		cfg.Auth.SessionSecret = "s3cret"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("malformed credentials", func(t *testing.T) {
		cfg := base()
		cfg.Auth.Credentials = "admin"
		assert.Error(t, cfg.Validate())
	})
}

func TestParseCredentials(t *testing.T) {
	creds, err := ParseCredentials(" admin:$2a$10$abc , staff:$2a$10$def ")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"admin": "$2a$10$abc",
		"staff": "$2a$10$def",
	}, creds)

	empty, err := ParseCredentials("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseCredentials("admin:x,admin:y")
	assert.Error(t, err)
}
