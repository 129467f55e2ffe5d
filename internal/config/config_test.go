package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestEnvNames(t *testing.T) {
	assert.Equal(t, []string{"POSTMAN_API_KEY", "INPUT_POSTMANAPIKEY"}, EnvNames(InputAPIKey))
	assert.Equal(t, []string{"POSTMAN_WORKSPACE_ID", "INPUT_POSTMANWORKSPACEID"}, EnvNames(InputWorkspaceID))
	assert.Equal(t, []string{"POSTMAN_TIMEOUT", "INPUT_POSTMANTIMEOUT"}, EnvNames(InputTimeout))
}

func TestLoad_File(t *testing.T) {
	t.Setenv("TEST_POSTMAN_KEY", "from-env-fn")

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/postman-sync.hcl", []byte(`
log_level = "debug"

postman {
  api_key      = env("TEST_POSTMAN_KEY")
  timeout_ms   = 2500
  workspace_id = "ws-1"
}

source {
  folder = "collections"
}

sync {
  listing        = "snapshot"
  ignore_forks   = true
  write_back_ids = true
}
`), 0o644))

	cfg, err := Load(fs, "/etc/postman-sync.hcl")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "from-env-fn", cfg.Postman.APIKey)
	assert.Equal(t, 2500*time.Millisecond, cfg.Postman.Timeout)
	assert.Equal(t, "ws-1", cfg.Postman.WorkspaceID)
	assert.Equal(t, "https://api.getpostman.com", cfg.Postman.BaseURL)
	assert.Equal(t, "collections", cfg.Source.Folder)
	assert.Equal(t, "*.json", cfg.Source.Pattern)
	assert.Equal(t, "snapshot", cfg.Sync.Listing)
	assert.Equal(t, "abort", cfg.Sync.OnDeleteFailure)
	assert.True(t, cfg.Sync.IgnoreForks)
	assert.True(t, cfg.Sync.WriteBackIDs)
	assert.False(t, cfg.Sync.DryRun)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := Load(fs, "/missing.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")

	require.NoError(t, afero.WriteFile(fs, "/bad.hcl", []byte(`postman {`), 0o644))
	_, err = Load(fs, "/bad.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode config file")
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("POSTMAN_API_KEY", "")
	t.Setenv("INPUT_POSTMANAPIKEY", "")

	cfg, err := Load(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	t.Run("screaming snake names", func(t *testing.T) {
		cfg := Default()
		require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
			"POSTMAN_API_KEY":       "key",
			"POSTMAN_TIMEOUT":       "3000",
			"POSTMAN_WORKSPACE_ID":  "ws",
			"POSTMAN_SOURCE_FOLDER": "/tmp/cols",
		})))

		assert.Equal(t, "key", cfg.Postman.APIKey)
		assert.Equal(t, 3*time.Second, cfg.Postman.Timeout)
		assert.Equal(t, "ws", cfg.Postman.WorkspaceID)
		assert.Equal(t, "/tmp/cols", cfg.Source.Folder)
	})

	t.Run("action inputs", func(t *testing.T) {
		cfg := Default()
		require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
			"INPUT_POSTMANAPIKEY": " key ",
		})))
		assert.Equal(t, "key", cfg.Postman.APIKey)
	})

	t.Run("empty values are ignored", func(t *testing.T) {
		cfg := Default()
		cfg.Postman.APIKey = "from-file"
		require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
			"POSTMAN_API_KEY": "",
		})))
		assert.Equal(t, "from-file", cfg.Postman.APIKey)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		cfg := Default()
		err := cfg.ApplyEnv(envMap(map[string]string{"POSTMAN_TIMEOUT": "15s"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "postmanTimeout")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Postman.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing api key", mutate: func(c *Config) { c.Postman.APIKey = "" }, errorMsg: "POSTMAN_API_KEY"},
		{name: "zero timeout", mutate: func(c *Config) { c.Postman.Timeout = 0 }, errorMsg: "Timeout"},
		{name: "negative timeout", mutate: func(c *Config) { c.Postman.Timeout = -time.Second }, errorMsg: "Timeout"},
		{name: "bad base url", mutate: func(c *Config) { c.Postman.BaseURL = "ftp://example.com" }, errorMsg: "http or https"},
		{name: "bad listing", mutate: func(c *Config) { c.Sync.Listing = "always" }, errorMsg: "Listing"},
		{name: "bad delete policy", mutate: func(c *Config) { c.Sync.OnDeleteFailure = "retry" }, errorMsg: "OnDeleteFailure"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, errorMsg: "unknown log level"},
		{name: "empty folder", mutate: func(c *Config) { c.Source.Folder = "" }, errorMsg: "Folder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestValidateLocal(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateLocal())

	cfg.Source.Pattern = ""
	assert.Error(t, cfg.ValidateLocal())
}
