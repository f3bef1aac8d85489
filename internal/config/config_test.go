package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "CONFIG_FILE", "LOG_LEVEL", "LOG_DIR",
	"WEATHER_AGENT_URL", "WEATHER_AGENT_ID", "WEATHER_THREAD_ID",
	"WEATHER_TEMPERATURE", "WEATHER_TOP_P", "WEATHER_MAX_RETRIES", "WEATHER_MAX_STEPS",
	"WEATHER_TIMEOUT", "WEATHER_STRUCTURED", "WEATHER_DEV_PLAYGROUND",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DefaultEndpoint, cfg.Agent.Endpoint)
	assert.Equal(t, "weatherAgent", cfg.Agent.AgentID)
	assert.True(t, cfg.Agent.Structured)
	assert.False(t, cfg.Agent.DevPlayground)
	assert.Equal(t, 2*time.Minute, cfg.Agent.Timeout)
	assert.Nil(t, cfg.Agent.Options.Temperature)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("WEATHER_AGENT_URL", "http://agent.test/stream")
	t.Setenv("WEATHER_TEMPERATURE", "0.9")
	t.Setenv("WEATHER_MAX_STEPS", "7")
	t.Setenv("WEATHER_TIMEOUT", "45s")
	t.Setenv("WEATHER_STRUCTURED", "false")
	t.Setenv("WEATHER_DEV_PLAYGROUND", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "http://agent.test/stream", cfg.Agent.Endpoint)
	require.NotNil(t, cfg.Agent.Options.Temperature)
	assert.Equal(t, 0.9, *cfg.Agent.Options.Temperature)
	require.NotNil(t, cfg.Agent.Options.MaxSteps)
	assert.Equal(t, 7, *cfg.Agent.Options.MaxSteps)
	assert.Nil(t, cfg.Agent.Options.MaxRetries)
	assert.Equal(t, 45*time.Second, cfg.Agent.Timeout)
	assert.False(t, cfg.Agent.Structured)
	assert.True(t, cfg.Agent.DevPlayground)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadPortForms(t *testing.T) {
	tests := []struct {
		port    string
		want    string
		wantErr bool
	}{
		{port: "127.0.0.1:7000", want: "127.0.0.1:7000"},
		{port: ":7001", want: ":7001"},
		{port: "70 02", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.port, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("PORT", tt.port)

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Server.Addr)
		})
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "weatherchat.yaml")
	content := `
server:
  addr: ":7070"
agent:
  endpoint: http://file.test/stream
  threadId: thread-from-file
  timeout: 30s
  options:
    topP: 0.8
    maxRetries: 4
log:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("WEATHER_THREAD_ID", "thread-from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "http://file.test/stream", cfg.Agent.Endpoint)
	assert.Equal(t, "thread-from-env", cfg.Agent.ThreadID)
	assert.Equal(t, 30*time.Second, cfg.Agent.Timeout)
	require.NotNil(t, cfg.Agent.Options.TopP)
	assert.Equal(t, 0.8, *cfg.Agent.Options.TopP)
	require.NotNil(t, cfg.Agent.Options.MaxRetries)
	assert.Equal(t, 4, *cfg.Agent.Options.MaxRetries)
	assert.True(t, cfg.Agent.Structured)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"WEATHER_TEMPERATURE": "hot",
		"WEATHER_TOP_P":       "1.5",
		"WEATHER_MAX_RETRIES": "two",
		"WEATHER_TIMEOUT":     "soon",
		"WEATHER_STRUCTURED":  "maybe",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadTimeoutInSeconds(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHER_TIMEOUT", "90")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Agent.Timeout)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
