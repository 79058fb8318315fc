package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse(nil, "", env(nil))
	require.NoError(t, err)
	assert.Equal(t, Local, cfg.Environment)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 2*time.Second, cfg.DebounceDelay)
	assert.Equal(t, 4, cfg.SyncBatchLimit)
	assert.Equal(t, 30, cfg.FindingWidth)
	assert.True(t, cfg.Genes.AllowFreeText)
	assert.Equal(t, "http://localhost:4100/v1/graphql", cfg.GraphQLURL)
	assert.Equal(t, "http://localhost:3000", cfg.ApplicationURL)
}

func TestEnvironmentDeterminesEndpoints(t *testing.T) {
	tests := []struct {
		env     Environment
		graphql string
		app     string
	}{
		{Live, "https://graphql.northwestglh.com/v1/graphql", "https://gen-o.northwestglh.com"},
		{PreProd, "https://preprod-graphql.northwestglh.com/v1/graphql", "https://preprod-gen-o.northwestglh.com"},
		{Test, "https://test-graphql.northwestglh.com/v1/graphql", "https://test-gen-o.northwestglh.com"},
		{Develop, "https://develop-graphql.northwestglh.com/v1/graphql", "https://develop-gen-o.northwestglh.com"},
	}
	for _, tt := range tests {
		t.Run(string(tt.env), func(t *testing.T) {
			cfg, err := Parse([]byte(`environment: "`+string(tt.env)+`"`), "test.cue", env(nil))
			require.NoError(t, err)
			assert.Equal(t, tt.graphql, cfg.GraphQLURL)
			assert.Equal(t, tt.app, cfg.ApplicationURL)
		})
	}
}

func TestRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown environment": `environment: "STAGING"`,
		"unknown field":       `graphql_url: "https://elsewhere"`,
		"bad level":           `log: level: "trace"`,
		"bad debounce":        `debounce: "soon"`,
		"bad batch limit":     `sync_batch_limit: 0`,
		"syntax":              `environment: `,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src), "test.cue", env(nil))
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pedigree.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"environment": "TEST", "log": {"format": "json"}, "specialty_id": "s-1"}`), 0o600))

	cfg, err := Load(path, env(map[string]string{
		"PEDIGREE_ENVIRONMENT": "LIVE",
		"PEDIGREE_LOG_LEVEL":   "debug",
		"PEDIGREE_DEBOUNCE":    "500ms",
		"PEDIGREE_TOKEN":       "",
	}))
	require.NoError(t, err)
	assert.Equal(t, Live, cfg.Environment)
	assert.Equal(t, "https://graphql.northwestglh.com/v1/graphql", cfg.GraphQLURL)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, "s-1", cfg.SpecialtyID)
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceDelay)
	assert.Empty(t, cfg.Token)
}

func TestEnvOverrideValidated(t *testing.T) {
	_, err := Parse(nil, "", env(map[string]string{"PEDIGREE_ENVIRONMENT": "PROD"}))
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"), env(nil))
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "component", "test")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
