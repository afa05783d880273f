package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	assert.NotEmpty(t, cfg.Store.Path)
	assert.True(t, cfg.Store.SyncWrites)
	assert.Equal(t, "template", cfg.Generator.Provider)
	assert.Equal(t, 4, cfg.Expander.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestApplyDefaults_InMemoryNeedsNoPath(t *testing.T) {
	cfg := Config{Store: StoreConfig{InMemory: true}}
	applyDefaults(&cfg)

	assert.Empty(t, cfg.Store.Path)
	assert.False(t, cfg.Store.SyncWrites)
}

func TestApplyDefaults_LLMModelOnlyForLLMProvider(t *testing.T) {
	cfg := Config{Generator: GeneratorConfig{Provider: "llm"}}
	applyDefaults(&cfg)
	assert.Equal(t, "gpt-4o-mini", cfg.Generator.Model)

	cfg = Config{}
	applyDefaults(&cfg)
	assert.Empty(t, cfg.Generator.Model)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"missing store path", func(c *Config) { c.Store.Path = ""; c.Store.InMemory = false }, "store.path is required"},
		{"unknown provider", func(c *Config) { c.Generator.Provider = "oracle" }, "generator.provider must be"},
		{"llm without model", func(c *Config) { c.Generator.Provider = "llm"; c.Generator.Model = "" }, "generator.model is required"},
		{"negative workers", func(c *Config) { c.Expander.Workers = -1 }, "expander.workers must be >= 0"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			applyDefaults(&cfg)
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadWithFile_RejectsPathOutsideAllowedDirs(t *testing.T) {
	_, err := LoadWithFile(t.TempDir() + "/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config path validation failed")
}
