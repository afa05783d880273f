package config

import "fmt"

// Config is the root configuration for planward.
type Config struct {
	Store     StoreConfig     `koanf:"store"`
	Generator GeneratorConfig `koanf:"generator"`
	Expander  ExpanderConfig  `koanf:"expander"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// StoreConfig configures the artifact store.
type StoreConfig struct {
	// Path is the BadgerDB directory. Defaults to
	// ~/.local/share/planward/store.
	Path string `koanf:"path"`

	// InMemory disables persistence. Intended for tests only.
	InMemory bool `koanf:"in_memory"`

	// SyncWrites forces durable writes.
	SyncWrites bool `koanf:"sync_writes"`
}

// GeneratorConfig selects and configures the content generator.
type GeneratorConfig struct {
	// Provider is "template" (offline, deterministic) or "llm".
	Provider string `koanf:"provider"`

	// Model is the model name for the llm provider.
	Model string `koanf:"model"`

	// BaseURL points at any OpenAI-compatible endpoint.
	BaseURL string `koanf:"base_url"`

	// APIKey authenticates against the endpoint.
	APIKey string `koanf:"api_key"`
}

// ExpanderConfig tunes the implementation expander.
type ExpanderConfig struct {
	// Workers bounds concurrent node expansions.
	Workers int `koanf:"workers"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `koanf:"level"`

	// Format is "console" or "json".
	Format string `koanf:"format"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required unless store.in_memory is set")
	}
	switch c.Generator.Provider {
	case "template":
	case "llm":
		if c.Generator.Model == "" {
			return fmt.Errorf("generator.model is required for the llm provider")
		}
	default:
		return fmt.Errorf("generator.provider must be 'template' or 'llm', got %q", c.Generator.Provider)
	}
	if c.Expander.Workers < 0 {
		return fmt.Errorf("expander.workers must be >= 0")
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'console' or 'json', got %q", c.Logging.Format)
	}
	return nil
}
