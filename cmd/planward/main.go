// Package main implements the planward CLI: a phase-gated project
// orchestrator driving an idea from elicitation through masterplan,
// scaffold, implementation and incremental extension.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/planward/internal/config"
	"github.com/fyrsmithlabs/planward/internal/expand"
	"github.com/fyrsmithlabs/planward/internal/generate"
	"github.com/fyrsmithlabs/planward/internal/logging"
	"github.com/fyrsmithlabs/planward/internal/phase"
	"github.com/fyrsmithlabs/planward/internal/session"
	"github.com/fyrsmithlabs/planward/internal/store"
)

var (
	// configPath overrides the default config file location
	configPath string
	// sessionID selects the session a command operates on
	sessionID string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "planward",
	Short: "Phase-gated project orchestrator",
	Long: `planward walks a project idea through four gated phases:

  eliciting     answer the requirements checklist, finalize the masterplan
  scaffolding   derive the file graph and emit stub artifacts
  implementing  expand stubs into implemented artifacts in dependency order
  extending     integrate incremental features (re-entrant)

Each phase ends at an exit gate. Advancing requires every gate criterion
to be met plus explicit operator approval (advance --approve).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/planward/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "session ID")
}

// app bundles the wired runtime for one command invocation.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	store   store.Store
	manager *session.Manager
	machine *phase.Machine
}

// newApp loads config and wires logger, store and session manager.
func newApp() (*app, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, err
	}

	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	logCfg := logging.NewDefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.Logging.Format
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	stCfg := store.DefaultConfig(cfg.Store.Path)
	if cfg.Store.InMemory {
		stCfg = store.InMemoryConfig()
	} else {
		stCfg.SyncWrites = cfg.Store.SyncWrites
	}
	st, err := store.Open(stCfg, logger.Underlying())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		manager: session.NewManager(st, logger.Underlying()),
		machine: phase.NewMachine(logger.Underlying()),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: store close: %v\n", err)
	}
	_ = a.logger.Sync()
}

// newGenerator builds the configured content generator.
func (a *app) newGenerator() (generate.Generator, error) {
	if a.cfg.Generator.Provider == "llm" {
		return generate.NewLLMGenerator(generate.LLMConfig{
			BaseURL: a.cfg.Generator.BaseURL,
			Model:   a.cfg.Generator.Model,
			APIKey:  a.cfg.Generator.APIKey,
		})
	}
	return generate.NewTemplateGenerator(), nil
}

// newExpander builds the expander around the configured generator.
func (a *app) newExpander() (*expand.Expander, error) {
	gen, err := a.newGenerator()
	if err != nil {
		return nil, err
	}
	return expand.New(expand.Config{Workers: a.cfg.Expander.Workers}, a.store, gen, a.logger.Underlying()), nil
}

// loadSession fetches the session named by --session.
func (a *app) loadSession(ctx context.Context) (*session.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("--session is required")
	}
	return a.manager.Get(ctx, sessionID)
}

// sessionContext attaches the session ID for log correlation.
func sessionContext(cmd *cobra.Command, id string) context.Context {
	return logging.WithSessionID(cmd.Context(), id)
}
