// medassist is a multi-role AI triage assistant. It screens symptom text
// through a rule-based safety gate, orchestrates a bounded conversation
// among specialist roles against a completion backend, and recovers a
// structured triage plan from the final role's output.
//
// Educational guidance only; not medical advice.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/medassist/triage/internal/config"
	"github.com/medassist/triage/internal/consult"
	"github.com/medassist/triage/internal/llm"
	"github.com/medassist/triage/internal/llm/providers/google"
	"github.com/medassist/triage/internal/llm/providers/openai"
	"github.com/medassist/triage/internal/redflag"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Intake flags shared by assess/consult
	symptomsFlag string
	ageFlag      string
	durationFlag string
	extraFlag    string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "medassist",
	Short: "MedAssist - multi-role AI triage assistant",
	Long: `MedAssist coordinates a scripted conversation among specialist roles
(diagnosis, pharmacy, consultation) to produce a structured, safety-checked
triage recommendation from free-text symptoms.

High-risk input never reaches the completion backend: a rule-based red-flag
gate screens every request first.

Educational guidance only - not medical advice.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(consultCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadGate builds the safety gate, including any configured rule packs.
func loadGate(cfg config.Config) (*redflag.Gate, error) {
	gate := redflag.New()
	if cfg.RulesDir != "" {
		if err := gate.LoadRulePacks(cfg.RulesDir); err != nil {
			return nil, fmt.Errorf("load rule packs: %w", err)
		}
	}
	return gate, nil
}

// buildClient registers the configured completion backend.
func buildClient(ctx context.Context, cfg config.Config) (*llm.Client, error) {
	client := llm.NewClient()
	switch cfg.Provider {
	case "openai", "":
		adapter, err := openai.NewFromEnv()
		if err != nil {
			return nil, err
		}
		client.Register(adapter)
	case "google":
		adapter, err := google.NewFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		client.Register(adapter)
	default:
		return nil, fmt.Errorf("unknown provider: %q", cfg.Provider)
	}
	if cfg.Provider != "" {
		client.SetDefaultProvider(cfg.Provider)
	}
	return client, nil
}

// buildService assembles the full consultation pipeline from config.
func buildService(ctx context.Context, cfg config.Config) (*consult.Service, error) {
	gate, err := loadGate(cfg)
	if err != nil {
		return nil, err
	}
	client, err := buildClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return consult.NewService(client, gate, cfg.Consult(), logger)
}
