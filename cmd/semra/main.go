// Package main implements the semra CLI: a one-shot runner for a
// declarative mapping-assembly pipeline configuration.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/biopragmatics/semra-go/internal/config"
	"github.com/biopragmatics/semra-go/internal/pipeline"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/source"
	"github.com/biopragmatics/semra-go/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		runID   string
		lenient bool
	)

	rootCmd := &cobra.Command{
		Use:   "semra [config.yaml]",
		Short: "Run a declarative mapping assembly pipeline",
		Long: `semra loads a pipeline configuration, fetches mappings from its
configured sources, applies inference and filtering, prioritizes the
result into a lookup table, and writes the raw/processed/priority
artifacts to the paths the configuration names.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), args[0], runID, lenient)
		},
	}

	rootCmd.Flags().StringVar(&runID, "run-id", "", "identifier for this run (default: a generated UUID)")
	rootCmd.Flags().BoolVar(&lenient, "lenient", false, "skip sources that report themselves unavailable instead of failing the run")
	rootCmd.AddCommand(newValidateCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config.yaml]",
		Short: "Parse and validate a pipeline configuration without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s): %d input(s), %d mutation(s)\n", cfg.Name, cfg.Key, len(cfg.Inputs), len(cfg.Mutations))
			return nil
		},
	}
}

func runPipeline(ctx context.Context, configPath, runID string, lenient bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if runID == "" {
		runID = uuid.NewString()
	}

	st, err := store.NewFromEnv()
	if err != nil {
		return fmt.Errorf("initializing artifact store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close artifact store: %v\n", err)
		}
	}()

	driver := pipeline.NewDriver(predicate.Default(), builtinAdapters(), st)
	driver.Lenient = lenient

	result, err := driver.Run(ctx, runID, cfg)
	if err != nil {
		return fmt.Errorf("run %s failed: %w", runID, err)
	}

	fmt.Printf("run %s: %d raw, %d processed, %d priority mappings (%s)\n",
		result.RunID, len(result.Raw), len(result.Processed), len(result.Priority), result.Duration)
	return nil
}

// builtinAdapters names the source kinds this CLI knows how to fetch from
// out of the box. Concrete ontology/terminology adapters (OBO, UMLS, NCBI)
// are out of scope for the core; "tabular" is the one this
// repo can honestly implement, since it only reads the format internal/
// interchange already defines.
func builtinAdapters() map[string]source.Adapter {
	return map[string]source.Adapter{
		"tabular": tabularAdapter,
	}
}
