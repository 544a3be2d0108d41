package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskgen/internal/config"
	"github.com/xkilldash9x/deskgen/internal/dataset"
	"github.com/xkilldash9x/deskgen/internal/layout"
	"github.com/xkilldash9x/deskgen/internal/observability"
	"github.com/xkilldash9x/deskgen/internal/render"
	"github.com/xkilldash9x/deskgen/internal/tasks"
	"github.com/xkilldash9x/deskgen/internal/verify"
)

// newGenerateCmd creates and configures the `generate` command.
func newGenerateCmd() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a complete dataset from the layout catalog",
		// PreRunE binds flags to their viper keys so command-line flags
		// correctly override values from the config file and environment.
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("generator.seed", cmd.Flags().Lookup("seed")); err != nil {
				return err
			}
			if err := viper.BindPFlag("generator.annotation_path", cmd.Flags().Lookup("annotation")); err != nil {
				return err
			}
			if err := viper.BindPFlag("dataset.output_dir", cmd.Flags().Lookup("output-dir")); err != nil {
				return err
			}
			if err := viper.BindPFlag("dataset.name", cmd.Flags().Lookup("name")); err != nil {
				return err
			}
			return viper.BindPFlag("dataset.test_mode", cmd.Flags().Lookup("test"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			return runGenerate(ctx, logger, cfg)
		},
	}

	generateCmd.Flags().Int64("seed", 0, "Random seed for the run. (Overrides config/env)")
	generateCmd.Flags().String("annotation", "", "Path to the layout annotation file. (Overrides config/env)")
	generateCmd.Flags().StringP("output-dir", "o", "", "Directory to write the dataset under. (Overrides config/env)")
	generateCmd.Flags().String("name", "", "Dataset name. Defaults to a researcher-stamped name.")
	generateCmd.Flags().Bool("test", false, "Test mode: scale every task quota down to 1%.")

	return generateCmd
}

// runGenerate contains the core, testable logic for the generate command.
func runGenerate(ctx context.Context, logger *zap.Logger, cfg *config.Config) error {
	cat, err := layout.Load(cfg.Generator.AnnotationPath)
	if err != nil {
		return fmt.Errorf("loading layout catalog: %w", err)
	}

	renderer := render.NewSynthetic(cat)
	registry := tasks.NewRegistry(logger)
	assembler := dataset.New(cfg, cat, renderer, registry, logger)

	result, err := assembler.Assemble(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Generation aborted by signal")
			return fmt.Errorf("generation aborted by user signal")
		}
		return err
	}

	// Post-assembly leakage audit over the files just written, so a broken
	// run fails loudly instead of shipping.
	if cfg.Dataset.TestKeys > 0 {
		report, err := verify.Verify(result.Dir, logger)
		if err != nil {
			return err
		}
		if err := verify.Err(report); err != nil {
			return err
		}
	}

	fmt.Printf("\nDataset complete: %s (%d samples)\n", result.Dir, len(result.Samples))
	return nil
}
