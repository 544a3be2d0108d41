package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/deskgen/internal/observability"
	"github.com/xkilldash9x/deskgen/internal/preprocess"
)

// newPreprocessCmd creates and configures the `preprocess` command.
func newPreprocessCmd() *cobra.Command {
	preprocessCmd := &cobra.Command{
		Use:   "preprocess <dataset-dir>",
		Short: "Re-validate a dataset in parallel and publish its manifest",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlag("preprocess.workers", cmd.Flags().Lookup("workers"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			workers := viper.GetInt("preprocess.workers")

			pipeline := preprocess.New(args[0], workers, logger)
			manifest, err := pipeline.Run(ctx)
			if err != nil {
				return err
			}
			if err := preprocess.Publish(manifest); err != nil {
				return err
			}

			fmt.Printf("Preprocessing complete: %d samples re-validated with %d workers\n",
				len(manifest.Entries), manifest.Workers)
			return nil
		},
	}

	preprocessCmd.Flags().IntP("workers", "j", 0, "Number of concurrent transform workers. (Overrides config/env)")

	return preprocessCmd
}
