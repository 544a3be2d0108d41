package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/deskgen/internal/observability"
	"github.com/xkilldash9x/deskgen/internal/verify"
)

// newVerifyCmd creates and configures the `verify` command.
func newVerifyCmd() *cobra.Command {
	var writeReport bool

	verifyCmd := &cobra.Command{
		Use:   "verify <dataset-dir>",
		Short: "Audit a dataset for train/test leakage",
		Long: `Reads the persisted split indices of a dataset directory and checks that no
disjointness key appears in both the held-out test partition and train or val.
The audit reads the dataset independently of the generator and exits non-zero
on any violation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			report, err := verify.Verify(args[0], logger)
			if err != nil {
				return err
			}
			if writeReport {
				if err := verify.WriteReport(report); err != nil {
					return err
				}
			}
			return verify.Err(report)
		},
	}

	verifyCmd.Flags().BoolVar(&writeReport, "write-report", false, "Write verifier_report.json next to the dataset indices.")

	return verifyCmd
}
