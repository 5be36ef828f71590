// Package cli implements the stride command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "stride",
	Short:   "A fixed-rate latency measurement harness",
	Version: version,
	Long: `Stride drives an operation under test at a controlled, sustained rate
across parallel workers and reports the latency percentile distribution,
correcting for coordinated omission so that stalls do not hide tail
latency.`,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func init() {
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(calibrateCmd)
}
