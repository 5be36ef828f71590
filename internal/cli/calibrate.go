package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/latencylab/stride/internal/harness"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Measure the overhead of the high-resolution clock",
	Long: `Measure the fixed cost of taking two back-to-back timestamps.
This constant is subtracted from every raw latency sample during a run;
printing it separately helps judge whether the clock is precise enough
for the latencies being measured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		trials, _ := cmd.Flags().GetInt("trials")
		if trials <= 0 {
			trials = harness.DefaultCalibrationTrials
		}

		cost, err := harness.MeasureClockCost(harness.SystemClock, trials)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Clock cost: %dns (averaged over %d trials)\n", cost, trials)
		return nil
	},
}

func init() {
	calibrateCmd.Flags().Int("trials", harness.DefaultCalibrationTrials, "number of timestamp pairs to average")
}
