package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/latencylab/stride/internal/config"
	"github.com/latencylab/stride/internal/harness"
	"github.com/latencylab/stride/internal/histogram"
	"github.com/latencylab/stride/internal/output"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a latency test",
	Long: `Execute a latency test plan: warmup iterations are run and discarded,
measured iterations are merged into one percentile distribution.

Plan file mode:
  stride run --config plan.yaml

Quick CLI mode:
  stride run --operation sleep:50us \
    --threads 8 \
    --max-ops 1000000 \
    --load-level 0.05 \
    --iterations 5 \
    --samples 500000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLatencyTest(cmd)
	},
}

func init() {
	registerRunFlags(runCmd)
}

func registerRunFlags(runCmd *cobra.Command) {
	runCmd.Flags().String("config", "", "path to a YAML plan file")
	runCmd.Flags().String("operation", "", "operation under test: noop, sleep:<duration>, logline[:path]")
	runCmd.Flags().Int("threads", 0, "number of parallel workers")
	runCmd.Flags().Int64("max-ops", 0, "estimated maximum achievable ops/sec")
	runCmd.Flags().Float64("load-level", 0, "attempted fraction of max throughput (0..1)")
	runCmd.Flags().String("idle", "", "idle strategy: noop, yielding, backoff")
	runCmd.Flags().Int("warmup-iterations", 0, "warmup iterations (discarded)")
	runCmd.Flags().Int("warmup-samples", 0, "samples per worker per warmup iteration")
	runCmd.Flags().Int("iterations", 0, "measured iterations")
	runCmd.Flags().Int("samples", 0, "samples per worker per measured iteration")
	runCmd.Flags().Float64("scale", 0, "divide reported values by this (1000 = microseconds)")
	runCmd.Flags().Bool("uncorrected", false, "also report the uncorrected distribution")
	runCmd.Flags().Bool("quiet", false, "suppress progress and summary, print only the distribution")
}

func runLatencyTest(cmd *cobra.Command) error {
	plan, err := loadPlan(cmd)
	if err != nil {
		return err
	}

	op, cleanup, err := buildOperation(plan.Operation)
	if err != nil {
		return err
	}
	defer cleanup()

	idle, err := harness.IdleFactoryFor(plan.Load.IdleStrategy)
	if err != nil {
		return err
	}

	h, err := harness.New(harness.Plan{
		WarmupIterations:   plan.Warmup.Iterations,
		WarmupSamples:      plan.Warmup.Samples,
		MeasuredIterations: plan.Measure.Iterations,
		MeasuredSamples:    plan.Measure.Samples,
		IntervalNanos:      plan.Load.IntervalNanos(),
		Workers:            plan.Load.Threads,
		Idle:               idle,
		Histogram: histogram.Config{
			MaxValue: int64(plan.Histogram.MaxValue),
			SigFigs:  plan.Histogram.SignificantFigures,
			Policy:   histogram.OverflowPolicy(plan.Histogram.OverflowPolicy),
		},
		Uncorrected: plan.Output.Uncorrected,
	})
	if err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	console := output.NewConsole(cmd.OutOrStdout(), quiet)
	console.Header(plan.Name, plan.Operation, plan.Load.Threads,
		time.Duration(plan.Load.IntervalNanos()), h.ClockCost())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := h.Run(ctx, op, console.Progress)
	if err != nil {
		return err
	}

	// Close the operation before reporting so its buffers are flushed.
	if err := cleanup(); err != nil {
		return fmt.Errorf("closing operation under test: %w", err)
	}

	if err := report.WriteDistribution(cmd.OutOrStdout(), plan.Output.Scale); err != nil {
		return err
	}
	console.Summary(report, plan.Output.Scale)
	return nil
}

// loadPlan builds the plan from --config, applies defaults, then lets
// explicitly set flags override either source.
func loadPlan(cmd *cobra.Command) (*config.Plan, error) {
	plan := &config.Plan{}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		plan = loaded
	}
	config.ApplyDefaults(plan)

	flags := cmd.Flags()
	if flags.Changed("operation") {
		plan.Operation, _ = flags.GetString("operation")
	}
	if flags.Changed("threads") {
		plan.Load.Threads, _ = flags.GetInt("threads")
	}
	if flags.Changed("max-ops") {
		plan.Load.MaxOpsPerSec, _ = flags.GetInt64("max-ops")
	}
	if flags.Changed("load-level") {
		plan.Load.TargetLoadLevel, _ = flags.GetFloat64("load-level")
	}
	if flags.Changed("idle") {
		plan.Load.IdleStrategy, _ = flags.GetString("idle")
	}
	if flags.Changed("warmup-iterations") {
		plan.Warmup.Iterations, _ = flags.GetInt("warmup-iterations")
	}
	if flags.Changed("warmup-samples") {
		plan.Warmup.Samples, _ = flags.GetInt("warmup-samples")
	}
	if flags.Changed("iterations") {
		plan.Measure.Iterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("samples") {
		plan.Measure.Samples, _ = flags.GetInt("samples")
	}
	if flags.Changed("scale") {
		plan.Output.Scale, _ = flags.GetFloat64("scale")
	}
	if flags.Changed("uncorrected") {
		plan.Output.Uncorrected, _ = flags.GetBool("uncorrected")
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}
