package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/latencylab/stride/internal/config"
)

// newTestRunCmd builds a fresh command with the run flag set so Changed
// state does not leak between tests.
func newTestRunCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "run"}
	cmd.SetContext(context.Background())
	registerRunFlags(cmd)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("Parse(%v) = %v", args, err)
	}
	return cmd
}

func TestLoadPlan_Defaults(t *testing.T) {
	cmd := newTestRunCmd(t, "--operation", "noop")

	plan, err := loadPlan(cmd)
	if err != nil {
		t.Fatalf("loadPlan() = %v", err)
	}
	if plan.Operation != "noop" {
		t.Errorf("Operation = %q, want noop", plan.Operation)
	}
	if plan.Load.Threads != config.DefaultThreads {
		t.Errorf("Threads = %d, want %d", plan.Load.Threads, config.DefaultThreads)
	}
	if plan.Load.MaxOpsPerSec != config.DefaultMaxOpsPerSec {
		t.Errorf("MaxOpsPerSec = %d, want %d", plan.Load.MaxOpsPerSec, config.DefaultMaxOpsPerSec)
	}
	if plan.Measure.Iterations != config.DefaultMeasureIters {
		t.Errorf("Measure.Iterations = %d, want %d", plan.Measure.Iterations, config.DefaultMeasureIters)
	}
}

func TestLoadPlan_FlagsOverrideDefaults(t *testing.T) {
	cmd := newTestRunCmd(t,
		"--operation", "sleep:50us",
		"--threads", "2",
		"--max-ops", "200000",
		"--load-level", "0.5",
		"--iterations", "1",
		"--samples", "100",
		"--warmup-iterations", "0",
	)

	plan, err := loadPlan(cmd)
	if err != nil {
		t.Fatalf("loadPlan() = %v", err)
	}
	if plan.Load.Threads != 2 {
		t.Errorf("Threads = %d, want 2", plan.Load.Threads)
	}
	if plan.Load.TargetLoadLevel != 0.5 {
		t.Errorf("TargetLoadLevel = %v, want 0.5", plan.Load.TargetLoadLevel)
	}
	// An explicit zero disables warmup, the default must not resurrect it.
	if plan.Warmup.Iterations != 0 {
		t.Errorf("Warmup.Iterations = %d, want 0", plan.Warmup.Iterations)
	}
	// (1 - 0.5) * 1e9 / 200000 = 2500ns
	if got := plan.Load.IntervalNanos(); got != 2500 {
		t.Errorf("IntervalNanos() = %d, want 2500", got)
	}
}

func TestLoadPlan_ConfigFileWithFlagOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	doc := `
name: file plan
operation: noop
load:
  threads: 4
  maxOpsPerSec: 500000
measure:
  iterations: 2
  samples: 1000
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile() = %v", err)
	}

	cmd := newTestRunCmd(t, "--config", path, "--threads", "1")

	plan, err := loadPlan(cmd)
	if err != nil {
		t.Fatalf("loadPlan() = %v", err)
	}
	if plan.Name != "file plan" {
		t.Errorf("Name = %q, want %q", plan.Name, "file plan")
	}
	if plan.Load.Threads != 1 {
		t.Errorf("Threads = %d, want flag override 1", plan.Load.Threads)
	}
	if plan.Load.MaxOpsPerSec != 500000 {
		t.Errorf("MaxOpsPerSec = %d, want file value 500000", plan.Load.MaxOpsPerSec)
	}
}

func TestLoadPlan_InvalidPlan(t *testing.T) {
	cmd := newTestRunCmd(t, "--operation", "noop", "--load-level", "1.5")

	if _, err := loadPlan(cmd); err == nil {
		t.Fatal("loadPlan() = nil error for load level > 1")
	}
}

func TestRunCommand_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end to end run in short mode")
	}

	cmd := newTestRunCmd(t,
		"--operation", "noop",
		"--threads", "2",
		"--max-ops", "1000000",
		"--load-level", "0.05",
		"--warmup-iterations", "1",
		"--warmup-samples", "200",
		"--iterations", "2",
		"--samples", "500",
		"--quiet",
	)
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := runLatencyTest(cmd); err != nil {
		t.Fatalf("runLatencyTest() = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Test duration:") {
		t.Errorf("output missing duration line:\n%s", out)
	}
	if !strings.Contains(out, "Value") {
		t.Errorf("output missing distribution table:\n%s", out)
	}
}
