package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/latencylab/stride/internal/histogram"
)

// Plan describes a full harness run: a warmup phase whose results are
// discarded, followed by a measured phase whose results are aggregated.
type Plan struct {
	// WarmupIterations coordinator runs of WarmupSamples each are
	// executed first and discarded entirely. They exist only to let the
	// operation under test reach steady state.
	WarmupIterations int
	WarmupSamples    int

	// MeasuredIterations coordinator runs of MeasuredSamples each are
	// retained and merged into the final report.
	MeasuredIterations int
	MeasuredSamples    int

	// IntervalNanos is the nominal time between scheduled sends per
	// worker. Zero disables pacing.
	IntervalNanos int64

	// Workers is the number of parallel load generators per run.
	Workers int

	// Idle produces one wait strategy per worker. Nil means busy-spin.
	Idle IdleFactory

	// Histogram configures every per-worker histogram.
	Histogram histogram.Config

	// Uncorrected additionally records a histogram without
	// coordinated-omission correction, so the report can show the
	// correction's effect.
	Uncorrected bool

	// CalibrationTrials overrides the number of clock-cost trials.
	// Zero means DefaultCalibrationTrials.
	CalibrationTrials int
}

// Validate checks the plan.
func (p Plan) Validate() error {
	if p.WarmupIterations < 0 {
		return fmt.Errorf("warmup iterations must be >= 0, got %d", p.WarmupIterations)
	}
	if p.WarmupIterations > 0 && p.WarmupSamples <= 0 {
		return fmt.Errorf("warmup samples must be > 0, got %d", p.WarmupSamples)
	}
	if p.MeasuredIterations <= 0 {
		return fmt.Errorf("measured iterations must be > 0, got %d", p.MeasuredIterations)
	}
	params := RunParams{Samples: p.MeasuredSamples, IntervalNanos: p.IntervalNanos, Workers: p.Workers}
	if err := params.Validate(); err != nil {
		return err
	}
	return p.Histogram.Validate()
}

// Harness executes a Plan. The calibration constant and the clock are
// read-only shared state across all workers.
type Harness struct {
	plan      Plan
	clock     Clock
	clockCost int64
}

// New validates the plan and calibrates clock cost against the system
// clock. Calibration failure is fatal: nothing can be measured with an
// untrustworthy clock.
func New(plan Plan) (*Harness, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	cost, err := MeasureClockCost(SystemClock, plan.CalibrationTrials)
	if err != nil {
		return nil, err
	}
	return newHarness(plan, SystemClock, cost), nil
}

// newHarness wires an explicit clock and calibration constant. Tests
// use it to inject deterministic clocks.
func newHarness(plan Plan, clock Clock, clockCost int64) *Harness {
	if plan.Idle == nil {
		plan.Idle = func() IdleStrategy { return NoOpIdle{} }
	}
	return &Harness{plan: plan, clock: clock, clockCost: clockCost}
}

// ClockCost returns the calibrated timer overhead in nanoseconds.
func (h *Harness) ClockCost() int64 {
	return h.clockCost
}

// PhaseFunc observes iteration completion. It receives the phase name
// ("warmup" or "measure"), the 1-based iteration number, the iteration
// total and the iteration's wall-clock duration.
type PhaseFunc func(phase string, iteration, total int, elapsed time.Duration)

// Run executes the warmup phase, then the measured phase, and returns
// the aggregated report. Wall-clock time is recorded around the
// measured phase only.
//
// Worker failures are contained: the failed worker's histogram is
// excluded and the remaining workers' results are kept, with the count
// surfaced on the report. Cancellation of ctx aborts the whole run.
func (h *Harness) Run(ctx context.Context, op Op, observe PhaseFunc) (*Report, error) {
	if op == nil {
		return nil, fmt.Errorf("operation under test must not be nil")
	}
	if observe == nil {
		observe = func(string, int, int, time.Duration) {}
	}

	warmup := RunParams{
		Samples:       h.plan.WarmupSamples,
		IntervalNanos: h.plan.IntervalNanos,
		Workers:       h.plan.Workers,
	}
	incomplete := 0
	for i := 0; i < h.plan.WarmupIterations; i++ {
		iterStart := time.Now()
		result, err := h.runOnce(ctx, op, warmup)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("warmup iteration %d: %w", i+1, ctx.Err())
		}
		if result == nil {
			return nil, fmt.Errorf("warmup iteration %d: %w", i+1, err)
		}
		if err != nil && len(result.Histograms) == 0 {
			return nil, fmt.Errorf("warmup iteration %d: every worker failed: %w", i+1, err)
		}
		observe("warmup", i+1, h.plan.WarmupIterations, time.Since(iterStart))
	}

	measured := RunParams{
		Samples:       h.plan.MeasuredSamples,
		IntervalNanos: h.plan.IntervalNanos,
		Workers:       h.plan.Workers,
	}
	results := make([]*IterationResult, 0, h.plan.MeasuredIterations)

	start := time.Now()
	for i := 0; i < h.plan.MeasuredIterations; i++ {
		iterStart := time.Now()
		result, err := h.runOnce(ctx, op, measured)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("measured iteration %d: %w", i+1, ctx.Err())
		}
		if result == nil {
			return nil, fmt.Errorf("measured iteration %d: %w", i+1, err)
		}
		if err != nil && len(result.Histograms) == 0 {
			return nil, fmt.Errorf("measured iteration %d: every worker failed: %w", i+1, err)
		}
		incomplete += result.Incomplete
		results = append(results, result)
		observe("measure", i+1, h.plan.MeasuredIterations, time.Since(iterStart))
	}
	elapsed := time.Since(start)

	report, err := Aggregate(results, h.plan.Histogram, elapsed)
	if err != nil {
		return nil, err
	}
	report.Workers = h.plan.Workers
	report.Incomplete = incomplete
	return report, nil
}
