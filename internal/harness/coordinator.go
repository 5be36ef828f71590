package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/latencylab/stride/internal/barrier"
	"github.com/latencylab/stride/internal/histogram"
)

// RunParams describes one coordinator invocation. Immutable per run.
type RunParams struct {
	// Samples is the number of operation calls per worker.
	Samples int

	// IntervalNanos is the nominal time between scheduled sends. Zero
	// disables pacing (and with it, omission correction).
	IntervalNanos int64

	// Workers is the number of parallel load-generating goroutines.
	Workers int
}

// Validate checks the run parameters.
func (p RunParams) Validate() error {
	if p.Samples <= 0 {
		return fmt.Errorf("sample count must be > 0, got %d", p.Samples)
	}
	if p.IntervalNanos < 0 {
		return fmt.Errorf("interval must be >= 0, got %d", p.IntervalNanos)
	}
	if p.Workers <= 0 {
		return fmt.Errorf("worker count must be > 0, got %d", p.Workers)
	}
	return nil
}

// IterationResult holds the histograms of the workers that completed
// their full sample count in one coordinator run, in worker order.
// Workers that failed or were cancelled are counted in Incomplete and
// their partial histograms are discarded: a truncated run has a
// different effective sample count and would bias the aggregate.
type IterationResult struct {
	Histograms  []*histogram.Latency
	Uncorrected []*histogram.Latency
	Incomplete  int
}

// runOnce starts params.Workers workers in lock-step behind a shared
// start barrier, waits for all of them, and collects one histogram per
// completed worker. The returned error joins all worker failures; the
// result still carries the complete workers' histograms.
func (h *Harness) runOnce(ctx context.Context, op Op, params RunParams) (*IterationResult, error) {
	start := barrier.New(params.Workers)
	workers := make([]*worker, params.Workers)
	errs := make([]error, params.Workers)

	for i := range workers {
		hist, err := histogram.New(h.plan.Histogram)
		if err != nil {
			return nil, err
		}
		w := &worker{
			id:        i,
			op:        op,
			samples:   params.Samples,
			interval:  params.IntervalNanos,
			idle:      h.plan.Idle(),
			clock:     h.clock,
			clockCost: h.clockCost,
			hist:      hist,
		}
		if h.plan.Uncorrected {
			if w.uncorrected, err = histogram.New(h.plan.Histogram); err != nil {
				return nil, err
			}
		}
		workers[i] = w
	}

	var wg sync.WaitGroup
	for i, w := range workers {
		wg.Add(1)
		go func(i int, w *worker) {
			defer wg.Done()
			if err := start.Await(ctx); err != nil {
				errs[i] = fmt.Errorf("worker %d: %w", i, err)
				return
			}
			errs[i] = w.run(ctx)
		}(i, w)
	}
	wg.Wait()

	// All workers have terminated: histogram ownership transfers here.
	result := &IterationResult{}
	for i, w := range workers {
		if errs[i] != nil {
			result.Incomplete++
			continue
		}
		result.Histograms = append(result.Histograms, w.hist)
		if w.uncorrected != nil {
			result.Uncorrected = append(result.Uncorrected, w.uncorrected)
		}
	}
	return result, errors.Join(errs...)
}
