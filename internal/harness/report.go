package harness

import (
	"fmt"
	"io"
	"time"

	"github.com/latencylab/stride/internal/histogram"
)

// Report is the merged result of the measured phase: one combined
// histogram plus the phase's wall-clock duration. It is computed once
// and never mutated after output.
type Report struct {
	// Histogram holds every measured sample across all workers and
	// iterations, with coordinated-omission correction applied.
	Histogram *histogram.Latency

	// Uncorrected holds the same samples without correction. Nil unless
	// the plan requested it.
	Uncorrected *histogram.Latency

	// Elapsed is the wall-clock duration of the measured phase.
	Elapsed time.Duration

	// Iterations is the number of measured coordinator runs merged.
	Iterations int

	// Workers is the per-run worker count.
	Workers int

	// Incomplete counts worker runs that failed or were cancelled and
	// were therefore excluded from the merge.
	Incomplete int
}

// Aggregate merges every worker histogram from every measured iteration
// into one combined histogram. Merge order is irrelevant; the merge
// contract is commutative and associative.
func Aggregate(results []*IterationResult, cfg histogram.Config, elapsed time.Duration) (*Report, error) {
	combined, err := histogram.New(cfg)
	if err != nil {
		return nil, err
	}

	merged := 0
	var uncorrected *histogram.Latency
	for _, result := range results {
		for _, h := range result.Histograms {
			combined.Merge(h)
			merged++
		}
		for _, h := range result.Uncorrected {
			if uncorrected == nil {
				if uncorrected, err = histogram.New(cfg); err != nil {
					return nil, err
				}
			}
			uncorrected.Merge(h)
		}
	}
	if merged == 0 {
		return nil, fmt.Errorf("no complete worker results to aggregate")
	}

	return &Report{
		Histogram:   combined,
		Uncorrected: uncorrected,
		Elapsed:     elapsed,
		Iterations:  len(results),
	}, nil
}

// WriteDistribution writes the percentile distribution table followed
// by any warnings and the measured-phase duration, with values divided
// by scale.
func (r *Report) WriteDistribution(w io.Writer, scale float64) error {
	if err := r.Histogram.WriteDistribution(w, scale); err != nil {
		return err
	}
	if r.Uncorrected != nil {
		if _, err := fmt.Fprintln(w, "\nUncorrected (no coordinated-omission correction):"); err != nil {
			return err
		}
		if err := r.Uncorrected.WriteDistribution(w, scale); err != nil {
			return err
		}
	}
	if n := r.Histogram.Overflows(); n > 0 {
		fmt.Fprintf(w, "WARNING: %d sample(s) exceeded the trackable range and were clamped\n", n)
	}
	if r.Incomplete > 0 {
		fmt.Fprintf(w, "WARNING: %d worker run(s) did not complete and were excluded\n", r.Incomplete)
	}
	_, err := fmt.Fprintf(w, "Test duration: %.3f seconds\n", r.Elapsed.Seconds())
	return err
}
