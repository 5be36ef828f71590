package harness

import (
	"context"
	"fmt"

	"github.com/latencylab/stride/internal/histogram"
)

// Op is the operation under test. The harness times it black-box and
// ignores its side effects; a non-nil error aborts the worker's
// remaining samples for the current iteration.
type Op func() error

// worker generates load at a fixed nominal interval and records each
// sample into its own histogram. Exactly one goroutine runs a worker;
// the histograms are handed off to the coordinator only after the
// worker has finished.
type worker struct {
	id          int
	op          Op
	samples     int
	interval    int64 // nanoseconds between scheduled sends
	idle        IdleStrategy
	clock       Clock
	clockCost   int64
	hist        *histogram.Latency
	uncorrected *histogram.Latency // nil unless the uncorrected view is requested
}

// run executes the sample loop. Each iteration times one operation
// call, records the overhead-corrected value with expected-interval
// correction, then idles until the next scheduled send time.
func (w *worker) run(ctx context.Context) error {
	for i := 0; i < w.samples; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("worker %d cancelled at sample %d: %w", w.id, i, ctx.Err())
		default:
		}

		s1 := w.clock()
		if err := w.op(); err != nil {
			return fmt.Errorf("worker %d: operation failed at sample %d: %w", w.id, i, err)
		}
		s2 := w.clock()

		// Values that calibration noise drives to zero or below are
		// discarded rather than recorded.
		if v := s2 - s1 - w.clockCost; v > 0 {
			if err := w.hist.RecordCorrected(v, w.interval); err != nil {
				return fmt.Errorf("worker %d: %w", w.id, err)
			}
			if w.uncorrected != nil {
				if err := w.uncorrected.Record(v); err != nil {
					return fmt.Errorf("worker %d: %w", w.id, err)
				}
			}
		}

		// Hold until the elapsed time since the operation completed
		// reaches the nominal interval.
		for w.clock()-s2 < w.interval {
			w.idle.Idle()
		}
		w.idle.Reset()
	}
	return nil
}
