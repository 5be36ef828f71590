package harness

import "fmt"

// DefaultCalibrationTrials is the number of back-to-back timestamp
// pairs averaged when measuring clock cost. A single trial is valid but
// noisy; averaging a small fixed number stabilizes the estimate.
const DefaultCalibrationTrials = 64

// MeasureClockCost estimates the fixed overhead of taking two
// consecutive timestamps with no intervening work. The result is
// subtracted from every raw latency sample before recording, so that
// the distribution reflects the operation rather than the timer.
//
// A zero or tiny cost is a valid result. A clock that runs backwards is
// fatal: no measurement taken with it can be trusted.
func MeasureClockCost(clock Clock, trials int) (int64, error) {
	if clock == nil {
		clock = SystemClock
	}
	if trials <= 0 {
		trials = DefaultCalibrationTrials
	}

	var total int64
	for i := 0; i < trials; i++ {
		s1 := clock()
		s2 := clock()
		d := s2 - s1
		if d < 0 {
			return 0, fmt.Errorf("calibration failed: clock went backwards (%d -> %d)", s1, s2)
		}
		total += d
	}
	return total / int64(trials), nil
}
