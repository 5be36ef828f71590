// Package harness drives an operation under test at a fixed nominal
// rate across parallel workers and records the latency distribution
// with coordinated-omission correction.
package harness

import "time"

// Clock returns a monotonic timestamp in nanoseconds. The zero point is
// arbitrary; only differences are meaningful.
type Clock func() int64

var processStart = time.Now()

// SystemClock reads the runtime's monotonic clock.
func SystemClock() int64 {
	return int64(time.Since(processStart))
}
