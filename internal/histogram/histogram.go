// Package histogram wraps HDR histograms with the recording policies
// used by the load harness.
package histogram

import (
	"fmt"
	"io"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

// OverflowPolicy controls what happens to values above the trackable range.
type OverflowPolicy string

const (
	// OverflowClamp records the maximum trackable value instead and
	// increments the overflow counter. This is the default: a stall that
	// exceeds the range still shows up at the top of the distribution.
	OverflowClamp OverflowPolicy = "clamp"

	// OverflowReject returns an OverflowError without recording anything.
	OverflowReject OverflowPolicy = "reject"
)

// Default histogram range: covers multi-second stalls at nanosecond
// resolution with 3 significant digits, matching common latency-test
// practice.
const (
	DefaultMaxValue = int64(10 * time.Second)
	DefaultSigFigs  = 3
)

// Config describes the histogram's trackable range and precision.
type Config struct {
	// MaxValue is the highest trackable value in nanoseconds.
	MaxValue int64

	// SigFigs is the number of significant decimal digits preserved
	// across the range (1..5).
	SigFigs int

	// Policy selects the overflow behavior. Empty means OverflowClamp.
	Policy OverflowPolicy
}

// DefaultConfig returns the default histogram configuration.
func DefaultConfig() Config {
	return Config{
		MaxValue: DefaultMaxValue,
		SigFigs:  DefaultSigFigs,
		Policy:   OverflowClamp,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxValue < 2 {
		return fmt.Errorf("histogram max value must be >= 2, got %d", c.MaxValue)
	}
	if c.SigFigs < 1 || c.SigFigs > 5 {
		return fmt.Errorf("histogram significant figures must be 1..5, got %d", c.SigFigs)
	}
	switch c.Policy {
	case "", OverflowClamp, OverflowReject:
	default:
		return fmt.Errorf("unknown overflow policy %q", c.Policy)
	}
	return nil
}

// OverflowError is returned by Record and RecordCorrected under the
// OverflowReject policy when a value exceeds the trackable range.
type OverflowError struct {
	Value int64
	Max   int64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("value %d exceeds maximum trackable value %d", e.Value, e.Max)
}

// Latency is a latency histogram owned by a single recorder.
//
// It is not safe for concurrent writes. Each worker records into its
// own Latency for the duration of a run; ownership transfers to the
// aggregator only after the recording goroutine has finished.
type Latency struct {
	hist      *hdrhistogram.Histogram
	maxValue  int64
	policy    OverflowPolicy
	overflows int64
}

// New creates an empty latency histogram.
func New(cfg Config) (*Latency, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy := cfg.Policy
	if policy == "" {
		policy = OverflowClamp
	}
	return &Latency{
		hist:     hdrhistogram.New(1, cfg.MaxValue, cfg.SigFigs),
		maxValue: cfg.MaxValue,
		policy:   policy,
	}, nil
}

// clip applies the overflow policy to v. The second return value is
// false when the value must be rejected.
func (l *Latency) clip(v int64) (int64, bool) {
	if v <= l.maxValue {
		return v, true
	}
	l.overflows++
	if l.policy == OverflowReject {
		return 0, false
	}
	return l.maxValue, true
}

// Record increments the bucket for v. Values above the trackable range
// follow the configured overflow policy.
func (l *Latency) Record(v int64) error {
	clipped, ok := l.clip(v)
	if !ok {
		return &OverflowError{Value: v, Max: l.maxValue}
	}
	return l.hist.RecordValue(clipped)
}

// RecordCorrected records v with coordinated-omission correction: when
// v exceeds expectedInterval, the missed on-time samples at
// expectedInterval, 2*expectedInterval, ... below v are synthesized and
// recorded as well. An expectedInterval <= 0 disables correction.
func (l *Latency) RecordCorrected(v, expectedInterval int64) error {
	clipped, ok := l.clip(v)
	if !ok {
		return &OverflowError{Value: v, Max: l.maxValue}
	}
	return l.hist.RecordCorrectedValue(clipped, expectedInterval)
}

// Merge accumulates other's counts into l and returns the number of
// samples dropped because they fell outside l's range. Dropped samples
// are added to l's overflow counter. Merge is commutative and
// associative over histograms with identical configurations.
func (l *Latency) Merge(other *Latency) int64 {
	dropped := l.hist.Merge(other.hist)
	l.overflows += other.overflows + dropped
	return dropped
}

// Percentile returns the value at the given percentile (0..100).
func (l *Latency) Percentile(p float64) int64 {
	return l.hist.ValueAtQuantile(p)
}

// TotalCount returns the number of recorded samples, including samples
// synthesized by coordinated-omission correction.
func (l *Latency) TotalCount() int64 {
	return l.hist.TotalCount()
}

// Min returns the minimum recorded value.
func (l *Latency) Min() int64 { return l.hist.Min() }

// Max returns the maximum recorded value.
func (l *Latency) Max() int64 { return l.hist.Max() }

// Mean returns the mean of the recorded values.
func (l *Latency) Mean() float64 { return l.hist.Mean() }

// Overflows returns how many samples exceeded the trackable range.
func (l *Latency) Overflows() int64 { return l.overflows }

// WriteDistribution writes the classic percentile distribution table
// ("Value Percentile TotalCount 1/(1-Percentile)") to w, dividing every
// value by scale. A scale of 1000 reports nanosecond samples in
// microseconds.
func (l *Latency) WriteDistribution(w io.Writer, scale float64) error {
	if scale <= 0 {
		scale = 1
	}
	_, err := l.hist.PercentilesPrint(w, 5, scale)
	return err
}
