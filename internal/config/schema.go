// Package config provides parsing and validation of latency test plans.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Plan is the root configuration for a latency test.
//
// Example YAML:
//
//	name: "log append latency"
//	operation: "logline:/tmp/latency.log"
//	load:
//	  maxOpsPerSec: 1000000
//	  targetLoadLevel: 0.05
//	  threads: 8
//	  idleStrategy: noop
//	warmup:
//	  iterations: 5
//	  samples: 50000
//	measure:
//	  iterations: 5
//	  samples: 500000
//	histogram:
//	  maxValue: 10s
//	  significantFigures: 3
//	  overflowPolicy: clamp
//	output:
//	  scale: 1000.0
type Plan struct {
	// Name of the test (for reporting)
	Name string `json:"name" yaml:"name"`

	// Operation selects the built-in operation under test:
	// "noop", "sleep:<duration>" or "logline[:path]".
	Operation string `json:"operation,omitempty" yaml:"operation,omitempty"`

	// Load describes the attempted load level and worker count
	Load LoadConfig `json:"load,omitempty" yaml:"load,omitempty"`

	// Warmup is the discarded phase run before measuring
	Warmup PhaseConfig `json:"warmup,omitempty" yaml:"warmup,omitempty"`

	// Measure is the retained, reported phase
	Measure PhaseConfig `json:"measure,omitempty" yaml:"measure,omitempty"`

	// Histogram configures the latency histogram range and precision
	Histogram HistogramConfig `json:"histogram,omitempty" yaml:"histogram,omitempty"`

	// Output configures the report
	Output OutputConfig `json:"output,omitempty" yaml:"output,omitempty"`
}

// LoadConfig describes the attempted load.
//
// The pacing interval is derived, not configured directly: a worker
// holds (1 - targetLoadLevel) of one operation's share of a second
// between sends, given maxOpsPerSec as the estimated ceiling.
type LoadConfig struct {
	// MaxOpsPerSec is the estimated maximum achievable throughput
	MaxOpsPerSec int64 `json:"maxOpsPerSec,omitempty" yaml:"maxOpsPerSec,omitempty"`

	// TargetLoadLevel is the attempted fraction of MaxOpsPerSec (0..1)
	TargetLoadLevel float64 `json:"targetLoadLevel,omitempty" yaml:"targetLoadLevel,omitempty"`

	// Threads is the number of parallel load-generating workers
	Threads int `json:"threads,omitempty" yaml:"threads,omitempty"`

	// IdleStrategy selects the wait policy: "noop", "yielding", "backoff"
	IdleStrategy string `json:"idleStrategy,omitempty" yaml:"idleStrategy,omitempty"`
}

// IntervalNanos returns the nominal nanoseconds between scheduled sends
// per worker: (1 - targetLoadLevel) * (1e9 / maxOpsPerSec).
func (l LoadConfig) IntervalNanos() int64 {
	if l.MaxOpsPerSec <= 0 {
		return 0
	}
	oneOp := float64(time.Second.Nanoseconds()) / float64(l.MaxOpsPerSec)
	return int64((1.0 - l.TargetLoadLevel) * oneOp)
}

// PhaseConfig describes one phase of the run.
type PhaseConfig struct {
	// Iterations is the number of full coordinator runs in this phase
	Iterations int `json:"iterations,omitempty" yaml:"iterations,omitempty"`

	// Samples is the number of operation calls per worker per iteration
	Samples int `json:"samples,omitempty" yaml:"samples,omitempty"`
}

// HistogramConfig describes the histogram range and precision.
type HistogramConfig struct {
	// MaxValue is the highest trackable latency (e.g. "10s")
	MaxValue Duration `json:"maxValue,omitempty" yaml:"maxValue,omitempty"`

	// SignificantFigures is the decimal precision kept across the range (1..5)
	SignificantFigures int `json:"significantFigures,omitempty" yaml:"significantFigures,omitempty"`

	// OverflowPolicy is "clamp" (default) or "reject"
	OverflowPolicy string `json:"overflowPolicy,omitempty" yaml:"overflowPolicy,omitempty"`
}

// OutputConfig describes the report output.
type OutputConfig struct {
	// Scale divides every reported value; 1000 reports microseconds
	Scale float64 `json:"scale,omitempty" yaml:"scale,omitempty"`

	// Uncorrected additionally reports the distribution without
	// coordinated-omission correction
	Uncorrected bool `json:"uncorrected,omitempty" yaml:"uncorrected,omitempty"`
}

// Duration wraps time.Duration for YAML strings like "10s" or "500ms".
// A bare integer is taken as nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// String returns the duration in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// Default plan values, matching common latency-test practice: a warmup
// phase long enough to reach steady state, a 10 second trackable range
// and microsecond-scaled output.
const (
	DefaultMaxOpsPerSec    = int64(1_000_000)
	DefaultTargetLoadLevel = 0.05
	DefaultThreads         = 8
	DefaultWarmupIters     = 5
	DefaultWarmupSamples   = 50_000
	DefaultMeasureIters    = 5
	DefaultMeasureSamples  = 500_000
	DefaultSigFigs         = 3
	DefaultScale           = 1000.0
)

// DefaultMaxValue is the default highest trackable latency.
const DefaultMaxValue = Duration(10 * time.Second)

// ApplyDefaults fills unset fields in place.
func ApplyDefaults(p *Plan) {
	if p.Name == "" {
		p.Name = "latency test"
	}
	if p.Operation == "" {
		p.Operation = "noop"
	}
	if p.Load.MaxOpsPerSec == 0 {
		p.Load.MaxOpsPerSec = DefaultMaxOpsPerSec
	}
	if p.Load.TargetLoadLevel == 0 {
		p.Load.TargetLoadLevel = DefaultTargetLoadLevel
	}
	if p.Load.Threads == 0 {
		p.Load.Threads = DefaultThreads
	}
	if p.Load.IdleStrategy == "" {
		p.Load.IdleStrategy = "noop"
	}
	if p.Warmup.Iterations == 0 && p.Warmup.Samples == 0 {
		p.Warmup.Iterations = DefaultWarmupIters
	}
	if p.Warmup.Iterations > 0 && p.Warmup.Samples == 0 {
		p.Warmup.Samples = DefaultWarmupSamples
	}
	if p.Measure.Iterations == 0 {
		p.Measure.Iterations = DefaultMeasureIters
	}
	if p.Measure.Samples == 0 {
		p.Measure.Samples = DefaultMeasureSamples
	}
	if p.Histogram.MaxValue == 0 {
		p.Histogram.MaxValue = DefaultMaxValue
	}
	if p.Histogram.SignificantFigures == 0 {
		p.Histogram.SignificantFigures = DefaultSigFigs
	}
	if p.Histogram.OverflowPolicy == "" {
		p.Histogram.OverflowPolicy = "clamp"
	}
	if p.Output.Scale == 0 {
		p.Output.Scale = DefaultScale
	}
}
