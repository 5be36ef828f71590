package config

import "fmt"

// ValidationError represents a plan validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error on field '" + e.Field + "': " + e.Message
}

// Validate checks the plan. Call ApplyDefaults first; Validate does not
// fill in missing values.
func (p *Plan) Validate() error {
	if p.Load.MaxOpsPerSec <= 0 {
		return &ValidationError{Field: "load.maxOpsPerSec", Message: "must be > 0"}
	}
	if p.Load.TargetLoadLevel < 0 || p.Load.TargetLoadLevel > 1 {
		return &ValidationError{
			Field:   "load.targetLoadLevel",
			Message: fmt.Sprintf("must be within [0, 1], got %v", p.Load.TargetLoadLevel),
		}
	}
	if p.Load.Threads <= 0 {
		return &ValidationError{Field: "load.threads", Message: "must be > 0"}
	}
	switch p.Load.IdleStrategy {
	case "noop", "yielding", "backoff":
	default:
		return &ValidationError{
			Field:   "load.idleStrategy",
			Message: fmt.Sprintf("unknown strategy %q (want noop, yielding or backoff)", p.Load.IdleStrategy),
		}
	}

	if p.Warmup.Iterations < 0 {
		return &ValidationError{Field: "warmup.iterations", Message: "must be >= 0"}
	}
	if p.Warmup.Iterations > 0 && p.Warmup.Samples <= 0 {
		return &ValidationError{Field: "warmup.samples", Message: "must be > 0 when warmup iterations are configured"}
	}
	if p.Measure.Iterations <= 0 {
		return &ValidationError{Field: "measure.iterations", Message: "must be > 0"}
	}
	if p.Measure.Samples <= 0 {
		return &ValidationError{Field: "measure.samples", Message: "must be > 0"}
	}

	if p.Histogram.MaxValue < 2 {
		return &ValidationError{Field: "histogram.maxValue", Message: "must be at least 2ns"}
	}
	if p.Histogram.SignificantFigures < 1 || p.Histogram.SignificantFigures > 5 {
		return &ValidationError{Field: "histogram.significantFigures", Message: "must be 1..5"}
	}
	switch p.Histogram.OverflowPolicy {
	case "clamp", "reject":
	default:
		return &ValidationError{
			Field:   "histogram.overflowPolicy",
			Message: fmt.Sprintf("unknown policy %q (want clamp or reject)", p.Histogram.OverflowPolicy),
		}
	}

	if p.Output.Scale <= 0 {
		return &ValidationError{Field: "output.scale", Message: "must be > 0"}
	}
	return nil
}
