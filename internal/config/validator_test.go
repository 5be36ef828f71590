package config

import (
	"errors"
	"strings"
	"testing"
)

func validPlan() Plan {
	p := Plan{}
	ApplyDefaults(&p)
	return p
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Plan)
		wantField string
	}{
		{"defaults are valid", func(p *Plan) {}, ""},
		{"zero ops ceiling", func(p *Plan) { p.Load.MaxOpsPerSec = 0 }, "load.maxOpsPerSec"},
		{"load level above one", func(p *Plan) { p.Load.TargetLoadLevel = 1.2 }, "load.targetLoadLevel"},
		{"negative load level", func(p *Plan) { p.Load.TargetLoadLevel = -0.1 }, "load.targetLoadLevel"},
		{"zero threads", func(p *Plan) { p.Load.Threads = 0 }, "load.threads"},
		{"unknown idle strategy", func(p *Plan) { p.Load.IdleStrategy = "napping" }, "load.idleStrategy"},
		{"negative warmup iterations", func(p *Plan) { p.Warmup.Iterations = -1 }, "warmup.iterations"},
		{"warmup without samples", func(p *Plan) { p.Warmup.Samples = 0 }, "warmup.samples"},
		{"zero measured iterations", func(p *Plan) { p.Measure.Iterations = 0 }, "measure.iterations"},
		{"zero measured samples", func(p *Plan) { p.Measure.Samples = 0 }, "measure.samples"},
		{"tiny histogram range", func(p *Plan) { p.Histogram.MaxValue = 1 }, "histogram.maxValue"},
		{"sigfigs out of range", func(p *Plan) { p.Histogram.SignificantFigures = 6 }, "histogram.significantFigures"},
		{"unknown overflow policy", func(p *Plan) { p.Histogram.OverflowPolicy = "drop" }, "histogram.overflowPolicy"},
		{"zero scale", func(p *Plan) { p.Output.Scale = 0 }, "output.scale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := validPlan()
			tt.mutate(&plan)

			err := plan.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
			if !strings.Contains(verr.Error(), tt.wantField) {
				t.Errorf("Error() = %q, should mention the field", verr.Error())
			}
		})
	}
}
