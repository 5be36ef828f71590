package harness

import (
	"testing"
	"time"
)

func TestIdleFactoryFor(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", false},
		{IdleNoOp, false},
		{IdleYielding, false},
		{IdleBackoff, false},
		{"sleepy", true},
	}

	for _, tt := range tests {
		factory, err := IdleFactoryFor(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("IdleFactoryFor(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		// Distinct workers must get distinct instances: Backoff and
		// Yielding carry per-wait state.
		a, b := factory(), factory()
		if _, ok := a.(NoOpIdle); !ok && a == b {
			t.Errorf("IdleFactoryFor(%q) returned a shared instance", tt.name)
		}
		a.Idle()
		a.Reset()
	}
}

func TestYieldingIdle_SpinsBeforeYielding(t *testing.T) {
	y := NewYieldingIdle(3)
	for i := 0; i < 10; i++ {
		y.Idle()
	}
	if y.count != 3 {
		t.Errorf("spin count = %d, want capped at 3", y.count)
	}
	y.Reset()
	if y.count != 0 {
		t.Errorf("count after Reset = %d, want 0", y.count)
	}
}

func TestBackoffIdle_SleepDoublesUpToCap(t *testing.T) {
	b := NewBackoffIdle(1, 1, time.Microsecond, 4*time.Microsecond)

	// Exhaust spin and yield phases.
	b.Idle()
	b.Idle()

	var seen []time.Duration
	for i := 0; i < 5; i++ {
		b.Idle()
		seen = append(seen, b.sleep)
	}
	// After sleeping at 1us the next delays double: 2, 4, then stay 4.
	want := []time.Duration{2 * time.Microsecond, 4 * time.Microsecond, 4 * time.Microsecond, 4 * time.Microsecond, 4 * time.Microsecond}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, seen[i], want[i])
		}
	}

	b.Reset()
	if b.sleep != 0 || b.count != 0 {
		t.Errorf("after Reset: sleep = %v, count = %d, want zeroes", b.sleep, b.count)
	}
}

func TestBackoffIdle_Defaults(t *testing.T) {
	b := NewBackoffIdle(1, 1, 0, 0)
	if b.minSleep != defaultMinSleep {
		t.Errorf("minSleep = %v, want %v", b.minSleep, defaultMinSleep)
	}
	if b.maxSleep < b.minSleep {
		t.Errorf("maxSleep = %v, want >= minSleep %v", b.maxSleep, b.minSleep)
	}
}
