package harness

import (
	"fmt"
	"runtime"
	"time"
)

// IdleStrategy occupies a worker while it holds for its next scheduled
// send time. The wait loop's exit condition is always the high-resolution
// clock, so the choice of strategy trades CPU burn against wakeup
// precision without affecting correctness of the recorded values.
//
// Strategies carry per-wait state and are not shared between workers;
// each worker gets its own instance from an IdleFactory.
type IdleStrategy interface {
	// Idle burns or yields one unit of wait time.
	Idle()

	// Reset clears any escalation state once a wait loop completes.
	Reset()
}

// IdleFactory produces a fresh strategy instance for one worker.
type IdleFactory func() IdleStrategy

// Idle strategy names accepted by IdleFactoryFor.
const (
	IdleNoOp     = "noop"
	IdleYielding = "yielding"
	IdleBackoff  = "backoff"
)

// IdleFactoryFor maps a configured strategy name to a factory.
func IdleFactoryFor(name string) (IdleFactory, error) {
	switch name {
	case "", IdleNoOp:
		return func() IdleStrategy { return NoOpIdle{} }, nil
	case IdleYielding:
		return func() IdleStrategy { return NewYieldingIdle(defaultSpins) }, nil
	case IdleBackoff:
		return func() IdleStrategy {
			return NewBackoffIdle(defaultSpins, defaultYields, defaultMinSleep, defaultMaxSleep)
		}, nil
	default:
		return nil, fmt.Errorf("unknown idle strategy %q", name)
	}
}

const (
	defaultSpins    = 100
	defaultYields   = 10
	defaultMinSleep = time.Microsecond
	defaultMaxSleep = time.Millisecond
)

// NoOpIdle busy-spins. Maximum wakeup precision, maximum CPU burn.
type NoOpIdle struct{}

func (NoOpIdle) Idle()  {}
func (NoOpIdle) Reset() {}

// YieldingIdle spins a bounded number of times, then yields the
// processor on every subsequent call.
type YieldingIdle struct {
	spins int
	count int
}

// NewYieldingIdle creates a yielding strategy that spins the given
// number of times before it starts yielding.
func NewYieldingIdle(spins int) *YieldingIdle {
	return &YieldingIdle{spins: spins}
}

func (y *YieldingIdle) Idle() {
	if y.count < y.spins {
		y.count++
		return
	}
	runtime.Gosched()
}

func (y *YieldingIdle) Reset() {
	y.count = 0
}

// BackoffIdle spins, then yields, then sleeps with doubling delay up to
// a cap. Cheapest on CPU, coarsest wakeup precision.
type BackoffIdle struct {
	spins    int
	yields   int
	minSleep time.Duration
	maxSleep time.Duration

	count int
	sleep time.Duration
}

// NewBackoffIdle creates a backoff strategy. It spins `spins` times,
// yields `yields` times, then sleeps starting at minSleep and doubling
// up to maxSleep.
func NewBackoffIdle(spins, yields int, minSleep, maxSleep time.Duration) *BackoffIdle {
	if minSleep <= 0 {
		minSleep = defaultMinSleep
	}
	if maxSleep < minSleep {
		maxSleep = minSleep
	}
	return &BackoffIdle{spins: spins, yields: yields, minSleep: minSleep, maxSleep: maxSleep}
}

func (b *BackoffIdle) Idle() {
	if b.count < b.spins {
		b.count++
		return
	}
	if b.count < b.spins+b.yields {
		b.count++
		runtime.Gosched()
		return
	}
	if b.sleep == 0 {
		b.sleep = b.minSleep
	}
	time.Sleep(b.sleep)
	if b.sleep < b.maxSleep {
		b.sleep *= 2
		if b.sleep > b.maxSleep {
			b.sleep = b.maxSleep
		}
	}
}

func (b *BackoffIdle) Reset() {
	b.count = 0
	b.sleep = 0
}
