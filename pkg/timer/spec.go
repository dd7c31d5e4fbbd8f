package timer

import (
	"fmt"
	"math"

	"github.com/ja7ad/partes/pkg/pterr"
)

// Spec is the measured behaviour of a Source on this rank.
//
// Tick is the timer's grain: the smallest positive forward delta
// between two successive reads. Ovh is the cost paid per timed region
// just by reading the clock: the smallest observable back-to-back
// round trip. Both are process-local and never reconciled across
// ranks.
type Spec struct {
	Ovh  int64
	Tick int64
}

// Characterize stress-runs src with ntest consecutive reads and
// derives its Spec. barrier is called twice up front so every rank
// crosses an OS quantum boundary before the reads start.
//
// A backwards delta between successive stamps is fatal
// (pterr.ErrTimerNegative): the source is not monotonic and nothing
// downstream can be trusted.
func Characterize(src Source, ntest int, barrier func()) (Spec, error) {
	if ntest < 2 {
		return Spec{}, fmt.Errorf("%w: ntest must be >= 2", pterr.ErrInvalidArgument)
	}
	if err := src.Init(); err != nil {
		return Spec{}, fmt.Errorf("timer init: %w", err)
	}

	barrier()
	barrier()

	stamps := make([]int64, ntest)
	for i := range stamps {
		stamps[i] = src.Stamp()
	}

	ovh := int64(math.MaxInt64)
	for i := 0; i < ntest; i++ {
		t0 := src.Tick()
		t1 := src.Tock()
		d := t1 - t0
		if d < 0 {
			return Spec{}, fmt.Errorf("%w: tock %d before tick %d", pterr.ErrTimerNegative, t1, t0)
		}
		if d < ovh {
			ovh = d
		}
	}

	tick := int64(math.MaxInt64)
	for i := 1; i < ntest; i++ {
		d := stamps[i] - stamps[i-1]
		if d < 0 {
			return Spec{}, fmt.Errorf("%w: stamp %d after %d", pterr.ErrTimerNegative, stamps[i], stamps[i-1])
		}
		if d > 0 && d < tick {
			tick = d
		}
	}
	if tick == math.MaxInt64 {
		// Every read landed in the same quantum; the grain is at
		// least one count.
		tick = 1
	}

	return Spec{Ovh: ovh, Tick: tick}, nil
}
