//go:build !linux

package osnoise

import "errors"

// Counters holds monotonic system-wide counts; unavailable off Linux.
type Counters struct {
	ContextSwitches uint64
	Interrupts      uint64
}

// ErrUnsupported reports that this platform exposes no counter source.
var ErrUnsupported = errors.New("osnoise: unsupported platform")

// Read always fails off Linux; callers treat the counters as a
// best-effort diagnostic.
func Read() (Counters, error) { return Counters{}, ErrUnsupported }

// Delta returns c - prev.
func (c Counters) Delta(prev Counters) Counters {
	return Counters{
		ContextSwitches: c.ContextSwitches - prev.ContextSwitches,
		Interrupts:      c.Interrupts - prev.Interrupts,
	}
}
