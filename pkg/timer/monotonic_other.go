//go:build !linux

package timer

import "time"

// monotonicSource falls back to the runtime's monotonic clock where
// clock_gettime is not directly reachable.
type monotonicSource struct{}

var monotonicEpoch = time.Now()

func (monotonicSource) Init() error { return nil }

func (monotonicSource) Tick() int64 { return monotonicNow() }

func (monotonicSource) Tock() int64 { return monotonicNow() }

func (monotonicSource) Stamp() int64 { return monotonicNow() }

func (monotonicSource) Name() string { return NameMonotonic }

func monotonicNow() int64 { return time.Since(monotonicEpoch).Nanoseconds() }
