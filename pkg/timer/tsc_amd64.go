package timer

// tscAsymSource reads the cycle counter with an asymmetric
// serialisation pair, after Paoloni's benchmarking white paper: the
// pre-read fences before RDTSC so no earlier instruction leaks into
// the timed region, the post-read uses RDTSCP (which waits for the
// region to retire) followed by a fence so no later instruction leaks
// in. Values are cycles treated as nanoseconds; calibration rescales.
type tscAsymSource struct{}

func newTSCAsym() (Source, error) { return tscAsymSource{}, nil }

func (tscAsymSource) Init() error { return nil }

func (tscAsymSource) Tick() int64 { return tscTick() }

func (tscAsymSource) Tock() int64 { return tscTock() }

func (tscAsymSource) Stamp() int64 { return tscStamp() }

func (tscAsymSource) Name() string { return NameTSCAsym }

// Implemented in tsc_amd64.s.

//go:noescape
func tscTick() int64

//go:noescape
func tscTock() int64

//go:noescape
func tscStamp() int64
