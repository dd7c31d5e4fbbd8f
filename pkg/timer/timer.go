// Package timer provides the time sources the sensor characterises
// and measures with, plus the characterisation itself.
//
// A Source returns 64-bit signed nanosecond counts. Tick is the
// pre-measurement read, Tock the post-measurement read, Stamp an
// arbitrary read for stress runs. For the asymmetric counter variant
// the values are cycles treated as nanoseconds by convention; the
// gauge calibration rescales, so nothing downstream needs to care.
package timer

import (
	"fmt"

	"github.com/ja7ad/partes/pkg/comm"
	"github.com/ja7ad/partes/pkg/pterr"
)

// Names accepted by --timer.
const (
	NameMonotonic = "clock_gettime"
	NameWalltime  = "mpi_wtime"
	NameTSCAsym   = "tsc_asym"
)

// Source is one time source variant.
type Source interface {
	// Init prepares the source. It fails when the variant is not
	// available on this platform.
	Init() error
	// Tick reads the source before a timed region.
	Tick() int64
	// Tock reads the source after a timed region.
	Tock() int64
	// Stamp reads the source outside any timed region.
	Stamp() int64
	// Name returns the selection name of the variant.
	Name() string
}

// New returns the Source selected by name. The walltime variant reads
// the job's shared wall clock through c.
func New(name string, c *comm.Comm) (Source, error) {
	switch name {
	case NameMonotonic:
		return &monotonicSource{}, nil
	case NameWalltime:
		return &walltimeSource{c: c}, nil
	case NameTSCAsym:
		return newTSCAsym()
	default:
		return nil, fmt.Errorf("%w: unknown timer %q", pterr.ErrInvalidArgument, name)
	}
}

// walltimeSource reads the communicator's wall clock. Tick, Tock and
// Stamp are the same read.
type walltimeSource struct {
	c *comm.Comm
}

func (s *walltimeSource) Init() error  { return nil }
func (s *walltimeSource) Tick() int64  { return s.c.Wtime() }
func (s *walltimeSource) Tock() int64  { return s.c.Wtime() }
func (s *walltimeSource) Stamp() int64 { return s.c.Wtime() }
func (s *walltimeSource) Name() string { return NameWalltime }
