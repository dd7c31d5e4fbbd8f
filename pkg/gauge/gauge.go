// Package gauge provides the calibrated compute ruler the sensor
// times, and the calibration that fits it to the host's timer.
//
// A gauge kernel is a straight-line compute block whose runtime is
// n·c cycles for the scalar argument n, constant c >= 1. It allocates
// nothing, makes no syscalls, and its inner loop is statically
// compiled (assembly, or a stored-sink fallback) so the optimiser
// cannot elide it and no per-iteration indirect call pollutes the
// measurement.
package gauge

import (
	"fmt"

	"github.com/ja7ad/partes/pkg/pterr"
)

// Names accepted by --gauge.
const (
	NameSubScalar = "sub_scalar"
	NameFMAScalar = "fma_scalar"
	NameFMAAVX2   = "fma_avx2"
	NameFMAAVX512 = "fma_avx512"
)

// Kernel is one gauge variant.
type Kernel interface {
	// Init verifies the variant runs on this CPU.
	Init() error
	// Run executes n iterations of the gauge loop. n <= 0 is a no-op.
	Run(n int64)
	// Cleanup releases whatever Init acquired.
	Cleanup()
	// Name returns the selection name of the variant.
	Name() string
}

// New returns the Kernel selected by name. Architecture-specific
// variants fail here, not at Init, when the build has no lowering for
// them at all; Init catches the finer CPU-feature gates.
func New(name string) (Kernel, error) {
	switch name {
	case NameSubScalar:
		return subScalar{}, nil
	case NameFMAScalar, NameFMAAVX2, NameFMAAVX512:
		return newFMA(name)
	default:
		return nil, fmt.Errorf("%w: unknown gauge %q", pterr.ErrInvalidArgument, name)
	}
}

// subScalar is the integer-subtract loop: one subtract and one branch
// per iteration, the smallest possible gauge grain.
type subScalar struct{}

func (subScalar) Init() error { return nil }

func (subScalar) Run(n int64) {
	if n > 0 {
		runSub(n)
	}
}

func (subScalar) Cleanup() {}

func (subScalar) Name() string { return NameSubScalar }
