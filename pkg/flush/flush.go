// Package flush provides the memory-traffic kernels fired around the
// timed gauge block, and the key protocol proving they actually ran.
//
// Overview
//
//   - Each Kernel value is one slot: it owns its working arrays and a
//     scalar key accumulator. The driver holds four instances, one per
//     call site (ta/tb × front/rear), so the same variant can flush
//     four regions without collision.
//
//   - Key protocol: after each Run, UpdateKey folds the output array
//     into the key and resets the array, so every Run sees identical
//     inputs and the expected key after ntests runs stays closed-form.
//     CheckKey compares against that target; a mismatch means the
//     kernel did not execute the intended arithmetic, usually because
//     the optimiser elided it.
//
//   - Sizing: Init receives a request in KiB and rounds down to whole
//     logical elements (and to a square for dgemm), returning the
//     actual footprint so the harness can log the rounding.
//
// A Kernel is not safe for concurrent use; Run and UpdateKey require
// a successful Init first.
package flush

import (
	"fmt"

	"github.com/ja7ad/partes/pkg/comm"
	"github.com/ja7ad/partes/pkg/pterr"
	"github.com/ja7ad/partes/pkg/types"
)

// Names accepted by --fkern / --rkern.
const (
	NameNone  = "none"
	NameTriad = "triad"
	NameScale = "scale"
	NameCopy  = "copy"
	NameAdd   = "add"
	NamePow   = "pow"
	NameDGEMM = "dgemm"
	NameBcast = "mpi_bcast"
)

// SlotID labels the four driver call sites.
type SlotID int

const (
	TAFront SlotID = iota
	TARear
	TBFront
	TBRear
)

func (s SlotID) String() string {
	switch s {
	case TAFront:
		return "ta_front"
	case TARear:
		return "ta_rear"
	case TBFront:
		return "tb_front"
	case TBRear:
		return "tb_rear"
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

// Kernel is one flush-kernel slot.
type Kernel interface {
	// Init sizes and fills the working arrays for a request of kib
	// KiB and returns the actual footprint after rounding. kib == 0
	// leaves the kernel empty; Run and UpdateKey become no-ops.
	Init(kib uint64) (types.Bytes, error)
	// Run executes one pass of the kernel's memory traffic.
	Run()
	// UpdateKey folds the output array into the key and zeroes it
	// (scale also restores its input; bcast keeps its array, which
	// the next Run overwrites from rank 0).
	UpdateKey()
	// CheckKey compares the key against its closed-form target after
	// ntests runs and returns the percentage gap. A relative gap
	// beyond 1e-6 is pterr.ErrKeyCheckFailed.
	CheckKey(ntests int) (float64, error)
	// Cleanup releases the working arrays.
	Cleanup()
	// Name returns the selection name of the variant.
	Name() string
}

// New returns a fresh slot of the named variant. Call it once per
// SlotID; instances share nothing. The broadcast variant needs the
// communicator; every other variant ignores it.
func New(name string, c *comm.Comm) (Kernel, error) {
	switch name {
	case NameNone:
		return &noneKernel{}, nil
	case NameTriad:
		return &triadKernel{}, nil
	case NameScale:
		return &scaleKernel{}, nil
	case NameCopy:
		return &copyKernel{}, nil
	case NameAdd:
		return &addKernel{}, nil
	case NamePow:
		return &powKernel{}, nil
	case NameDGEMM:
		return &dgemmKernel{}, nil
	case NameBcast:
		return &bcastKernel{c: c}, nil
	default:
		return nil, fmt.Errorf("%w: unknown flush kernel %q", pterr.ErrInvalidArgument, name)
	}
}

// keyTolerance is the relative deviation beyond which a key check
// fails.
const keyTolerance = 1e-6

// checkKey implements the shared comparison: percentage gap plus the
// pass/fail verdict against keyTolerance.
func checkKey(key, target float64) (float64, error) {
	var gap float64
	if target > 1e-12 || target < -1e-12 {
		gap = abs(key-target) / abs(target) * 100.0
	}
	if abs(key-target) > keyTolerance*abs(target) {
		return gap, fmt.Errorf("%w: key=%g target=%g", pterr.ErrKeyCheckFailed, key, target)
	}
	return gap, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// elems converts a KiB request into a whole element count for a
// kernel needing doublesPerElem doubles per logical element.
func elems(kib, doublesPerElem uint64) uint64 {
	return kib * 1024 / (doublesPerElem * 8)
}
