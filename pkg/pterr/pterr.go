// Package pterr defines the sensor's error taxonomy.
//
// Every fallible operation in the measurement pipeline resolves to one
// of the sentinel errors below. The process exit status equals the
// ordinal of the first sentinel on the error chain (ExitCode), so a
// scripted caller can distinguish a non-monotonic timer from a failed
// key check without parsing stderr.
package pterr

import "errors"

var (
	// ErrTimerNegative indicates a non-monotonic read: two successive
	// stamps of the selected time source went backwards.
	ErrTimerNegative = errors.New("timer returned negative delta")

	// ErrTimerOverflow indicates that gauge calibration did not
	// converge before the round cap.
	ErrTimerOverflow = errors.New("timer overflow: calibration did not converge")

	// ErrExitFlag is a normal early exit (e.g. --help).
	ErrExitFlag = errors.New("exit flag")

	// ErrMallocFailed indicates a working-set allocation could not be
	// satisfied (size overflow or out of memory).
	ErrMallocFailed = errors.New("memory allocation failed")

	// ErrInvalidArgument indicates an option value outside its domain,
	// or a variant unsupported on this CPU.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingArgument indicates a mandatory option was not given.
	ErrMissingArgument = errors.New("missing argument")

	// ErrFileOpenFailed indicates a measurement CSV could not be created.
	ErrFileOpenFailed = errors.New("file open failed")

	// ErrKeyCheckFailed indicates a flush kernel's key accumulator
	// deviated from its closed-form target, i.e. the kernel did not
	// execute the intended arithmetic.
	ErrKeyCheckFailed = errors.New("key check failed")
)

// ordinals fixes the exit-status mapping. Order is part of the CLI
// contract and must not be rearranged.
var ordinals = []error{
	ErrTimerNegative,  // 1
	ErrTimerOverflow,  // 2
	ErrExitFlag,       // 3
	ErrMallocFailed,   // 4
	ErrInvalidArgument, // 5
	ErrMissingArgument, // 6
	ErrFileOpenFailed,  // 7
	ErrKeyCheckFailed,  // 8
}

// ExitCode maps err to its process exit status. nil maps to 0; an
// error outside the taxonomy maps to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	for i, s := range ordinals {
		if errors.Is(err, s) {
			return i + 1
		}
	}
	return 1
}
