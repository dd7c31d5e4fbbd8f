package partes

import (
	"fmt"
	"math"

	"github.com/ja7ad/partes/pkg/flush"
	"github.com/ja7ad/partes/pkg/gauge"
	"github.com/ja7ad/partes/pkg/pterr"
	"github.com/ja7ad/partes/pkg/timer"
)

// Unset marks the mandatory targets before parsing.
const Unset = int64(math.MinInt64)

// Options is the resolved configuration of one sensor run. It is
// immutable after Validate; every rank reads the same value.
type Options struct {
	// TA and TB are the two target interval durations in nanoseconds,
	// 0 < TA <= TB.
	TA, TB int64

	// NTests is the number of synchronised measurements per target.
	NTests int64
	// NTiles is the CDF resolution.
	NTiles int
	// CutP in (0, 1] trims the upper quantile tail out of the
	// Wasserstein sum.
	CutP float64

	// Timer and Gauge select the time source and gauge kernel.
	Timer, Gauge string

	// FKern and RKern select the front and rear flush kernels;
	// the four sizes are KiB requests per call site.
	FKern, RKern                   string
	FSizeA, FSizeB, RSizeA, RSizeB uint64

	// OutDir receives the per-rank measurement CSVs.
	OutDir string
}

// Defaults mirrors the CLI defaults.
func Defaults() Options {
	return Options{
		TA:     Unset,
		TB:     Unset,
		NTests: 1000,
		NTiles: 100,
		CutP:   1.0,
		Timer:  timer.NameMonotonic,
		Gauge:  gauge.NameSubScalar,
		FKern:  flush.NameNone,
		RKern:  flush.NameNone,
		OutDir: ".",
	}
}

var kernelNames = map[string]bool{
	flush.NameNone:  true,
	flush.NameTriad: true,
	flush.NameScale: true,
	flush.NameCopy:  true,
	flush.NameAdd:   true,
	flush.NamePow:   true,
	flush.NameDGEMM: true,
	flush.NameBcast: true,
}

var timerNames = map[string]bool{
	timer.NameMonotonic: true,
	timer.NameWalltime:  true,
	timer.NameTSCAsym:   true,
}

var gaugeNames = map[string]bool{
	gauge.NameSubScalar: true,
	gauge.NameFMAScalar: true,
	gauge.NameFMAAVX2:   true,
	gauge.NameFMAAVX512: true,
}

// Validate checks the option domains before any rank starts. It runs
// once, ahead of the job, so a bad invocation produces no measurement
// files.
func (o *Options) Validate() error {
	if o.TA == Unset || o.TB == Unset {
		return fmt.Errorf("%w: --ta and --tb are mandatory", pterr.ErrMissingArgument)
	}
	if o.TA <= 0 || o.TB <= 0 {
		return fmt.Errorf("%w: targets must be positive", pterr.ErrInvalidArgument)
	}
	if o.TA > o.TB {
		return fmt.Errorf("%w: --ta must not exceed --tb", pterr.ErrInvalidArgument)
	}
	if o.CutP <= 0 || o.CutP > 1 {
		return fmt.Errorf("%w: --cut-p must be in (0, 1]", pterr.ErrInvalidArgument)
	}
	if o.NTests < 1 {
		return fmt.Errorf("%w: --ntests must be >= 1", pterr.ErrInvalidArgument)
	}
	if o.NTiles < 2 {
		return fmt.Errorf("%w: --ntiles must be >= 2", pterr.ErrInvalidArgument)
	}
	if !kernelNames[o.FKern] {
		return fmt.Errorf("%w: unknown front kernel %q", pterr.ErrInvalidArgument, o.FKern)
	}
	if !kernelNames[o.RKern] {
		return fmt.Errorf("%w: unknown rear kernel %q", pterr.ErrInvalidArgument, o.RKern)
	}
	if !timerNames[o.Timer] {
		return fmt.Errorf("%w: unknown timer %q", pterr.ErrInvalidArgument, o.Timer)
	}
	if !gaugeNames[o.Gauge] {
		return fmt.Errorf("%w: unknown gauge %q", pterr.ErrInvalidArgument, o.Gauge)
	}
	return nil
}
