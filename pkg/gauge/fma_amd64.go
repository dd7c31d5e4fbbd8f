package gauge

import (
	"fmt"

	"github.com/ja7ad/partes/pkg/pterr"
	"golang.org/x/sys/cpu"
)

// fmaKernel covers the three FMA widths. Each Run iteration issues a
// fixed block of fused multiply-adds into architectural registers;
// the loop carries no memory traffic at all.
type fmaKernel struct {
	name string
	run  func(n int64)
	ok   func() bool
}

func newFMA(name string) (Kernel, error) {
	switch name {
	case NameFMAScalar:
		return &fmaKernel{name: name, run: runFMAScalar, ok: func() bool { return cpu.X86.HasFMA }}, nil
	case NameFMAAVX2:
		return &fmaKernel{name: name, run: runFMAAVX2, ok: func() bool { return cpu.X86.HasAVX2 && cpu.X86.HasFMA }}, nil
	case NameFMAAVX512:
		return &fmaKernel{name: name, run: runFMAAVX512, ok: func() bool { return cpu.X86.HasAVX512F }}, nil
	}
	return nil, fmt.Errorf("%w: unknown gauge %q", pterr.ErrInvalidArgument, name)
}

func (k *fmaKernel) Init() error {
	if !k.ok() {
		return fmt.Errorf("%w: gauge %q not supported by this CPU", pterr.ErrInvalidArgument, k.name)
	}
	return nil
}

func (k *fmaKernel) Run(n int64) {
	if n > 0 {
		k.run(n)
	}
}

func (k *fmaKernel) Cleanup() {}

func (k *fmaKernel) Name() string { return k.name }

// Implemented in fma_amd64.s.

//go:noescape
func runFMAScalar(n int64)

//go:noescape
func runFMAAVX2(n int64)

//go:noescape
func runFMAAVX512(n int64)
