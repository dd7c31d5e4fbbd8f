package flush

import (
	"github.com/ja7ad/partes/pkg/comm"
	"github.com/ja7ad/partes/pkg/types"
)

// bcastKernel broadcasts its array from rank 0, flushing caches with
// communication traffic instead of local streams. One double per
// logical element. Every rank seeds a[i] = 1.01 + i + rank; after the
// first Run all ranks hold rank 0's array, so the key target is
// Σ (1.01 + i) per run on every rank.
//
// All slots of this variant take part in collective calls, so every
// rank of the job must select it (the driver guarantees this: kernel
// selection is a job-wide option).
type bcastKernel struct {
	c   *comm.Comm
	a   []float64
	key float64
}

func (k *bcastKernel) Init(kib uint64) (types.Bytes, error) {
	if kib == 0 {
		return 0, nil
	}
	npf := elems(kib, 1)
	k.a = make([]float64, npf)
	for i := range k.a {
		k.a[i] = 1.01 + float64(i) + float64(k.c.Rank())
	}
	return types.Bytes(npf * 8), nil
}

func (k *bcastKernel) Run() {
	if len(k.a) > 0 {
		k.c.BcastFloat64s(k.a, 0)
	}
}

func (k *bcastKernel) UpdateKey() {
	for i := range k.a {
		k.key += k.a[i]
	}
}

func (k *bcastKernel) CheckKey(ntests int) (float64, error) {
	var target float64
	for i := range k.a {
		target += 1.01 + float64(i)
	}
	target *= float64(ntests)
	return checkKey(k.key, target)
}

func (k *bcastKernel) Cleanup() {
	k.a = nil
}

func (k *bcastKernel) Name() string { return NameBcast }
