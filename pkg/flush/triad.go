package flush

import "github.com/ja7ad/partes/pkg/types"

// triadKernel streams a[i] = s·b[i] + c[i]. Three doubles per logical
// element; b holds 1.01 and c holds i, so the per-run key
// contribution is Σ (s·1.01 + i).
type triadKernel struct {
	a, b, c []float64
	key     float64
}

const triadFactor = 0.42

func (k *triadKernel) Init(kib uint64) (types.Bytes, error) {
	if kib == 0 {
		return 0, nil
	}
	npf := elems(kib, 3)
	k.a = make([]float64, npf)
	k.b = make([]float64, npf)
	k.c = make([]float64, npf)
	for i := range k.b {
		k.b[i] = 1.01
		k.c[i] = float64(i)
	}
	return types.Bytes(npf * 3 * 8), nil
}

func (k *triadKernel) Run() {
	for i := range k.a {
		k.a[i] = triadFactor*k.b[i] + k.c[i]
	}
}

func (k *triadKernel) UpdateKey() {
	for i := range k.a {
		k.key += k.a[i]
		k.a[i] = 0
	}
}

func (k *triadKernel) CheckKey(ntests int) (float64, error) {
	var target float64
	for i := range k.b {
		target += triadFactor*1.01 + float64(i)
	}
	target *= float64(ntests)
	return checkKey(k.key, target)
}

func (k *triadKernel) Cleanup() {
	k.a, k.b, k.c = nil, nil, nil
}

func (k *triadKernel) Name() string { return NameTriad }
