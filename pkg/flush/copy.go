package flush

import "github.com/ja7ad/partes/pkg/types"

// copyKernel streams a[i] = b[i]. Two doubles per logical element.
// b carries 1.01 + i, so the per-run key contribution is
// Σ (1.01 + i).
type copyKernel struct {
	a, b []float64
	key  float64
}

func (k *copyKernel) Init(kib uint64) (types.Bytes, error) {
	if kib == 0 {
		return 0, nil
	}
	npf := elems(kib, 2)
	k.a = make([]float64, npf)
	k.b = make([]float64, npf)
	for i := range k.b {
		k.b[i] = 1.01 + float64(i)
	}
	return types.Bytes(npf * 2 * 8), nil
}

func (k *copyKernel) Run() {
	for i := range k.a {
		k.a[i] = k.b[i]
	}
}

func (k *copyKernel) UpdateKey() {
	for i := range k.a {
		k.key += k.a[i]
		k.a[i] = 0
	}
}

func (k *copyKernel) CheckKey(ntests int) (float64, error) {
	var target float64
	for i := range k.b {
		target += 1.01 + float64(i)
	}
	target *= float64(ntests)
	return checkKey(k.key, target)
}

func (k *copyKernel) Cleanup() {
	k.a, k.b = nil, nil
}

func (k *copyKernel) Name() string { return NameCopy }
