package flush

import "github.com/ja7ad/partes/pkg/types"

// addKernel streams a[i] = b[i] + c[i]. Three doubles per logical
// element; b and c hold 1.01 each, so the per-run key contribution is
// npf · 2.02.
type addKernel struct {
	a, b, c []float64
	key     float64
}

func (k *addKernel) Init(kib uint64) (types.Bytes, error) {
	if kib == 0 {
		return 0, nil
	}
	npf := elems(kib, 3)
	k.a = make([]float64, npf)
	k.b = make([]float64, npf)
	k.c = make([]float64, npf)
	for i := range k.b {
		k.b[i] = 1.01
		k.c[i] = 1.01
	}
	return types.Bytes(npf * 3 * 8), nil
}

func (k *addKernel) Run() {
	for i := range k.a {
		k.a[i] = k.b[i] + k.c[i]
	}
}

func (k *addKernel) UpdateKey() {
	for i := range k.a {
		k.key += k.a[i]
		k.a[i] = 0
	}
}

func (k *addKernel) CheckKey(ntests int) (float64, error) {
	target := float64(len(k.a)) * (1.01 + 1.01) * float64(ntests)
	return checkKey(k.key, target)
}

func (k *addKernel) Cleanup() {
	k.a, k.b, k.c = nil, nil, nil
}

func (k *addKernel) Name() string { return NameAdd }
