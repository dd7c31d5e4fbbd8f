package flush

import "github.com/ja7ad/partes/pkg/types"

// scaleKernel streams a[i] = s·b[i]; b[i] = s·a[i]. Two doubles per
// logical element. UpdateKey resets both arrays to their initial
// state so every run starts from b = 1.01 and the key target stays
// closed-form: npf · s · 1.01 per run.
type scaleKernel struct {
	a, b []float64
	key  float64
}

const scaleFactor = 1.0001

func (k *scaleKernel) Init(kib uint64) (types.Bytes, error) {
	if kib == 0 {
		return 0, nil
	}
	npf := elems(kib, 2)
	k.a = make([]float64, npf)
	k.b = make([]float64, npf)
	for i := range k.b {
		k.b[i] = 1.01
	}
	return types.Bytes(npf * 2 * 8), nil
}

func (k *scaleKernel) Run() {
	for i := range k.a {
		k.a[i] = scaleFactor * k.b[i]
		k.b[i] = scaleFactor * k.a[i]
	}
}

func (k *scaleKernel) UpdateKey() {
	for i := range k.a {
		k.key += k.a[i]
		k.a[i] = 0
		k.b[i] = 1.01
	}
}

func (k *scaleKernel) CheckKey(ntests int) (float64, error) {
	target := float64(len(k.a)) * scaleFactor * 1.01 * float64(ntests)
	return checkKey(k.key, target)
}

func (k *scaleKernel) Cleanup() {
	k.a, k.b = nil, nil
}

func (k *scaleKernel) Name() string { return NameScale }
