package flush

import (
	"math"

	"github.com/ja7ad/partes/pkg/types"
)

// powKernel streams a[i] = b[i]^p, one transcendental per element on
// top of the memory traffic. Two doubles per logical element; b holds
// 1.01 + 0.001·i.
type powKernel struct {
	a, b []float64
	key  float64
}

const powExponent = 1.0001

func (k *powKernel) Init(kib uint64) (types.Bytes, error) {
	if kib == 0 {
		return 0, nil
	}
	npf := elems(kib, 2)
	k.a = make([]float64, npf)
	k.b = make([]float64, npf)
	for i := range k.b {
		k.b[i] = 1.01 + float64(i)*0.001
	}
	return types.Bytes(npf * 2 * 8), nil
}

func (k *powKernel) Run() {
	for i := range k.a {
		k.a[i] = math.Pow(k.b[i], powExponent)
	}
}

func (k *powKernel) UpdateKey() {
	for i := range k.a {
		k.key += k.a[i]
		k.a[i] = 0
	}
}

func (k *powKernel) CheckKey(ntests int) (float64, error) {
	var target float64
	for i := range k.b {
		target += math.Pow(1.01+float64(i)*0.001, powExponent)
	}
	target *= float64(ntests)
	return checkKey(k.key, target)
}

func (k *powKernel) Cleanup() {
	k.a, k.b = nil, nil
}

func (k *powKernel) Name() string { return NamePow }
