package flush

import (
	"math"

	"github.com/ja7ad/partes/pkg/types"
)

// dgemmKernel multiplies C = A·B over square matrices. Three doubles
// per logical element, element count floored to the nearest square.
// B is the identity, so C comes out equal to A and the key target
// stays closed-form even for a matrix product: Σ (1.01 + i) per run.
type dgemmKernel struct {
	a, b, c []float64
	n       uint64
	key     float64
}

func (k *dgemmKernel) Init(kib uint64) (types.Bytes, error) {
	if kib == 0 {
		return 0, nil
	}
	k.n = uint64(math.Sqrt(float64(elems(kib, 3))))
	npf := k.n * k.n
	k.a = make([]float64, npf)
	k.b = make([]float64, npf)
	k.c = make([]float64, npf)
	for i := uint64(0); i < npf; i++ {
		k.a[i] = 1.01 + float64(i)
		if i/k.n == i%k.n {
			k.b[i] = 1.0
		}
	}
	return types.Bytes(npf * 3 * 8), nil
}

func (k *dgemmKernel) Run() {
	n := k.n
	for i := uint64(0); i < n; i++ {
		for j := uint64(0); j < n; j++ {
			var sum float64
			for l := uint64(0); l < n; l++ {
				sum += k.a[i*n+l] * k.b[l*n+j]
			}
			k.c[i*n+j] = sum
		}
	}
}

func (k *dgemmKernel) UpdateKey() {
	for i := range k.c {
		k.key += k.c[i]
		k.c[i] = 0
	}
}

func (k *dgemmKernel) CheckKey(ntests int) (float64, error) {
	var target float64
	for i := range k.a {
		target += 1.01 + float64(i)
	}
	target *= float64(ntests)
	return checkKey(k.key, target)
}

func (k *dgemmKernel) Cleanup() {
	k.a, k.b, k.c = nil, nil, nil
	k.n = 0
}

func (k *dgemmKernel) Name() string { return NameDGEMM }
