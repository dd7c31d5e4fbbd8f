// Package stat reduces raw per-rank timing samples to empirical CDFs
// and distances between them.
package stat

import (
	"fmt"
	"slices"

	"github.com/ja7ad/partes/pkg/pterr"
)

// CDF sorts raw ascending in place and emits its empirical CDF at
// ntiles quantile points: cdf[i] = raw[floor(i·(L−1)/(ntiles−1))].
// The result is monotonically non-decreasing with cdf[0] == min(raw)
// and cdf[ntiles−1] == max(raw).
func CDF(raw []int64, ntiles int) []int64 {
	slices.Sort(raw)
	l := len(raw)
	cdf := make([]int64, ntiles)
	for i := 0; i < ntiles; i++ {
		idx := i * (l - 1) / (ntiles - 1)
		cdf[i] = raw[idx]
	}
	return cdf
}

// W is the trimmed Wasserstein-1 distance between two CDFs sampled at
// the same ntiles points: the L1 gap summed over the lower
// floor(cutP·ntiles) quantiles, divided by ntiles. The divisor stays
// ntiles for every cutP, so trimming zeroes the tail rather than
// renormalising.
func W(cdfA, cdfB []int64, ntiles int, cutP float64) float64 {
	tileMax := int(cutP * float64(ntiles))
	if tileMax > ntiles {
		tileMax = ntiles
	}
	var sum float64
	for i := 0; i < tileMax; i++ {
		d := cdfA[i] - cdfB[i]
		if d < 0 {
			d = -d
		}
		sum += float64(d)
	}
	return sum / float64(ntiles)
}

// QuantileGap is cdfB − cdfA at one percentile.
type QuantileGap struct {
	Percentile int
	Gap        int64
}

// reportPercentiles is the fixed diagnostic set of the quantile-gap
// table.
var reportPercentiles = []int{0, 50, 75, 90, 95, 99, 100}

// QuantileGaps evaluates cdfB − cdfA at the fixed percentile set.
// The index for percentile p is p·ntiles/100, clamped to ntiles−1 so
// the 100th percentile reads the last tile.
func QuantileGaps(cdfA, cdfB []int64, ntiles int) []QuantileGap {
	gaps := make([]QuantileGap, 0, len(reportPercentiles))
	for _, p := range reportPercentiles {
		idx := p * ntiles / 100
		if idx >= ntiles {
			idx = ntiles - 1
		}
		gaps = append(gaps, QuantileGap{Percentile: p, Gap: cdfB[idx] - cdfA[idx]})
	}
	return gaps
}

// SampleVar returns the unbiased sample variance of xs.
func SampleVar(xs []int64) (float64, error) {
	n := len(xs)
	if n <= 1 {
		return 0, fmt.Errorf("%w: sample variance needs at least 2 points", pterr.ErrInvalidArgument)
	}
	var mean float64
	for _, x := range xs {
		mean += float64(x)
	}
	mean /= float64(n)
	var v float64
	for _, x := range xs {
		d := float64(x) - mean
		v += d * d
	}
	return v / float64(n-1), nil
}

// LinregSlope returns the least-squares slope of y against x, or 0
// when the fit is degenerate.
func LinregSlope(x, y []int64) float64 {
	n := len(x)
	if n <= 1 || len(y) != n {
		return 0
	}
	var sx, sy, sxx, sxy float64
	for i := 0; i < n; i++ {
		xd, yd := float64(x[i]), float64(y[i])
		sx += xd
		sy += yd
		sxx += xd * xd
		sxy += xd * yd
	}
	denom := float64(n)*sxx - sx*sx
	if denom < 1e-12 && denom > -1e-12 {
		return 0
	}
	return (float64(n)*sxy - sx*sy) / denom
}
