package gauge

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/ja7ad/partes/pkg/comm"
	"github.com/ja7ad/partes/pkg/pterr"
	"github.com/ja7ad/partes/pkg/stat"
	"github.com/ja7ad/partes/pkg/timer"
)

// Info is the fitted behaviour of a gauge kernel on this rank under
// current clock, thermal and micro-architectural conditions.
type Info struct {
	// CyPerOp is the nominal cycle cost of one gauge iteration.
	CyPerOp uint64
	// WtimePerOp is the fitted wall time of one iteration, tick/GPT.
	WtimePerOp float64
	// GPT is gauges per tick: how many iterations occupy exactly one
	// timer tick.
	GPT float64
}

// Calibration tuning. dt is the target increment of the bisection fit
// in ticks; the Hz bounds clamp the bracket to physically plausible
// per-op rates.
const (
	varMaxNStep    = 5
	thresGuessTime = 1_000_000 // ns·ticks; escape of the noise floor
	deltaTick      = 10
	fitXLen        = 100
	numIgnore      = 2
	metRepeat      = 5
	minTryHz       = 1e8
	maxTryHz       = 1e10
	maxFitRounds   = 200
)

// Calibrate derives Info for k against src on this rank. The
// exponential bracket is globally coupled (the first rank past the
// threshold stops all of them); the bisection fit is per-rank, with a
// collective convergence exchange each round.
func Calibrate(c *comm.Comm, k Kernel, src timer.Source, ts timer.Spec) (Info, error) {
	info := Info{CyPerOp: 1}

	guess, err := exponentialGuess(c, k, src, ts)
	if err != nil {
		return Info{}, fmt.Errorf("exponential_guessing: %w", err)
	}

	gpt, err := fitSubTime(c, k, src, ts, guess, info.CyPerOp)
	if err != nil {
		return Info{}, fmt.Errorf("fit_sub_time: %w", err)
	}

	info.GPT = gpt
	info.WtimePerOp = float64(ts.Tick) / gpt
	return info, nil
}

// timeRun measures one gauge invocation.
func timeRun(src timer.Source, k Kernel, n int64) int64 {
	t0 := src.Tick()
	k.Run(n)
	t1 := src.Tock()
	return t1 - t0
}

// minRun measures k.Run(n) repeat times and keeps the minimum, the
// least-disturbed observation.
func minRun(src timer.Source, k Kernel, n int64, repeat int) int64 {
	best := int64(math.MaxInt64)
	for r := 0; r < repeat; r++ {
		if d := timeRun(src, k, n); d < best {
			best = d
		}
	}
	return best
}

// exponentialGuess brackets the gauge's speed by decades: run the
// kernel at n = 10^k until the measurement has clearly escaped the
// timer's noise floor, then emit the slope of the last decade as the
// initial gauges-per-tick estimate.
//
// The stop is a distributed OR: the first rank over the threshold
// terminates the sweep on every rank. A rank stopped early inherits a
// coarser slope; the per-rank bisection fit searches [guess/2, 2·guess]
// around it and does not reach a gpt outside that bracket.
func exponentialGuess(c *comm.Comm, k Kernel, src timer.Source, ts timer.Spec) (float64, error) {
	var (
		ns    []int64
		tmets []int64
	)

	n := int64(1)
	for kk := 0; kk <= 10; kk++ {
		tmetMin := minRun(src, k, n, varMaxNStep)
		ns = append(ns, n)
		tmets = append(tmets, tmetMin)

		stop := 10*tmetMin*ts.Tick > thresGuessTime
		flags := c.AllGatherBool(stop)
		if anyTrue(flags) {
			break
		}
		n *= 10
	}

	last := len(tmets) - 1
	var guess float64
	if last >= 1 {
		dticks := float64(tmets[last]-tmets[last-1]) / float64(ts.Tick)
		if dticks <= 0 {
			return 0, fmt.Errorf("%w: no measurable slope across decades", pterr.ErrTimerOverflow)
		}
		guess = float64(ns[last]-ns[last-1]) / dticks
	} else {
		dticks := float64(tmets[0]-ts.Ovh) / float64(ts.Tick)
		if dticks <= 0 {
			return 0, fmt.Errorf("%w: measurement never escaped timer overhead", pterr.ErrTimerOverflow)
		}
		guess = float64(ns[0]) / dticks
	}

	// Cross-check against the least-squares slope over all decades;
	// a large disagreement usually means frequency scaling kicked in
	// mid-sweep.
	if last >= 2 {
		slope := stat.LinregSlope(tmets, ns)
		if slope > 0 {
			regGPT := slope * float64(ts.Tick)
			if rel := math.Abs(regGPT-guess) / guess; rel > 0.5 {
				slog.Debug("exponential guess disagrees with regression slope",
					"rank", c.Rank(), "guess", guess, "regression", regGPT)
			}
		}
	}

	if guess <= 0 || math.IsInf(guess, 0) || math.IsNaN(guess) {
		return 0, fmt.Errorf("%w: degenerate initial slope", pterr.ErrTimerOverflow)
	}
	return guess, nil
}

// fitSubTime bisects gauges-per-tick until gauge counts spaced by
// gpt·dt produce measured increments of dt ticks.
//
// Each round a non-converged rank measures fitXLen+numIgnore points
// (first numIgnore discarded as warm-up, each point the minimum of
// metRepeat runs) and accumulates
//
//	delta = Σ (Δt_i/tick − dt)
//
// delta < 0 means the increments came out small, the gauge is faster
// than assumed, raise the lower bound; delta > 0 lowers the upper
// bound. Convergence is delta == 0 or a bracket tighter than 1% of
// gpt. The round ends with a collective exchange of converged flags;
// the loop runs until every rank's flag is set. Converged ranks stop
// measuring but keep joining the exchange, so uneven convergence
// cannot deadlock the job.
func fitSubTime(c *comm.Comm, k Kernel, src timer.Source, ts timer.Spec, guess float64, cyPerOp uint64) (float64, error) {
	tick := float64(ts.Tick)

	// Physical bounds on gauges-per-tick from the plausible per-op
	// frequency range.
	loBound := minTryHz * tick / 1e9 / float64(cyPerOp)
	hiBound := maxTryHz * tick / 1e9 / float64(cyPerOp)

	lo := math.Max(guess/2, loBound)
	hi := math.Min(guess*2, hiBound)
	if lo >= hi {
		lo, hi = loBound, hiBound
	}

	const xlen = fitXLen + numIgnore
	pmet := make([]int64, xlen)

	converged := false
	var gpt float64

	for round := 0; ; round++ {
		if !converged {
			gpt = 0.5 * (lo + hi)
			dx := gpt * deltaTick
			// Smallest count must dominate the read overhead even at
			// the warm-up points.
			nMin := (float64(ts.Ovh)/tick + deltaTick*numIgnore) * gpt

			for i := 0; i < xlen; i++ {
				n := int64(nMin + float64(i)*dx)
				pmet[i] = minRun(src, k, n, metRepeat)
			}

			var delta float64
			for i := numIgnore; i < xlen; i++ {
				delta += float64(pmet[i]-pmet[i-1])/tick - deltaTick
			}

			switch {
			case delta == 0 || hi-lo < 0.01*gpt:
				converged = true
			case delta < 0:
				lo = gpt
			default:
				hi = gpt
			}
		}

		flags := c.AllGatherBool(converged)
		if allTrue(flags) {
			break
		}
		if round >= maxFitRounds {
			return 0, fmt.Errorf("%w: bracket [%g, %g] after %d rounds", pterr.ErrTimerOverflow, lo, hi, round)
		}
	}

	if gpt <= 0 {
		return 0, fmt.Errorf("%w: non-positive gauges-per-tick", pterr.ErrTimerOverflow)
	}
	return gpt, nil
}

func anyTrue(fs []bool) bool {
	for _, f := range fs {
		if f {
			return true
		}
	}
	return false
}

func allTrue(fs []bool) bool {
	for _, f := range fs {
		if !f {
			return false
		}
	}
	return true
}
