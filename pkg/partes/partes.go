// Package partes drives the parallel timing-error measurement: it
// characterises the timer, calibrates the gauge, runs the
// barrier-synchronised measurement loops for both targets, and
// reduces the gathered samples to the quantile-gap table and the
// Wasserstein distance.
package partes

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ja7ad/partes/pkg/comm"
	"github.com/ja7ad/partes/pkg/flush"
	"github.com/ja7ad/partes/pkg/gauge"
	"github.com/ja7ad/partes/pkg/pterr"
	"github.com/ja7ad/partes/pkg/stat"
	"github.com/ja7ad/partes/pkg/system/osnoise"
	"github.com/ja7ad/partes/pkg/timer"
	"github.com/ja7ad/partes/pkg/types"
)

// characterizeReads is the stress-read count for the timer spec.
const characterizeReads = 10000

// Run executes one rank of the sensor. Every rank walks the same
// sequence; collectives keep them in step. The returned error, if
// any, maps to the process exit ordinal.
func Run(c *comm.Comm, opts Options) error {
	src, err := timer.New(opts.Timer, c)
	if err != nil {
		return fmt.Errorf("parse_timer: %w", err)
	}

	gk, err := gauge.New(opts.Gauge)
	if err != nil {
		return fmt.Errorf("parse_gauge: %w", err)
	}
	if err := gk.Init(); err != nil {
		return fmt.Errorf("init_gauge: %w", err)
	}
	defer gk.Cleanup()

	// One slot per call site; four independent instances of the two
	// selected variants.
	slots, real, err := initSlots(c, opts)
	if err != nil {
		return err
	}
	defer func() {
		for _, k := range slots {
			k.Cleanup()
		}
	}()

	if c.Rank() == 0 {
		printPreamble(opts, real)
	}

	// Step 1: timer characterisation.
	ts, err := timer.Characterize(src, characterizeReads, c.Barrier)
	if err != nil {
		return fmt.Errorf("get_tspec: %w", err)
	}
	c.Ring(func() {
		fmt.Printf("rank %d: tick=%d, ovh=%d\n", c.Rank(), ts.Tick, ts.Ovh)
	})

	// Step 2: gauge calibration.
	info, err := gauge.Calibrate(c, gk, src, ts)
	if err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}
	c.Ring(func() {
		fmt.Printf("rank %d: gpt=%.6f, wtime_per_op=%.6f\n", c.Rank(), info.GPT, info.WtimePerOp)
	})

	noiseBefore, noiseErr := osnoise.Read()

	// Step 3: measurement loops.
	ngs := [2]int64{
		int64(float64(opts.TA) / float64(ts.Tick) * info.GPT),
		int64(float64(opts.TB) / float64(ts.Tick) * info.GPT),
	}
	if c.Rank() == 0 {
		fmt.Printf("t0 = %d, number of gauges: %d\nt1 = %d, number of gauges: %d\n",
			opts.TA, ngs[0], opts.TB, ngs[1])
	}

	tmet := [2][]int64{
		make([]int64, opts.NTests),
		make([]int64, opts.NTests),
	}

	c.Barrier()
	measure(c, src, gk, slots[flush.TAFront], slots[flush.TARear], ngs[0], tmet[0])
	measure(c, src, gk, slots[flush.TBFront], slots[flush.TBRear], ngs[1], tmet[1])

	// Key verification: diagnostic, never aborts the run; a failure
	// surfaces as the exit status once everything is reported.
	var keyErr error
	for id := flush.TAFront; id <= flush.TBRear; id++ {
		gap, err := slots[id].CheckKey(int(opts.NTests))
		if err != nil {
			slog.Warn("key check failed", "rank", c.Rank(), "slot", id.String(), "err", err)
			if keyErr == nil {
				keyErr = fmt.Errorf("check_key %s: %w", id, err)
			}
		}
		if c.Rank() == 0 {
			fmt.Printf("%s kernel percentage gap: %f\n", id, gap)
		}
	}

	// Step 4: gather and reduce on root.
	all := [2][]int64{
		c.GatherInt64s(tmet[0], 0),
		c.GatherInt64s(tmet[1], 0),
	}
	if c.Rank() == 0 {
		report(opts, all)

		if noiseErr == nil {
			if after, err := osnoise.Read(); err == nil {
				d := after.Delta(noiseBefore)
				fmt.Printf("OS noise: %d context switches, %d interrupts during run\n",
					d.ContextSwitches, d.Interrupts)
			}
		}
	}

	if err := writeCSVs(c.Rank(), opts, tmet); err != nil {
		return err
	}
	c.Barrier()

	return keyErr
}

// measure runs the synchronised loop for one target. The double
// barrier gives a two-sided rendezvous: every rank has finished the
// prior iteration and entered this one before any rank starts the
// clock.
func measure(c *comm.Comm, src timer.Source, gk gauge.Kernel, front, rear flush.Kernel, ng int64, out []int64) {
	for i := range out {
		c.Barrier()
		c.Barrier()
		front.Run()
		t0 := src.Tick()
		gk.Run(ng)
		t1 := src.Tock()
		out[i] = t1 - t0
		rear.Run()
		front.UpdateKey()
		rear.UpdateKey()
	}
}

// initSlots builds the four flush-kernel instances and sizes them.
func initSlots(c *comm.Comm, opts Options) (map[flush.SlotID]flush.Kernel, map[flush.SlotID]types.Bytes, error) {
	sel := map[flush.SlotID]struct {
		name string
		kib  uint64
	}{
		flush.TAFront: {opts.FKern, opts.FSizeA},
		flush.TARear:  {opts.RKern, opts.RSizeA},
		flush.TBFront: {opts.FKern, opts.FSizeB},
		flush.TBRear:  {opts.RKern, opts.RSizeB},
	}
	slots := make(map[flush.SlotID]flush.Kernel, len(sel))
	real := make(map[flush.SlotID]types.Bytes, len(sel))
	for id, s := range sel {
		k, err := flush.New(s.name, c)
		if err != nil {
			return nil, nil, fmt.Errorf("init_%s: %w", id, err)
		}
		actual, err := k.Init(s.kib)
		if err != nil {
			return nil, nil, fmt.Errorf("init_%s: %w", id, err)
		}
		slots[id] = k
		real[id] = actual
	}
	return slots, real, nil
}

func printPreamble(opts Options, real map[flush.SlotID]types.Bytes) {
	fmt.Printf("Repeat %d runtime measurements, target gauge time: %dns, %dns\n",
		opts.NTests, opts.TA, opts.TB)
	fmt.Printf("Timer: %s, gauge: %s\n", opts.Timer, opts.Gauge)
	fmt.Printf("ta flush info:\n")
	fmt.Printf("Front kernel: %s, size: %d KiB, real size: %d KiB\n",
		opts.FKern, opts.FSizeA, real[flush.TAFront].WholeKiB())
	fmt.Printf("Rear kernel: %s, size: %d KiB, real size: %d KiB\n",
		opts.RKern, opts.RSizeA, real[flush.TARear].WholeKiB())
	fmt.Printf("tb flush info:\n")
	fmt.Printf("Front kernel: %s, size: %d KiB, real size: %d KiB\n",
		opts.FKern, opts.FSizeB, real[flush.TBFront].WholeKiB())
	fmt.Printf("Rear kernel: %s, size: %d KiB, real size: %d KiB\n",
		opts.RKern, opts.RSizeB, real[flush.TBRear].WholeKiB())
}

// report reduces the gathered samples and prints the product: the
// quantile-gap table and the Wasserstein distance.
func report(opts Options, all [2][]int64) {
	cdfA := stat.CDF(all[0], opts.NTiles)
	cdfB := stat.CDF(all[1], opts.NTiles)
	w := stat.W(cdfA, cdfB, opts.NTiles, opts.CutP)

	if va, err := stat.SampleVar(all[0]); err == nil {
		vb, _ := stat.SampleVar(all[1])
		fmt.Printf("Sample variance: ta=%.3f, tb=%.3f\n", va, vb)
	}

	fmt.Printf("Percentage cut: %f\nTime gap: %dns\n", opts.CutP, opts.TB-opts.TA)
	fmt.Printf("Percentile, Gap\n")
	for _, g := range stat.QuantileGaps(cdfA, cdfB, opts.NTiles) {
		fmt.Printf("%d, %d\n", g.Percentile, g.Gap)
	}
	fmt.Printf("Wasserstein distance: %f\n", w)
}

// writeCSVs emits this rank's raw measurements, one nanosecond count
// per line, for both targets.
func writeCSVs(rank int, opts Options, tmet [2][]int64) error {
	names := [2]string{
		fmt.Sprintf("partes_ta_r%d.csv", rank),
		fmt.Sprintf("partes_tb_r%d.csv", rank),
	}
	for t, name := range names {
		if err := writeCSV(opts.OutDir, name, tmet[t]); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(dir, name string, vals []int64) error {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("fopen %s: %w: %v", name, pterr.ErrFileOpenFailed, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, v := range vals {
		if err := w.Write([]string{strconv.FormatInt(v, 10)}); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	w.Flush()
	return w.Error()
}
