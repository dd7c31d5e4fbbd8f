package partes

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/partes/pkg/comm"
	"github.com/ja7ad/partes/pkg/pterr"
	"github.com/ja7ad/partes/pkg/stat"
)

func TestOptions_Validate(t *testing.T) {
	valid := func() Options {
		o := Defaults()
		o.TA = 1000
		o.TB = 2000
		return o
	}

	cases := []struct {
		name    string
		mutate  func(*Options)
		wantErr error
	}{
		{"ok", func(o *Options) {}, nil},
		{"equal_targets_ok", func(o *Options) { o.TB = o.TA }, nil},
		{"missing_ta", func(o *Options) { o.TA = Unset }, pterr.ErrMissingArgument},
		{"missing_tb", func(o *Options) { o.TB = Unset }, pterr.ErrMissingArgument},
		{"ta_after_tb", func(o *Options) { o.TA = 10; o.TB = 5 }, pterr.ErrInvalidArgument},
		{"zero_ta", func(o *Options) { o.TA = 0; o.TB = 5 }, pterr.ErrInvalidArgument},
		{"negative_ta", func(o *Options) { o.TA = -5 }, pterr.ErrInvalidArgument},
		{"cut_p_zero", func(o *Options) { o.CutP = 0 }, pterr.ErrInvalidArgument},
		{"cut_p_above_one", func(o *Options) { o.CutP = 1.5 }, pterr.ErrInvalidArgument},
		{"ntests_zero", func(o *Options) { o.NTests = 0 }, pterr.ErrInvalidArgument},
		{"ntiles_one", func(o *Options) { o.NTiles = 1 }, pterr.ErrInvalidArgument},
		{"bad_fkern", func(o *Options) { o.FKern = "stream" }, pterr.ErrInvalidArgument},
		{"bad_rkern", func(o *Options) { o.RKern = "stream" }, pterr.ErrInvalidArgument},
		{"bad_timer", func(o *Options) { o.Timer = "hpet" }, pterr.ErrInvalidArgument},
		{"bad_gauge", func(o *Options) { o.Gauge = "nop" }, pterr.ErrInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := valid()
			tc.mutate(&o)
			err := o.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestOptions_UnsetTargetReportsMissingFirst(t *testing.T) {
	o := Defaults()
	o.TB = 100
	err := o.Validate()
	assert.ErrorIs(t, err, pterr.ErrMissingArgument)
}

func readCSVInts(t *testing.T, path string) []int64 {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	out := make([]int64, 0, len(recs))
	for _, r := range recs {
		require.Len(t, r, 1)
		v, err := strconv.ParseInt(r[0], 10, 64)
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func TestRun_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("calibration run")
	}

	dir := t.TempDir()
	opts := Defaults()
	opts.TA = 200_000
	opts.TB = 200_000
	opts.NTests = 40
	opts.NTiles = 20
	opts.OutDir = dir
	opts.FKern = "copy"
	opts.RKern = "copy"
	opts.FSizeA = 8
	opts.FSizeB = 8
	opts.RSizeA = 8
	opts.RSizeB = 8
	require.NoError(t, opts.Validate())

	const np = 2
	w := comm.NewWorld(np)
	err := w.Run(func(c *comm.Comm) error {
		return Run(c, opts)
	})
	require.NoError(t, err)

	// Every rank wrote both target files with one sample per test.
	var all [2][]int64
	for r := 0; r < np; r++ {
		a := readCSVInts(t, filepath.Join(dir, "partes_ta_r"+strconv.Itoa(r)+".csv"))
		b := readCSVInts(t, filepath.Join(dir, "partes_tb_r"+strconv.Itoa(r)+".csv"))
		require.Len(t, a, int(opts.NTests))
		require.Len(t, b, int(opts.NTests))
		for _, v := range a {
			assert.Positive(t, v)
		}
		all[0] = append(all[0], a...)
		all[1] = append(all[1], b...)
	}

	// Equal targets: the two distributions differ only by jitter, so
	// the distance stays far below the target itself.
	cdfA := stat.CDF(all[0], opts.NTiles)
	cdfB := stat.CDF(all[1], opts.NTiles)
	wDist := stat.W(cdfA, cdfB, opts.NTiles, opts.CutP)
	assert.GreaterOrEqual(t, wDist, 0.0)
	assert.Less(t, wDist, float64(opts.TA))
}

func TestRun_SingleRankNoFlush(t *testing.T) {
	if testing.Short() {
		t.Skip("calibration run")
	}

	dir := t.TempDir()
	opts := Defaults()
	opts.TA = 100_000
	opts.TB = 150_000
	opts.NTests = 30
	opts.NTiles = 10
	opts.OutDir = dir
	require.NoError(t, opts.Validate())

	w := comm.NewWorld(1)
	err := w.Run(func(c *comm.Comm) error {
		return Run(c, opts)
	})
	require.NoError(t, err)

	a := readCSVInts(t, filepath.Join(dir, "partes_ta_r0.csv"))
	b := readCSVInts(t, filepath.Join(dir, "partes_tb_r0.csv"))
	require.Len(t, a, 30)
	require.Len(t, b, 30)
}

func TestRun_BadOutDirFailsFileOpen(t *testing.T) {
	if testing.Short() {
		t.Skip("calibration run")
	}

	opts := Defaults()
	opts.TA = 100_000
	opts.TB = 100_000
	opts.NTests = 5
	opts.NTiles = 2
	opts.OutDir = filepath.Join(t.TempDir(), "does", "not", "exist")

	w := comm.NewWorld(1)
	err := w.Run(func(c *comm.Comm) error {
		return Run(c, opts)
	})
	assert.ErrorIs(t, err, pterr.ErrFileOpenFailed)
}
