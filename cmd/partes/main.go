package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"

	"github.com/ja7ad/partes/pkg/comm"
	"github.com/ja7ad/partes/pkg/partes"
	"github.com/ja7ad/partes/pkg/pterr"
	"github.com/ja7ad/partes/pkg/system/cgroup"
	"github.com/ja7ad/partes/pkg/types"
)

func main() {
	opts := partes.Defaults()
	var np int

	root := &cobra.Command{
		Use:   "partes",
		Short: "Parallel timing-error sensor",
		Long: `partes quantifies how faithfully this host's wall-clock timer reports
the duration of a known, deterministic computation replicated across the
ranks of a job.

Given two target interval durations ta <= tb, it calibrates a gauge
kernel against the selected time source, runs barrier-synchronised
measurements of both targets on every rank, and reports the quantile
gaps and the Wasserstein-1 distance between the two measured
distributions, with the samples of all ranks pooled together; no
per-rank distance is printed. Optional flush kernels dirty the caches around the timed
region; their key verification proves the flush arithmetic actually ran.

Examples:
  partes --ta 1000000 --tb 2000000
  partes --ta 1000000 --tb 2000000 --np 4 --fkern copy --fsize-a 64 --fsize-b 64
  partes --ta 500000 --tb 500000 --timer tsc_asym --gauge fma_avx2`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("ta") || !cmd.Flags().Changed("tb") {
				return fmt.Errorf("parse_args: %w: --ta and --tb are mandatory", pterr.ErrMissingArgument)
			}
			return run(opts, np)
		},
	}

	f := root.Flags()
	f.Int64Var(&opts.TA, "ta", opts.TA, "target gauge time ta in nanoseconds (mandatory)")
	f.Int64Var(&opts.TB, "tb", opts.TB, "target gauge time tb in nanoseconds (mandatory)")
	f.Int64Var(&opts.NTests, "ntests", opts.NTests, "number of gauge measurements per target")
	f.IntVar(&opts.NTiles, "ntiles", opts.NTiles, "number of CDF tiles")
	f.Float64Var(&opts.CutP, "cut-p", opts.CutP, "p in (0.0, 1.0], cut deviation after p for W calculation")
	f.StringVar(&opts.FKern, "fkern", opts.FKern, "front kernel (none, triad, scale, copy, add, pow, dgemm, mpi_bcast)")
	f.StringVar(&opts.RKern, "rkern", opts.RKern, "rear kernel (none, triad, scale, copy, add, pow, dgemm, mpi_bcast)")
	f.Uint64Var(&opts.FSizeA, "fsize-a", opts.FSizeA, "memory size of ta's fkern in KiB")
	f.Uint64Var(&opts.FSizeB, "fsize-b", opts.FSizeB, "memory size of tb's fkern in KiB")
	f.Uint64Var(&opts.RSizeA, "rsize-a", opts.RSizeA, "memory size of ta's rkern in KiB")
	f.Uint64Var(&opts.RSizeB, "rsize-b", opts.RSizeB, "memory size of tb's rkern in KiB")
	f.StringVar(&opts.Timer, "timer", opts.Timer, "timer method (clock_gettime, mpi_wtime, tsc_asym)")
	f.StringVar(&opts.Gauge, "gauge", opts.Gauge, "gauge method (sub_scalar, fma_scalar, fma_avx2, fma_avx512)")
	f.StringVar(&opts.OutDir, "outdir", opts.OutDir, "directory receiving the per-rank measurement CSVs")
	f.IntVar(&np, "np", 1, "number of ranks")
	// The Unset sentinel is not a default worth printing.
	f.Lookup("ta").DefValue = ""
	f.Lookup("tb").DefValue = ""

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("parse_args: %w: %v", pterr.ErrInvalidArgument, err)
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] in %s\n", err)
		os.Exit(pterr.ExitCode(err))
	}
	// Help is a normal early exit, but still a distinct status.
	if helped, _ := root.Flags().GetBool("help"); helped {
		os.Exit(pterr.ExitCode(pterr.ErrExitFlag))
	}
}

func run(opts partes.Options, np int) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("parse_args: %w", err)
	}
	if np < 1 {
		return fmt.Errorf("parse_args: %w: --np must be >= 1", pterr.ErrInvalidArgument)
	}

	printBanner(np)

	if limited, detail := cgroup.CPUQuota(); limited {
		slog.Warn("running under a cgroup CPU limit; throttling will distort timings", "quota", detail)
	}

	w := comm.NewWorld(np)
	return w.Run(func(c *comm.Comm) error {
		return partes.Run(c, opts)
	})
}

func printBanner(np int) {
	hostname := "unknown"
	kernel := runtime.GOOS
	if hi, err := host.Info(); err == nil {
		hostname = hi.Hostname
		kernel = hi.OS + " " + hi.KernelVersion
	}
	ncpu := runtime.NumCPU()
	if n, err := cpu.Counts(true); err == nil {
		ncpu = n
	}
	total := "unknown"
	if vm, err := mem.VirtualMemory(); err == nil {
		total = types.Bytes(vm.Total).Humanized()
	}

	fmt.Printf(_console, hostname, kernel, ncpu, np, total, time.Now().Format("2006-01-02 15:04:05"))
}

const _console = `partes - Parallel Timing Error Sensor

       Host: %s
       Kernel: %s
       CPUs: %d
       Ranks: %d
       Mem: %s

Run started at %s

`
