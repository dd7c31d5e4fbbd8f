// Package comm coordinates the replicated rank functions of a
// measurement job inside one process.
//
// Overview
//
//   - World: one job. World.Run launches nrank copies of the rank
//     function and blocks until all of them return.
//
//   - Comm: one rank's handle. It exposes the collective operations
//     the measurement pipeline needs (Barrier, Bcast, Gather,
//     AllGatherBool), a wall clock shared by all ranks (Wtime), a
//     token send/receive pair, and Ring, which executes a function
//     rank-by-rank in rank order so interleaved stdout stays readable.
//
// Collectives are built from a reusable sense-reversing barrier and a
// per-rank exchange slot: a rank publishes its buffer, the barrier
// makes the publication visible, readers copy, and a second barrier
// releases the slot. All ranks of a World must call each collective
// the same number of times in the same order.
package comm

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// World is one measurement job: nrank replicated rank functions plus
// the shared state their collectives exchange through.
type World struct {
	n     int
	start time.Time
	bar   *barrier

	i64   [][]int64
	f64   [][]float64
	flags []bool
	toks  []chan int64

	done      chan struct{}
	abortOnce sync.Once
}

// errAborted unwinds ranks stranded in a collective after another
// rank failed. World.Run recovers it; it never escapes the package.
var errAborted = errors.New("comm: job aborted")

// abort releases every rank blocked in a collective. The failing
// rank's own error is what Run reports; unwound ranks return nothing.
func (w *World) abort() {
	w.abortOnce.Do(func() {
		close(w.done)
		w.bar.abort()
	})
}

// NewWorld creates a job of n ranks. n must be >= 1.
func NewWorld(n int) *World {
	if n < 1 {
		n = 1
	}
	w := &World{
		n:     n,
		start: time.Now(),
		bar:   newBarrier(n),
		i64:   make([][]int64, n),
		f64:   make([][]float64, n),
		flags: make([]bool, n),
		toks:  make([]chan int64, n),
		done:  make(chan struct{}),
	}
	for i := range w.toks {
		w.toks[i] = make(chan int64, 1)
	}
	return w
}

// Run executes fn once per rank, each on its own goroutine, and
// returns the first non-nil error. A failed rank takes the job down:
// ranks stranded in a collective are unwound, there is no partial
// completion.
func (w *World) Run(fn func(c *Comm) error) error {
	var g errgroup.Group
	for r := 0; r < w.n; r++ {
		c := &Comm{w: w, rank: r}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					if r == errAborted {
						err = nil
						return
					}
					panic(r)
				}
			}()
			err = fn(c)
			if err != nil {
				w.abort()
			}
			return err
		})
	}
	return g.Wait()
}

// Comm is one rank's view of the World.
type Comm struct {
	w    *World
	rank int
}

// Rank returns this rank's index in [0, Size).
func (c *Comm) Rank() int { return c.rank }

// Size returns the number of ranks in the job.
func (c *Comm) Size() int { return c.w.n }

// Barrier blocks until every rank of the World has entered it.
func (c *Comm) Barrier() { c.w.bar.await() }

// Wtime returns nanoseconds since the World was created. All ranks
// read the same epoch, which makes it the job's shared wall clock.
func (c *Comm) Wtime() int64 { return time.Since(c.w.start).Nanoseconds() }

// BcastInt64s replaces buf's contents on every non-root rank with the
// root's buf. All ranks must pass equal-length buffers.
func (c *Comm) BcastInt64s(buf []int64, root int) {
	if c.rank == root {
		c.w.i64[root] = buf
	}
	c.Barrier()
	if c.rank != root {
		copy(buf, c.w.i64[root])
	}
	c.Barrier()
}

// BcastFloat64s replaces buf's contents on every non-root rank with
// the root's buf. All ranks must pass equal-length buffers.
func (c *Comm) BcastFloat64s(buf []float64, root int) {
	if c.rank == root {
		c.w.f64[root] = buf
	}
	c.Barrier()
	if c.rank != root {
		copy(buf, c.w.f64[root])
	}
	c.Barrier()
}

// GatherInt64s concatenates every rank's send slice in rank order on
// the root. Non-root ranks receive nil. All ranks must send the same
// length.
func (c *Comm) GatherInt64s(send []int64, root int) []int64 {
	c.w.i64[c.rank] = send
	c.Barrier()
	var out []int64
	if c.rank == root {
		out = make([]int64, 0, c.w.n*len(send))
		for r := 0; r < c.w.n; r++ {
			out = append(out, c.w.i64[r]...)
		}
	}
	c.Barrier()
	return out
}

// GatherFloat64 collects one float64 per rank on the root, indexed by
// rank. Non-root ranks receive nil.
func (c *Comm) GatherFloat64(v float64, root int) []float64 {
	c.w.f64[c.rank] = []float64{v}
	c.Barrier()
	var out []float64
	if c.rank == root {
		out = make([]float64, c.w.n)
		for r := 0; r < c.w.n; r++ {
			out[r] = c.w.f64[r][0]
		}
	}
	c.Barrier()
	return out
}

// AllGatherBool exchanges one flag per rank; every rank receives the
// full length-Size slice indexed by rank.
func (c *Comm) AllGatherBool(flag bool) []bool {
	c.w.flags[c.rank] = flag
	c.Barrier()
	out := make([]bool, c.w.n)
	copy(out, c.w.flags)
	c.Barrier()
	return out
}

// Send delivers one int64 to rank dst. It pairs with Recv and carries
// the print token; the channel is buffered so the sender never blocks
// on a ready receiver.
func (c *Comm) Send(v int64, dst int) { c.w.toks[dst] <- v }

// Recv blocks until some rank Sends to this one.
func (c *Comm) Recv() int64 {
	select {
	case v := <-c.w.toks[c.rank]:
		return v
	case <-c.w.done:
		panic(errAborted)
	}
}

// Ring runs fn on every rank in rank order: rank 0 first, then the
// token travels 1, 2, ... and finally back to 0, so by the time Ring
// returns on rank 0 all ranks have finished. Single-rank jobs just
// call fn.
func (c *Comm) Ring(fn func()) {
	if c.w.n == 1 {
		fn()
		return
	}
	if c.rank == 0 {
		fn()
		c.Send(0, 1)
		c.Recv()
	} else {
		c.Recv()
		fn()
		c.Send(0, (c.rank+1)%c.w.n)
	}
}

// barrier is a reusable sense-reversing barrier.
type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	n       int
	count   int
	sense   bool
	aborted bool
}

func newBarrier(n int) *barrier {
	b := &barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *barrier) await() {
	b.mu.Lock()
	if b.aborted {
		b.mu.Unlock()
		panic(errAborted)
	}
	sense := b.sense
	b.count++
	if b.count == b.n {
		b.count = 0
		b.sense = !b.sense
		b.cond.Broadcast()
	} else {
		for sense == b.sense && !b.aborted {
			b.cond.Wait()
		}
		if b.aborted {
			b.mu.Unlock()
			panic(errAborted)
		}
	}
	b.mu.Unlock()
}

func (b *barrier) abort() {
	b.mu.Lock()
	b.aborted = true
	b.cond.Broadcast()
	b.mu.Unlock()
}
