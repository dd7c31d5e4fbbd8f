//go:build linux

// Package osnoise samples system-wide activity counters that proxy
// for the OS noise the sensor quantifies. A delta across the
// measurement phase tells the reader how busy the kernel was while
// the samples were taken.
package osnoise

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// Counters holds monotonic system-wide counts from /proc/stat.
type Counters struct {
	ContextSwitches uint64
	Interrupts      uint64
}

// Read parses /proc/stat for the aggregate ctxt and intr lines.
// Counters are monotonic; take deltas between samples.
func Read() (Counters, error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return Counters{}, err
	}
	defer f.Close()

	var c Counters
	sc := bufio.NewScanner(f)
	// intr lines grow one field per IRQ vector; widen the buffer.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		fs := strings.Fields(sc.Text())
		if len(fs) < 2 {
			continue
		}
		switch fs[0] {
		case "ctxt":
			c.ContextSwitches, _ = strconv.ParseUint(fs[1], 10, 64)
		case "intr":
			// First value is the total across all vectors.
			c.Interrupts, _ = strconv.ParseUint(fs[1], 10, 64)
		}
	}
	return c, sc.Err()
}

// Delta returns c - prev, clamping each counter at zero in case a
// counter wrapped.
func (c Counters) Delta(prev Counters) Counters {
	d := Counters{}
	if c.ContextSwitches >= prev.ContextSwitches {
		d.ContextSwitches = c.ContextSwitches - prev.ContextSwitches
	}
	if c.Interrupts >= prev.Interrupts {
		d.Interrupts = c.Interrupts - prev.Interrupts
	}
	return d
}
