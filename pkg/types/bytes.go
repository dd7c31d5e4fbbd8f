package types

import "fmt"

// Bytes is a uint64 wrapper representing a size in bytes.
type Bytes uint64

// KiB builds a Bytes value from a size given in KiB, the unit all
// flush-kernel options use.
func KiB(n uint64) Bytes { return Bytes(n * 1024) }

// Humanized returns a human-readable string with automatic unit (B, KB, MB, GB, TB).
func (b Bytes) Humanized() string {
	v := float64(b)
	switch {
	case b >= 1<<40:
		return fmt.Sprintf("%.2f TB", v/(1<<40))
	case b >= 1<<30:
		return fmt.Sprintf("%.2f GB", v/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.2f MB", v/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.2f KB", v/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// KB returns the number of kibibytes as a float.
func (b Bytes) KB() float64 { return float64(b) / 1024 }

// WholeKiB returns the size rounded down to whole KiB, the value the
// flush kernels report back as their actual footprint.
func (b Bytes) WholeKiB() uint64 { return uint64(b) / 1024 }
