//go:build amd64 || arm64

package gauge

// Implemented in sub_amd64.s / sub_arm64.s.

//go:noescape
func runSub(n int64)
