//go:build !amd64 && !arm64

package gauge

import "sync/atomic"

// subSink forces the loop result to be observable so the compiler
// cannot remove the loop.
var subSink int64

func runSub(n int64) {
	ra := n
	for ra > 0 {
		ra--
	}
	atomic.StoreInt64(&subSink, ra)
}
