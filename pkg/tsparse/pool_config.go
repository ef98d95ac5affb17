package tsparse

import "runtime"

// defaultPoolSize returns min(max(runtime.NumCPU()*2, 4), 32).
//
// It sets the maximum number of parsers each grammar pool creates; the
// formula is the same as util.GetOptimalPoolSize.
func defaultPoolSize() int {
	n := runtime.NumCPU() * 2
	if n < 4 {
		n = 4
	}
	if n > 32 {
		n = 32
	}
	return n
}
