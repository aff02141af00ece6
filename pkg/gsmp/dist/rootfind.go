package dist

import "fmt"

// maxBisectionIter bounds the root-finds used by InvCCDF on distributions
// with no closed form. A failure to converge in this many steps is
// reported as a NumericFailureError by the caller, never retried.
const maxBisectionIter = 200

// invertMonotoneDecreasing finds t >= 0 such that f(t) == target, given
// that f is continuous, f(0) >= target, and f is non-increasing (true of
// every CCDF). It brackets by doubling, then bisects.
func invertMonotoneDecreasing(f func(float64) float64, target float64) (float64, error) {
	lo, hi := 0.0, 1.0
	for i := 0; f(hi) > target; i++ {
		if i >= maxBisectionIter {
			return 0, fmt.Errorf("failed to bracket root after %d doublings", i)
		}
		hi *= 2
	}
	for i := 0; i < maxBisectionIter; i++ {
		mid := (lo + hi) / 2
		if f(mid) > target {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < 1e-12*(1+hi) {
			return mid, nil
		}
	}
	return 0, fmt.Errorf("bisection did not converge within %d iterations", maxBisectionIter)
}
