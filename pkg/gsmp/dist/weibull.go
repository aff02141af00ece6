package dist

import (
	"fmt"
	"math"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
)

// Weibull is the two-parameter Weibull distribution with shape K and
// scale Lambda. Its cumulative hazard (t/Lambda)^K is closed-form
// invertible, so it hints SpaceLog even though it has no constant rate.
type Weibull struct {
	K      float64 // shape, > 0
	Lambda float64 // scale, > 0
}

func (w Weibull) NRSpace() Space { return SpaceLog }

func (w Weibull) Sample(rng gsmp.RNG) float64 {
	return w.Lambda * math.Pow(rng.Exponential(), 1/w.K)
}

func (w Weibull) LogPDF(t float64) float64 {
	if t <= 0 {
		if t == 0 && w.K == 1 {
			return math.Log(1 / w.Lambda)
		}
		return math.Inf(-1)
	}
	z := t / w.Lambda
	return math.Log(w.K/w.Lambda) + (w.K-1)*math.Log(z) - math.Pow(z, w.K)
}

func (w Weibull) LogCCDF(t float64) float64 {
	if t <= 0 {
		return 0
	}
	return -math.Pow(t/w.Lambda, w.K)
}

func (w Weibull) CCDF(t float64) float64 { return math.Exp(w.LogCCDF(t)) }

// InvCCDF inverts q = exp(-(t/Lambda)^K) for t.
func (w Weibull) InvCCDF(q float64) (float64, error) {
	return w.Lambda * math.Pow(-math.Log(q), 1/w.K), nil
}

func (w Weibull) Rate() (float64, bool) {
	if w.K == 1 {
		return 1 / w.Lambda, true
	}
	return 0, false
}

func (w Weibull) String() string { return fmt.Sprintf("Weibull(k=%.6g, lambda=%.6g)", w.K, w.Lambda) }
