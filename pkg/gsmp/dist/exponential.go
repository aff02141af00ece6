package dist

import (
	"fmt"
	"math"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
)

// Exponential is the constant-hazard distribution. It is its own
// NRTransition space (log, exact) because its cumulative hazard is linear
// in t, so inverting it is a single division.
type Exponential struct {
	Lambda float64 // rate, > 0
}

func (e Exponential) Sample(rng gsmp.RNG) float64 { return rng.Exponential() / e.Lambda }

func (e Exponential) LogPDF(t float64) float64 {
	if t < 0 {
		return math.Inf(-1)
	}
	return math.Log(e.Lambda) - e.Lambda*t
}

func (e Exponential) LogCCDF(t float64) float64 {
	if t < 0 {
		return 0
	}
	return -e.Lambda * t
}

func (e Exponential) CCDF(t float64) float64 { return math.Exp(e.LogCCDF(t)) }

func (e Exponential) InvCCDF(q float64) (float64, error) { return -math.Log(q) / e.Lambda, nil }

func (e Exponential) Rate() (float64, bool) { return e.Lambda, true }

func (e Exponential) String() string { return fmt.Sprintf("Exponential(%.6g)", e.Lambda) }
