package dist

import (
	"math"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
)

// Never is the distribution that places zero probability on [0, +Inf): a
// clock enabled with Never is legal but can never fire. Samplers
// treat a putative time of +Inf as "no event" for Next() purposes while
// Len/Keys/IsEnabled still see the clock as present.
type Never struct{}

func (Never) Sample(gsmp.RNG) float64 { return math.Inf(1) }

func (Never) LogPDF(float64) float64 { return math.Inf(-1) }

func (Never) LogCCDF(float64) float64 { return 0 }

func (Never) CCDF(float64) float64 { return 1 }

func (Never) InvCCDF(float64) (float64, error) { return math.Inf(1), nil }

// Rate reports a constant rate of zero so a Direct sampler accepts a
// Never clock as a legal zero-weight slot rather than rejecting it as
// non-exponential.
func (Never) Rate() (float64, bool) { return 0, true }

func (Never) String() string { return "Never" }
