package dist_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp/dist"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/rng"
)

// distributions returns every concrete Distribution under test alongside
// a friendly name, so the generic CCDF/InvCCDF/Rate properties can be
// checked once for all four instead of duplicated per type.
func distributions() map[string]interface {
	LogCCDF(float64) float64
	CCDF(float64) float64
	InvCCDF(float64) (float64, error)
	Rate() (float64, bool)
} {
	return map[string]interface {
		LogCCDF(float64) float64
		CCDF(float64) float64
		InvCCDF(float64) (float64, error)
		Rate() (float64, bool)
	}{
		"exponential": dist.Exponential{Lambda: 2.0},
		"weibull":     dist.Weibull{K: 1.7, Lambda: 3.0},
		"erlang":      dist.Erlang{N: 3, Lambda: 1.5},
		"gamma":       dist.Gamma{Shape: 2.3, Rate_: 0.8},
	}
}

func TestCCDFMatchesExpLogCCDF(t *testing.T) {
	for name, d := range distributions() {
		t.Run(name, func(t *testing.T) {
			for _, tt := range []float64{0.1, 1, 2.5, 10} {
				require.InDelta(t, math.Exp(d.LogCCDF(tt)), d.CCDF(tt), 1e-9)
			}
		})
	}
}

func TestCCDFIsDecreasing(t *testing.T) {
	for name, d := range distributions() {
		t.Run(name, func(t *testing.T) {
			prev := d.CCDF(0)
			for _, tt := range []float64{0.25, 0.5, 1, 2, 4, 8} {
				cur := d.CCDF(tt)
				require.LessOrEqual(t, cur, prev)
				prev = cur
			}
		})
	}
}

func TestInvCCDFRoundTrips(t *testing.T) {
	for name, d := range distributions() {
		t.Run(name, func(t *testing.T) {
			for _, q := range []float64{0.9, 0.5, 0.1, 0.01} {
				tAt, err := d.InvCCDF(q)
				require.NoError(t, err)
				require.InDelta(t, q, d.CCDF(tAt), 1e-6)
			}
		})
	}
}

func TestRateOnlyTrueForExponentialFamily(t *testing.T) {
	_, ok := dist.Exponential{Lambda: 1}.Rate()
	require.True(t, ok)

	_, ok = dist.Weibull{K: 1, Lambda: 2}.Rate()
	require.True(t, ok)
	_, ok = dist.Weibull{K: 2, Lambda: 2}.Rate()
	require.False(t, ok)

	_, ok = dist.Erlang{N: 1, Lambda: 2}.Rate()
	require.True(t, ok)
	_, ok = dist.Erlang{N: 2, Lambda: 2}.Rate()
	require.False(t, ok)

	_, ok = dist.Gamma{Shape: 1, Rate_: 2}.Rate()
	require.True(t, ok)
	_, ok = dist.Gamma{Shape: 2, Rate_: 2}.Rate()
	require.False(t, ok)
}

func TestSpaceOfDispatch(t *testing.T) {
	require.Equal(t, dist.SpaceLog, dist.SpaceOf(dist.Exponential{Lambda: 1}))
	require.Equal(t, dist.SpaceLog, dist.SpaceOf(dist.Weibull{K: 2, Lambda: 1}))
	require.Equal(t, dist.SpaceLog, dist.SpaceOf(dist.Erlang{N: 3, Lambda: 1}))
	require.Equal(t, dist.SpaceLinear, dist.SpaceOf(dist.Gamma{Shape: 2.5, Rate_: 1}))
}

func TestNeverIsInvisibleToFiringButVisibleToSurvival(t *testing.T) {
	n := dist.Never{}
	require.Equal(t, 1.0, n.CCDF(1e9))
	require.True(t, math.IsInf(n.Sample(rng.New(1)), 1))
	tAt, err := n.InvCCDF(0.001)
	require.NoError(t, err)
	require.True(t, math.IsInf(tAt, 1))
	rate, ok := n.Rate()
	require.True(t, ok)
	require.Zero(t, rate)
}

func TestSampleMeanApproximatesExpectedValueForExponential(t *testing.T) {
	r := rng.New(123)
	e := dist.Exponential{Lambda: 4.0}
	sum := 0.0
	const n = 20000
	for i := 0; i < n; i++ {
		sum += e.Sample(r)
	}
	require.InDelta(t, 1.0/e.Lambda, sum/n, 0.02)
}

func TestErlangSampleIsSumOfExponentials(t *testing.T) {
	r := rng.New(5)
	e := dist.Erlang{N: 4, Lambda: 2.0}
	sum := 0.0
	const n = 20000
	for i := 0; i < n; i++ {
		sum += e.Sample(r)
	}
	require.InDelta(t, float64(e.N)/e.Lambda, sum/n, 0.03)
}

func TestGammaSampleMeanMatchesShapeOverRate(t *testing.T) {
	r := rng.New(9)
	cases := []dist.Gamma{{Shape: 0.5, Rate_: 1.0}, {Shape: 3.0, Rate_: 2.0}}
	for _, g := range cases {
		sum := 0.0
		const n = 30000
		for i := 0; i < n; i++ {
			sum += g.Sample(r)
		}
		require.InDelta(t, g.Shape/g.Rate_, sum/n, 0.05*g.Shape/g.Rate_+0.02)
	}
}
