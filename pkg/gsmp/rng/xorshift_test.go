package rng_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp/rng"
)

func TestFloat64InRange(t *testing.T) {
	r := rng.New(1)
	for i := 0; i < 10000; i++ {
		v := r.Float64()
		require.Greater(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestExponentialIsNonNegative(t *testing.T) {
	r := rng.New(2)
	for i := 0; i < 10000; i++ {
		require.GreaterOrEqual(t, r.Exponential(), 0.0)
	}
}

func TestSameSeedReproducesStream(t *testing.T) {
	a := rng.New(42)
	b := rng.New(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float64(), b.Float64())
	}
}

func TestStateRestoreReplaysDraws(t *testing.T) {
	r := rng.New(7)
	_ = r.Float64()
	_ = r.Float64()
	snap := r.State()
	first := r.Float64()
	second := r.Exponential()

	r.Restore(snap)
	require.Equal(t, first, r.Float64())
	require.Equal(t, second, r.Exponential())
}

func TestForkProducesIndependentStream(t *testing.T) {
	r := rng.New(99)
	child := r.Fork()

	parentDraws := make([]float64, 10)
	for i := range parentDraws {
		parentDraws[i] = r.Float64()
	}
	childDraws := make([]float64, 10)
	for i := range childDraws {
		childDraws[i] = child.Float64()
	}
	require.NotEqual(t, parentDraws, childDraws)
}
