package prefixsum_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp/prefixsum"
)

func implementations() map[string]func() prefixsum.PrefixSum {
	return map[string]func() prefixsum.PrefixSum{
		"tree":   func() prefixsum.PrefixSum { return prefixsum.NewTree() },
		"cumsum": func() prefixsum.PrefixSum { return prefixsum.NewCumsum() },
	}
}

func TestPushAndTotal(t *testing.T) {
	for name, newSum := range implementations() {
		t.Run(name, func(t *testing.T) {
			s := newSum()
			require.Equal(t, 0, s.Push(1))
			require.Equal(t, 1, s.Push(2))
			require.Equal(t, 2, s.Push(3))
			require.Equal(t, 6.0, s.Total())
			require.Equal(t, 3, s.Len())
		})
	}
}

func TestSetUpdatesTotal(t *testing.T) {
	for name, newSum := range implementations() {
		t.Run(name, func(t *testing.T) {
			s := newSum()
			s.Push(1)
			s.Push(2)
			s.Set(0, 5)
			require.Equal(t, 7.0, s.Total())
			require.Equal(t, 5.0, s.Get(0))
		})
	}
}

func TestFindSelectsProportionally(t *testing.T) {
	for name, newSum := range implementations() {
		t.Run(name, func(t *testing.T) {
			s := newSum()
			s.Push(1) // [0, 1)
			s.Push(3) // [1, 4)
			s.Push(2) // [4, 6)

			idx, residual := s.Find(0)
			require.Equal(t, 0, idx)
			require.InDelta(t, 1.0, residual, 1e-12)

			idx, residual = s.Find(0.5)
			require.Equal(t, 0, idx)
			require.InDelta(t, 0.5, residual, 1e-12)

			idx, _ = s.Find(1.0)
			require.Equal(t, 1, idx)

			idx, _ = s.Find(3.999)
			require.Equal(t, 1, idx)

			idx, _ = s.Find(4.0)
			require.Equal(t, 2, idx)

			idx, _ = s.Find(5.999)
			require.Equal(t, 2, idx)
		})
	}
}

func TestClearResetsState(t *testing.T) {
	for name, newSum := range implementations() {
		t.Run(name, func(t *testing.T) {
			s := newSum()
			s.Push(1)
			s.Push(2)
			s.Clear()
			require.Equal(t, 0, s.Len())
			require.Equal(t, 0.0, s.Total())
		})
	}
}

func TestGrowsPastInitialCapacity(t *testing.T) {
	for name, newSum := range implementations() {
		t.Run(name, func(t *testing.T) {
			s := newSum()
			for i := 0; i < 100; i++ {
				s.Push(float64(i + 1))
			}
			require.Equal(t, 100, s.Len())
			require.InDelta(t, 5050.0, s.Total(), 1e-9)
		})
	}
}
