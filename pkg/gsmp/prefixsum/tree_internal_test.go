package prefixsum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTreeSetMultipleMatchesSequentialSet(t *testing.T) {
	a := NewTree()
	b := NewTree()
	for i := 0; i < 10; i++ {
		a.Push(float64(i))
		b.Push(float64(i))
	}

	updates := map[int]float64{1: 10, 3: 30, 7: 70}
	a.SetMultiple(updates)
	for i, w := range updates {
		b.Set(i, w)
	}

	require.Equal(t, a.Total(), b.Total())
	for i := 0; i < 10; i++ {
		require.Equal(t, a.Get(i), b.Get(i))
	}
}
