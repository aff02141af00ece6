package keyedprefixsum_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp/keyedprefixsum"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/prefixsum"
)

func TestSetGetDelete(t *testing.T) {
	k := keyedprefixsum.New[string](keyedprefixsum.Remove, func() prefixsum.PrefixSum { return prefixsum.NewTree() })
	k.Set("a", 1)
	k.Set("b", 2)
	require.Equal(t, 3.0, k.Total())
	require.True(t, k.IsEnabled("a"))
	require.Equal(t, 2, k.Len())

	k.Delete("a")
	require.False(t, k.IsEnabled("a"))
	require.Equal(t, 2.0, k.Total())
	require.Equal(t, 1, k.Len())
}

func TestRemovePolicyReusesFreedSlot(t *testing.T) {
	k := keyedprefixsum.New[string](keyedprefixsum.Remove, func() prefixsum.PrefixSum { return prefixsum.NewTree() })
	k.Set("a", 1)
	k.Set("b", 2)
	k.Delete("a")
	k.Set("c", 3)
	require.Equal(t, 5.0, k.Total())
	require.ElementsMatch(t, []string{"b", "c"}, k.Keys())
}

func TestKeepPolicyNeverReusesSlot(t *testing.T) {
	k := keyedprefixsum.New[string](keyedprefixsum.Keep, func() prefixsum.PrefixSum { return prefixsum.NewTree() })
	k.Set("a", 1)
	k.Delete("a")
	k.Set("b", 2)
	// Total only reflects the live weight; the zeroed slot for "a"
	// contributes nothing even though it was never recycled.
	require.Equal(t, 2.0, k.Total())
}

func TestChooseReturnsOwningKey(t *testing.T) {
	k := keyedprefixsum.New[string](keyedprefixsum.Remove, func() prefixsum.PrefixSum { return prefixsum.NewCumsum() })
	k.Set("a", 1)
	k.Set("b", 3)
	key, _ := k.Choose(0.5)
	require.Equal(t, "a", key)
	key, _ = k.Choose(2.0)
	require.Equal(t, "b", key)
}

func TestClear(t *testing.T) {
	k := keyedprefixsum.New[string](keyedprefixsum.Remove, func() prefixsum.PrefixSum { return prefixsum.NewTree() })
	k.Set("a", 1)
	k.Clear()
	require.Equal(t, 0, k.Len())
	require.Equal(t, 0.0, k.Total())
	require.False(t, k.IsEnabled("a"))
}
