package nextreaction_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/dist"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/logging"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/rng"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/sampler/nextreaction"
)

func TestNextReturnsEarliestAcrossClocks(t *testing.T) {
	s := nextreaction.New[string]()
	r := rng.New(1)
	require.NoError(t, s.Enable("slow", dist.Exponential{Lambda: 0.01}, 0, 0, r))
	require.NoError(t, s.Enable("fast", dist.Exponential{Lambda: 100}, 0, 0, r))

	ev, ok := s.Next(0, r)
	require.True(t, ok)
	require.Equal(t, "fast", ev.Key)
}

func TestReenableWithUnchangedDistributionKeepsSameTau(t *testing.T) {
	s := nextreaction.New[string]()
	r := rng.New(2)
	d := dist.Weibull{K: 1.5, Lambda: 2.0}
	require.NoError(t, s.Enable("a", d, 0, 0, r))
	ev1, _ := s.Next(0, r)
	s.Disable("a", 0)
	require.NoError(t, s.Enable("a", d, 0, 0, r))
	ev2, _ := s.Next(0, r)
	require.Equal(t, ev1.Time, ev2.Time)
}

func TestCrossSpaceReenableDrawsFresh(t *testing.T) {
	s := nextreaction.New[string]()
	r := rng.New(3)
	require.NoError(t, s.Enable("a", dist.Exponential{Lambda: 1}, 0, 0, r))
	s.Disable("a", 0)
	// Gamma lives in linear space, Exponential in log space: a cross-space
	// re-enable must not try to reuse the old record.
	require.NoError(t, s.Enable("a", dist.Gamma{Shape: 2, Rate_: 1}, 0, 0, r))
	_, ok := s.Next(0, r)
	require.True(t, ok)
}

func TestNeverDistributionIsParkedOutOfHeap(t *testing.T) {
	s := nextreaction.New[string]()
	r := rng.New(4)
	require.NoError(t, s.Enable("never", dist.Never{}, 0, 0, r))
	require.NoError(t, s.Enable("fast", dist.Exponential{Lambda: 10}, 0, 0, r))

	ev, ok := s.Next(0, r)
	require.True(t, ok)
	require.Equal(t, "fast", ev.Key)
	require.True(t, s.IsEnabled("never"))
	require.Equal(t, 2, s.Len())
}

func TestFireClearsRecordForFreshRestart(t *testing.T) {
	s := nextreaction.New[string]()
	r := rng.New(5)
	d := dist.Exponential{Lambda: 1}
	require.NoError(t, s.Enable("a", d, 0, 0, r))
	ev, _ := s.Next(0, r)
	require.NoError(t, s.Fire("a", ev.Time))
	require.False(t, s.IsEnabled("a"))
}

func TestOverconsumedQuantileClipsAndWarns(t *testing.T) {
	var buf bytes.Buffer
	s := nextreaction.New[string]()
	s.SetLogger(logging.New(logging.Config{Output: &buf, Level: logging.LevelDebug}))
	r := rng.New(8)
	// A rate-1000 clock accrues far more hazard over [0, 10] than any
	// exponential quantile draw, so the same-space re-enable overruns the
	// reused quantile and must clip to firing at the re-enable instant.
	require.NoError(t, s.Enable("a", dist.Exponential{Lambda: 1000}, 0, 0, r))
	s.Disable("a", 0)
	require.NoError(t, s.Enable("a", dist.Exponential{Lambda: 0.001}, 0, 10, r))

	ev, ok := s.Next(10, r)
	require.True(t, ok)
	require.Equal(t, "a", ev.Key)
	require.Equal(t, gsmp.Time(10), ev.Time)
	require.Contains(t, buf.String(), "consumed hazard exceeded quantile bound, clipped")
}

func TestCloneIsIndependent(t *testing.T) {
	s := nextreaction.New[string]()
	r := rng.New(6)
	require.NoError(t, s.Enable("a", dist.Exponential{Lambda: 1}, 0, 0, r))
	clone := s.Clone()
	s.Disable("a", 0)
	require.False(t, s.IsEnabled("a"))
	require.True(t, clone.IsEnabled("a"))
}
