package firsttofire_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/dist"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/logging"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/rng"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/sampler/firsttofire"
)

func TestNextReturnsEarliestAcrossThreeClocks(t *testing.T) {
	s := firsttofire.New[string]()
	r := rng.New(1)

	require.NoError(t, s.Enable("slow", dist.Exponential{Lambda: 0.01}, 0, 0, r))
	require.NoError(t, s.Enable("fast", dist.Exponential{Lambda: 100}, 0, 0, r))
	require.NoError(t, s.Enable("mid", dist.Exponential{Lambda: 1}, 0, 0, r))

	ev, ok := s.Next(0, r)
	require.True(t, ok)
	require.Equal(t, "fast", ev.Key)
}

func TestEnableTwiceWithoutDisableErrors(t *testing.T) {
	s := firsttofire.New[string]()
	r := rng.New(2)
	require.NoError(t, s.Enable("a", dist.Exponential{Lambda: 1}, 0, 0, r))
	err := s.Enable("a", dist.Exponential{Lambda: 1}, 0, 0, r)
	require.Error(t, err)
}

func TestDisableThenFireOnDisabledKeyErrors(t *testing.T) {
	s := firsttofire.New[string]()
	r := rng.New(3)
	require.NoError(t, s.Enable("a", dist.Exponential{Lambda: 1}, 0, 0, r))
	s.Disable("a", 0)
	require.False(t, s.IsEnabled("a"))
	err := s.Fire("a", 0)
	require.Error(t, err)
}

func TestFireRemovesAndAdvancesTime(t *testing.T) {
	s := firsttofire.New[string]()
	r := rng.New(4)
	require.NoError(t, s.Enable("a", dist.Exponential{Lambda: 1}, 0, 0, r))
	ev, ok := s.Next(0, r)
	require.True(t, ok)
	require.NoError(t, s.Fire(ev.Key, ev.Time))
	require.Equal(t, 0, s.Len())
	_, ok = s.Next(ev.Time, r)
	require.False(t, ok)
}

func TestEmptySamplerNextReportsEmptyState(t *testing.T) {
	s := firsttofire.New[string]()
	r := rng.New(5)
	_, ok := s.Next(0, r)
	require.False(t, ok)
}

func TestInsertionOrderTieBreak(t *testing.T) {
	s := firsttofire.New[string]()
	r := rng.New(6)
	// Both clocks draw the identical finite putative time; the
	// earlier-inserted key must win the tie.
	require.NoError(t, s.Enable("first", gsmp.Distribution(constantDist{5}), 0, 0, r))
	require.NoError(t, s.Enable("second", gsmp.Distribution(constantDist{5}), 0, 0, r))
	ev, ok := s.Next(0, r)
	require.True(t, ok)
	require.Equal(t, "first", ev.Key)
}

func TestNeverClockIsInvisibleToNextButVisibleToIsEnabled(t *testing.T) {
	s := firsttofire.New[string]()
	r := rng.New(8)
	// Never fires for either, so both putative times are +Inf; neither may
	// win Next, but both remain enabled.
	require.NoError(t, s.Enable("first", dist.Never{}, 0, 0, r))
	require.NoError(t, s.Enable("second", dist.Never{}, 0, 0, r))
	_, ok := s.Next(0, r)
	require.False(t, ok)
	require.True(t, s.IsEnabled("first"))
	require.True(t, s.IsEnabled("second"))
	require.Equal(t, 2, s.Len())
}

// constantDist is a minimal non-exponential Distribution whose draw is
// always the same finite value, used to exercise FirstToFire's tie-break
// without relying on +Inf (which is parked, not a tie-breakable winner).
type constantDist struct{ t float64 }

func (c constantDist) Sample(gsmp.RNG) float64          { return c.t }
func (c constantDist) LogPDF(float64) float64           { return 0 }
func (c constantDist) LogCCDF(float64) float64          { return 0 }
func (c constantDist) CCDF(float64) float64             { return 1 }
func (c constantDist) InvCCDF(float64) (float64, error) { return c.t, nil }
func (c constantDist) Rate() (float64, bool)            { return 0, false }
func (c constantDist) String() string                   { return "constant" }

// scriptedRNG replays a fixed sequence of uniforms, for tests asserting
// literal firing times against hand-computed values.
type scriptedRNG struct {
	uniforms []float64
	i        int
}

func (s *scriptedRNG) Float64() float64 {
	u := s.uniforms[s.i]
	s.i++
	return u
}

func (s *scriptedRNG) Exponential() float64 { return -math.Log(s.Float64()) }
func (s *scriptedRNG) State() gsmp.RNGState { return gsmp.RNGState{uint64(s.i), 0} }
func (s *scriptedRNG) Restore(st gsmp.RNGState) { s.i = int(st[0]) }
func (s *scriptedRNG) Fork() gsmp.RNG { return &scriptedRNG{uniforms: s.uniforms} }

func TestSingleExponentialClockFiresAtHandComputedTime(t *testing.T) {
	// Rate 2.0, uniform draw 0.5: tau must be -log(0.5)/2.
	s := firsttofire.New[string]()
	r := &scriptedRNG{uniforms: []float64{0.5}}
	require.NoError(t, s.Enable("clock", dist.Exponential{Lambda: 2.0}, 0, 0, r))
	ev, ok := s.Next(0, r)
	require.True(t, ok)
	require.Equal(t, "clock", ev.Key)
	require.InDelta(t, -math.Log(0.5)/2.0, float64(ev.Time), 1e-12)
}

func TestSetLoggerEmitsClockEvents(t *testing.T) {
	var buf bytes.Buffer
	s := firsttofire.New[string]()
	s.SetLogger(logging.New(logging.Config{Output: &buf, Level: logging.LevelDebug}))
	r := rng.New(9)
	require.NoError(t, s.Enable("a", dist.Exponential{Lambda: 1}, 0, 0, r))
	ev, ok := s.Next(0, r)
	require.True(t, ok)
	require.NoError(t, s.Fire(ev.Key, ev.Time))

	out := buf.String()
	require.Contains(t, out, "clock enabled")
	require.Contains(t, out, "next event")
	require.Contains(t, out, "clock fired")
}

func TestCloneIsIndependent(t *testing.T) {
	s := firsttofire.New[string]()
	r := rng.New(7)
	require.NoError(t, s.Enable("a", dist.Exponential{Lambda: 1}, 0, 0, r))
	clone := s.Clone()
	s.Disable("a", 0)
	require.False(t, s.IsEnabled("a"))
	require.True(t, clone.IsEnabled("a"))
}
