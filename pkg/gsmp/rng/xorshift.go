// Package rng implements the RNG seam: a small-state,
// cheaply-snapshottable generator so crn.Recorder can capture and
// restore state per (clock, epoch) without pinning down a specific
// math/rand implementation or its larger internal state.
package rng

import (
	"math"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
)

// XorShift128Plus is a counter-free, 128-bit-state generator. Its entire
// state is two uint64 words, making State()/Restore() an O(1) value
// copy — the property per-clock snapshotting in crn.Recorder depends on.
type XorShift128Plus struct {
	s0, s1 uint64
}

// New seeds a generator from a 64-bit seed using splitmix64 to fill the
// initial 128 bits of state, the standard way to seed a xorshift generator
// from a single integer without pathological all-zero states.
func New(seed uint64) *XorShift128Plus {
	x := &XorShift128Plus{}
	x.s0 = splitmix64(&seed)
	x.s1 = splitmix64(&seed)
	if x.s0 == 0 && x.s1 == 0 {
		x.s0 = 0x9E3779B97F4A7C15
	}
	return x
}

func splitmix64(state *uint64) uint64 {
	*state += 0x9E3779B97F4A7C15
	z := *state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func (x *XorShift128Plus) next() uint64 {
	s1 := x.s0
	s0 := x.s1
	x.s0 = s0
	s1 ^= s1 << 23
	s1 ^= s1 >> 17
	s1 ^= s0
	s1 ^= s0 >> 26
	x.s1 = s1
	return x.s1 + x.s0
}

// Float64 returns a uniform value in (0, 1), never returning exactly 0 so
// that -log(u) and inverse-CDF calls never see a zero argument.
func (x *XorShift128Plus) Float64() float64 {
	for {
		// top 53 bits give a double with full mantissa precision.
		v := float64(x.next()>>11) / (1 << 53)
		if v > 0 {
			return v
		}
	}
}

// Exponential draws a standard exponential variate via inversion:
// -log(U) with U uniform on (0,1). This is the same transform the NR
// family's log-space carrier uses for its quantile, kept consistent
// here so FirstReaction/FirstToFire draws are directly comparable to NR's.
func (x *XorShift128Plus) Exponential() float64 {
	return -math.Log(x.Float64())
}

// State returns the current 128 bits of state as an RNGState snapshot.
func (x *XorShift128Plus) State() gsmp.RNGState {
	return gsmp.RNGState{x.s0, x.s1}
}

// Restore resets state from a snapshot returned by State.
func (x *XorShift128Plus) Restore(s gsmp.RNGState) {
	x.s0, x.s1 = s[0], s[1]
}

// Fork derives an independent child stream by drawing two fresh state
// words from the parent, so a split branch's draws never alias the
// parent's future draws.
func (x *XorShift128Plus) Fork() gsmp.RNG {
	child := &XorShift128Plus{s0: x.next(), s1: x.next()}
	if child.s0 == 0 && child.s1 == 0 {
		child.s0 = 0x2545F4914F6CDD1D
	}
	return child
}

var _ gsmp.RNG = (*XorShift128Plus)(nil)
