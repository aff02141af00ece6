package gsmp

import "fmt"

// Time is a simulation timestamp. All times are absolute unless stated
// otherwise; the zero value is the start of simulated time.
type Time float64

// Key is the constraint satisfied by clock identifiers: any comparable
// value, so it can be used as a map key and compared for equality.
type Key interface {
	comparable
}

// Distribution is the set of operations the sampling engines need from a
// univariate continuous distribution over [0, +Inf). Implementations live
// in pkg/gsmp/dist; everything above this interface (samplers, NR
// transitions, likelihoods) depends only on this contract, so another
// distribution library can plug in without engine changes.
type Distribution interface {
	// Sample draws t >= 0 using the given RNG.
	Sample(rng RNG) float64
	// LogPDF returns the log density at t.
	LogPDF(t float64) float64
	// LogCCDF returns the log survival probability, log(1 - F(t)).
	LogCCDF(t float64) float64
	// CCDF returns the survival probability 1 - F(t).
	CCDF(t float64) float64
	// InvCCDF returns the quantile of the survival function: the t such
	// that CCDF(t) == q, for q in (0, 1]. err is non-nil when a root-find
	// is required and fails to converge; the engines wrap it in a
	// NumericFailureError.
	InvCCDF(q float64) (t float64, err error)
	// Rate returns the constant hazard and true if this distribution is
	// exponential-family with a constant rate (required by Direct and by
	// the log-space NR dispatch); ok is false otherwise.
	Rate() (rate float64, ok bool)
	// String names the distribution for logging and NumericFailureError.
	String() string
}

// EnablingEntry records everything a sampler keeps about one currently
// enabled clock. te is the distribution's own zero-reference and may
// lie in the past (left-truncation), the present, or the future; when is
// the simulation time the clock was (re-)enabled at.
type EnablingEntry[K Key] struct {
	Key  K
	Dist Distribution
	Te   Time
	When Time
	// Seq is the insertion-sequence number assigned at enable time; equal
	// firing times break ties toward the earlier-enabled clock.
	Seq uint64
}

// LeftTruncated reports whether this entry's distribution is shifted such
// that its zero-reference lies strictly before the enabling time.
func (e EnablingEntry[K]) LeftTruncated() bool { return e.Te < e.When }

// Event is what next() returns: a firing time and the key it belongs to.
type Event[K Key] struct {
	Time Time
	Key  K
	Seq  uint64
}

func (ev Event[K]) String() string {
	return fmt.Sprintf("Event{time=%v key=%v seq=%d}", ev.Time, ev.Key, ev.Seq)
}

// Sampler is the capability trait every sampler engine and the hierarchical
// MultiSampler implement: enable, disable, fire, next, reset, clone,
// copy_clocks, length, keys, isenabled. Watchers (TrajectoryWatcher,
// PathLikelihoods) do not implement it.
type Sampler[K Key] interface {
	// Enable installs a fresh EnablingEntry for key; it is an error if key
	// already holds an entry. Preconditions: when <= now on a re-enable.
	Enable(key K, dist Distribution, te, when Time, rng RNG) error
	// Disable removes key's entry if present; a no-op otherwise.
	Disable(key K, when Time)
	// Fire requires key to be enabled and when >= current time; it removes
	// the entry and advances current time to when. Returns
	// PreconditionError for an unknown key.
	Fire(key K, when Time) error
	// Next returns the earliest pending event, or ok=false if the enabled
	// set is empty. An empty set is a normal terminal state, not an error.
	Next(now Time, rng RNG) (ev Event[K], ok bool)
	// Jitter re-draws every currently pending putative time using rng,
	// without changing the enabled set, so two calls to Next around it can
	// return distinct events. Samplers whose randomness is consumed
	// wholly inside Next (Direct, FirstReaction) implement this as a no-op.
	Jitter(rng RNG)
	// Reset clears all clock state. CRN wrapping is responsible for
	// preserving its snapshot store across Reset.
	Reset()
	// Clone returns an independent deep copy of the sampler's clock state.
	Clone() Sampler[K]
	// CopyClocksFrom replaces this sampler's clock state with a deep copy
	// of src's. src must be the same concrete type.
	CopyClocksFrom(src Sampler[K])
	// Len returns the number of currently enabled clocks.
	Len() int
	// Keys returns the currently enabled keys in unspecified order.
	Keys() []K
	// IsEnabled reports whether key currently has a live EnablingEntry.
	IsEnabled(key K) bool
}
