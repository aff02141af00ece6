// Package direct implements the Direct Method: valid only for
// exponential-family clocks. Enabled clocks' rates live in a
// keyedprefixsum.KeyedPrefixSum; Next draws one exponential holding time
// from the aggregate rate and one proportional selection over the
// prefix sum, rather than a putative time per clock.
package direct

import (
	"fmt"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/keyedprefixsum"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/logging"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/prefixsum"
)

// Sampler is the Direct Method engine over key type K.
type Sampler[K gsmp.Key] struct {
	sums    *keyedprefixsum.KeyedPrefixSum[K]
	entries map[K]gsmp.EnablingEntry[K]
	policy  keyedprefixsum.Policy
	newSums func() prefixsum.PrefixSum
	logger  *logging.Logger
	seq     uint64
	now     gsmp.Time
}

// New returns an empty Direct Method sampler backed by a fresh instance
// of newSums (prefixsum.NewTree or prefixsum.NewCumsum) under the given
// slot-reuse policy.
func New[K gsmp.Key](policy keyedprefixsum.Policy, newSums func() prefixsum.PrefixSum) *Sampler[K] {
	return &Sampler[K]{
		sums:    keyedprefixsum.New[K](policy, newSums),
		entries: make(map[K]gsmp.EnablingEntry[K]),
		policy:  policy,
		newSums: newSums,
		logger:  logging.Nop(),
	}
}

// SetLogger replaces the sampler's logger, which emits debug-level
// enable/disable/fire/next events. A nil logger silences it.
func (s *Sampler[K]) SetLogger(l *logging.Logger) {
	if l == nil {
		l = logging.Nop()
	}
	s.logger = l
}

// Enable installs a fresh clock for key. d must be exponential-family
// (Rate() ok); anything else is a PreconditionError, since the Direct
// Method has no notion of a non-constant hazard.
func (s *Sampler[K]) Enable(key K, d gsmp.Distribution, te, when gsmp.Time, rng gsmp.RNG) error {
	if s.sums.IsEnabled(key) {
		return &gsmp.PreconditionError{Op: "Enable", Key: fmt.Sprint(key), Err: fmt.Errorf("already enabled")}
	}
	rate, ok := d.Rate()
	if !ok {
		return &gsmp.PreconditionError{Op: "Enable", Key: fmt.Sprint(key), Err: fmt.Errorf("distribution %s is not exponential-family", d)}
	}
	s.seq++
	s.entries[key] = gsmp.EnablingEntry[K]{Key: key, Dist: d, Te: te, When: when, Seq: s.seq}
	s.sums.Set(key, rate)
	s.logger.Debug("clock enabled", "key", key, "rate", rate)
	return nil
}

// Disable removes key, a no-op if key is not enabled.
func (s *Sampler[K]) Disable(key K, when gsmp.Time) {
	if !s.sums.IsEnabled(key) {
		return
	}
	s.sums.Delete(key)
	delete(s.entries, key)
	s.logger.Debug("clock disabled", "key", key)
}

// Fire requires key to be enabled; it removes the entry and advances
// current time to when.
func (s *Sampler[K]) Fire(key K, when gsmp.Time) error {
	if !s.sums.IsEnabled(key) {
		return &gsmp.PreconditionError{Op: "Fire", Key: fmt.Sprint(key), Err: gsmp.ErrUnknownKey(fmt.Sprint(key))}
	}
	if when < s.now {
		return &gsmp.PreconditionError{Op: "Fire", Key: fmt.Sprint(key), Err: fmt.Errorf("when %v precedes current time %v", when, s.now)}
	}
	s.sums.Delete(key)
	delete(s.entries, key)
	s.now = when
	s.logger.Debug("clock fired", "key", key, "when", float64(when))
	return nil
}

// Next draws one exponential holding time from the aggregate rate and
// one proportional selection over the enabled clocks' rates.
func (s *Sampler[K]) Next(now gsmp.Time, rng gsmp.RNG) (gsmp.Event[K], bool) {
	total := s.sums.Total()
	if total <= 0 {
		return gsmp.Event[K]{}, false
	}
	dt := rng.Exponential() / total
	v := rng.Float64() * total
	key, _ := s.sums.Choose(v)
	entry := s.entries[key]
	s.logger.Debug("next event", "key", key, "tau", float64(now)+dt)
	return gsmp.Event[K]{Time: now + gsmp.Time(dt), Key: key, Seq: entry.Seq}, true
}

// Total returns the aggregate rate of all enabled clocks. Exposed so a
// hierarchical multi.Sampler can race several Direct children against
// each other with a single combined exponential draw instead of calling
// Next on every child (the "multiple-direct" specialization).
func (s *Sampler[K]) Total() float64 { return s.sums.Total() }

// ChooseKey performs the proportional selection half of Next without
// drawing its own holding time, so a caller that already drew a combined
// dt across several Direct children can still get the correct key and
// Seq out of this one. Precondition: 0 <= v < Total().
func (s *Sampler[K]) ChooseKey(v float64) (K, uint64, bool) {
	if s.sums.Total() <= 0 {
		var zero K
		return zero, 0, false
	}
	key, _ := s.sums.Choose(v)
	return key, s.entries[key].Seq, true
}

// Jitter is a no-op: the Direct Method consumes all its randomness
// inside Next.
func (s *Sampler[K]) Jitter(rng gsmp.RNG) {}

// Reset clears all clock state.
func (s *Sampler[K]) Reset() {
	s.sums.Clear()
	s.entries = make(map[K]gsmp.EnablingEntry[K])
	s.now = 0
}

// Clone returns an independent deep copy.
func (s *Sampler[K]) Clone() gsmp.Sampler[K] {
	out := New[K](s.policy, s.newSums)
	out.logger = s.logger
	out.seq = s.seq
	out.now = s.now
	for k, e := range s.entries {
		out.entries[k] = e
		rate, _ := e.Dist.Rate()
		out.sums.Set(k, rate)
	}
	return out
}

// CopyClocksFrom replaces this sampler's clock state with a deep copy of
// src's. src must be a *Sampler[K].
func (s *Sampler[K]) CopyClocksFrom(src gsmp.Sampler[K]) {
	o := src.(*Sampler[K])
	cloned := o.Clone().(*Sampler[K])
	*s = *cloned
}

// Len returns the number of currently enabled clocks.
func (s *Sampler[K]) Len() int { return s.sums.Len() }

// Keys returns the currently enabled keys in unspecified order.
func (s *Sampler[K]) Keys() []K { return s.sums.Keys() }

// IsEnabled reports whether key currently has a live entry.
func (s *Sampler[K]) IsEnabled(key K) bool { return s.sums.IsEnabled(key) }

var _ gsmp.Sampler[string] = (*Sampler[string])(nil)
