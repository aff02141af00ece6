// Package firstreaction implements the First-Reaction Method: no
// per-clock state is kept between calls. Every Next re-draws a tentative
// firing time for every enabled clock, conditioned on survival to the
// current instant, and keeps only the winner — an O(n) scan per call,
// trading wasted draws for zero bookkeeping.
package firstreaction

import (
	"fmt"
	"math"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/logging"
)

// Sampler is the First-Reaction engine over key type K.
type Sampler[K gsmp.Key] struct {
	entries map[K]gsmp.EnablingEntry[K]
	order   []K // insertion order, for deterministic scans and tie-breaks
	logger  *logging.Logger
	seq     uint64
	now     gsmp.Time
}

// New returns an empty First-Reaction sampler.
func New[K gsmp.Key]() *Sampler[K] {
	return &Sampler[K]{entries: make(map[K]gsmp.EnablingEntry[K]), logger: logging.Nop()}
}

// SetLogger replaces the sampler's logger, which emits debug-level
// enable/disable/fire/next events. A nil logger silences it.
func (s *Sampler[K]) SetLogger(l *logging.Logger) {
	if l == nil {
		l = logging.Nop()
	}
	s.logger = l
}

// Enable installs a fresh clock for key. It is an error to enable a key
// that already has a live entry.
func (s *Sampler[K]) Enable(key K, d gsmp.Distribution, te, when gsmp.Time, rng gsmp.RNG) error {
	if _, ok := s.entries[key]; ok {
		return &gsmp.PreconditionError{Op: "Enable", Key: fmt.Sprint(key), Err: fmt.Errorf("already enabled")}
	}
	s.seq++
	s.entries[key] = gsmp.EnablingEntry[K]{Key: key, Dist: d, Te: te, When: when, Seq: s.seq}
	s.order = append(s.order, key)
	s.logger.Debug("clock enabled", "key", key)
	return nil
}

// Disable removes key's entry, a no-op if key is not enabled.
func (s *Sampler[K]) Disable(key K, when gsmp.Time) {
	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)
	s.removeFromOrder(key)
	s.logger.Debug("clock disabled", "key", key)
}

// Fire requires key to be enabled; it removes the entry and advances
// current time to when.
func (s *Sampler[K]) Fire(key K, when gsmp.Time) error {
	if _, ok := s.entries[key]; !ok {
		return &gsmp.PreconditionError{Op: "Fire", Key: fmt.Sprint(key), Err: gsmp.ErrUnknownKey(fmt.Sprint(key))}
	}
	if when < s.now {
		return &gsmp.PreconditionError{Op: "Fire", Key: fmt.Sprint(key), Err: fmt.Errorf("when %v precedes current time %v", when, s.now)}
	}
	delete(s.entries, key)
	s.removeFromOrder(key)
	s.now = when
	s.logger.Debug("clock fired", "key", key, "when", float64(when))
	return nil
}

// Next redraws a putative time for every enabled clock, conditioned on
// survival past now, and returns the earliest. No state survives the
// call: the losing draws are discarded.
func (s *Sampler[K]) Next(now gsmp.Time, rng gsmp.RNG) (gsmp.Event[K], bool) {
	if len(s.order) == 0 {
		return gsmp.Event[K]{}, false
	}
	var (
		best    gsmp.Time
		bestKey K
		bestSeq uint64
		found   bool
	)
	for _, key := range s.order {
		entry := s.entries[key]
		tau, err := putativeTime(entry.Dist, entry.Te, now, rng)
		if err != nil || math.IsInf(float64(tau), 1) {
			// A +Inf draw (e.g. dist.Never) can never win Next: the
			// clock stays enabled but is invisible to the argmin scan.
			continue
		}
		if !found || tau < best || (tau == best && entry.Seq < bestSeq) {
			best, bestKey, bestSeq, found = tau, key, entry.Seq, true
		}
	}
	if !found {
		return gsmp.Event[K]{}, false
	}
	s.logger.Debug("next event", "key", bestKey, "tau", float64(best))
	return gsmp.Event[K]{Time: best, Key: bestKey, Seq: bestSeq}, true
}

func putativeTime(d gsmp.Distribution, te, now gsmp.Time, rng gsmp.RNG) (gsmp.Time, error) {
	if te >= now {
		// Delayed or freshly-referenced clock: the draw is unshifted and the
		// clock cannot fire before te.
		return te + gsmp.Time(d.Sample(rng)), nil
	}
	// Left-truncated: condition the draw on survival past (now-te).
	u := rng.Float64()
	target := u * d.CCDF(float64(now-te))
	t, err := d.InvCCDF(target)
	if err != nil {
		return 0, &gsmp.NumericFailureError{Distribution: d.String(), Err: err}
	}
	return te + gsmp.Time(t), nil
}

// Jitter is a no-op: First-Reaction consumes all its randomness inside
// Next, so there is no stored putative time to re-draw.
func (s *Sampler[K]) Jitter(rng gsmp.RNG) {}

// Reset clears all clock state.
func (s *Sampler[K]) Reset() {
	s.entries = make(map[K]gsmp.EnablingEntry[K])
	s.order = nil
	s.now = 0
}

// Clone returns an independent deep copy.
func (s *Sampler[K]) Clone() gsmp.Sampler[K] {
	out := New[K]()
	out.logger = s.logger
	out.seq = s.seq
	out.now = s.now
	for k, v := range s.entries {
		out.entries[k] = v
	}
	out.order = append([]K(nil), s.order...)
	return out
}

// CopyClocksFrom replaces this sampler's clock state with a deep copy of
// src's. src must be a *Sampler[K].
func (s *Sampler[K]) CopyClocksFrom(src gsmp.Sampler[K]) {
	o := src.(*Sampler[K])
	s.seq = o.seq
	s.now = o.now
	s.entries = make(map[K]gsmp.EnablingEntry[K], len(o.entries))
	for k, v := range o.entries {
		s.entries[k] = v
	}
	s.order = append([]K(nil), o.order...)
}

// Len returns the number of currently enabled clocks.
func (s *Sampler[K]) Len() int { return len(s.entries) }

// Keys returns the currently enabled keys in unspecified order.
func (s *Sampler[K]) Keys() []K {
	keys := make([]K, 0, len(s.entries))
	for _, k := range s.order {
		keys = append(keys, k)
	}
	return keys
}

// IsEnabled reports whether key currently has a live entry.
func (s *Sampler[K]) IsEnabled(key K) bool {
	_, ok := s.entries[key]
	return ok
}

func (s *Sampler[K]) removeFromOrder(key K) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

var _ gsmp.Sampler[string] = (*Sampler[string])(nil)
