// Package multi implements the hierarchical MultiSampler: a classifier
// dispatches each key to one of several child samplers, and Next merges
// their earliest firing times. The classifier is a user-supplied
// function; its verdict is memoized per key so a key never migrates
// between children.
package multi

import (
	"fmt"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/logging"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/sampler/direct"
)

// Classifier assigns a key to a child sampler index. It is called at
// most once per key: the result is memoized for the key's entire
// lifetime, including across Disable/re-enable, so a key never migrates
// between children.
type Classifier[K gsmp.Key] func(key K) int

// Sampler is the hierarchical engine over key type K.
type Sampler[K gsmp.Key] struct {
	classify Classifier[K]
	children []gsmp.Sampler[K]
	memo     map[K]int
	logger   *logging.Logger
	now      gsmp.Time
}

// New returns a MultiSampler dispatching keys to children via classify.
func New[K gsmp.Key](classify Classifier[K], children []gsmp.Sampler[K]) *Sampler[K] {
	return &Sampler[K]{
		classify: classify,
		children: children,
		memo:     make(map[K]int),
		logger:   logging.Nop(),
	}
}

// SetLogger replaces the sampler's logger (which emits a debug-level
// routing event per newly classified key) and forwards it to every
// child that accepts one. A nil logger silences all of them.
func (s *Sampler[K]) SetLogger(l *logging.Logger) {
	if l == nil {
		l = logging.Nop()
	}
	s.logger = l
	for _, child := range s.children {
		if ls, ok := child.(interface{ SetLogger(*logging.Logger) }); ok {
			ls.SetLogger(l)
		}
	}
}

func (s *Sampler[K]) childFor(key K) (int, bool) {
	if idx, ok := s.memo[key]; ok {
		return idx, true
	}
	idx := s.classify(key)
	if idx < 0 || idx >= len(s.children) {
		return 0, false
	}
	s.memo[key] = idx
	s.logger.Debug("clock routed", "key", key, "child", idx)
	return idx, true
}

// Enable classifies key (memoizing the result for its lifetime) and
// delegates to the chosen child.
func (s *Sampler[K]) Enable(key K, d gsmp.Distribution, te, when gsmp.Time, rng gsmp.RNG) error {
	idx, ok := s.childFor(key)
	if !ok {
		return &gsmp.PreconditionError{Op: "Enable", Key: fmt.Sprint(key), Err: fmt.Errorf("classifier returned an out-of-range child index")}
	}
	return s.children[idx].Enable(key, d, te, when, rng)
}

// Disable delegates to key's classified child, a no-op if key was never
// classified.
func (s *Sampler[K]) Disable(key K, when gsmp.Time) {
	idx, ok := s.memo[key]
	if !ok {
		return
	}
	s.children[idx].Disable(key, when)
}

// Fire delegates to key's classified child and advances current time on
// success.
func (s *Sampler[K]) Fire(key K, when gsmp.Time) error {
	idx, ok := s.memo[key]
	if !ok {
		return &gsmp.PreconditionError{Op: "Fire", Key: fmt.Sprint(key), Err: gsmp.ErrUnknownKey(fmt.Sprint(key))}
	}
	if err := s.children[idx].Fire(key, when); err != nil {
		return err
	}
	s.now = when
	return nil
}

// Next merges every child's earliest event. Ties across children break
// on child index, lowest first (a deterministic, caller-controlled
// order rather than the children's own Seq counters, which are
// independent of each other). When every child is a *direct.Sampler,
// the "multiple-direct" specialization races them with one combined
// exponential draw instead of calling Next on each.
func (s *Sampler[K]) Next(now gsmp.Time, rng gsmp.RNG) (gsmp.Event[K], bool) {
	if ev, ok, handled := s.nextMultipleDirect(now, rng); handled {
		return ev, ok
	}
	var (
		best      gsmp.Event[K]
		found     bool
		bestChild int
	)
	for i, child := range s.children {
		ev, ok := child.Next(now, rng)
		if !ok {
			continue
		}
		if !found || ev.Time < best.Time || (ev.Time == best.Time && i < bestChild) {
			best, found, bestChild = ev, true, i
		}
	}
	return best, found
}

// nextMultipleDirect implements the combined-exponential-draw fast path
// when every child is a Direct Method sampler. handled is false
// when the specialization does not apply, in which case the caller
// falls back to the generic per-child scan.
func (s *Sampler[K]) nextMultipleDirect(now gsmp.Time, rng gsmp.RNG) (gsmp.Event[K], bool, bool) {
	totals := make([]float64, len(s.children))
	grand := 0.0
	for i, child := range s.children {
		dc, ok := child.(*direct.Sampler[K])
		if !ok {
			return gsmp.Event[K]{}, false, false
		}
		totals[i] = dc.Total()
		grand += totals[i]
	}
	if grand <= 0 {
		return gsmp.Event[K]{}, false, true
	}
	dt := rng.Exponential() / grand
	v := rng.Float64() * grand
	for i, total := range totals {
		if v < total {
			dc := s.children[i].(*direct.Sampler[K])
			key, seq, ok := dc.ChooseKey(v)
			if !ok {
				return gsmp.Event[K]{}, false, true
			}
			return gsmp.Event[K]{Time: now + gsmp.Time(dt), Key: key, Seq: seq}, true, true
		}
		v -= total
	}
	return gsmp.Event[K]{}, false, true
}

// Jitter forwards to every child.
func (s *Sampler[K]) Jitter(rng gsmp.RNG) {
	for _, child := range s.children {
		child.Jitter(rng)
	}
}

// Reset clears every child and the classifier memo.
func (s *Sampler[K]) Reset() {
	for _, child := range s.children {
		child.Reset()
	}
	s.memo = make(map[K]int)
	s.now = 0
}

// Clone returns an independent deep copy, including each child.
func (s *Sampler[K]) Clone() gsmp.Sampler[K] {
	out := New[K](s.classify, make([]gsmp.Sampler[K], len(s.children)))
	out.logger = s.logger
	out.now = s.now
	for i, child := range s.children {
		out.children[i] = child.Clone()
	}
	for k, v := range s.memo {
		out.memo[k] = v
	}
	return out
}

// CopyClocksFrom replaces this sampler's clock state with a deep copy of
// src's. src must be a *Sampler[K] with the same number of children.
func (s *Sampler[K]) CopyClocksFrom(src gsmp.Sampler[K]) {
	o := src.(*Sampler[K])
	for i := range s.children {
		s.children[i].CopyClocksFrom(o.children[i])
	}
	s.memo = make(map[K]int, len(o.memo))
	for k, v := range o.memo {
		s.memo[k] = v
	}
	s.now = o.now
}

// Len returns the number of currently enabled clocks across all
// children.
func (s *Sampler[K]) Len() int {
	n := 0
	for _, child := range s.children {
		n += child.Len()
	}
	return n
}

// Keys returns the currently enabled keys across all children, in
// unspecified order.
func (s *Sampler[K]) Keys() []K {
	keys := make([]K, 0, s.Len())
	for _, child := range s.children {
		keys = append(keys, child.Keys()...)
	}
	return keys
}

// IsEnabled reports whether key is enabled on its classified child.
func (s *Sampler[K]) IsEnabled(key K) bool {
	idx, ok := s.memo[key]
	if !ok {
		return false
	}
	return s.children[idx].IsEnabled(key)
}

var _ gsmp.Sampler[string] = (*Sampler[string])(nil)
