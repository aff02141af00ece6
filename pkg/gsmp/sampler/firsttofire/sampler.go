// Package firsttofire implements the simplest sampling engine: an
// indexed binary min-heap of putative firing times, one draw per enable,
// no quantile reuse.
package firsttofire

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/logging"
)

type slot[K gsmp.Key] struct {
	entry gsmp.EnablingEntry[K]
	tau   gsmp.Time
}

// pq is the container/heap.Interface backing store; index tracks each
// key's current heap position so Disable/re-enable can locate it in
// O(log n) instead of a linear scan.
type pq[K gsmp.Key] struct {
	slots []*slot[K]
	index map[K]int
}

func (q *pq[K]) Len() int { return len(q.slots) }

func (q *pq[K]) Less(i, j int) bool {
	a, b := q.slots[i], q.slots[j]
	if a.tau != b.tau {
		return a.tau < b.tau
	}
	// Insertion-order tie-break: lower Seq fires first.
	return a.entry.Seq < b.entry.Seq
}

func (q *pq[K]) Swap(i, j int) {
	q.slots[i], q.slots[j] = q.slots[j], q.slots[i]
	q.index[q.slots[i].entry.Key] = i
	q.index[q.slots[j].entry.Key] = j
}

func (q *pq[K]) Push(x any) {
	s := x.(*slot[K])
	q.index[s.entry.Key] = len(q.slots)
	q.slots = append(q.slots, s)
}

func (q *pq[K]) Pop() any {
	n := len(q.slots)
	s := q.slots[n-1]
	q.slots[n-1] = nil
	q.slots = q.slots[:n-1]
	delete(q.index, s.entry.Key)
	return s
}

// Sampler is the First-to-Fire engine over key type K.
type Sampler[K gsmp.Key] struct {
	q      pq[K]
	parked map[K]gsmp.EnablingEntry[K]
	logger *logging.Logger
	seq    uint64
	now    gsmp.Time
}

// New returns an empty First-to-Fire sampler.
func New[K gsmp.Key]() *Sampler[K] {
	return &Sampler[K]{
		q:      pq[K]{index: make(map[K]int)},
		parked: make(map[K]gsmp.EnablingEntry[K]),
		logger: logging.Nop(),
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

func (s *Sampler[K]) isActive(key K) bool {
	if _, ok := s.q.index[key]; ok {
		return true
	}
	_, ok := s.parked[key]
	return ok
}

func putativeTime(d gsmp.Distribution, te, when gsmp.Time, rng gsmp.RNG) (gsmp.Time, error) {
	if te >= when {
		return te + gsmp.Time(d.Sample(rng)), nil
	}
	// Left-truncated: condition the draw on survival past (when-te).
	u := rng.Float64()
	target := u * d.CCDF(float64(when-te))
	t, err := d.InvCCDF(target)
	if err != nil {
		return 0, &gsmp.NumericFailureError{Key: "", Distribution: d.String(), Err: err}
	}
	return te + gsmp.Time(t), nil
}

// Enable installs a fresh clock for key. It is an error to enable a key
// that already has a live entry; the caller must Disable or Fire it
// first. A clock whose draw comes back +Inf (e.g. dist.Never) is parked
// out of the heap entirely: it stays visible to Keys/Len/IsEnabled
// but can never win Next.
func (s *Sampler[K]) Enable(key K, d gsmp.Distribution, te, when gsmp.Time, rng gsmp.RNG) error {
	if s.isActive(key) {
		return &gsmp.PreconditionError{Op: "Enable", Key: fmt.Sprint(key), Err: fmt.Errorf("already enabled")}
	}
	tau, err := putativeTime(d, te, when, rng)
	if err != nil {
		if nf, ok := err.(*gsmp.NumericFailureError); ok {
			nf.Key = fmt.Sprint(key)
		}
		return err
	}
	s.seq++
	entry := gsmp.EnablingEntry[K]{Key: key, Dist: d, Te: te, When: when, Seq: s.seq}
	if math.IsInf(float64(tau), 1) {
		s.parked[key] = entry
		s.logger.Debug("clock enabled", "key", key, "parked", true)
		return nil
	}
	heap.Push(&s.q, &slot[K]{entry: entry, tau: tau})
	s.logger.Debug("clock enabled", "key", key, "tau", float64(tau))
	return nil
}

// Disable removes key's entry, a no-op if key is not enabled.
func (s *Sampler[K]) Disable(key K, when gsmp.Time) {
	if i, ok := s.q.index[key]; ok {
		heap.Remove(&s.q, i)
		s.logger.Debug("clock disabled", "key", key)
		return
	}
	if _, ok := s.parked[key]; ok {
		delete(s.parked, key)
		s.logger.Debug("clock disabled", "key", key)
	}
}

// Fire requires key to be enabled; it removes the entry and advances
// current time to when.
func (s *Sampler[K]) Fire(key K, when gsmp.Time) error {
	if !s.isActive(key) {
		return &gsmp.PreconditionError{Op: "Fire", Key: fmt.Sprint(key), Err: gsmp.ErrUnknownKey(fmt.Sprint(key))}
	}
	if when < s.now {
		return &gsmp.PreconditionError{Op: "Fire", Key: fmt.Sprint(key), Err: fmt.Errorf("when %v precedes current time %v", when, s.now)}
	}
	if i, ok := s.q.index[key]; ok {
		heap.Remove(&s.q, i)
	} else {
		delete(s.parked, key)
	}
	s.now = when
	s.logger.Debug("clock fired", "key", key, "when", float64(when))
	return nil
}

// Next peeks the earliest pending event without mutating any state.
func (s *Sampler[K]) Next(now gsmp.Time, rng gsmp.RNG) (gsmp.Event[K], bool) {
	if len(s.q.slots) == 0 {
		return gsmp.Event[K]{}, false
	}
	top := s.q.slots[0]
	s.logger.Debug("next event", "key", top.entry.Key, "tau", float64(top.tau))
	return gsmp.Event[K]{Time: top.tau, Key: top.entry.Key, Seq: top.entry.Seq}, true
}

// Jitter re-draws every pending putative time from its own distribution,
// honoring left truncation, then rebuilds heap order.
func (s *Sampler[K]) Jitter(rng gsmp.RNG) {
	for _, sl := range s.q.slots {
		tau, err := putativeTime(sl.entry.Dist, sl.entry.Te, sl.entry.When, rng)
		if err != nil {
			continue
		}
		sl.tau = tau
	}
	heap.Init(&s.q)
}

// Reset clears all clock state.
func (s *Sampler[K]) Reset() {
	s.q.slots = nil
	s.q.index = make(map[K]int)
	s.parked = make(map[K]gsmp.EnablingEntry[K])
	s.now = 0
}

// Clone returns an independent deep copy.
func (s *Sampler[K]) Clone() gsmp.Sampler[K] {
	out := New[K]()
	out.logger = s.logger
	out.seq = s.seq
	out.now = s.now
	out.q.slots = make([]*slot[K], len(s.q.slots))
	for i, sl := range s.q.slots {
		cp := *sl
		out.q.slots[i] = &cp
		out.q.index[cp.entry.Key] = i
	}
	for k, v := range s.parked {
		out.parked[k] = v
	}
	return out
}

// CopyClocksFrom replaces this sampler's clock state with a deep copy of
// src's. src must be a *Sampler[K].
func (s *Sampler[K]) CopyClocksFrom(src gsmp.Sampler[K]) {
	o := src.(*Sampler[K])
	s.seq = o.seq
	s.now = o.now
	s.q.slots = make([]*slot[K], len(o.q.slots))
	s.q.index = make(map[K]int, len(o.q.slots))
	for i, sl := range o.q.slots {
		cp := *sl
		s.q.slots[i] = &cp
		s.q.index[cp.entry.Key] = i
	}
	s.parked = make(map[K]gsmp.EnablingEntry[K], len(o.parked))
	for k, v := range o.parked {
		s.parked[k] = v
	}
}

// Len returns the number of currently enabled clocks, parked or active.
func (s *Sampler[K]) Len() int { return len(s.q.slots) + len(s.parked) }

// Keys returns the currently enabled keys in unspecified order.
func (s *Sampler[K]) Keys() []K {
	keys := make([]K, 0, s.Len())
	for _, sl := range s.q.slots {
		keys = append(keys, sl.entry.Key)
	}
	for k := range s.parked {
		keys = append(keys, k)
	}
	return keys
}

// IsEnabled reports whether key currently has a live entry.
func (s *Sampler[K]) IsEnabled(key K) bool { return s.isActive(key) }

var _ gsmp.Sampler[string] = (*Sampler[string])(nil)
