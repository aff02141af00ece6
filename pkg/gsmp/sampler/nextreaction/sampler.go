// Package nextreaction implements CombinedNextReaction: the
// general-purpose engine that keeps one nrtransition.Record per clock
// and reuses it across re-enables, drawing a fresh quantile only on a
// clock's very first enable or when a re-enable crosses NR spaces.
// Clocks whose putative time comes back +Inf (the Never distribution,
// or any distribution reporting a zero constant rate) are parked out
// of the heap entirely since they can never win Next, but stay visible
// to Keys/Len/IsEnabled.
package nextreaction

import (
	"container/heap"
	"fmt"
	"math"
	"reflect"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/dist"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/logging"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/nrtransition"
)

type slot[K gsmp.Key] struct {
	entry gsmp.EnablingEntry[K]
	tau   gsmp.Time
}

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

// Sampler is the CombinedNextReaction engine over key type K.
type Sampler[K gsmp.Key] struct {
	q       pq[K]
	parked  map[K]gsmp.EnablingEntry[K]
	records map[K]nrtransition.Record
	lastD   map[K]gsmp.Distribution
	lastTe  map[K]gsmp.Time
	logger  *logging.Logger
	seq     uint64
	now     gsmp.Time
}

// New returns an empty CombinedNextReaction sampler.
func New[K gsmp.Key]() *Sampler[K] {
	return &Sampler[K]{
		q:       pq[K]{index: make(map[K]int)},
		parked:  make(map[K]gsmp.EnablingEntry[K]),
		records: make(map[K]nrtransition.Record),
		lastD:   make(map[K]gsmp.Distribution),
		lastTe:  make(map[K]gsmp.Time),
		logger:  logging.Nop(),
	}
}

// SetLogger replaces the sampler's logger, which emits debug-level
// enable/disable/fire/next events and a warn-level event when consumed
// hazard overruns a reused quantile. A nil logger silences it.
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

// Enable installs a fresh clock for key. If a record from a previous
// enable of the same key survives (no intervening Fire), it is reused
// exactly when the distribution and te are unchanged; otherwise its
// consumed hazard/survival is folded forward via nrtransition.Consume
// before the new putative time is computed. A cross-space re-enable
// draws a fresh quantile instead, since the consumed record is
// meaningless under the new carrier.
func (s *Sampler[K]) Enable(key K, d gsmp.Distribution, te, when gsmp.Time, rng gsmp.RNG) error {
	if s.isActive(key) {
		return &gsmp.PreconditionError{Op: "Enable", Key: fmt.Sprint(key), Err: fmt.Errorf("already enabled")}
	}

	var (
		rec nrtransition.Record
		tau gsmp.Time
		err error
	)
	prevRec, hadRecord := s.records[key]
	if !hadRecord {
		rec, tau, err = nrtransition.Sample(d, te, when, rng)
	} else {
		oldDist, oldTe := s.lastD[key], s.lastTe[key]
		unchanged := oldTe == te && reflect.DeepEqual(oldDist, d)
		sameSpace := dist.SpaceOf(d) == prevRec.Space
		switch {
		case unchanged:
			rec = prevRec
		case sameSpace:
			rec, err = nrtransition.Consume(prevRec, oldDist, oldTe, when)
		default:
			rec, tau, err = nrtransition.Sample(d, te, when, rng)
		}
		if err == nil && (unchanged || sameSpace) {
			if remaining := nrtransition.Remaining(rec); remaining <= 0 {
				tau = when
				s.logger.Warn("consumed hazard exceeded quantile bound, clipped", "key", key, "when", float64(when))
			} else {
				tau, err = nrtransition.Putative(rec, d, te)
			}
		}
	}
	if err != nil {
		if nf, ok := err.(*gsmp.NumericFailureError); ok {
			nf.Key = fmt.Sprint(key)
		}
		if mm, ok := err.(*gsmp.DistributionMismatchError); ok {
			mm.Key = fmt.Sprint(key)
		}
		return err
	}

	s.seq++
	entry := gsmp.EnablingEntry[K]{Key: key, Dist: d, Te: te, When: when, Seq: s.seq}
	s.records[key] = rec
	s.lastD[key] = d
	s.lastTe[key] = te

	if math.IsInf(float64(tau), 1) {
		s.parked[key] = entry
		s.logger.Debug("clock enabled", "key", key, "parked", true)
		return nil
	}
	heap.Push(&s.q, &slot[K]{entry: entry, tau: tau})
	s.logger.Debug("clock enabled", "key", key, "tau", float64(tau))
	return nil
}

// Disable removes key from the active set but preserves its record so a
// later re-enable can reuse it.
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

// Fire requires key to be enabled; it removes the entry and its record
// entirely (a fired clock starts from scratch on its next enable), and
// advances current time to when.
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
	delete(s.records, key)
	delete(s.lastD, key)
	delete(s.lastTe, key)
	s.now = when
	s.logger.Debug("clock fired", "key", key, "when", float64(when))
	return nil
}

// Next peeks the earliest pending event.
func (s *Sampler[K]) Next(now gsmp.Time, rng gsmp.RNG) (gsmp.Event[K], bool) {
	if len(s.q.slots) == 0 {
		return gsmp.Event[K]{}, false
	}
	top := s.q.slots[0]
	s.logger.Debug("next event", "key", top.entry.Key, "tau", float64(top.tau))
	return gsmp.Event[K]{Time: top.tau, Key: top.entry.Key, Seq: top.entry.Seq}, true
}

// Jitter re-draws every active clock's record from scratch (a full
// resample, not a partial quantile shift) and rebuilds heap order.
func (s *Sampler[K]) Jitter(rng gsmp.RNG) {
	for _, sl := range s.q.slots {
		d, te, when := sl.entry.Dist, sl.entry.Te, sl.entry.When
		rec, tau, err := nrtransition.Sample(d, te, when, rng)
		if err != nil {
			continue
		}
		s.records[sl.entry.Key] = rec
		sl.tau = tau
	}
	heap.Init(&s.q)
}

// Reset clears all clock state, including every stored record.
func (s *Sampler[K]) Reset() {
	s.q.slots = nil
	s.q.index = make(map[K]int)
	s.parked = make(map[K]gsmp.EnablingEntry[K])
	s.records = make(map[K]nrtransition.Record)
	s.lastD = make(map[K]gsmp.Distribution)
	s.lastTe = make(map[K]gsmp.Time)
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
	for k, v := range s.records {
		out.records[k] = v
	}
	for k, v := range s.lastD {
		out.lastD[k] = v
	}
	for k, v := range s.lastTe {
		out.lastTe[k] = v
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
