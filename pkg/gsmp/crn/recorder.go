// Package crn implements a common-random-numbers recorder: a Sampler
// decorator that snapshots the wrapped RNG's state at each (key, epoch)
// pair's first Enable, and restores that snapshot on every later replay
// of the same (key, epoch) so a re-run with different distributions
// still draws the same underlying uniforms for every clock that hasn't
// changed — the standard common-random-numbers variance reduction
// technique, applied at clock granularity instead of stream granularity.
package crn

import (
	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/logging"
)

type snapKey[K gsmp.Key] struct {
	key   K
	epoch int
}

// Miss identifies one Enable that found no snapshot to replay: the key
// and the epoch (count of prior enables of that key) it landed on.
type Miss[K gsmp.Key] struct {
	Key   K
	Epoch int
}

// Recorder wraps a Sampler[K], intercepting Enable to manage the
// snapshot store. Every other Sampler method passes straight through.
type Recorder[K gsmp.Key] struct {
	inner  gsmp.Sampler[K]
	store  map[snapKey[K]]gsmp.RNGState
	epoch  map[K]int
	missed []Miss[K]
	frozen bool
	hits   int
}

// Wrap returns a Recorder decorating inner. inner starts owning no
// snapshot history; Reset on the Recorder clears the wrapped sampler's
// clocks but keeps the snapshot store, so a second trajectory over the
// same keys replays the first trajectory's draws epoch-for-epoch.
func Wrap[K gsmp.Key](inner gsmp.Sampler[K]) *Recorder[K] {
	return &Recorder[K]{
		inner: inner,
		store: make(map[snapKey[K]]gsmp.RNGState),
		epoch: make(map[K]int),
	}
}

// SetLogger forwards to the wrapped sampler, which emits the actual
// per-clock events; the recorder itself logs nothing.
func (r *Recorder[K]) SetLogger(l *logging.Logger) {
	if ls, ok := r.inner.(interface{ SetLogger(*logging.Logger) }); ok {
		ls.SetLogger(l)
	}
}

// Freeze stops the recorder from capturing any new (key, epoch)
// snapshots: a miss past this point draws fresh randomness (counted in
// Misses) but is never added to the store. Use this once a baseline
// trajectory set is built and later runs should only ever replay it.
func (r *Recorder[K]) Freeze() { r.frozen = true }

// Unfreeze resumes capturing new snapshots on a miss.
func (r *Recorder[K]) Unfreeze() { r.frozen = false }

// Hits returns the number of Enable calls that replayed a previously
// captured snapshot.
func (r *Recorder[K]) Hits() int { return r.hits }

// Misses returns the number of Enable calls that drew fresh randomness
// because no snapshot existed yet for that (key, epoch).
func (r *Recorder[K]) Misses() int { return len(r.missed) }

// MissedEnables returns each miss in occurrence order, a diagnostic for
// how well two runs' enable sequences line up: a low miss count after a
// baseline run means most clocks replayed pinned draws.
func (r *Recorder[K]) MissedEnables() []Miss[K] {
	return append([]Miss[K](nil), r.missed...)
}

// Enable increments key's epoch counter (even when d is the Never
// distribution: a clock that is enabled but can never fire still
// consumes an epoch slot, so a later real distribution at the same key
// and epoch replays against the right draws) and either restores a
// previously captured RNG snapshot or, on a miss, captures the RNG's
// pre-draw state before delegating to the wrapped sampler.
func (r *Recorder[K]) Enable(key K, d gsmp.Distribution, te, when gsmp.Time, rng gsmp.RNG) error {
	sk := snapKey[K]{key: key, epoch: r.epoch[key]}
	if state, ok := r.store[sk]; ok {
		rng.Restore(state)
		r.hits++
	} else {
		r.missed = append(r.missed, Miss[K]{Key: key, Epoch: sk.epoch})
		if !r.frozen {
			r.store[sk] = rng.State()
		}
	}
	err := r.inner.Enable(key, d, te, when, rng)
	r.epoch[key]++
	return err
}

func (r *Recorder[K]) Disable(key K, when gsmp.Time) { r.inner.Disable(key, when) }

func (r *Recorder[K]) Fire(key K, when gsmp.Time) error { return r.inner.Fire(key, when) }

func (r *Recorder[K]) Next(now gsmp.Time, rng gsmp.RNG) (gsmp.Event[K], bool) {
	return r.inner.Next(now, rng)
}

func (r *Recorder[K]) Jitter(rng gsmp.RNG) { r.inner.Jitter(rng) }

// Reset clears the wrapped sampler's clock state and every key's epoch
// counter, but preserves the snapshot store so the next
// trajectory replays this one's draws from epoch 0 onward.
func (r *Recorder[K]) Reset() {
	r.inner.Reset()
	r.epoch = make(map[K]int)
}

// Clone deep-copies the wrapped sampler and the recorder's own state,
// including the snapshot store.
func (r *Recorder[K]) Clone() gsmp.Sampler[K] {
	out := &Recorder[K]{
		inner:  r.inner.Clone(),
		store:  make(map[snapKey[K]]gsmp.RNGState, len(r.store)),
		epoch:  make(map[K]int, len(r.epoch)),
		missed: append([]Miss[K](nil), r.missed...),
		frozen: r.frozen,
		hits:   r.hits,
	}
	for k, v := range r.store {
		out.store[k] = v
	}
	for k, v := range r.epoch {
		out.epoch[k] = v
	}
	return out
}

// CopyClocksFrom replaces this recorder's wrapped clock state and
// bookkeeping with a deep copy of src's. src must be a *Recorder[K].
func (r *Recorder[K]) CopyClocksFrom(src gsmp.Sampler[K]) {
	o := src.(*Recorder[K])
	r.inner.CopyClocksFrom(o.inner)
	r.epoch = make(map[K]int, len(o.epoch))
	for k, v := range o.epoch {
		r.epoch[k] = v
	}
	r.store = make(map[snapKey[K]]gsmp.RNGState, len(o.store))
	for k, v := range o.store {
		r.store[k] = v
	}
	r.missed = append([]Miss[K](nil), o.missed...)
	r.frozen = o.frozen
	r.hits = o.hits
}

func (r *Recorder[K]) Len() int { return r.inner.Len() }

func (r *Recorder[K]) Keys() []K { return r.inner.Keys() }

func (r *Recorder[K]) IsEnabled(key K) bool { return r.inner.IsEnabled(key) }

var _ gsmp.Sampler[string] = (*Recorder[string])(nil)
