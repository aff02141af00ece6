// Package gsmpctx provides SamplingContext, the façade that
// composes a sampling engine with an optional TrajectoryWatcher (or
// PathLikelihoods) and an optional CommonRandomRecorder wrapper, plus a
// declarative BuilderSpec for assembling the right engine from
// configuration instead of hand-wired Go.
package gsmpctx

import (
	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/likelihood"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/logging"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/metrics"
)

// SamplingContext composes one sampling engine with the optional
// machinery around it. A context built with no options pays nothing
// beyond the bare sampler: Step skips the watcher call entirely when no
// watcher is attached, and CRN wrapping (a crn.Recorder swapped in with
// crn.Wrap before New) is invisible to every other option.
type SamplingContext[K gsmp.Key] struct {
	sampler      gsmp.Sampler[K]
	rng          gsmp.RNG
	watcher      *likelihood.TrajectoryWatcher[K]
	pathLikes    *likelihood.PathLikelihoods[K]
	entries      map[K]gsmp.EnablingEntry[K]
	multiEntries map[K]likelihood.MultiClockSnapshot[K]
	metrics      *metrics.Collector
	logger       *logging.Logger
	engine       string
	now          gsmp.Time
	weight       float64
}

// Option configures a SamplingContext at construction time.
type Option[K gsmp.Key] func(*SamplingContext[K])

// WithWatcher attaches a TrajectoryWatcher that scores every Step
// against the path log-likelihood under a single distribution
// assignment.
func WithWatcher[K gsmp.Key]() Option[K] {
	return func(c *SamplingContext[K]) { c.watcher = likelihood.NewTrajectoryWatcher[K]() }
}

// WithPathLikelihoods attaches a PathLikelihoods accumulator scoring n
// parallel distribution hypotheses per clock, for importance-sampling
// estimators (likelihood_count>1 in the declarative BuilderSpec). Use
// EnableVector instead of Enable to populate every hypothesis on a clock
// built with this option.
func WithPathLikelihoods[K gsmp.Key](n int) Option[K] {
	return func(c *SamplingContext[K]) {
		c.pathLikes = likelihood.NewPathLikelihoods[K](n)
		c.multiEntries = make(map[K]likelihood.MultiClockSnapshot[K])
	}
}

// WithMetrics attaches a Prometheus collector, labeling every metric
// with engine.
func WithMetrics[K gsmp.Key](collector *metrics.Collector, engine string) Option[K] {
	return func(c *SamplingContext[K]) {
		c.metrics = collector
		c.engine = engine
	}
}

// WithLogger attaches a structured logger. New threads it into the
// sampling engine (through a CRN wrapper, if present), so the engine's
// debug-level enable/disable/fire/next events and warn-level quantile
// clipping events flow to it alongside the context's own diagnostics.
func WithLogger[K gsmp.Key](logger *logging.Logger) Option[K] {
	return func(c *SamplingContext[K]) { c.logger = logger }
}

// New builds a SamplingContext over sampler and rng. Wrap sampler in
// crn.Wrap before calling New if common-random-number variance
// reduction is wanted — CRN wrapping composes underneath the
// façade rather than as a context-level option, since it must intercept
// Enable before anything else touches the RNG.
func New[K gsmp.Key](sampler gsmp.Sampler[K], rng gsmp.RNG, opts ...Option[K]) *SamplingContext[K] {
	c := &SamplingContext[K]{
		sampler: sampler,
		rng:     rng,
		entries: make(map[K]gsmp.EnablingEntry[K]),
		logger:  logging.Nop(),
		weight:  1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if ls, ok := c.sampler.(interface{ SetLogger(*logging.Logger) }); ok {
		ls.SetLogger(c.logger)
	}
	return c
}

// Enable installs a fresh clock for key.
func (c *SamplingContext[K]) Enable(key K, d gsmp.Distribution, te, when gsmp.Time) error {
	if err := c.sampler.Enable(key, d, te, when, c.rng); err != nil {
		return err
	}
	c.entries[key] = gsmp.EnablingEntry[K]{Key: key, Dist: d, Te: te, When: when}
	c.metrics.ObserveEnable(c.engine)
	return nil
}

// SampleFromDistribution selects the sampling (proposal) distribution out
// of a vectorized Enable's K hypotheses: the clock's actual draw
// always comes from this one, while every distribution in dists still gets
// scored by an attached PathLikelihoods accumulator via EnableVector.
func (c *SamplingContext[K]) SampleFromDistribution(dists []gsmp.Distribution, which int) gsmp.Distribution {
	return dists[which]
}

// EnableVector installs a fresh clock for key, drawing its actual putative
// time under dists[sampleIdx] (picked via SampleFromDistribution) while
// registering every distribution in dists with the attached
// PathLikelihoods accumulator, if any, so each hypothesis is scored
// against the same sampled path. Without
// WithPathLikelihoods this behaves exactly like Enable(key,
// dists[sampleIdx], te, when).
func (c *SamplingContext[K]) EnableVector(key K, dists []gsmp.Distribution, sampleIdx int, te, when gsmp.Time) error {
	d := c.SampleFromDistribution(dists, sampleIdx)
	if err := c.Enable(key, d, te, when); err != nil {
		return err
	}
	if c.pathLikes != nil {
		cp := append([]gsmp.Distribution(nil), dists...)
		c.multiEntries[key] = likelihood.MultiClockSnapshot[K]{Key: key, Dists: cp, Te: te}
	}
	return nil
}

// Disable removes key's entry, a no-op if key is not enabled.
func (c *SamplingContext[K]) Disable(key K, when gsmp.Time) {
	c.sampler.Disable(key, when)
	delete(c.entries, key)
	delete(c.multiEntries, key)
	c.metrics.ObserveDisable(c.engine)
}

// Fire fires key directly at when, bypassing Step's Next-then-Fire
// bundling, for callers (e.g. scenario replay) that already know which key
// fires and when rather than discovering it from Next. It does not score
// any attached watcher/pathLikes accumulator — callers that need the path
// log-likelihood updated should use Step, or call StepLogLikelihood
// themselves before Fire.
func (c *SamplingContext[K]) Fire(key K, when gsmp.Time) error {
	if err := c.sampler.Fire(key, when); err != nil {
		return err
	}
	delete(c.entries, key)
	delete(c.multiEntries, key)
	c.now = when
	c.metrics.ObserveFire(c.engine)
	c.metrics.SetQueueLength(c.engine, c.sampler.Len())
	return nil
}

// Next returns the earliest pending event without firing it, mirroring
// the underlying Sampler's Next. ok is false when the enabled set is
// empty; that is a normal terminal state, not an error.
func (c *SamplingContext[K]) Next() (gsmp.Event[K], bool) {
	ev, ok := c.sampler.Next(c.now, c.rng)
	c.metrics.ObserveNext(c.engine)
	return ev, ok
}

// Step advances to the earliest pending event: it scores the step
// against the attached watcher/pathLikes (if any) using the clock set as
// it stood immediately before firing, fires that event on the sampler, and
// advances current time. ok is false when the enabled set is empty;
// that is a normal terminal state, not an error.
func (c *SamplingContext[K]) Step() (ev gsmp.Event[K], ok bool, err error) {
	ev, ok = c.sampler.Next(c.now, c.rng)
	c.metrics.ObserveNext(c.engine)
	if !ok {
		return ev, false, nil
	}
	if c.watcher != nil {
		snapshots := make([]likelihood.ClockSnapshot[K], 0, len(c.entries))
		for key, entry := range c.entries {
			snapshots = append(snapshots, likelihood.ClockSnapshot[K]{Key: key, Dist: entry.Dist, Te: entry.Te})
		}
		c.watcher.Observe(snapshots, ev.Key, c.now, ev.Time)
	}
	if c.pathLikes != nil {
		snapshots := make([]likelihood.MultiClockSnapshot[K], 0, len(c.multiEntries))
		for _, snap := range c.multiEntries {
			snapshots = append(snapshots, snap)
		}
		c.pathLikes.Observe(snapshots, ev.Key, c.now, ev.Time)
	}
	if err := c.sampler.Fire(ev.Key, ev.Time); err != nil {
		c.logger.Error("fire failed", "key", ev.Key, "time", float64(ev.Time), "error", err.Error())
		return ev, false, err
	}
	delete(c.entries, ev.Key)
	delete(c.multiEntries, ev.Key)
	c.now = ev.Time
	c.metrics.ObserveFire(c.engine)
	c.metrics.SetQueueLength(c.engine, c.sampler.Len())
	return ev, true, nil
}

// PathLogLikelihood returns the exact GSMP path density for the
// trajectory observed so far under the single distribution assignment
// tracked by WithWatcher, plus the survival contribution of every
// still-enabled clock up to tEnd. Returns 0 if no watcher is attached.
func (c *SamplingContext[K]) PathLogLikelihood(tEnd gsmp.Time) float64 {
	if c.watcher == nil {
		return 0
	}
	snapshots := make([]likelihood.ClockSnapshot[K], 0, len(c.entries))
	for key, entry := range c.entries {
		snapshots = append(snapshots, likelihood.ClockSnapshot[K]{Key: key, Dist: entry.Dist, Te: entry.Te})
	}
	return c.watcher.PathLogLikelihood(snapshots, tEnd)
}

// PathLogLikelihoods is PathLogLikelihood's vectorized form, for a
// context built with WithPathLikelihoods. Returns nil if none is attached.
func (c *SamplingContext[K]) PathLogLikelihoods(tEnd gsmp.Time) []float64 {
	if c.pathLikes == nil {
		return nil
	}
	snapshots := make([]likelihood.MultiClockSnapshot[K], 0, len(c.multiEntries))
	for _, snap := range c.multiEntries {
		snapshots = append(snapshots, snap)
	}
	return c.pathLikes.PathLogLikelihoods(snapshots, tEnd)
}

// StepLogLikelihood returns the log-likelihood of "firingKey fires next at
// tau" given the clock set currently enabled,
// without mutating the attached watcher. Safe to call any number of times
// before the matching Step/Fire commits the step.
func (c *SamplingContext[K]) StepLogLikelihood(tau gsmp.Time, firingKey K) float64 {
	snapshots := make([]likelihood.ClockSnapshot[K], 0, len(c.entries))
	for key, entry := range c.entries {
		snapshots = append(snapshots, likelihood.ClockSnapshot[K]{Key: key, Dist: entry.Dist, Te: entry.Te})
	}
	return likelihood.StepLogLikelihood(snapshots, firingKey, c.now, tau)
}

// StepLogLikelihoods is StepLogLikelihood's vectorized form, for a context
// built with WithPathLikelihoods. Returns nil if none is attached.
func (c *SamplingContext[K]) StepLogLikelihoods(tau gsmp.Time, firingKey K) []float64 {
	if c.pathLikes == nil {
		return nil
	}
	snapshots := make([]likelihood.MultiClockSnapshot[K], 0, len(c.multiEntries))
	for _, snap := range c.multiEntries {
		snapshots = append(snapshots, snap)
	}
	return likelihood.StepLogLikelihoods(snapshots, firingKey, c.now, tau, len(c.pathLikes.LogLikelihoods()))
}

// Jitter re-draws every pending putative time without changing the
// enabled set, so the next Next can return a distinct event.
func (c *SamplingContext[K]) Jitter() { c.sampler.Jitter(c.rng) }

// Clone returns an independent deep copy of this context: a cloned
// sampler, a forked RNG stream, and cloned watcher/pathLikes
// accumulators if attached. Unlike Split, Clone leaves Weight unchanged —
// Split and SplitN are built on top of Clone to additionally track S6's
// split_weight bookkeeping.
func (c *SamplingContext[K]) Clone() *SamplingContext[K] {
	out := &SamplingContext[K]{
		sampler: c.sampler.Clone(),
		rng:     c.rng.Fork(),
		entries: make(map[K]gsmp.EnablingEntry[K], len(c.entries)),
		metrics: c.metrics,
		logger:  c.logger,
		engine:  c.engine,
		now:     c.now,
		weight:  c.weight,
	}
	for k, v := range c.entries {
		out.entries[k] = v
	}
	if c.watcher != nil {
		out.watcher = c.watcher.Clone()
	}
	if c.pathLikes != nil {
		out.pathLikes = c.pathLikes.Clone()
		out.multiEntries = make(map[K]likelihood.MultiClockSnapshot[K], len(c.multiEntries))
		for k, v := range c.multiEntries {
			out.multiEntries[k] = v
		}
	}
	return out
}

// CopyClocksFrom replaces this context's clock state — the sampler's
// clocks, the entry mirror, and any attached watcher/pathLikes
// accumulators — with a deep copy of src's, leaving
// rng/metrics/logger/engine untouched.
func (c *SamplingContext[K]) CopyClocksFrom(src *SamplingContext[K]) {
	c.sampler.CopyClocksFrom(src.sampler)
	c.entries = make(map[K]gsmp.EnablingEntry[K], len(src.entries))
	for k, v := range src.entries {
		c.entries[k] = v
	}
	c.now = src.now
	if src.watcher != nil {
		c.watcher = src.watcher.Clone()
	}
	if src.pathLikes != nil {
		c.pathLikes = src.pathLikes.Clone()
		c.multiEntries = make(map[K]likelihood.MultiClockSnapshot[K], len(src.multiEntries))
		for k, v := range src.multiEntries {
			c.multiEntries[k] = v
		}
	}
}

// Split returns a single independent branch starting from this context's
// current state: equivalent to Clone, kept as the distinct name
// SplitN is built from and several call sites (crn, internal tests) only
// ever need one branch of. Split does not adjust Weight; callers needing
// S6's split_weight bookkeeping should use SplitN.
func (c *SamplingContext[K]) Split() *SamplingContext[K] { return c.Clone() }

// SplitN returns n independent branches, each built via Split, with
// Weight divided by n and combined multiplicatively with whatever weight
// this context already carried from a prior split — so a second-level
// split of a branch that was already one of three carries weight 1/9:
// split weights combine multiplicatively.
func (c *SamplingContext[K]) SplitN(n int) []*SamplingContext[K] {
	out := make([]*SamplingContext[K], n)
	for i := 0; i < n; i++ {
		branch := c.Split()
		branch.weight = c.weight / float64(n)
		out[i] = branch
	}
	return out
}

// Weight returns this context's accumulated split weight: 1 for a
// context that has never been split, and the product of 1/n over every
// SplitN ancestor otherwise.
func (c *SamplingContext[K]) Weight() float64 { return c.weight }

// Reset clears all clock state (and the watcher/pathLikes, if attached).
func (c *SamplingContext[K]) Reset() {
	c.sampler.Reset()
	c.entries = make(map[K]gsmp.EnablingEntry[K])
	c.now = 0
	if c.watcher != nil {
		c.watcher.Reset()
	}
	if c.pathLikes != nil {
		c.pathLikes.Reset()
		c.multiEntries = make(map[K]likelihood.MultiClockSnapshot[K])
	}
}

// Now returns the context's current simulation time.
func (c *SamplingContext[K]) Now() gsmp.Time { return c.now }

// Length returns the number of currently enabled clocks.
func (c *SamplingContext[K]) Length() int { return c.sampler.Len() }

// Keys returns the currently enabled keys in unspecified order.
func (c *SamplingContext[K]) Keys() []K { return c.sampler.Keys() }

// IsEnabled reports whether key currently has a live entry.
func (c *SamplingContext[K]) IsEnabled(key K) bool { return c.sampler.IsEnabled(key) }

// Sampler returns the underlying sampling engine (or CRN-wrapping
// decorator), for callers that need direct access.
func (c *SamplingContext[K]) Sampler() gsmp.Sampler[K] { return c.sampler }

// Watcher returns the attached TrajectoryWatcher, or nil if none was
// requested via WithWatcher.
func (c *SamplingContext[K]) Watcher() *likelihood.TrajectoryWatcher[K] { return c.watcher }

// PathLikelihoods returns the attached PathLikelihoods accumulator, or nil
// if none was requested via WithPathLikelihoods.
func (c *SamplingContext[K]) PathLikelihoods() *likelihood.PathLikelihoods[K] { return c.pathLikes }
