// Package likelihood implements trajectory log-likelihood tracking:
// TrajectoryWatcher accumulates the log-likelihood of a single
// sampled path under one distribution assignment; PathLikelihoods
// generalizes this to K parallel distribution assignments sampled from
// the same path, for likelihood-ratio / importance-sampling estimators.
// Both use Kahan summation so a long trajectory's accumulated
// rounding error stays bounded instead of growing with step count.
package likelihood

import (
	"math"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
)

// ClockSnapshot is one enabled clock's state as seen by an observer,
// just before a step fires. Te is the distribution's own zero-reference
// so the observer can evaluate conditional survival/density correctly
// even for left-truncated clocks.
type ClockSnapshot[K gsmp.Key] struct {
	Key  K
	Dist gsmp.Distribution
	Te   gsmp.Time
}

// TrajectoryWatcher accumulates the log-likelihood of one sampled path.
// Each step contributes, for every clock enabled just before the step,
// log[S(t2)/S(t1)] (the survived-probability debit over the step), and
// for the firing clock additionally substitutes its conditional density
// logPDF(t2) - LogCCDF(t1) in place of the plain survival debit.
type TrajectoryWatcher[K gsmp.Key] struct {
	sum  float64
	comp float64
	n    int
}

// NewTrajectoryWatcher returns a watcher with zero accumulated
// log-likelihood.
func NewTrajectoryWatcher[K gsmp.Key]() *TrajectoryWatcher[K] {
	return &TrajectoryWatcher[K]{}
}

// Observe folds one simulation step into the running log-likelihood.
// enabled is every clock enabled at t1, the instant just before this
// step; fired is the key that actually fired at t2. An impossible
// transition (a clock the step implies should have survived but whose
// distribution assigns it zero density) propagates as -Inf and stays
// -Inf for the rest of the path.
func (w *TrajectoryWatcher[K]) Observe(enabled []ClockSnapshot[K], fired K, t1, t2 gsmp.Time) {
	for _, c := range enabled {
		w.add(stepContribution(c, fired, t1, t2))
	}
	w.n++
}

func stepContribution[K gsmp.Key](c ClockSnapshot[K], fired K, t1, t2 gsmp.Time) float64 {
	s1 := c.Dist.LogCCDF(float64(t1 - c.Te))
	if c.Key == fired {
		return c.Dist.LogPDF(float64(t2-c.Te)) - s1
	}
	s2 := c.Dist.LogCCDF(float64(t2 - c.Te))
	return s2 - s1
}

func (w *TrajectoryWatcher[K]) add(x float64) {
	if math.IsInf(w.sum, -1) {
		return
	}
	y := x - w.comp
	t := w.sum + y
	w.comp = (t - w.sum) - y
	w.sum = t
	if math.IsInf(w.sum, -1) {
		w.comp = 0
	}
}

// LogLikelihood returns the accumulated path log-likelihood.
func (w *TrajectoryWatcher[K]) LogLikelihood() float64 { return w.sum }

// PathLogLikelihood returns the exact GSMP path density: the
// log-likelihood accumulated so far plus, for every clock in stillEnabled,
// its survival contribution from its own zero-reference up to tEnd. This
// is the full pathloglikelihood(T_end) for a path still running at tEnd,
// with no firing recorded past the last Observe.
func (w *TrajectoryWatcher[K]) PathLogLikelihood(stillEnabled []ClockSnapshot[K], tEnd gsmp.Time) float64 {
	ll := w.sum
	for _, c := range stillEnabled {
		ll += c.Dist.LogCCDF(float64(tEnd - c.Te))
	}
	return ll
}

// StepLogLikelihood returns the log-likelihood of "fired fires next at t2"
// given enabled is the clock set at t1, without
// mutating any accumulator. Callers may evaluate this any number of times
// before the matching Observe call commits it.
func StepLogLikelihood[K gsmp.Key](enabled []ClockSnapshot[K], fired K, t1, t2 gsmp.Time) float64 {
	var ll float64
	for _, c := range enabled {
		ll += stepContribution(c, fired, t1, t2)
	}
	return ll
}

// Steps returns the number of Observe calls folded in so far.
func (w *TrajectoryWatcher[K]) Steps() int { return w.n }

// Reset clears the accumulator back to a fresh path.
func (w *TrajectoryWatcher[K]) Reset() { *w = TrajectoryWatcher[K]{} }

// Clone returns an independent copy of the accumulator, for a
// SamplingContext.Split branch that should keep scoring the parent
// path's accumulated likelihood before diverging.
func (w *TrajectoryWatcher[K]) Clone() *TrajectoryWatcher[K] {
	cp := *w
	return &cp
}

// MultiClockSnapshot is ClockSnapshot generalized to N parallel
// distribution hypotheses sharing the same sampled path. Dists[i] is the
// distribution PathLikelihoods' i-th accumulator scores this clock
// under.
type MultiClockSnapshot[K gsmp.Key] struct {
	Key   K
	Dists []gsmp.Distribution
	Te    gsmp.Time
}

// PathLikelihoods scores one sampled path under N distribution
// assignments simultaneously, so an importance-sampling estimator can
// read off a likelihood ratio between the sampling distribution and a
// target distribution without re-running the simulation.
type PathLikelihoods[K gsmp.Key] struct {
	sums  []float64
	comps []float64
	n     int
}

// NewPathLikelihoods returns an accumulator for n parallel distribution
// assignments.
func NewPathLikelihoods[K gsmp.Key](n int) *PathLikelihoods[K] {
	return &PathLikelihoods[K]{sums: make([]float64, n), comps: make([]float64, n)}
}

// Observe folds one simulation step into every parallel accumulator.
func (p *PathLikelihoods[K]) Observe(enabled []MultiClockSnapshot[K], fired K, t1, t2 gsmp.Time) {
	for _, c := range enabled {
		for i, d := range c.Dists {
			snap := ClockSnapshot[K]{Key: c.Key, Dist: d, Te: c.Te}
			p.add(i, stepContribution(snap, fired, t1, t2))
		}
	}
	p.n++
}

func (p *PathLikelihoods[K]) add(i int, x float64) {
	if math.IsInf(p.sums[i], -1) {
		return
	}
	y := x - p.comps[i]
	t := p.sums[i] + y
	p.comps[i] = (t - p.sums[i]) - y
	p.sums[i] = t
	if math.IsInf(p.sums[i], -1) {
		p.comps[i] = 0
	}
}

// LogLikelihoods returns a copy of the N accumulated path
// log-likelihoods.
func (p *PathLikelihoods[K]) LogLikelihoods() []float64 {
	out := make([]float64, len(p.sums))
	copy(out, p.sums)
	return out
}

// PathLogLikelihoods is PathLogLikelihood generalized to N parallel
// hypotheses: each accumulator plus, for every clock in stillEnabled, that
// hypothesis's survival contribution from its own zero-reference up to
// tEnd.
func (p *PathLikelihoods[K]) PathLogLikelihoods(stillEnabled []MultiClockSnapshot[K], tEnd gsmp.Time) []float64 {
	out := make([]float64, len(p.sums))
	copy(out, p.sums)
	for _, c := range stillEnabled {
		for i, d := range c.Dists {
			out[i] += d.LogCCDF(float64(tEnd - c.Te))
		}
	}
	return out
}

// StepLogLikelihoods is StepLogLikelihood generalized to n parallel
// hypotheses, without mutating any accumulator.
func StepLogLikelihoods[K gsmp.Key](enabled []MultiClockSnapshot[K], fired K, t1, t2 gsmp.Time, n int) []float64 {
	out := make([]float64, n)
	for _, c := range enabled {
		for i, d := range c.Dists {
			out[i] += stepContribution(ClockSnapshot[K]{Key: c.Key, Dist: d, Te: c.Te}, fired, t1, t2)
		}
	}
	return out
}

// LikelihoodRatio returns exp(logLikelihoods[i] - logLikelihoods[j]),
// the importance weight of hypothesis i relative to hypothesis j.
func (p *PathLikelihoods[K]) LikelihoodRatio(i, j int) float64 {
	return math.Exp(p.sums[i] - p.sums[j])
}

// Steps returns the number of Observe calls folded in so far.
func (p *PathLikelihoods[K]) Steps() int { return p.n }

// Reset clears every accumulator back to a fresh path.
func (p *PathLikelihoods[K]) Reset() {
	for i := range p.sums {
		p.sums[i] = 0
		p.comps[i] = 0
	}
	p.n = 0
}

// Clone returns an independent copy of every accumulator, for a
// SamplingContext.Clone/Split branch that should keep scoring the parent
// path's accumulated likelihoods before diverging.
func (p *PathLikelihoods[K]) Clone() *PathLikelihoods[K] {
	return &PathLikelihoods[K]{
		sums:  append([]float64(nil), p.sums...),
		comps: append([]float64(nil), p.comps...),
		n:     p.n,
	}
}
