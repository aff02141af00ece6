// Package nrtransition implements the per-clock carrier the Next-Reaction
// family uses to reuse draws across re-enables: a log-space record
// (consumed cumulative hazard + a fixed exponential quantile, exact for
// exponential/Weibull/Erlang) and a linear-space record (consumed survival
// ratio + residual survival, the Gibson-Bruck fallback for distributions
// with no closed-form cumulative-hazard inversion).
//
// Consume is only ever called by a caller that has detected a genuine
// distribution change on an already-enabled key. Re-enabling a key with
// the identical distribution and te is a no-op for the record — the
// caller simply keeps using it unchanged, which is what makes quantile
// reuse exact: Putative's output depends only on the record's
// contents, the distribution, and te, so unchanged inputs give an
// unchanged output without any special-casing inside this package.
package nrtransition

import (
	"fmt"
	"math"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/dist"
)

// Record is a discriminated union over the two NR spaces. Exactly one
// half of the fields is meaningful, selected by Space. Through is the
// sync point both spaces share: the hazard (or survival) the clock has
// already been charged for runs up to Through, so Putative always solves
// for a firing time at or after it — this is also what conditions a
// left-truncated clock on survival to its enabling time, since Sample
// starts Through at `when`.
type Record struct {
	Space dist.Space

	// Log-space fields (SpaceLog).
	Quantile float64   // fixed -log(1-U), drawn once at first enable
	Gamma    float64   // cumulative hazard consumed through Through
	Through  gsmp.Time // time up to which hazard/survival has been charged

	// Linear-space fields (SpaceLinear).
	ResidualU float64 // 1-U, fixed at first sample
	Delta     float64 // consumed survival ratio, product of G(t_i)/G(t_i+1)
}

// Sample draws a fresh record for a clock enabled with distribution d,
// zero-reference te, at simulation time when. When te < when (left
// truncation), Putative's Through handling conditions the draw on
// survival past (when-te).
func Sample(d gsmp.Distribution, te, when gsmp.Time, rng gsmp.RNG) (Record, gsmp.Time, error) {
	switch dist.SpaceOf(d) {
	case dist.SpaceLog:
		rec := Record{Space: dist.SpaceLog, Quantile: rng.Exponential(), Through: when}
		tau, err := putativeLog(rec, d, te)
		return rec, tau, err
	default:
		rec := Record{Space: dist.SpaceLinear, ResidualU: 1 - rng.Float64(), Delta: 1, Through: when}
		tau, err := putativeLinear(rec, d, te)
		return rec, tau, err
	}
}

// Consume folds the hazard/survival that oldDist accrued between the
// record's last sync point (Through) and tNow into the record, then
// advances Through to tNow. Call this exactly once per genuine
// distribution change on a continuously-enabled key; te is
// oldDist's own zero-reference. oldDist must dispatch to the same space
// the record was built for; a DistributionMismatchError reports a
// distribution whose hazard accounting the record cannot absorb.
func Consume(rec Record, oldDist gsmp.Distribution, te gsmp.Time, tNow gsmp.Time) (Record, error) {
	if dist.SpaceOf(oldDist) != rec.Space {
		return rec, &gsmp.DistributionMismatchError{Space: rec.Space.String()}
	}
	switch rec.Space {
	case dist.SpaceLog:
		from := float64(rec.Through - te)
		to := float64(tNow - te)
		rec.Gamma += oldDist.LogCCDF(from) - oldDist.LogCCDF(to)
	default:
		from := float64(rec.Through - te)
		to := float64(tNow - te)
		gFrom := oldDist.CCDF(from)
		gTo := oldDist.CCDF(to)
		if gTo > 0 {
			rec.Delta *= gFrom / gTo
		}
	}
	rec.Through = tNow
	return rec, nil
}

// Putative computes the currently-predicted firing time for rec under the
// (possibly just-changed) distribution d with zero-reference te. d must
// dispatch to the record's own space; a DistributionMismatchError means
// the caller should resample rather than reuse the record.
func Putative(rec Record, d gsmp.Distribution, te gsmp.Time) (gsmp.Time, error) {
	if dist.SpaceOf(d) != rec.Space {
		return 0, &gsmp.DistributionMismatchError{Space: rec.Space.String()}
	}
	if rec.Space == dist.SpaceLog {
		return putativeLog(rec, d, te)
	}
	return putativeLinear(rec, d, te)
}

// Remaining returns the unconsumed portion of the record's budget: for
// log-space, the remaining cumulative-hazard quantile; for linear-space,
// the remaining survival target. A value <= 0 (floating-point drift
// pushing consumed hazard past the quantile bound) signals the
// caller should clip to "fire immediately at now" instead of calling
// Putative.
func Remaining(rec Record) float64 {
	if rec.Space == dist.SpaceLog {
		return rec.Quantile - rec.Gamma
	}
	return rec.ResidualU
}

// putativeLog solves cumhazard_d(tau - te) = remaining + cumhazard_d(Through - te):
// the unspent quantile is burned forward from the sync point, never from
// te, so tau >= Through even after heavy consumption under earlier
// distributions.
func putativeLog(rec Record, d gsmp.Distribution, te gsmp.Time) (gsmp.Time, error) {
	remaining := rec.Quantile - rec.Gamma
	if remaining <= 0 {
		remaining = 0
	}
	s := math.Exp(-remaining)
	if rec.Through > te {
		s *= d.CCDF(float64(rec.Through - te))
	}
	if s > 1 {
		s = 1
	}
	t, err := d.InvCCDF(s)
	if err != nil {
		return 0, &gsmp.NumericFailureError{Distribution: d.String(), Err: fmt.Errorf("nrtransition: log-space putative time: %w", err)}
	}
	return te + gsmp.Time(t), nil
}

// putativeLinear is putativeLog's Gibson-Bruck twin: the residual
// survival target is rescaled by the survival already spent through the
// sync point, G_d(Through - te).
func putativeLinear(rec Record, d gsmp.Distribution, te gsmp.Time) (gsmp.Time, error) {
	target := rec.ResidualU * rec.Delta
	if rec.Through > te {
		target *= d.CCDF(float64(rec.Through - te))
	}
	if target > 1 {
		target = 1
	}
	if target <= 0 {
		return rec.Through, nil
	}
	t, err := d.InvCCDF(target)
	if err != nil {
		return 0, &gsmp.NumericFailureError{Distribution: d.String(), Err: fmt.Errorf("nrtransition: linear-space putative time: %w", err)}
	}
	return te + gsmp.Time(t), nil
}
