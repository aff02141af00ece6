package dist

import (
	"fmt"
	"math"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
)

// Gamma is the general real-shape Gamma distribution (rate parameterized).
// Unlike Erlang it has no NRSpace hint, and it reports a constant rate
// only when Shape == 1 (the exponential case, which SpaceOf sends to
// SpaceLog). Every other shape falls through to SpaceLinear, the
// Gibson-Bruck survival-ratio carrier for distributions with no
// closed-form hazard inversion.
type Gamma struct {
	Shape float64 // k > 0
	Rate_ float64 // rate (theta = 1/Rate_)
}

// Sample draws via the Marsaglia-Tsang method for shape >= 1, and via the
// boosting identity Gamma(k) = Gamma(k+1) * U^(1/k) for shape < 1. Both
// only need uniform draws, matching the RNG contract.
func (g Gamma) Sample(rng gsmp.RNG) float64 {
	if g.Shape < 1 {
		boosted := Gamma{Shape: g.Shape + 1, Rate_: g.Rate_}
		u := rng.Float64()
		return boosted.Sample(rng) * math.Pow(u, 1/g.Shape)
	}
	d := g.Shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = standardNormal(rng)
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v / g.Rate_
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v / g.Rate_
		}
	}
}

// standardNormal draws N(0,1) via the Box-Muller transform, built from two
// RNG.Float64 draws since the RNG contract has no Normal() primitive.
func standardNormal(rng gsmp.RNG) float64 {
	u1 := rng.Float64()
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func (g Gamma) LogPDF(t float64) float64 {
	if t <= 0 {
		return math.Inf(-1)
	}
	lg, _ := math.Lgamma(g.Shape)
	return g.Shape*math.Log(g.Rate_) + (g.Shape-1)*math.Log(t) - g.Rate_*t - lg
}

func (g Gamma) CCDF(t float64) float64 {
	if t <= 0 {
		return 1
	}
	return 1 - regularizedLowerIncompleteGamma(g.Shape, g.Rate_*t)
}

func (g Gamma) LogCCDF(t float64) float64 {
	s := g.CCDF(t)
	if s <= 0 {
		return math.Inf(-1)
	}
	return math.Log(s)
}

func (g Gamma) InvCCDF(q float64) (float64, error) {
	t, err := invertMonotoneDecreasing(g.CCDF, q)
	if err != nil {
		return 0, fmt.Errorf("Gamma.InvCCDF(%v): %w", q, err)
	}
	return t, nil
}

func (g Gamma) Rate() (float64, bool) {
	if g.Shape == 1 {
		return g.Rate_, true
	}
	return 0, false
}

func (g Gamma) String() string { return fmt.Sprintf("Gamma(k=%.6g, rate=%.6g)", g.Shape, g.Rate_) }

// regularizedLowerIncompleteGamma computes P(a, x) = gamma(a,x)/Gamma(a)
// via its series expansion for x < a+1, and via the continued-fraction
// form of the upper incomplete gamma (1-Q(a,x)) otherwise — the standard
// split used to keep both series numerically stable across their domains.
func regularizedLowerIncompleteGamma(a, x float64) float64 {
	if x <= 0 {
		return 0
	}
	lg, _ := math.Lgamma(a)
	if x < a+1 {
		// Series: P(a,x) = x^a e^-x / Gamma(a) * sum_{n=0}^inf x^n / (a)(a+1)...(a+n)
		term := 1.0 / a
		sum := term
		for n := 1; n < 500; n++ {
			term *= x / (a + float64(n))
			sum += term
			if math.Abs(term) < math.Abs(sum)*1e-15 {
				break
			}
		}
		return sum * math.Exp(-x+a*math.Log(x)-lg)
	}
	// Continued fraction for Q(a,x), then P = 1 - Q.
	const fpmin = 1e-300
	b := x + 1 - a
	c := 1 / fpmin
	d := 1 / b
	h := d
	for i := 1; i < 500; i++ {
		an := -float64(i) * (float64(i) - a)
		b += 2
		d = an*d + b
		if math.Abs(d) < fpmin {
			d = fpmin
		}
		c = b + an/c
		if math.Abs(c) < fpmin {
			c = fpmin
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < 1e-15 {
			break
		}
	}
	q := math.Exp(-x+a*math.Log(x)-lg) * h
	return 1 - q
}
