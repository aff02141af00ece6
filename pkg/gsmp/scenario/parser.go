package scenario

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/dist"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/gsmpctx"
)

// Parse decodes and validates a ClockPlan from YAML.
func Parse(r io.Reader) (ClockPlan, error) {
	var plan ClockPlan
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil {
		return ClockPlan{}, fmt.Errorf("scenario: decoding clock plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return ClockPlan{}, err
	}
	return plan, nil
}

// Build constructs the Distribution this ClockSpec describes.
func (c ClockSpec) Build() (gsmp.Distribution, error) {
	switch c.Distribution {
	case "exponential":
		lambda, err := c.requireParam("lambda")
		if err != nil {
			return nil, err
		}
		return dist.Exponential{Lambda: lambda}, nil
	case "weibull":
		k, err := c.requireParam("k")
		if err != nil {
			return nil, err
		}
		lambda, err := c.requireParam("lambda")
		if err != nil {
			return nil, err
		}
		return dist.Weibull{K: k, Lambda: lambda}, nil
	case "erlang":
		n, err := c.requireParam("n")
		if err != nil {
			return nil, err
		}
		lambda, err := c.requireParam("lambda")
		if err != nil {
			return nil, err
		}
		return dist.Erlang{N: int(n), Lambda: lambda}, nil
	case "gamma":
		shape, err := c.requireParam("shape")
		if err != nil {
			return nil, err
		}
		rate, err := c.requireParam("rate")
		if err != nil {
			return nil, err
		}
		return dist.Gamma{Shape: shape, Rate_: rate}, nil
	case "never":
		return dist.Never{}, nil
	default:
		return nil, fmt.Errorf("scenario: clock %q: unknown distribution %q", c.Key, c.Distribution)
	}
}

func (c ClockSpec) requireParam(name string) (float64, error) {
	v, ok := c.Params[name]
	if !ok {
		return 0, fmt.Errorf("scenario: clock %q: distribution %q requires param %q", c.Key, c.Distribution, name)
	}
	return v, nil
}

func (c ClockSpec) teTime() gsmp.Time { return gsmp.Time(c.Te) }

// whenTime returns the clock's enabling time, defaulting to Te (no
// truncation) when left unset and Te is itself nonzero, or to 0
// otherwise.
func (c ClockSpec) whenTime() gsmp.Time {
	if c.When == 0 && c.Te != 0 {
		return gsmp.Time(c.Te)
	}
	return gsmp.Time(c.When)
}

// Enable installs every clock in the plan onto ctx, mapping each
// ClockSpec's string key through keyOf first (identity when K is
// string).
func Enable[K gsmp.Key](plan ClockPlan, ctx *gsmpctx.SamplingContext[K], keyOf func(string) K) error {
	for _, c := range plan.Spec.Clocks {
		d, err := c.Build()
		if err != nil {
			return err
		}
		if err := ctx.Enable(keyOf(c.Key), d, c.teTime(), c.whenTime()); err != nil {
			return fmt.Errorf("scenario: enabling clock %q: %w", c.Key, err)
		}
	}
	return nil
}
