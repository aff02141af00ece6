package scenario

import "fmt"

// Validate checks structural well-formedness: required envelope fields,
// a nonempty clock list, unique keys, and a recognized distribution name
// per clock. It does not check that a distribution's params are
// complete — ClockSpec.Build reports that per-clock, since the set of
// required params differs by distribution.
func (p ClockPlan) Validate() error {
	if p.APIVersion == "" {
		return fmt.Errorf("scenario: apiVersion is required")
	}
	if p.Kind == "" {
		return fmt.Errorf("scenario: kind is required")
	}
	if p.Metadata.Name == "" {
		return fmt.Errorf("scenario: metadata.name is required")
	}
	if len(p.Spec.Clocks) == 0 {
		return fmt.Errorf("scenario: spec.clocks must be nonempty")
	}
	seen := make(map[string]bool, len(p.Spec.Clocks))
	for i, c := range p.Spec.Clocks {
		if c.Key == "" {
			return fmt.Errorf("scenario: spec.clocks[%d]: key is required", i)
		}
		if seen[c.Key] {
			return fmt.Errorf("scenario: spec.clocks[%d]: duplicate key %q", i, c.Key)
		}
		seen[c.Key] = true
		switch c.Distribution {
		case "exponential", "weibull", "erlang", "gamma", "never":
		default:
			return fmt.Errorf("scenario: spec.clocks[%d] (%q): unknown distribution %q", i, c.Key, c.Distribution)
		}
	}
	return nil
}
