// Package scenario declares ClockPlan, a YAML document describing a set
// of clocks to enable at simulation start, carried in a conventional
// apiVersion/kind/metadata/spec envelope: one "clocks" list, each entry
// naming a distribution and its parameters.
package scenario

// ClockPlan is the top-level declarative document.
type ClockPlan struct {
	APIVersion string        `yaml:"apiVersion"`
	Kind       string        `yaml:"kind"`
	Metadata   Metadata      `yaml:"metadata"`
	Spec       ClockPlanSpec `yaml:"spec"`
}

// Metadata carries human-facing identification, unused by Build.
type Metadata struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// ClockPlanSpec lists the clocks to enable.
type ClockPlanSpec struct {
	Clocks []ClockSpec `yaml:"clocks"`
}

// ClockSpec describes one clock: its key, its distribution and that
// distribution's parameters, and an optional left-truncation pair
// (te, when). When When is omitted it defaults to Te (no truncation).
type ClockSpec struct {
	Key          string             `yaml:"key"`
	Distribution string             `yaml:"distribution"`
	Params       map[string]float64 `yaml:"params"`
	Te           float64            `yaml:"te,omitempty"`
	When         float64            `yaml:"when,omitempty"`
}
