package gsmpctx

import (
	"fmt"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/crn"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/keyedprefixsum"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/prefixsum"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/sampler/direct"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/sampler/firstreaction"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/sampler/firsttofire"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/sampler/multi"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/sampler/nextreaction"
)

// MethodKind names a sampling engine in declarative configuration.
type MethodKind string

const (
	MethodFirstToFire   MethodKind = "first_to_fire"
	MethodFirstReaction MethodKind = "first_reaction"
	MethodNextReaction  MethodKind = "next_reaction"
	MethodDirect        MethodKind = "direct"
	MethodMulti         MethodKind = "multi"
)

// PrefixSumKind selects the Direct Method's backing PrefixSum
// implementation.
type PrefixSumKind string

const (
	PrefixSumTree   PrefixSumKind = "tree"
	PrefixSumCumsum PrefixSumKind = "cumsum"
)

// SlotPolicyKind selects the Direct Method's keyed-prefix-sum slot-reuse
// policy.
type SlotPolicyKind string

const (
	SlotPolicyKeep   SlotPolicyKind = "keep"
	SlotPolicyRemove SlotPolicyKind = "remove"
)

// BuilderSpec is the declarative description of a sampling stack:
// nested yaml-tagged structs, one level per concern (method choice,
// storage choice, variance-reduction flags, hierarchy).
// KeyPattern is meaningful only inside a Groups entry: it is a regular
// expression matched against fmt.Sprint(key) to derive a
// multi.Classifier when the caller has no hand-written one. LikelihoodCount
// selects between a single-distribution TrajectoryWatcher (0 or 1, the
// default) and an N-hypothesis PathLikelihoods accumulator (N>1) when
// PathLikelihood is set.
type BuilderSpec struct {
	Method          MethodKind     `yaml:"method"`
	PrefixSum       PrefixSumKind  `yaml:"prefix_sum"`
	SlotPolicy      SlotPolicyKind `yaml:"slot_policy"`
	PathLikelihood  bool           `yaml:"path_likelihood"`
	LikelihoodCount int            `yaml:"likelihood_count"`
	CommonRandom    bool           `yaml:"common_random"`
	KeyPattern      string         `yaml:"key_pattern"`
	Groups          []BuilderSpec  `yaml:"groups"`
}

// DefaultBuilderSpec returns a single-engine CombinedNextReaction
// configuration: the general-purpose choice when nothing more specific
// is known about the clock set.
func DefaultBuilderSpec() BuilderSpec {
	return BuilderSpec{
		Method:     MethodNextReaction,
		PrefixSum:  PrefixSumTree,
		SlotPolicy: SlotPolicyRemove,
	}
}

// LoadBuilderSpec decodes a BuilderSpec from YAML.
func LoadBuilderSpec(r io.Reader) (BuilderSpec, error) {
	spec := DefaultBuilderSpec()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&spec); err != nil && err != io.EOF {
		return BuilderSpec{}, fmt.Errorf("gsmpctx: decoding builder spec: %w", err)
	}
	return spec, nil
}

func newPrefixSum(kind PrefixSumKind) func() prefixsum.PrefixSum {
	if kind == PrefixSumCumsum {
		return func() prefixsum.PrefixSum { return prefixsum.NewCumsum() }
	}
	return func() prefixsum.PrefixSum { return prefixsum.NewTree() }
}

func slotPolicy(kind SlotPolicyKind) keyedprefixsum.Policy {
	if kind == SlotPolicyKeep {
		return keyedprefixsum.Keep
	}
	return keyedprefixsum.Remove
}

// Build assembles a gsmp.Sampler[K] from spec. A MethodMulti spec routes
// keys to Groups[i] using classify if it is non-nil, or else a classifier
// derived from each group's KeyPattern;
// it is an error for a group to have neither a pattern nor a supplied
// classifier. classify is ignored (may be nil) for every other method.
func Build[K gsmp.Key](spec BuilderSpec, classify multi.Classifier[K]) (gsmp.Sampler[K], error) {
	var (
		s   gsmp.Sampler[K]
		err error
	)
	switch spec.Method {
	case MethodFirstToFire:
		s = firsttofire.New[K]()
	case MethodFirstReaction:
		s = firstreaction.New[K]()
	case MethodNextReaction:
		s = nextreaction.New[K]()
	case MethodDirect:
		s = direct.New[K](slotPolicy(spec.SlotPolicy), newPrefixSum(spec.PrefixSum))
	case MethodMulti:
		children := make([]gsmp.Sampler[K], len(spec.Groups))
		for i, group := range spec.Groups {
			children[i], err = Build[K](group, nil)
			if err != nil {
				return nil, fmt.Errorf("gsmpctx: building group %d: %w", i, err)
			}
		}
		if classify == nil {
			classify, err = patternClassifier[K](spec.Groups)
			if err != nil {
				return nil, err
			}
		}
		s = multi.New[K](classify, children)
	default:
		return nil, fmt.Errorf("gsmpctx: unknown method %q", spec.Method)
	}
	if spec.CommonRandom {
		s = crn.Wrap[K](s)
	}
	return s, nil
}

// BuildContext builds a sampler via Build and wraps it in a
// SamplingContext, additionally honoring spec.PathLikelihood and
// spec.LikelihoodCount:
// PathLikelihood with LikelihoodCount<=1 attaches a single-distribution
// TrajectoryWatcher (WithWatcher); PathLikelihood with LikelihoodCount>1
// attaches an N-hypothesis PathLikelihoods accumulator
// (WithPathLikelihoods). Additional opts are
// applied after the spec-derived ones, so a caller can still attach
// WithMetrics/WithLogger (or override the likelihood option) explicitly.
func BuildContext[K gsmp.Key](spec BuilderSpec, classify multi.Classifier[K], rng gsmp.RNG, opts ...Option[K]) (*SamplingContext[K], error) {
	s, err := Build[K](spec, classify)
	if err != nil {
		return nil, err
	}
	var specOpts []Option[K]
	if spec.PathLikelihood {
		if spec.LikelihoodCount > 1 {
			specOpts = append(specOpts, WithPathLikelihoods[K](spec.LikelihoodCount))
		} else {
			specOpts = append(specOpts, WithWatcher[K]())
		}
	}
	return New[K](s, rng, append(specOpts, opts...)...), nil
}

// patternClassifier derives a multi.Classifier from each group's
// KeyPattern: key is matched (via fmt.Sprint) against every pattern in
// order, and the first match wins. A key matching no pattern falls back to
// the last group, the documented catch-all slot. Returns an error if any
// group has no KeyPattern, since there is then no way to derive a
// classifier declaratively and the caller must supply one to Build.
func patternClassifier[K gsmp.Key](groups []BuilderSpec) (multi.Classifier[K], error) {
	patterns := make([]*regexp.Regexp, len(groups))
	for i, g := range groups {
		if g.KeyPattern == "" {
			return nil, fmt.Errorf("gsmpctx: multi method requires either a classifier or a key_pattern on every group (group %d has neither)", i)
		}
		re, err := regexp.Compile(g.KeyPattern)
		if err != nil {
			return nil, fmt.Errorf("gsmpctx: group %d key_pattern %q: %w", i, g.KeyPattern, err)
		}
		patterns[i] = re
	}
	return func(key K) int {
		s := fmt.Sprint(key)
		for i, re := range patterns {
			if re.MatchString(s) {
				return i
			}
		}
		return len(patterns) - 1
	}, nil
}
