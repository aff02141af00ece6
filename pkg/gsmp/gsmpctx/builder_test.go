package gsmpctx_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp/crn"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/dist"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/gsmpctx"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/rng"
)

func TestDefaultBuilderSpecBuildsNextReaction(t *testing.T) {
	s, err := gsmpctx.Build[string](gsmpctx.DefaultBuilderSpec(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Enable("a", dist.Weibull{K: 2, Lambda: 1}, 0, 0, rng.New(1)))
}

func TestBuildDirectRejectsNonExponential(t *testing.T) {
	spec := gsmpctx.BuilderSpec{Method: gsmpctx.MethodDirect, PrefixSum: gsmpctx.PrefixSumTree, SlotPolicy: gsmpctx.SlotPolicyRemove}
	s, err := gsmpctx.Build[string](spec, nil)
	require.NoError(t, err)
	err = s.Enable("a", dist.Weibull{K: 2, Lambda: 1}, 0, 0, rng.New(2))
	require.Error(t, err)
}

func TestBuildMultiRequiresClassifier(t *testing.T) {
	spec := gsmpctx.BuilderSpec{
		Method: gsmpctx.MethodMulti,
		Groups: []gsmpctx.BuilderSpec{gsmpctx.DefaultBuilderSpec(), gsmpctx.DefaultBuilderSpec()},
	}
	_, err := gsmpctx.Build[string](spec, nil)
	require.Error(t, err)
}

func TestBuildMultiWithClassifierDispatches(t *testing.T) {
	spec := gsmpctx.BuilderSpec{
		Method: gsmpctx.MethodMulti,
		Groups: []gsmpctx.BuilderSpec{
			{Method: gsmpctx.MethodDirect, PrefixSum: gsmpctx.PrefixSumTree, SlotPolicy: gsmpctx.SlotPolicyRemove},
			{Method: gsmpctx.MethodFirstToFire},
		},
	}
	classify := func(key string) int {
		if strings.HasPrefix(key, "d") {
			return 0
		}
		return 1
	}
	s, err := gsmpctx.Build[string](spec, classify)
	require.NoError(t, err)
	require.NoError(t, s.Enable("dclock", dist.Exponential{Lambda: 1}, 0, 0, rng.New(3)))
	require.NoError(t, s.Enable("wclock", dist.Weibull{K: 2, Lambda: 1}, 0, 0, rng.New(3)))
	require.Equal(t, 2, s.Len())
}

func TestCommonRandomWrapsBuiltSampler(t *testing.T) {
	spec := gsmpctx.DefaultBuilderSpec()
	spec.CommonRandom = true
	s, err := gsmpctx.Build[string](spec, nil)
	require.NoError(t, err)
	_, ok := s.(*crn.Recorder[string])
	require.True(t, ok)
}

func TestLoadBuilderSpecDecodesYAML(t *testing.T) {
	yamlDoc := `
method: direct
prefix_sum: cumsum
slot_policy: keep
common_random: true
`
	spec, err := gsmpctx.LoadBuilderSpec(strings.NewReader(yamlDoc))
	require.NoError(t, err)
	require.Equal(t, gsmpctx.MethodDirect, spec.Method)
	require.Equal(t, gsmpctx.PrefixSumCumsum, spec.PrefixSum)
	require.Equal(t, gsmpctx.SlotPolicyKeep, spec.SlotPolicy)
	require.True(t, spec.CommonRandom)
}

func TestLoadBuilderSpecDecodesKeyPatternAndLikelihoodCount(t *testing.T) {
	yamlDoc := `
method: multi
path_likelihood: true
likelihood_count: 3
groups:
  - method: direct
    key_pattern: "^d"
  - method: first_to_fire
    key_pattern: "^w"
`
	spec, err := gsmpctx.LoadBuilderSpec(strings.NewReader(yamlDoc))
	require.NoError(t, err)
	require.True(t, spec.PathLikelihood)
	require.Equal(t, 3, spec.LikelihoodCount)
	require.Len(t, spec.Groups, 2)
	require.Equal(t, "^d", spec.Groups[0].KeyPattern)
	require.Equal(t, "^w", spec.Groups[1].KeyPattern)
}

func TestBuildMultiDerivesClassifierFromKeyPattern(t *testing.T) {
	spec := gsmpctx.BuilderSpec{
		Method: gsmpctx.MethodMulti,
		Groups: []gsmpctx.BuilderSpec{
			{Method: gsmpctx.MethodDirect, PrefixSum: gsmpctx.PrefixSumTree, SlotPolicy: gsmpctx.SlotPolicyRemove, KeyPattern: "^d"},
			{Method: gsmpctx.MethodFirstToFire, KeyPattern: "^w"},
		},
	}
	s, err := gsmpctx.Build[string](spec, nil)
	require.NoError(t, err)
	require.NoError(t, s.Enable("dclock", dist.Exponential{Lambda: 1}, 0, 0, rng.New(6)))
	require.NoError(t, s.Enable("wclock", dist.Weibull{K: 2, Lambda: 1}, 0, 0, rng.New(6)))
	require.Equal(t, 2, s.Len())
}

func TestBuildMultiKeyPatternFallsBackToLastGroup(t *testing.T) {
	spec := gsmpctx.BuilderSpec{
		Method: gsmpctx.MethodMulti,
		Groups: []gsmpctx.BuilderSpec{
			{Method: gsmpctx.MethodDirect, PrefixSum: gsmpctx.PrefixSumTree, SlotPolicy: gsmpctx.SlotPolicyRemove, KeyPattern: "^d"},
			{Method: gsmpctx.MethodFirstToFire, KeyPattern: "^w"},
		},
	}
	s, err := gsmpctx.Build[string](spec, nil)
	require.NoError(t, err)
	require.NoError(t, s.Enable("unmatched", dist.Weibull{K: 2, Lambda: 1}, 0, 0, rng.New(7)))
	require.Equal(t, 1, s.Len())
}

func TestBuildMultiMissingPatternAndClassifierErrors(t *testing.T) {
	spec := gsmpctx.BuilderSpec{
		Method: gsmpctx.MethodMulti,
		Groups: []gsmpctx.BuilderSpec{
			{Method: gsmpctx.MethodDirect, PrefixSum: gsmpctx.PrefixSumTree, SlotPolicy: gsmpctx.SlotPolicyRemove, KeyPattern: "^d"},
			gsmpctx.DefaultBuilderSpec(),
		},
	}
	_, err := gsmpctx.Build[string](spec, nil)
	require.Error(t, err)
}

func TestBuildContextAttachesWatcherForSingleHypothesis(t *testing.T) {
	spec := gsmpctx.DefaultBuilderSpec()
	spec.PathLikelihood = true
	ctx, err := gsmpctx.BuildContext[string](spec, nil, rng.New(8))
	require.NoError(t, err)
	require.NotNil(t, ctx.Watcher())
	require.Nil(t, ctx.PathLikelihoods())
}

func TestBuildContextAttachesPathLikelihoodsForMultipleHypotheses(t *testing.T) {
	spec := gsmpctx.DefaultBuilderSpec()
	spec.PathLikelihood = true
	spec.LikelihoodCount = 2
	ctx, err := gsmpctx.BuildContext[string](spec, nil, rng.New(9))
	require.NoError(t, err)
	require.Nil(t, ctx.Watcher())
	require.NotNil(t, ctx.PathLikelihoods())
}
