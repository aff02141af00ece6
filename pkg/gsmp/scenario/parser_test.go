package scenario_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp/dist"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/gsmpctx"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/rng"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/sampler/firsttofire"
	"github.com/jihwankim/gsmpsampler/pkg/gsmp/scenario"
)

const validPlan = `
apiVersion: gsmp/v1
kind: ClockPlan
metadata:
  name: demo
spec:
  clocks:
    - key: a
      distribution: exponential
      params:
        lambda: 2.0
    - key: b
      distribution: weibull
      params:
        k: 1.5
        lambda: 3.0
      te: 1.0
`

func TestParseValidPlan(t *testing.T) {
	plan, err := scenario.Parse(strings.NewReader(validPlan))
	require.NoError(t, err)
	require.Equal(t, "demo", plan.Metadata.Name)
	require.Len(t, plan.Spec.Clocks, 2)
}

func TestParseRejectsUnknownDistribution(t *testing.T) {
	doc := `
apiVersion: gsmp/v1
kind: ClockPlan
metadata:
  name: bad
spec:
  clocks:
    - key: a
      distribution: lognormal
`
	_, err := scenario.Parse(strings.NewReader(doc))
	require.Error(t, err)
}

func TestParseRejectsDuplicateKeys(t *testing.T) {
	doc := `
apiVersion: gsmp/v1
kind: ClockPlan
metadata:
  name: dup
spec:
  clocks:
    - key: a
      distribution: exponential
      params: {lambda: 1}
    - key: a
      distribution: exponential
      params: {lambda: 2}
`
	_, err := scenario.Parse(strings.NewReader(doc))
	require.Error(t, err)
}

func TestClockSpecBuildMissingParamErrors(t *testing.T) {
	plan, err := scenario.Parse(strings.NewReader(validPlan))
	require.NoError(t, err)
	bad := plan.Spec.Clocks[0]
	bad.Params = map[string]float64{}
	_, err = bad.Build()
	require.Error(t, err)
}

func TestEnableInstallsEveryClockOntoContext(t *testing.T) {
	plan, err := scenario.Parse(strings.NewReader(validPlan))
	require.NoError(t, err)

	ctx := gsmpctx.New[string](firsttofire.New[string](), rng.New(1))
	err = scenario.Enable[string](plan, ctx, func(s string) string { return s })
	require.NoError(t, err)
	require.Equal(t, 2, ctx.Sampler().Len())
}

func TestClockSpecWithOnlyTeParsesAndBuilds(t *testing.T) {
	doc := `
apiVersion: gsmp/v1
kind: ClockPlan
metadata:
  name: truncated
spec:
  clocks:
    - key: a
      distribution: exponential
      params: {lambda: 1}
      te: 5.0
`
	plan, err := scenario.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	c := plan.Spec.Clocks[0]
	d, err := c.Build()
	require.NoError(t, err)
	require.IsType(t, dist.Exponential{}, d)
}
