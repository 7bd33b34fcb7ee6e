package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curelog/curelog/internal/industry"
	"github.com/curelog/curelog/internal/procspec"
	"github.com/curelog/curelog/internal/testutil"
)

func haccpSpec(t *testing.T) *procspec.Specification {
	t.Helper()
	spec, err := procspec.Validate([]byte(`{}`), industry.HACCP)
	require.NoError(t, err)
	return spec
}

// coolingProfile builds a piecewise-linear °C profile: hold at peak, then
// two linear cooling segments whose crossing times are exactly computable.
func coolingProfile(peakC, midC, endC float64, holdTicks, seg1Ticks, seg2Ticks int) []float64 {
	return testutil.Concat(
		testutil.Constant(peakC, holdTicks),
		testutil.Ramp(peakC, midC, seg1Ticks),
		testutil.Ramp(midC, endC, seg2Ticks),
	)
}

func TestHACCP_Pass(t *testing.T) {
	// 60 °C peak, linear to 21.111 °C (70 °F) over 1h23m, then linear to
	// 5 °C (41 °F) over 3h12m, 60 s cadence.
	spec := haccpSpec(t)
	col := coolingProfile(60, spec.MidTempC, spec.EndTempC, 10, 84, 193)
	series := testutil.Series(time.Minute, map[string][]float64{"temperature": col})

	m, err := Compute(series, spec)
	require.NoError(t, err)
	c := m.Cooling
	require.NotNil(t, c)
	assert.Equal(t, 60.0, c.PeakTempC)
	assert.True(t, c.ReachedMid)
	assert.True(t, c.ReachedEnd)
	// Phase 1 runs from the 57.22 °C (135 °F) crossing to the 21.11 °C
	// crossing; the start crossing sits inside the first ramp segment.
	require.NotNil(t, c.StartCrossing)
	assert.Less(t, c.Phase1Seconds, spec.Phase1LimitS)
	assert.Less(t, c.Phase2Seconds, spec.Phase2LimitS)
}

func TestHACCP_InterpolationExactness(t *testing.T) {
	// Linear 100→0 °C over 100 minutes: the 57.222 °C crossing is at
	// exactly (100−57.222) minutes from the ramp start.
	spec := haccpSpec(t)
	col := testutil.Ramp(100, 0, 101)
	series := testutil.Series(time.Minute, map[string][]float64{"temperature": col})

	m, err := Compute(series, spec)
	require.NoError(t, err)
	c := m.Cooling
	require.NotNil(t, c.StartCrossing)
	wantStart := testutil.T0.Add(time.Duration((100 - spec.StartTempC) * float64(time.Minute)))
	assert.WithinDuration(t, wantStart, *c.StartCrossing, time.Millisecond)

	wantMid := testutil.T0.Add(time.Duration((100 - spec.MidTempC) * float64(time.Minute)))
	assert.WithinDuration(t, wantMid, *c.MidCrossing, time.Millisecond)
	assert.InDelta(t, (spec.StartTempC-spec.MidTempC)*60, c.Phase1Seconds, 0.01)
}

func TestHACCP_NeverReachesEnd(t *testing.T) {
	spec := haccpSpec(t)
	col := coolingProfile(60, spec.MidTempC, 10, 10, 84, 100) // stops at 10 °C > 5 °C
	series := testutil.Series(time.Minute, map[string][]float64{"temperature": col})

	m, err := Compute(series, spec)
	require.NoError(t, err)
	assert.True(t, m.Cooling.ReachedMid)
	assert.False(t, m.Cooling.ReachedEnd)
}

func TestHACCP_PeakBelowStart(t *testing.T) {
	// Peak below 57.22 °C: phase 1 is measured from the peak itself.
	spec := haccpSpec(t)
	col := testutil.Concat(testutil.Constant(50, 5), testutil.Ramp(50, 3, 200))
	series := testutil.Series(time.Minute, map[string][]float64{"temperature": col})

	m, err := Compute(series, spec)
	require.NoError(t, err)
	assert.True(t, m.Cooling.PeakBelowStart)
	assert.True(t, m.Cooling.ReachedEnd)
	assert.Nil(t, m.Cooling.StartCrossing)
}

func TestHACCP_ShadowAgrees(t *testing.T) {
	spec := haccpSpec(t)
	col := coolingProfile(60, spec.MidTempC, spec.EndTempC, 10, 84, 193)
	series := testutil.Series(time.Minute, map[string][]float64{"temperature": col})

	primary, err := Compute(series, spec)
	require.NoError(t, err)
	shadow, err := ComputeShadow(series, spec)
	require.NoError(t, err)

	assert.InDelta(t, primary.Cooling.Phase1Seconds, shadow.Cooling.Phase1Seconds, 0.001)
	assert.InDelta(t, primary.Cooling.Phase2Seconds, shadow.Cooling.Phase2Seconds, 0.001)
}
