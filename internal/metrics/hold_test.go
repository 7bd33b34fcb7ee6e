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

func powderSpec(t *testing.T, uncertainty float64) *procspec.Specification {
	t.Helper()
	spec, err := procspec.Validate([]byte(`{
		"target_temp_c": 180, "hold_time_s": 600,
		"sensor_uncertainty_c": 0, "hysteresis_c": 2,
		"hold_mode": "continuous"
	}`), industry.Powder)
	require.NoError(t, err)
	spec.SensorUncertaintyC = uncertainty
	return spec
}

func TestPowder_ContinuousHold(t *testing.T) {
	// 182 °C held for 721 s at 1 s cadence (722 ticks): threshold 182
	// (target 180 + uncertainty 2), boundary inclusive.
	series := testutil.Series(time.Second, map[string][]float64{
		"temperature": testutil.Constant(182, 722),
	})
	m, err := Compute(series, powderSpec(t, 2))
	require.NoError(t, err)
	require.NotNil(t, m.Hold)
	assert.Equal(t, 182.0, m.Hold.ThresholdC)
	assert.InDelta(t, 721.0, m.Hold.HoldSeconds, 1e-9)
	assert.Equal(t, 1, m.Hold.IntervalCount)
}

func TestPowder_ThresholdNeverReached(t *testing.T) {
	// Same series, uncertainty 5: conservative threshold 185 is never hit.
	series := testutil.Series(time.Second, map[string][]float64{
		"temperature": testutil.Constant(182, 722),
	})
	m, err := Compute(series, powderSpec(t, 5))
	require.NoError(t, err)
	assert.Equal(t, 185.0, m.Hold.ThresholdC)
	assert.Equal(t, 0.0, m.Hold.HoldSeconds)
	assert.Equal(t, 0, m.Hold.IntervalCount)
	assert.Equal(t, 182.0, m.Hold.PeakTempC)
}

func TestPowder_HysteresisDoesNotFragment(t *testing.T) {
	// A single dip to 180.5 (below threshold 182 but above exit 180)
	// inside a continuous hold must not split the interval.
	col := testutil.Constant(183, 400)
	col[200] = 180.5
	series := testutil.Series(time.Second, map[string][]float64{"temperature": col})

	m, err := Compute(series, powderSpec(t, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Hold.IntervalCount)
	assert.InDelta(t, 399.0, m.Hold.LongestSeconds, 1e-9)
}

func TestPowder_DipBelowHysteresisFragments(t *testing.T) {
	// A dip below exit (180) ends the interval.
	col := testutil.Constant(183, 400)
	col[200] = 179
	series := testutil.Series(time.Second, map[string][]float64{"temperature": col})

	m, err := Compute(series, powderSpec(t, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Hold.IntervalCount)
	assert.InDelta(t, 199.0, m.Hold.LongestSeconds, 1e-9)
	assert.InDelta(t, 397.0, m.Hold.CumulativeSeconds, 1e-9)
}

func TestPowder_CumulativeMode(t *testing.T) {
	spec := powderSpec(t, 2)
	spec.HoldMode = "cumulative"

	col := testutil.Concat(
		testutil.Constant(183, 300),
		testutil.Constant(150, 100),
		testutil.Constant(183, 300),
	)
	series := testutil.Series(time.Second, map[string][]float64{"temperature": col})

	m, err := Compute(series, spec)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Hold.IntervalCount)
	assert.InDelta(t, 598.0, m.Hold.CumulativeSeconds, 1e-9)
	assert.Equal(t, m.Hold.CumulativeSeconds, m.Hold.HoldSeconds)
}

func TestMaxRampRate(t *testing.T) {
	// 2 °C per 10 s tick = 12 °C/min on the centered difference.
	series := testutil.Series(10*time.Second, map[string][]float64{
		"temperature": testutil.Ramp(20, 40, 11),
	})
	m, err := Compute(series, powderSpec(t, 2))
	require.NoError(t, err)
	assert.InDelta(t, 12.0, m.Hold.MaxRampCPerMin, 1e-9)
}

func TestSterile_NoHysteresis(t *testing.T) {
	spec, err := procspec.Validate([]byte(`{
		"min_temp_c": 160, "hold_time_s": 300, "sensor_uncertainty_c": 2
	}`), industry.Sterile)
	require.NoError(t, err)

	// A dip 1 °C below threshold must fragment the hold (no dead-band).
	col := testutil.Constant(163, 400)
	col[200] = 161
	series := testutil.Series(time.Second, map[string][]float64{"temperature": col})

	m, err := Compute(series, spec)
	require.NoError(t, err)
	assert.Equal(t, 162.0, m.Hold.ThresholdC)
	assert.Equal(t, 2, m.Hold.IntervalCount)
}

func TestShadowHold_AgreesWithPrimary(t *testing.T) {
	col := testutil.Concat(
		testutil.Ramp(20, 185, 100),
		testutil.Constant(185, 700),
		testutil.Ramp(185, 20, 100),
	)
	col[400] = 181 // hysteresis dip
	series := testutil.Series(time.Second, map[string][]float64{"temperature": col})
	spec := powderSpec(t, 2)

	primary, err := Compute(series, spec)
	require.NoError(t, err)
	shadow, err := ComputeShadow(series, spec)
	require.NoError(t, err)

	assert.Equal(t, primary.Hold.IntervalCount, shadow.Hold.IntervalCount)
	assert.InDelta(t, primary.Hold.HoldSeconds, shadow.Hold.HoldSeconds, 1e-9)
	assert.InDelta(t, primary.Hold.CumulativeSeconds, shadow.Hold.CumulativeSeconds, 1e-9)
}
