package verdict

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curelog/curelog/internal/config"
	"github.com/curelog/curelog/internal/industry"
	"github.com/curelog/curelog/internal/metrics"
	"github.com/curelog/curelog/internal/procspec"
	"github.com/curelog/curelog/internal/testutil"
)

func powderSpec(t *testing.T, uncertainty float64) *procspec.Specification {
	t.Helper()
	doc := fmt.Sprintf(`{
		"target_temp_c": 180, "hold_time_s": 600,
		"sensor_uncertainty_c": %g, "hysteresis_c": 1, "hold_mode": "continuous"
	}`, uncertainty)
	spec, err := procspec.Validate([]byte(doc), industry.Powder)
	require.NoError(t, err)
	return spec
}

func powderDecision(t *testing.T, uncertainty float64) Decision {
	t.Helper()
	spec := powderSpec(t, uncertainty)
	series := testutil.Series(time.Second, map[string][]float64{
		"temperature": testutil.Constant(182, 722),
	})
	m, err := metrics.Compute(series, spec)
	require.NoError(t, err)
	return Decide(m, nil, spec, config.DefaultPipelineConfig())
}

func TestDecide_PowderHoldPasses(t *testing.T) {
	d := powderDecision(t, 2)
	assert.Equal(t, Pass, d.Outcome)
	assert.Equal(t, []string{ReasonAllRequirementsMet}, d.Reasons)
	require.NotNil(t, d.Metrics)
	assert.InDelta(t, 721.0, d.Metrics.Hold.HoldSeconds, 1e-9)
}

func TestDecide_PowderUncertaintyRaisesThreshold(t *testing.T) {
	// Same data, wider uncertainty: the conservative threshold moves to
	// 185 °C and the 182 °C hold no longer counts.
	d := powderDecision(t, 5)
	assert.Equal(t, Fail, d.Outcome)
	assert.Equal(t, []string{ReasonThresholdNeverReached, ReasonHoldTimeShort}, d.Reasons)
}

func TestDecide_HoldBoundaryExactPasses(t *testing.T) {
	spec := powderSpec(t, 2)
	m := &metrics.MetricResult{Industry: industry.Powder, Hold: &metrics.HoldMetrics{
		ThresholdC:  182,
		HoldSeconds: 600, // exactly the requirement
		PeakTempC:   190,
	}}
	d := Decide(m, nil, spec, config.DefaultPipelineConfig())
	assert.Equal(t, Pass, d.Outcome)
}

func TestDecide_ReasonsAreAdditive(t *testing.T) {
	spec := powderSpec(t, 2)
	spec.MaxRampCPerMin = 5
	m := &metrics.MetricResult{Industry: industry.Powder, Hold: &metrics.HoldMetrics{
		ThresholdC:     182,
		HoldSeconds:    300,
		PeakTempC:      190,
		MaxRampCPerMin: 9,
	}}
	d := Decide(m, nil, spec, config.DefaultPipelineConfig())
	assert.Equal(t, Fail, d.Outcome)
	assert.Equal(t, []string{ReasonHoldTimeShort, ReasonRampRateExceeded}, d.Reasons)
}

// Raising the sensor uncertainty must never move an outcome toward PASS.
func TestDecide_UncertaintyMonotonic(t *testing.T) {
	rank := map[Outcome]int{Fail: 0, Indeterminate: 1, Pass: 2}
	prev := rank[Pass]
	for _, u := range []float64{0, 1, 2, 3, 5, 8} {
		d := powderDecision(t, u)
		r, ok := rank[d.Outcome]
		require.True(t, ok, "unexpected outcome %s", d.Outcome)
		assert.LessOrEqual(t, r, prev, "uncertainty %g improved the outcome", u)
		prev = r
	}
}

func TestDecide_AutoclaveUncertaintyBand(t *testing.T) {
	spec, err := procspec.Validate([]byte(`{
		"min_fo_minutes": 15, "z_value_c": 10,
		"min_pressure_kpa": 200, "max_pressure_kpa": 300,
		"sensor_uncertainty_c": 1
	}`), industry.Autoclave)
	require.NoError(t, err)

	m := &metrics.MetricResult{Industry: industry.Autoclave, Fo: &metrics.FoMetrics{
		FoMinutes:      15.5, // above the minimum, inside the 10^(−u/Z) band
		PressureInBand: true,
	}}
	d := Decide(m, nil, spec, config.DefaultPipelineConfig())
	assert.Equal(t, Indeterminate, d.Outcome)
	assert.Equal(t, []string{ReasonWithinUncertaintyBand}, d.Reasons)

	// Comfortably above the band: clean PASS.
	m.Fo.FoMinutes = 25
	d = Decide(m, nil, spec, config.DefaultPipelineConfig())
	assert.Equal(t, Pass, d.Outcome)
}

func TestDecide_ColdChainExcursionFails(t *testing.T) {
	spec, err := procspec.Validate([]byte(`{
		"band_min_c": 2, "band_max_c": 8, "min_compliance_pct": 95,
		"sensor_uncertainty_c": 0.5
	}`), industry.ColdChain)
	require.NoError(t, err)

	m := &metrics.MetricResult{Industry: industry.ColdChain, ColdChain: &metrics.ColdChainMetrics{
		CompliancePct: 98.5,
		Excursions: []metrics.Excursion{
			{StartAt: testutil.T0, DurationS: 9000, PeakDeviationC: 12},
		},
	}}
	d := Decide(m, nil, spec, config.DefaultPipelineConfig())
	assert.Equal(t, Fail, d.Outcome)
	assert.Equal(t, []string{ReasonExcursionDetected}, d.Reasons)
}

func TestDecide_ColdChainExcursionInsideUncertainty(t *testing.T) {
	spec, err := procspec.Validate([]byte(`{
		"band_min_c": 2, "band_max_c": 8, "min_compliance_pct": 95,
		"sensor_uncertainty_c": 0.5
	}`), industry.ColdChain)
	require.NoError(t, err)

	// Every excursion peak is inside the probe's uncertainty: the data
	// cannot distinguish an excursion from sensor noise.
	m := &metrics.MetricResult{Industry: industry.ColdChain, ColdChain: &metrics.ColdChainMetrics{
		CompliancePct: 98.5,
		Excursions: []metrics.Excursion{
			{StartAt: testutil.T0, DurationS: 600, PeakDeviationC: 0.3},
		},
	}}
	d := Decide(m, nil, spec, config.DefaultPipelineConfig())
	assert.Equal(t, Indeterminate, d.Outcome)
	assert.Equal(t, []string{ReasonExcursionDetected, ReasonWithinUncertaintyBand}, d.Reasons)
}

func TestDecide_HACCPNeverCooled(t *testing.T) {
	spec, err := procspec.Validate([]byte(`{}`), industry.HACCP)
	require.NoError(t, err)

	m := &metrics.MetricResult{Industry: industry.HACCP, Cooling: &metrics.CoolingMetrics{
		ReachedMid: true,
		ReachedEnd: false,
	}}
	d := Decide(m, nil, spec, config.DefaultPipelineConfig())
	assert.Equal(t, Fail, d.Outcome)
	assert.Contains(t, d.Reasons, ReasonNeverCooledToEnd)
}

func TestDecide_CuringBelowMinimum(t *testing.T) {
	spec, err := procspec.Validate([]byte(`{
		"temp_min_c": 10, "temp_max_c": 32,
		"humidity_min_pct": 80, "humidity_max_pct": 100,
		"min_window_pct": 90
	}`), industry.Concrete)
	require.NoError(t, err)

	m := &metrics.MetricResult{Industry: industry.Concrete, Curing: &metrics.CuringMetrics{WindowPct: 85}}
	d := Decide(m, nil, spec, config.DefaultPipelineConfig())
	assert.Equal(t, Fail, d.Outcome)
	assert.Equal(t, []string{ReasonWindowComplianceLow}, d.Reasons)
}

func TestDecide_ShadowDisagreementForcesIndeterminate(t *testing.T) {
	spec := powderSpec(t, 2)
	primary := &metrics.MetricResult{Industry: industry.Powder, Hold: &metrics.HoldMetrics{
		ThresholdC: 182, HoldSeconds: 700, PeakTempC: 190, IntervalCount: 1,
	}}
	shadow := &metrics.MetricResult{Industry: industry.Powder, Hold: &metrics.HoldMetrics{
		ThresholdC: 182, HoldSeconds: 520, PeakTempC: 190, IntervalCount: 2,
	}}
	d := Decide(primary, shadow, spec, config.DefaultPipelineConfig())
	assert.Equal(t, Indeterminate, d.Outcome)
	// The primary verdict's reasons stay visible under the disagreement.
	assert.Equal(t, []string{ReasonAllRequirementsMet, ReasonShadowDisagreement}, d.Reasons)
}

func TestDecide_ShadowWithinToleranceKeepsOutcome(t *testing.T) {
	spec := powderSpec(t, 2)
	primary := &metrics.MetricResult{Industry: industry.Powder, Hold: &metrics.HoldMetrics{
		ThresholdC: 182, HoldSeconds: 700, CumulativeSeconds: 700, PeakTempC: 190, IntervalCount: 1,
	}}
	shadow := &metrics.MetricResult{Industry: industry.Powder, Hold: &metrics.HoldMetrics{
		ThresholdC: 182, HoldSeconds: 700.5, CumulativeSeconds: 700.5, PeakTempC: 190, IntervalCount: 1,
	}}
	d := Decide(primary, shadow, spec, config.DefaultPipelineConfig())
	assert.Equal(t, Pass, d.Outcome)
}

func TestDecide_SafetyModePromotesBorderlinePass(t *testing.T) {
	spec := powderSpec(t, 2)
	cfg := config.DefaultPipelineConfig()
	cfg.SafetyMode = true

	// Peak only 1 °C over the conservative threshold: inside the probe's
	// own uncertainty, so safety mode refuses to certify.
	m := &metrics.MetricResult{Industry: industry.Powder, Hold: &metrics.HoldMetrics{
		ThresholdC: 182, HoldSeconds: 700, PeakTempC: 183,
	}}
	d := Decide(m, nil, spec, cfg)
	assert.Equal(t, Indeterminate, d.Outcome)
	assert.Equal(t, []string{ReasonAllRequirementsMet, ReasonBorderlinePass}, d.Reasons)

	// Clear margin: safety mode leaves the PASS alone.
	m.Hold.PeakTempC = 195
	d = Decide(m, nil, spec, cfg)
	assert.Equal(t, Pass, d.Outcome)
}

func TestDecide_SuppressUncertaintyCheck(t *testing.T) {
	spec, err := procspec.Validate([]byte(`{
		"min_fo_minutes": 15, "z_value_c": 10,
		"min_pressure_kpa": 200, "max_pressure_kpa": 300,
		"sensor_uncertainty_c": 1, "suppress_uncertainty_check": true
	}`), industry.Autoclave)
	require.NoError(t, err)

	m := &metrics.MetricResult{Industry: industry.Autoclave, Fo: &metrics.FoMetrics{
		FoMinutes: 15.5, PressureInBand: true,
	}}
	d := Decide(m, nil, spec, config.DefaultPipelineConfig())
	assert.Equal(t, Pass, d.Outcome)
}
