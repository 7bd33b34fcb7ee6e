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

func autoclaveSpec(t *testing.T) *procspec.Specification {
	t.Helper()
	spec, err := procspec.Validate([]byte(`{
		"min_fo_minutes": 15, "z_value_c": 10,
		"min_pressure_kpa": 200, "max_pressure_kpa": 320
	}`), industry.Autoclave)
	require.NoError(t, err)
	return spec
}

func TestAutoclave_FoAtReference(t *testing.T) {
	// Exactly at the reference temperature the lethality rate is 1, so
	// Fo equals elapsed minutes: 20 minutes at 121.1 °C → Fo 20.
	n := 20*60 + 1 // 1 s cadence, inclusive
	series := testutil.Series(time.Second, map[string][]float64{
		"temperature": testutil.Constant(121.1, n),
		"pressure":    testutil.Constant(250, n),
	})
	m, err := Compute(series, autoclaveSpec(t))
	require.NoError(t, err)
	require.NotNil(t, m.Fo)
	assert.InDelta(t, 20.0, m.Fo.FoMinutes, 1e-6)
	assert.True(t, m.Fo.PressureInBand)
}

func TestAutoclave_FoAboveReference(t *testing.T) {
	// 10 °C above reference with Z=10 → rate 10× → Fo = 10 × minutes.
	n := 10*60 + 1
	series := testutil.Series(time.Second, map[string][]float64{
		"temperature": testutil.Constant(131.1, n),
		"pressure":    testutil.Constant(250, n),
	})
	m, err := Compute(series, autoclaveSpec(t))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, m.Fo.FoMinutes, 1e-6)
}

func TestAutoclave_PressureViolation(t *testing.T) {
	n := 20*60 + 1
	pressure := testutil.Constant(250, n)
	pressure[600] = 150 // drops out of band during the hold
	series := testutil.Series(time.Second, map[string][]float64{
		"temperature": testutil.Constant(121.1, n),
		"pressure":    pressure,
	})
	m, err := Compute(series, autoclaveSpec(t))
	require.NoError(t, err)
	assert.False(t, m.Fo.PressureInBand)
	assert.Equal(t, 1, m.Fo.PressureViolations)
}

func TestAutoclave_PressureOutsideHoldIgnored(t *testing.T) {
	// Pressure out of band while cold (ramp-up) is not a violation.
	temps := testutil.Concat(testutil.Ramp(20, 121.1, 60), testutil.Constant(121.1, 600))
	pressure := testutil.Concat(testutil.Constant(101, 59), testutil.Constant(250, 601))
	series := testutil.Series(time.Second, map[string][]float64{
		"temperature": temps, "pressure": pressure,
	})
	m, err := Compute(series, autoclaveSpec(t))
	require.NoError(t, err)
	assert.True(t, m.Fo.PressureInBand)
}

func TestAutoclave_ShadowWithinTolerance(t *testing.T) {
	temps := testutil.Concat(
		testutil.Ramp(20, 121.1, 120),
		testutil.Constant(121.1, 1200),
		testutil.Ramp(121.1, 20, 120),
	)
	pressure := testutil.Constant(250, len(temps))
	series := testutil.Series(time.Second, map[string][]float64{
		"temperature": temps, "pressure": pressure,
	})
	spec := autoclaveSpec(t)

	primary, err := Compute(series, spec)
	require.NoError(t, err)
	shadow, err := ComputeShadow(series, spec)
	require.NoError(t, err)

	// Left-Riemann vs trapezoid differ by a fraction of one edge term.
	assert.InDelta(t, primary.Fo.FoMinutes, shadow.Fo.FoMinutes, 0.05*primary.Fo.FoMinutes+0.1)
	assert.Equal(t, primary.Fo.PressureInBand, shadow.Fo.PressureInBand)
}
