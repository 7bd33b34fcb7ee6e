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

func coldchainSpec(t *testing.T, extra string) *procspec.Specification {
	t.Helper()
	doc := `{"band_min_c": 2, "band_max_c": 8, "min_compliance_pct": 95` + extra + `}`
	spec, err := procspec.Validate([]byte(doc), industry.ColdChain)
	require.NoError(t, err)
	return spec
}

func TestColdChain_FullCompliance(t *testing.T) {
	series := testutil.Series(5*time.Minute, map[string][]float64{
		"sensor_1": testutil.Constant(5, 2016), // 7 days at 5 min cadence
	})
	m, err := Compute(series, coldchainSpec(t, ""))
	require.NoError(t, err)
	c := m.ColdChain
	assert.Equal(t, 100.0, c.CompliancePct)
	assert.Empty(t, c.Excursions)
}

func TestColdChain_SingleExcursion(t *testing.T) {
	// 7-day series, one 150-minute excursion to 20 °C (30 ticks at 5 min).
	col := testutil.Constant(5, 2016)
	for i := 500; i < 530; i++ {
		col[i] = 20
	}
	series := testutil.Series(5*time.Minute, map[string][]float64{"sensor_1": col})

	m, err := Compute(series, coldchainSpec(t, ""))
	require.NoError(t, err)
	c := m.ColdChain
	require.Len(t, c.Excursions, 1)
	e := c.Excursions[0]
	assert.Equal(t, testutil.T0.Add(500*5*time.Minute), e.StartAt)
	assert.InDelta(t, 150*60.0, e.DurationS, 1e-9)
	assert.InDelta(t, 12.0, e.PeakDeviationC, 1e-9) // 20 − band max 8
	assert.InDelta(t, 100*float64(2016-30)/2016, c.CompliancePct, 1e-9)
}

func TestColdChain_NoiseFiltered(t *testing.T) {
	// A single out-of-band tick at 60 s cadence lasts 60 s, below the
	// default 300 s excursion filter.
	col := testutil.Constant(5, 1000)
	col[500] = 9
	series := testutil.Series(time.Minute, map[string][]float64{"sensor_1": col})

	m, err := Compute(series, coldchainSpec(t, ""))
	require.NoError(t, err)
	c := m.ColdChain
	assert.Empty(t, c.Excursions)
	// The noisy tick still counts against compliance.
	assert.Less(t, c.CompliancePct, 100.0)
}

func TestColdChain_BoundaryInclusive(t *testing.T) {
	col := testutil.Concat(testutil.Constant(2, 500), testutil.Constant(8, 500))
	series := testutil.Series(time.Minute, map[string][]float64{"sensor_1": col})
	m, err := Compute(series, coldchainSpec(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 100.0, m.ColdChain.CompliancePct)
}

func TestColdChain_MultiSensorWorstCase(t *testing.T) {
	// Two sensors: a tick is compliant only when both are in-band.
	s1 := testutil.Constant(5, 1000)
	s2 := testutil.Constant(5, 1000)
	for i := 100; i < 200; i++ {
		s2[i] = 0.5 // below band on sensor 2 only
	}
	series := testutil.Series(time.Minute, map[string][]float64{"sensor_1": s1, "sensor_2": s2})

	m, err := Compute(series, coldchainSpec(t, `, "sensor_count": 2`))
	require.NoError(t, err)
	c := m.ColdChain
	assert.Equal(t, 900, c.InBandTicks)
	require.Len(t, c.Excursions, 1)
	assert.InDelta(t, -1.5, c.Excursions[0].PeakDeviationC, 1e-9)
}

func TestColdChain_ShadowAgrees(t *testing.T) {
	col := testutil.Constant(5, 2016)
	for i := 500; i < 530; i++ {
		col[i] = 20
	}
	series := testutil.Series(5*time.Minute, map[string][]float64{"sensor_1": col})
	spec := coldchainSpec(t, "")

	primary, err := Compute(series, spec)
	require.NoError(t, err)
	shadow, err := ComputeShadow(series, spec)
	require.NoError(t, err)

	assert.InDelta(t, primary.ColdChain.CompliancePct, shadow.ColdChain.CompliancePct, 1e-9)
	assert.Equal(t, len(primary.ColdChain.Excursions), len(shadow.ColdChain.Excursions))
}

func TestConcrete_Window(t *testing.T) {
	spec, err := procspec.Validate([]byte(`{
		"temp_min_c": 10, "temp_max_c": 32,
		"humidity_min_pct": 80, "humidity_max_pct": 100,
		"min_window_pct": 90, "window_s": 3600
	}`), industry.Concrete)
	require.NoError(t, err)

	// 2 h series at 1 min cadence; inside the first hour, 6 ticks have low
	// humidity. Window covers ticks 0..60 inclusive (61 ticks).
	temps := testutil.Constant(20, 121)
	humidity := testutil.Constant(90, 121)
	for i := 10; i < 16; i++ {
		humidity[i] = 60
	}
	series := testutil.Series(time.Minute, map[string][]float64{
		"temperature": temps, "humidity": humidity,
	})

	m, err := Compute(series, spec)
	require.NoError(t, err)
	c := m.Curing
	assert.Equal(t, 61, c.WindowTicks)
	assert.Equal(t, 55, c.CompliantTicks)
	assert.InDelta(t, 100*55.0/61.0, c.WindowPct, 1e-9)

	shadow, err := ComputeShadow(series, spec)
	require.NoError(t, err)
	assert.InDelta(t, c.WindowPct, shadow.Curing.WindowPct, 1e-9)
}
