package metrics

import (
	"math"

	"github.com/curelog/curelog/internal/industry"
	"github.com/curelog/curelog/internal/procspec"
	"github.com/curelog/curelog/internal/timeseries"
)

// computeAutoclave integrates the lethality rate 10^((T−ref)/Z) over time
// with the trapezoidal rule to obtain the Fo value in equivalent minutes at
// the reference temperature. Separately, pressure must stay within the
// saturated-steam band at every tick of the hold region (T ≥ ref − 1.0).
func computeAutoclave(series *timeseries.NormalizedSeries, spec *procspec.Specification) (*MetricResult, error) {
	temps := series.Signal("temperature")
	pressure := series.Signal("pressure")
	if temps == nil || pressure == nil {
		return nil, &ComputationError{Calculator: "autoclave", Detail: "temperature or pressure column missing after normalization"}
	}

	fo := 0.0
	for i := 1; i < len(temps); i++ {
		dtMin := series.Times[i].Sub(series.Times[i-1]).Minutes()
		la := lethality(temps[i-1], spec.RefTempC, spec.ZValueC)
		lb := lethality(temps[i], spec.RefTempC, spec.ZValueC)
		fo += (la + lb) / 2 * dtMin
	}

	m := &FoMetrics{
		FoMinutes: fo,
		RefTempC:  spec.RefTempC,
		ZValueC:   spec.ZValueC,
	}
	for i, t := range temps {
		if t > m.PeakTempC {
			m.PeakTempC = t
		}
		if t >= spec.RefTempC-1.0 {
			m.HoldTicks++
			if pressure[i] < spec.MinPressureKPa || pressure[i] > spec.MaxPressureKPa {
				m.PressureViolations++
			}
		}
	}
	m.PressureInBand = m.PressureViolations == 0
	return &MetricResult{Industry: industry.Autoclave, Fo: m}, nil
}

func lethality(tempC, refC, z float64) float64 {
	return math.Pow(10, (tempC-refC)/z)
}
