package metrics

import (
	"time"

	"github.com/curelog/curelog/internal/industry"
	"github.com/curelog/curelog/internal/procspec"
	"github.com/curelog/curelog/internal/timeseries"
)

// computeConcrete reports the percentage of the fixed initial window
// (first window_s of the series) where temperature and humidity are
// simultaneously within their bands, boundaries inclusive.
func computeConcrete(series *timeseries.NormalizedSeries, spec *procspec.Specification) (*MetricResult, error) {
	temps := series.Signal("temperature")
	humidity := series.Signal("humidity")
	if temps == nil || humidity == nil {
		return nil, &ComputationError{Calculator: "concrete",
			Detail: "temperature or humidity column missing after normalization"}
	}

	window := time.Duration(spec.WindowS * float64(time.Second))
	cutoff := series.Times[0].Add(window)

	m := &CuringMetrics{}
	for i, at := range series.Times {
		if at.After(cutoff) {
			break
		}
		m.WindowTicks++
		tempOK := temps[i] >= spec.TempMinC && temps[i] <= spec.TempMaxC
		rhOK := humidity[i] >= spec.HumidityMinPct && humidity[i] <= spec.HumidityMaxPct
		if tempOK && rhOK {
			m.CompliantTicks++
		}
	}
	if m.WindowTicks > 0 {
		m.WindowPct = float64(m.CompliantTicks) / float64(m.WindowTicks) * 100
	}
	return &MetricResult{Industry: industry.Concrete, Curing: m}, nil
}
