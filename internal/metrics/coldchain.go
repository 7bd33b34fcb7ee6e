package metrics

import (
	"fmt"

	"github.com/curelog/curelog/internal/industry"
	"github.com/curelog/curelog/internal/procspec"
	"github.com/curelog/curelog/internal/timeseries"
)

// computeColdChain classifies every tick as in or out of the [min, max]
// band (boundary values compliant) and tracks excursion episodes. A tick is
// compliant only when every sensor is in-band; the reported peak deviation
// is the worst across sensors. Episodes shorter than min_excursion_s are
// noise, not excursions, and do not appear in the result, but their ticks
// still count against the compliance percentage.
func computeColdChain(series *timeseries.NormalizedSeries, spec *procspec.Specification) (*MetricResult, error) {
	cols := make([][]float64, 0, spec.SensorCount)
	for i := 1; i <= spec.SensorCount; i++ {
		col := series.Signal(fmt.Sprintf("sensor_%d", i))
		if col == nil {
			return nil, &ComputationError{Calculator: "coldchain",
				Detail: fmt.Sprintf("sensor_%d column missing after normalization", i)}
		}
		cols = append(cols, col)
	}

	n := series.Len()
	m := &ColdChainMetrics{TotalTicks: n}

	// deviation returns the worst signed band deviation at tick i
	// (0 when all sensors in-band).
	deviation := func(i int) float64 {
		worst := 0.0
		for _, col := range cols {
			var d float64
			switch {
			case col[i] > spec.BandMaxC:
				d = col[i] - spec.BandMaxC
			case col[i] < spec.BandMinC:
				d = col[i] - spec.BandMinC
			}
			if abs(d) > abs(worst) {
				worst = d
			}
		}
		return worst
	}

	runStart := -1
	var runPeak float64
	endRun := func(endIdx int) {
		ticks := endIdx - runStart
		duration := float64(ticks) * series.Interval.Seconds()
		if duration >= spec.MinExcursionS {
			m.Excursions = append(m.Excursions, Excursion{
				StartAt:        series.Times[runStart],
				DurationS:      duration,
				PeakDeviationC: runPeak,
			})
		}
		runStart = -1
	}

	for i := 0; i < n; i++ {
		d := deviation(i)
		if d == 0 {
			m.InBandTicks++
			if runStart >= 0 {
				endRun(i)
			}
			continue
		}
		if runStart < 0 {
			runStart = i
			runPeak = d
		} else if abs(d) > abs(runPeak) {
			runPeak = d
		}
	}
	if runStart >= 0 {
		endRun(n)
	}

	m.CompliancePct = float64(m.InBandTicks) / float64(n) * 100
	return &MetricResult{Industry: industry.ColdChain, ColdChain: m}, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
