package metrics

import (
	"time"

	"github.com/curelog/curelog/internal/industry"
	"github.com/curelog/curelog/internal/procspec"
	"github.com/curelog/curelog/internal/timeseries"
)

// computeHACCP identifies the two sequential cooling phase windows. Phase 1
// runs from the moment the series crosses the start threshold downward
// (measured from the actual peak, not the nominal value) to the crossing of
// the mid threshold; phase 2 continues to the end threshold. Crossing times
// are estimated by linear interpolation between the two bracketing samples
// on the decreasing segment after the peak.
func computeHACCP(series *timeseries.NormalizedSeries, spec *procspec.Specification) (*MetricResult, error) {
	temps := temperatureColumn(series, spec)

	peakIdx := 0
	for i, v := range temps {
		if v > temps[peakIdx] {
			peakIdx = i
		}
	}

	m := &CoolingMetrics{PeakTempC: temps[peakIdx], PeakAt: series.Times[peakIdx]}

	// Phase 1 starts at the downward crossing of start_temp, or at the
	// peak itself when the batch never reached start_temp.
	phase1Start := series.Times[peakIdx]
	if temps[peakIdx] >= spec.StartTempC {
		t, ok, err := crossingAfter(series.Times, temps, peakIdx, spec.StartTempC)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Never cooled below the start threshold: both phases are open-ended.
			return &MetricResult{Industry: industry.HACCP, Cooling: m}, nil
		}
		phase1Start = t
		m.StartCrossing = &t
	} else {
		m.PeakBelowStart = true
	}

	midT, ok, err := crossingAfter(series.Times, temps, peakIdx, spec.MidTempC)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &MetricResult{Industry: industry.HACCP, Cooling: m}, nil
	}
	m.ReachedMid = true
	m.MidCrossing = &midT
	m.Phase1Seconds = midT.Sub(phase1Start).Seconds()

	endT, ok, err := crossingAfter(series.Times, temps, peakIdx, spec.EndTempC)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &MetricResult{Industry: industry.HACCP, Cooling: m}, nil
	}
	m.ReachedEnd = true
	m.EndCrossing = &endT
	m.Phase2Seconds = endT.Sub(midT).Seconds()

	return &MetricResult{Industry: industry.HACCP, Cooling: m}, nil
}

// crossingAfter finds the first downward crossing of threshold at or after
// index from, interpolating linearly inside the bracketing tick pair. A
// sample exactly at the threshold is the crossing itself (boundary
// inclusive, no interpolation).
func crossingAfter(times []time.Time, temps []float64, from int, threshold float64) (time.Time, bool, error) {
	for i := from; i < len(temps); i++ {
		if temps[i] == threshold {
			return times[i], true, nil
		}
		if i+1 < len(temps) && temps[i] > threshold && temps[i+1] < threshold {
			hi, lo := temps[i], temps[i+1]
			if hi <= lo {
				return time.Time{}, false, &ComputationError{Calculator: "haccp",
					Detail: "interpolation bracket is not decreasing"}
			}
			frac := (hi - threshold) / (hi - lo)
			dt := times[i+1].Sub(times[i])
			return times[i].Add(time.Duration(frac * float64(dt))), true, nil
		}
	}
	return time.Time{}, false, nil
}
