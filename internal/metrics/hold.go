package metrics

import (
	"time"

	"github.com/curelog/curelog/internal/industry"
	"github.com/curelog/curelog/internal/procspec"
	"github.com/curelog/curelog/internal/timeseries"
)

// computePowder is the powder-cure hold calculator.
//
// Conservative threshold = target + sensor uncertainty: measurement error
// can only make PASS harder, never easier. Hysteresis: once in-hold, the
// series stays in-hold until it drops below threshold − hysteresis, so
// noise crossings do not fragment an interval. A sample exactly equal to
// the threshold counts as in-hold (boundary inclusive).
func computePowder(series *timeseries.NormalizedSeries, spec *procspec.Specification) (*MetricResult, error) {
	threshold := spec.TargetTempC + spec.SensorUncertaintyC
	hold := holdIntervals(series.Times, temperatureColumn(series, spec), threshold, spec.HysteresisC)
	hold.MaxRampCPerMin = maxRampRate(series.Times, temperatureColumn(series, spec))
	hold.applyMode(spec.HoldMode)
	return &MetricResult{Industry: industry.Powder, Hold: hold}, nil
}

// computeSterile is dry-heat sterilization: the powder hold without
// hysteresis softening (tighter industry tolerance) and threshold
// min_temp + uncertainty.
func computeSterile(series *timeseries.NormalizedSeries, spec *procspec.Specification) (*MetricResult, error) {
	threshold := spec.MinTempC + spec.SensorUncertaintyC
	hold := holdIntervals(series.Times, temperatureColumn(series, spec), threshold, 0)
	hold.MaxRampCPerMin = maxRampRate(series.Times, temperatureColumn(series, spec))
	hold.applyMode("continuous")
	return &MetricResult{Industry: industry.Sterile, Hold: hold}, nil
}

// applyMode sets the governing HoldSeconds from the explicit spec mode.
// The mode is never inferred from the data.
func (h *HoldMetrics) applyMode(mode string) {
	if mode == "cumulative" {
		h.HoldSeconds = h.CumulativeSeconds
	} else {
		h.HoldSeconds = h.LongestSeconds
	}
}

// holdIntervals runs the in-hold state machine over the canonical ticks.
// Interval duration is measured tick-to-tick: a hold spanning ticks i..j
// lasts t[j] − t[i].
func holdIntervals(times []time.Time, temps []float64, threshold, hysteresis float64) *HoldMetrics {
	h := &HoldMetrics{ThresholdC: threshold}
	exit := threshold - hysteresis

	inHold := false
	start := 0
	peak := temps[0]

	endInterval := func(last int) {
		d := times[last].Sub(times[start]).Seconds()
		h.CumulativeSeconds += d
		if d > h.LongestSeconds {
			h.LongestSeconds = d
		}
		h.IntervalCount++
	}

	for i, v := range temps {
		if v > peak {
			peak = v
		}
		switch {
		case !inHold && v >= threshold:
			inHold = true
			start = i
		case inHold && v < exit:
			// The hold ended at the previous tick; this tick is already
			// below the hysteresis exit.
			endInterval(i - 1)
			inHold = false
		}
	}
	if inHold {
		endInterval(len(temps) - 1)
	}
	h.PeakTempC = peak
	return h
}

// maxRampRate returns the maximum absolute temperature slope in °C/min
// using a centered finite difference; endpoints use a one-sided difference.
func maxRampRate(times []time.Time, temps []float64) float64 {
	n := len(temps)
	if n < 2 {
		return 0
	}
	maxAbs := 0.0
	slope := func(i, j int) float64 {
		dt := times[j].Sub(times[i]).Minutes()
		if dt == 0 {
			return 0
		}
		return (temps[j] - temps[i]) / dt
	}
	consider := func(s float64) {
		if s < 0 {
			s = -s
		}
		if s > maxAbs {
			maxAbs = s
		}
	}
	consider(slope(0, 1))
	for i := 1; i < n-1; i++ {
		consider(slope(i-1, i+1))
	}
	consider(slope(n-2, n-1))
	return maxAbs
}
