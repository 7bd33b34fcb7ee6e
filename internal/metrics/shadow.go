package metrics

import (
	"fmt"
	"math"

	"github.com/curelog/curelog/internal/procspec"
	"github.com/curelog/curelog/internal/timeseries"
)

// Shadow calculators: independent second implementations invoked only under
// safety-mode configuration. Each takes a deliberately different
// algorithmic route from its primary so a shared bug is unlikely to agree
// by accident. Disagreement beyond tolerance forces INDETERMINATE, as a
// shadow result never overrides the primary.

// shadowHold recomputes hold metrics by first materializing the in-hold
// indicator array (a Schmitt trigger expressed as an array transform), then
// measuring runs, with no interleaved state machine.
func shadowHold(series *timeseries.NormalizedSeries, spec *procspec.Specification, threshold, hysteresis float64) (*MetricResult, error) {
	temps := temperatureColumn(series, spec)
	exit := threshold - hysteresis

	inHold := make([]bool, len(temps))
	for i, v := range temps {
		switch {
		case v >= threshold:
			inHold[i] = true
		case v >= exit && i > 0 && inHold[i-1]:
			inHold[i] = true
		}
	}

	h := &HoldMetrics{ThresholdC: threshold}
	i := 0
	for i < len(inHold) {
		if !inHold[i] {
			i++
			continue
		}
		j := i
		for j+1 < len(inHold) && inHold[j+1] {
			j++
		}
		d := series.Times[j].Sub(series.Times[i]).Seconds()
		h.CumulativeSeconds += d
		h.LongestSeconds = math.Max(h.LongestSeconds, d)
		h.IntervalCount++
		i = j + 1
	}
	for _, v := range temps {
		h.PeakTempC = math.Max(h.PeakTempC, v)
	}
	h.MaxRampCPerMin = maxRampRate(series.Times, temps)
	mode := spec.HoldMode
	if mode == "" {
		mode = "continuous"
	}
	h.applyMode(mode)
	return &MetricResult{Industry: spec.Industry, Hold: h}, nil
}

// shadowAutoclave integrates Fo with the left-Riemann rule instead of
// trapezoids. The tolerance applied when comparing against the primary
// absorbs the systematic difference between the two rules.
func shadowAutoclave(series *timeseries.NormalizedSeries, spec *procspec.Specification) (*MetricResult, error) {
	temps := series.Signal("temperature")
	pressure := series.Signal("pressure")
	if temps == nil || pressure == nil {
		return nil, &ComputationError{Calculator: "autoclave-shadow", Detail: "temperature or pressure column missing"}
	}

	fo := 0.0
	for i := 0; i < len(temps)-1; i++ {
		dtMin := series.Times[i+1].Sub(series.Times[i]).Minutes()
		fo += lethality(temps[i], spec.RefTempC, spec.ZValueC) * dtMin
	}

	m := &FoMetrics{FoMinutes: fo, RefTempC: spec.RefTempC, ZValueC: spec.ZValueC, PressureInBand: true}
	for i, t := range temps {
		m.PeakTempC = math.Max(m.PeakTempC, t)
		if t >= spec.RefTempC-1.0 {
			m.HoldTicks++
			if pressure[i] < spec.MinPressureKPa || pressure[i] > spec.MaxPressureKPa {
				m.PressureViolations++
				m.PressureInBand = false
			}
		}
	}
	return &MetricResult{Industry: spec.Industry, Fo: m}, nil
}

// shadowHACCP recomputes phase durations in float seconds relative to the
// series start rather than time.Time arithmetic.
func shadowHACCP(series *timeseries.NormalizedSeries, spec *procspec.Specification) (*MetricResult, error) {
	temps := temperatureColumn(series, spec)
	base := series.Times[0]
	secs := make([]float64, len(temps))
	for i, t := range series.Times {
		secs[i] = t.Sub(base).Seconds()
	}

	peakIdx := 0
	for i, v := range temps {
		if v > temps[peakIdx] {
			peakIdx = i
		}
	}

	cross := func(threshold float64) (float64, bool) {
		for i := peakIdx; i < len(temps); i++ {
			if temps[i] == threshold {
				return secs[i], true
			}
			if i+1 < len(temps) && temps[i] > threshold && temps[i+1] < threshold {
				frac := (temps[i] - threshold) / (temps[i] - temps[i+1])
				return secs[i] + frac*(secs[i+1]-secs[i]), true
			}
		}
		return 0, false
	}

	m := &CoolingMetrics{PeakTempC: temps[peakIdx], PeakAt: series.Times[peakIdx]}
	p1Start := secs[peakIdx]
	if temps[peakIdx] >= spec.StartTempC {
		s, ok := cross(spec.StartTempC)
		if !ok {
			return &MetricResult{Industry: spec.Industry, Cooling: m}, nil
		}
		p1Start = s
	} else {
		m.PeakBelowStart = true
	}
	mid, ok := cross(spec.MidTempC)
	if !ok {
		return &MetricResult{Industry: spec.Industry, Cooling: m}, nil
	}
	m.ReachedMid = true
	m.Phase1Seconds = mid - p1Start
	end, ok := cross(spec.EndTempC)
	if !ok {
		return &MetricResult{Industry: spec.Industry, Cooling: m}, nil
	}
	m.ReachedEnd = true
	m.Phase2Seconds = end - mid
	return &MetricResult{Industry: spec.Industry, Cooling: m}, nil
}

// shadowColdChain counts out-of-band ticks (complement of the primary's
// in-band count) and rebuilds excursions from the out-of-band index list.
func shadowColdChain(series *timeseries.NormalizedSeries, spec *procspec.Specification) (*MetricResult, error) {
	n := series.Len()
	outIdx := make([]int, 0)
	devs := make([]float64, n)
	for i := 0; i < n; i++ {
		worst := 0.0
		for s := 1; s <= spec.SensorCount; s++ {
			col := series.Signal(fmt.Sprintf("sensor_%d", s))
			if col == nil {
				return nil, &ComputationError{Calculator: "coldchain-shadow",
					Detail: fmt.Sprintf("sensor_%d column missing", s)}
			}
			var d float64
			if col[i] > spec.BandMaxC {
				d = col[i] - spec.BandMaxC
			} else if col[i] < spec.BandMinC {
				d = col[i] - spec.BandMinC
			}
			if abs(d) > abs(worst) {
				worst = d
			}
		}
		devs[i] = worst
		if worst != 0 {
			outIdx = append(outIdx, i)
		}
	}

	m := &ColdChainMetrics{TotalTicks: n, InBandTicks: n - len(outIdx)}
	for i := 0; i < len(outIdx); {
		j := i
		for j+1 < len(outIdx) && outIdx[j+1] == outIdx[j]+1 {
			j++
		}
		ticks := outIdx[j] - outIdx[i] + 1
		duration := float64(ticks) * series.Interval.Seconds()
		if duration >= spec.MinExcursionS {
			peak := 0.0
			for k := outIdx[i]; k <= outIdx[j]; k++ {
				if abs(devs[k]) > abs(peak) {
					peak = devs[k]
				}
			}
			m.Excursions = append(m.Excursions, Excursion{
				StartAt:        series.Times[outIdx[i]],
				DurationS:      duration,
				PeakDeviationC: peak,
			})
		}
		i = j + 1
	}
	m.CompliancePct = float64(m.InBandTicks) / float64(n) * 100
	return &MetricResult{Industry: spec.Industry, ColdChain: m}, nil
}

// shadowConcrete bounds the window by tick count instead of a time cutoff.
func shadowConcrete(series *timeseries.NormalizedSeries, spec *procspec.Specification) (*MetricResult, error) {
	temps := series.Signal("temperature")
	humidity := series.Signal("humidity")
	if temps == nil || humidity == nil {
		return nil, &ComputationError{Calculator: "concrete-shadow", Detail: "temperature or humidity column missing"}
	}
	ticks := int(spec.WindowS/series.Interval.Seconds()) + 1
	if ticks > series.Len() {
		ticks = series.Len()
	}
	m := &CuringMetrics{WindowTicks: ticks}
	for i := 0; i < ticks; i++ {
		if temps[i] >= spec.TempMinC && temps[i] <= spec.TempMaxC &&
			humidity[i] >= spec.HumidityMinPct && humidity[i] <= spec.HumidityMaxPct {
			m.CompliantTicks++
		}
	}
	if ticks > 0 {
		m.WindowPct = float64(m.CompliantTicks) / float64(ticks) * 100
	}
	return &MetricResult{Industry: spec.Industry, Curing: m}, nil
}
