package metrics

import (
	"fmt"

	"github.com/curelog/curelog/internal/industry"
	"github.com/curelog/curelog/internal/procspec"
	"github.com/curelog/curelog/internal/timeseries"
)

// Compute runs the primary calculator for the spec's industry. The switch
// is exhaustive over the closed industry set; a new industry fails to
// compile here rather than falling through a registry.
func Compute(series *timeseries.NormalizedSeries, spec *procspec.Specification) (*MetricResult, error) {
	switch spec.Industry {
	case industry.Powder:
		return computePowder(series, spec)
	case industry.Autoclave:
		return computeAutoclave(series, spec)
	case industry.HACCP:
		return computeHACCP(series, spec)
	case industry.ColdChain:
		return computeColdChain(series, spec)
	case industry.Concrete:
		return computeConcrete(series, spec)
	case industry.Sterile:
		return computeSterile(series, spec)
	}
	return nil, fmt.Errorf("metrics: no calculator for industry %q", spec.Industry)
}

// ComputeShadow runs the independently implemented shadow calculator for
// the spec's industry. Invoked only under safety-mode configuration; its
// result is compared against the primary, never substituted for it.
func ComputeShadow(series *timeseries.NormalizedSeries, spec *procspec.Specification) (*MetricResult, error) {
	switch spec.Industry {
	case industry.Powder:
		return shadowHold(series, spec, spec.TargetTempC+spec.SensorUncertaintyC, spec.HysteresisC)
	case industry.Sterile:
		return shadowHold(series, spec, spec.MinTempC+spec.SensorUncertaintyC, 0)
	case industry.Autoclave:
		return shadowAutoclave(series, spec)
	case industry.HACCP:
		return shadowHACCP(series, spec)
	case industry.ColdChain:
		return shadowColdChain(series, spec)
	case industry.Concrete:
		return shadowConcrete(series, spec)
	}
	return nil, fmt.Errorf("metrics: no shadow calculator for industry %q", spec.Industry)
}

// temperatureColumn collapses the spec's sensors into the single series a
// calculator evaluates, using the spec's sensor_combination mode.
func temperatureColumn(series *timeseries.NormalizedSeries, spec *procspec.Specification) []float64 {
	names, pattern := spec.RequiredSignals()
	if pattern != "" {
		names = nil
		for i := 1; i <= spec.SensorCount; i++ {
			names = append(names, fmt.Sprintf("sensor_%d", i))
		}
	}
	if len(names) == 0 {
		names = []string{"temperature"}
	}
	// Non-temperature signals never participate in the combined column.
	var temps []string
	for _, n := range names {
		if n != "pressure" && n != "humidity" {
			temps = append(temps, n)
		}
	}
	return series.Combined(temps, spec.SensorCombination)
}
