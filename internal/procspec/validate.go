package procspec

import (
	"encoding/json"
	"fmt"

	"github.com/curelog/curelog/internal/industry"
)

// Physically plausible temperature bounds for any spec field, °C.
const (
	minPlausibleTempC = -200
	maxPlausibleTempC = 1500
)

func has(doc map[string]json.RawMessage, key string) bool {
	_, ok := doc[key]
	return ok
}

func require(doc map[string]json.RawMessage, keys ...string) error {
	for _, key := range keys {
		if !has(doc, key) {
			return &SchemaValidationError{Field: key, Reason: "required"}
		}
	}
	return nil
}

func forbid(doc map[string]json.RawMessage, key, reason string) error {
	if has(doc, key) {
		return &SchemaValidationError{Field: key, Reason: reason}
	}
	return nil
}

// validateIndustry applies per-industry required keys, bounds, cross-field
// rules, and defaults. doc is consulted only for key presence; values were
// already decoded into spec.
func validateIndustry(spec *Specification, doc map[string]json.RawMessage) error {
	if err := validateCommon(spec); err != nil {
		return err
	}

	switch spec.Industry {
	case industry.Powder:
		return validatePowder(spec, doc)
	case industry.Autoclave:
		return validateAutoclave(spec, doc)
	case industry.HACCP:
		return validateHACCP(spec, doc)
	case industry.ColdChain:
		return validateColdChain(spec, doc)
	case industry.Concrete:
		return validateConcrete(spec, doc)
	case industry.Sterile:
		return validateSterile(spec, doc)
	}
	return &SchemaValidationError{Field: "industry", Reason: fmt.Sprintf("unknown industry %q", spec.Industry)}
}

func validateCommon(spec *Specification) error {
	switch spec.SensorCombination {
	case "":
		spec.SensorCombination = "min" // conservative: the coldest probe governs
	case "min", "mean", "max":
	default:
		return &SchemaValidationError{Field: "sensor_combination",
			Reason: fmt.Sprintf("%q is not one of min, mean, max", spec.SensorCombination)}
	}
	if spec.AllowedGapS < 0 {
		return &SchemaValidationError{Field: "allowed_gap_s", Reason: "must not be negative"}
	}
	if spec.SampleIntervalS < 0 {
		return &SchemaValidationError{Field: "sample_interval_s", Reason: "must not be negative"}
	}
	if spec.SensorUncertaintyC < 0 {
		return &SchemaValidationError{Field: "sensor_uncertainty_c", Reason: "must not be negative"}
	}
	return nil
}

func checkTempBounds(field string, v float64) error {
	if v < minPlausibleTempC || v > maxPlausibleTempC {
		return &SchemaValidationError{Field: field,
			Reason: fmt.Sprintf("%g °C is outside plausible range [%g, %g]", v, float64(minPlausibleTempC), float64(maxPlausibleTempC))}
	}
	return nil
}

func checkPositive(field string, v float64) error {
	if v <= 0 {
		return &SchemaValidationError{Field: field, Reason: "must be positive"}
	}
	return nil
}

func validatePowder(spec *Specification, doc map[string]json.RawMessage) error {
	if err := require(doc, "target_temp_c", "hold_time_s", "sensor_uncertainty_c", "hysteresis_c", "hold_mode"); err != nil {
		return err
	}
	if err := checkTempBounds("target_temp_c", spec.TargetTempC); err != nil {
		return err
	}
	if err := checkPositive("hold_time_s", spec.HoldTimeS); err != nil {
		return err
	}
	if spec.HysteresisC < 0 {
		return &SchemaValidationError{Field: "hysteresis_c", Reason: "must not be negative"}
	}
	// The hysteresis dead-band must stay inside the uncertainty tolerance,
	// otherwise an in-hold series could sag below the nominal target while
	// still counting as held.
	if spec.HysteresisC > 0 && spec.SensorUncertaintyC > 0 && spec.HysteresisC >= 2*spec.SensorUncertaintyC {
		return &SchemaValidationError{Field: "hysteresis_c",
			Reason: fmt.Sprintf("band %g must be smaller than tolerance band %g", spec.HysteresisC, 2*spec.SensorUncertaintyC)}
	}
	switch spec.HoldMode {
	case "continuous", "cumulative":
	default:
		return &SchemaValidationError{Field: "hold_mode",
			Reason: fmt.Sprintf("%q is not one of continuous, cumulative", spec.HoldMode)}
	}
	if spec.MaxRampCPerMin < 0 {
		return &SchemaValidationError{Field: "max_ramp_c_per_min", Reason: "must not be negative"}
	}
	if len(spec.Sensors) == 0 {
		spec.Sensors = []string{"temperature"}
	}
	return nil
}

func validateAutoclave(spec *Specification, doc map[string]json.RawMessage) error {
	if err := require(doc, "min_fo_minutes", "z_value_c", "min_pressure_kpa", "max_pressure_kpa"); err != nil {
		return err
	}
	if spec.MinFoMinutes <= 0 || spec.MinFoMinutes > 120 {
		return &SchemaValidationError{Field: "min_fo_minutes",
			Reason: fmt.Sprintf("%g is outside plausible range (0, 120]", spec.MinFoMinutes)}
	}
	if spec.ZValueC < 5 || spec.ZValueC > 20 {
		return &SchemaValidationError{Field: "z_value_c",
			Reason: fmt.Sprintf("%g is outside plausible range [5, 20]", spec.ZValueC)}
	}
	if !has(doc, "ref_temp_c") {
		spec.RefTempC = 121.1 // saturated-steam reference
	} else if spec.RefTempC < 100 || spec.RefTempC > 140 {
		return &SchemaValidationError{Field: "ref_temp_c",
			Reason: fmt.Sprintf("%g is outside plausible range [100, 140]", spec.RefTempC)}
	}
	if spec.MinPressureKPa < 100 || spec.MaxPressureKPa > 450 {
		return &SchemaValidationError{Field: "min_pressure_kpa",
			Reason: "pressure band must lie within [100, 450] kPa"}
	}
	if spec.MinPressureKPa >= spec.MaxPressureKPa {
		return &SchemaValidationError{Field: "min_pressure_kpa",
			Reason: fmt.Sprintf("%g must be below max_pressure_kpa %g", spec.MinPressureKPa, spec.MaxPressureKPa)}
	}
	if len(spec.Sensors) == 0 {
		spec.Sensors = []string{"temperature", "pressure"}
	}
	return nil
}

func validateHACCP(spec *Specification, doc map[string]json.RawMessage) error {
	if !has(doc, "phase1_limit_s") {
		spec.Phase1LimitS = 7200
	}
	if !has(doc, "phase2_limit_s") {
		spec.Phase2LimitS = 14400
	}
	if !has(doc, "start_temp_f") {
		spec.StartTempC = fToC(135)
	}
	if !has(doc, "mid_temp_f") {
		spec.MidTempC = fToC(70)
	}
	if !has(doc, "end_temp_f") {
		spec.EndTempC = fToC(41)
	}
	if err := checkPositive("phase1_limit_s", spec.Phase1LimitS); err != nil {
		return err
	}
	if err := checkPositive("phase2_limit_s", spec.Phase2LimitS); err != nil {
		return err
	}
	if !(spec.StartTempC > spec.MidTempC && spec.MidTempC > spec.EndTempC) {
		return &SchemaValidationError{Field: "start_temp_f",
			Reason: "cooling thresholds must satisfy start > mid > end"}
	}
	if len(spec.Sensors) == 0 {
		spec.Sensors = []string{"temperature"}
	}
	return nil
}

func validateColdChain(spec *Specification, doc map[string]json.RawMessage) error {
	if err := require(doc, "band_min_c", "band_max_c", "min_compliance_pct"); err != nil {
		return err
	}
	if err := checkTempBounds("band_min_c", spec.BandMinC); err != nil {
		return err
	}
	if err := checkTempBounds("band_max_c", spec.BandMaxC); err != nil {
		return err
	}
	if spec.BandMinC >= spec.BandMaxC {
		return &SchemaValidationError{Field: "band_min_c",
			Reason: fmt.Sprintf("%g must be below band_max_c %g", spec.BandMinC, spec.BandMaxC)}
	}
	if spec.MinCompliancePct <= 0 || spec.MinCompliancePct > 100 {
		return &SchemaValidationError{Field: "min_compliance_pct",
			Reason: fmt.Sprintf("%g is outside (0, 100]", spec.MinCompliancePct)}
	}
	if !has(doc, "min_excursion_s") {
		spec.MinExcursionS = 300 // single-sample noise filter
	} else if spec.MinExcursionS < 0 {
		return &SchemaValidationError{Field: "min_excursion_s", Reason: "must not be negative"}
	}
	if !has(doc, "sensor_count") {
		spec.SensorCount = 1
	} else if spec.SensorCount < 1 {
		return &SchemaValidationError{Field: "sensor_count", Reason: "must be at least 1"}
	}
	return nil
}

func validateConcrete(spec *Specification, doc map[string]json.RawMessage) error {
	if err := require(doc, "temp_min_c", "temp_max_c", "humidity_min_pct", "humidity_max_pct", "min_window_pct"); err != nil {
		return err
	}
	if !has(doc, "window_s") {
		spec.WindowS = 86400 // first 24 hours
	} else if err := checkPositive("window_s", spec.WindowS); err != nil {
		return err
	}
	if spec.TempMinC >= spec.TempMaxC {
		return &SchemaValidationError{Field: "temp_min_c",
			Reason: fmt.Sprintf("%g must be below temp_max_c %g", spec.TempMinC, spec.TempMaxC)}
	}
	if spec.HumidityMinPct < 0 || spec.HumidityMaxPct > 100 || spec.HumidityMinPct >= spec.HumidityMaxPct {
		return &SchemaValidationError{Field: "humidity_min_pct",
			Reason: "humidity band must be an increasing range within [0, 100]"}
	}
	if spec.MinWindowPct <= 0 || spec.MinWindowPct > 100 {
		return &SchemaValidationError{Field: "min_window_pct",
			Reason: fmt.Sprintf("%g is outside (0, 100]", spec.MinWindowPct)}
	}
	if len(spec.Sensors) == 0 {
		spec.Sensors = []string{"temperature", "humidity"}
	}
	return nil
}

func validateSterile(spec *Specification, doc map[string]json.RawMessage) error {
	if err := require(doc, "min_temp_c", "hold_time_s", "sensor_uncertainty_c"); err != nil {
		return err
	}
	// Dry-heat tolerance is tighter than powder: no hysteresis softening.
	// The key's presence, not just a non-zero value, is the error.
	if err := forbid(doc, "hysteresis_c", "not allowed for sterile (no hysteresis softening)"); err != nil {
		return err
	}
	if err := checkTempBounds("min_temp_c", spec.MinTempC); err != nil {
		return err
	}
	if err := checkPositive("hold_time_s", spec.HoldTimeS); err != nil {
		return err
	}
	if len(spec.Sensors) == 0 {
		spec.Sensors = []string{"temperature"}
	}
	return nil
}
