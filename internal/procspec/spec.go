// Package procspec parses and validates the declarative process
// specification for each industry: required keys, numeric bounds,
// cross-field rules, and legacy key aliasing. A Specification that comes
// out of Validate is immutable and complete for its industry's calculator.
package procspec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/curelog/curelog/internal/industry"
)

// Specification is the validated process specification. Only the fields for
// the tagged industry are meaningful; Validate guarantees they are present
// and in bounds before a calculator ever sees them.
type Specification struct {
	Industry industry.Industry `json:"industry"`

	// Common.
	Sensors                  []string `json:"sensors,omitempty"`
	SensorCombination        string   `json:"sensor_combination"` // min | mean | max
	AllowedGapS              float64  `json:"allowed_gap_s,omitempty"`
	SampleIntervalS          float64  `json:"sample_interval_s,omitempty"`
	SuppressUncertaintyCheck bool     `json:"suppress_uncertainty_check,omitempty"`

	// Powder / sterile hold.
	TargetTempC        float64 `json:"target_temp_c,omitempty"`
	MinTempC           float64 `json:"min_temp_c,omitempty"`
	HoldTimeS          float64 `json:"hold_time_s,omitempty"`
	SensorUncertaintyC float64 `json:"sensor_uncertainty_c,omitempty"`
	HysteresisC        float64 `json:"hysteresis_c,omitempty"`
	HoldMode           string  `json:"hold_mode,omitempty"` // continuous | cumulative
	MaxRampCPerMin     float64 `json:"max_ramp_c_per_min,omitempty"`

	// Autoclave.
	MinFoMinutes   float64 `json:"min_fo_minutes,omitempty"`
	ZValueC        float64 `json:"z_value_c,omitempty"`
	RefTempC       float64 `json:"ref_temp_c,omitempty"`
	MinPressureKPa float64 `json:"min_pressure_kpa,omitempty"`
	MaxPressureKPa float64 `json:"max_pressure_kpa,omitempty"`

	// HACCP cooling. Limits are declared in °F (industry convention) and
	// stored converted to °C to match the normalized series.
	Phase1LimitS float64 `json:"phase1_limit_s,omitempty"`
	Phase2LimitS float64 `json:"phase2_limit_s,omitempty"`
	StartTempC   float64 `json:"start_temp_c,omitempty"`
	MidTempC     float64 `json:"mid_temp_c,omitempty"`
	EndTempC     float64 `json:"end_temp_c,omitempty"`

	// Cold chain.
	BandMinC         float64 `json:"band_min_c,omitempty"`
	BandMaxC         float64 `json:"band_max_c,omitempty"`
	MinCompliancePct float64 `json:"min_compliance_pct,omitempty"`
	MinExcursionS    float64 `json:"min_excursion_s,omitempty"`
	SensorCount      int     `json:"sensor_count,omitempty"`

	// Concrete curing.
	WindowS        float64 `json:"window_s,omitempty"`
	TempMinC       float64 `json:"temp_min_c,omitempty"`
	TempMaxC       float64 `json:"temp_max_c,omitempty"`
	HumidityMinPct float64 `json:"humidity_min_pct,omitempty"`
	HumidityMaxPct float64 `json:"humidity_max_pct,omitempty"`
	MinWindowPct   float64 `json:"min_window_pct,omitempty"`
}

// HoldTime returns the required hold as a duration.
func (s *Specification) HoldTime() time.Duration {
	return time.Duration(s.HoldTimeS * float64(time.Second))
}

// AllowedGap returns the allowed inter-sample gap (zero disables the check).
func (s *Specification) AllowedGap() time.Duration {
	return time.Duration(s.AllowedGapS * float64(time.Second))
}

// SampleInterval returns the declared canonical cadence (zero = derive).
func (s *Specification) SampleInterval() time.Duration {
	return time.Duration(s.SampleIntervalS * float64(time.Second))
}

// RequiredSignals returns the sensor names the data must carry, and the
// pattern (cold chain) when matching is positional rather than exact.
func (s *Specification) RequiredSignals() (names []string, pattern string) {
	if s.Industry == industry.ColdChain {
		return nil, fmt.Sprintf("sensor_%d", s.SensorCount)
	}
	return s.Sensors, ""
}

// Validate parses spec JSON, rewrites legacy aliases to canonical keys,
// checks structure and bounds for the given industry, and fills defaults.
func Validate(specJSON []byte, ind industry.Industry) (*Specification, error) {
	if !ind.Valid() {
		return nil, &SchemaValidationError{Field: "industry", Reason: fmt.Sprintf("unknown industry %q", ind)}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(specJSON, &doc); err != nil {
		return nil, &SchemaValidationError{Field: "(document)", Reason: fmt.Sprintf("not a JSON object: %v", err)}
	}

	if err := applyAliases(doc); err != nil {
		return nil, err
	}

	spec := &Specification{Industry: ind}
	if err := extract(doc, spec); err != nil {
		return nil, err
	}
	if err := validateIndustry(spec, doc); err != nil {
		return nil, err
	}
	return spec, nil
}

// extract decodes canonical keys into the Specification, rejecting unknown
// keys by name.
func extract(doc map[string]json.RawMessage, spec *Specification) error {
	known := map[string]any{
		"sensors":                    &spec.Sensors,
		"sensor_combination":         &spec.SensorCombination,
		"allowed_gap_s":              &spec.AllowedGapS,
		"sample_interval_s":          &spec.SampleIntervalS,
		"suppress_uncertainty_check": &spec.SuppressUncertaintyCheck,
		"target_temp_c":              &spec.TargetTempC,
		"min_temp_c":                 &spec.MinTempC,
		"hold_time_s":                &spec.HoldTimeS,
		"sensor_uncertainty_c":       &spec.SensorUncertaintyC,
		"hysteresis_c":               &spec.HysteresisC,
		"hold_mode":                  &spec.HoldMode,
		"max_ramp_c_per_min":         &spec.MaxRampCPerMin,
		"min_fo_minutes":             &spec.MinFoMinutes,
		"z_value_c":                  &spec.ZValueC,
		"ref_temp_c":                 &spec.RefTempC,
		"min_pressure_kpa":           &spec.MinPressureKPa,
		"max_pressure_kpa":           &spec.MaxPressureKPa,
		"phase1_limit_s":             &spec.Phase1LimitS,
		"phase2_limit_s":             &spec.Phase2LimitS,
		"start_temp_f":               new(float64),
		"mid_temp_f":                 new(float64),
		"end_temp_f":                 new(float64),
		"band_min_c":                 &spec.BandMinC,
		"band_max_c":                 &spec.BandMaxC,
		"min_compliance_pct":         &spec.MinCompliancePct,
		"min_excursion_s":            &spec.MinExcursionS,
		"sensor_count":               &spec.SensorCount,
		"window_s":                   &spec.WindowS,
		"temp_min_c":                 &spec.TempMinC,
		"temp_max_c":                 &spec.TempMaxC,
		"humidity_min_pct":           &spec.HumidityMinPct,
		"humidity_max_pct":           &spec.HumidityMaxPct,
		"min_window_pct":             &spec.MinWindowPct,
	}

	for key, raw := range doc {
		dst, ok := known[key]
		if !ok {
			return &SchemaValidationError{Field: key, Reason: "unknown key"}
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return &SchemaValidationError{Field: key, Reason: fmt.Sprintf("wrong type: %v", err)}
		}
	}

	// HACCP limits arrive in °F; convert once here so the calculator and
	// the normalized series agree on °C.
	if raw, ok := doc["start_temp_f"]; ok {
		spec.StartTempC = fToC(mustFloat(raw))
	}
	if raw, ok := doc["mid_temp_f"]; ok {
		spec.MidTempC = fToC(mustFloat(raw))
	}
	if raw, ok := doc["end_temp_f"]; ok {
		spec.EndTempC = fToC(mustFloat(raw))
	}
	return nil
}

func mustFloat(raw json.RawMessage) float64 {
	var v float64
	_ = json.Unmarshal(raw, &v) // type already checked in extract
	return v
}

func fToC(f float64) float64 { return (f - 32) * 5 / 9 }
