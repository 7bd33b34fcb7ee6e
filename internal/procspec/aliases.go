package procspec

import "encoding/json"

// aliases maps legacy/alternate key names to their canonical form. Rewriting
// happens before validation so the rest of the package only ever sees
// canonical keys. This table is the documented backward-compatibility
// surface: additions here, never ad-hoc handling elsewhere.
var aliases = map[string]string{
	"target_temperature": "target_temp_c",
	"setpoint_c":         "target_temp_c",
	"hold_seconds":       "hold_time_s",
	"required_hold_s":    "hold_time_s",
	"uncertainty_c":      "sensor_uncertainty_c",
	"probe_uncertainty":  "sensor_uncertainty_c",
	"hysteresis_band_c":  "hysteresis_c",
	"hold_logic":         "hold_mode",
	"max_gap_seconds":    "allowed_gap_s",
	"fo_min":             "min_fo_minutes",
	"z_value":            "z_value_c",
}

// applyAliases rewrites legacy keys in place. A document carrying both a
// legacy key and its canonical key is ambiguous and rejected.
func applyAliases(doc map[string]json.RawMessage) error {
	for legacy, canonical := range aliases {
		raw, ok := doc[legacy]
		if !ok {
			continue
		}
		if _, exists := doc[canonical]; exists {
			return &SchemaValidationError{Field: legacy,
				Reason: "conflicts with canonical key " + canonical}
		}
		doc[canonical] = raw
		delete(doc, legacy)
	}
	return nil
}
