package procspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tfrequire "github.com/stretchr/testify/require"

	"github.com/curelog/curelog/internal/industry"
)

func TestValidate_Powder(t *testing.T) {
	spec, err := Validate([]byte(`{
		"target_temp_c": 180,
		"hold_time_s": 600,
		"sensor_uncertainty_c": 2,
		"hysteresis_c": 2,
		"hold_mode": "continuous"
	}`), industry.Powder)
	tfrequire.NoError(t, err)
	assert.Equal(t, 180.0, spec.TargetTempC)
	assert.Equal(t, "continuous", spec.HoldMode)
	assert.Equal(t, []string{"temperature"}, spec.Sensors)
	assert.Equal(t, "min", spec.SensorCombination)
}

func TestValidate_PowderMissingKey(t *testing.T) {
	_, err := Validate([]byte(`{"target_temp_c": 180}`), industry.Powder)
	var sv *SchemaValidationError
	tfrequire.ErrorAs(t, err, &sv)
	assert.Equal(t, "hold_time_s", sv.Field)
}

func TestValidate_UnknownKey(t *testing.T) {
	_, err := Validate([]byte(`{
		"target_temp_c": 180, "hold_time_s": 600, "sensor_uncertainty_c": 2,
		"hysteresis_c": 2, "hold_mode": "continuous", "bogus_key": 1
	}`), industry.Powder)
	var sv *SchemaValidationError
	tfrequire.ErrorAs(t, err, &sv)
	assert.Equal(t, "bogus_key", sv.Field)
}

func TestValidate_Aliases(t *testing.T) {
	spec, err := Validate([]byte(`{
		"target_temperature": 180,
		"hold_seconds": 600,
		"uncertainty_c": 2,
		"hysteresis_band_c": 1,
		"hold_logic": "cumulative"
	}`), industry.Powder)
	tfrequire.NoError(t, err)
	assert.Equal(t, 180.0, spec.TargetTempC)
	assert.Equal(t, 600.0, spec.HoldTimeS)
	assert.Equal(t, 2.0, spec.SensorUncertaintyC)
	assert.Equal(t, 1.0, spec.HysteresisC)
	assert.Equal(t, "cumulative", spec.HoldMode)
}

func TestValidate_AliasCollision(t *testing.T) {
	_, err := Validate([]byte(`{
		"target_temperature": 180, "target_temp_c": 181,
		"hold_time_s": 600, "sensor_uncertainty_c": 2,
		"hysteresis_c": 1, "hold_mode": "continuous"
	}`), industry.Powder)
	var sv *SchemaValidationError
	tfrequire.ErrorAs(t, err, &sv)
	assert.Equal(t, "target_temperature", sv.Field)
}

func TestValidate_HysteresisVsTolerance(t *testing.T) {
	_, err := Validate([]byte(`{
		"target_temp_c": 180, "hold_time_s": 600,
		"sensor_uncertainty_c": 1, "hysteresis_c": 3,
		"hold_mode": "continuous"
	}`), industry.Powder)
	var sv *SchemaValidationError
	tfrequire.ErrorAs(t, err, &sv)
	assert.Equal(t, "hysteresis_c", sv.Field)
}

func TestValidate_Autoclave(t *testing.T) {
	spec, err := Validate([]byte(`{
		"min_fo_minutes": 15, "z_value_c": 10,
		"min_pressure_kpa": 200, "max_pressure_kpa": 320
	}`), industry.Autoclave)
	tfrequire.NoError(t, err)
	assert.Equal(t, 121.1, spec.RefTempC)
	assert.Equal(t, []string{"temperature", "pressure"}, spec.Sensors)

	_, err = Validate([]byte(`{
		"min_fo_minutes": 15, "z_value_c": 3,
		"min_pressure_kpa": 200, "max_pressure_kpa": 320
	}`), industry.Autoclave)
	var sv *SchemaValidationError
	tfrequire.ErrorAs(t, err, &sv)
	assert.Equal(t, "z_value_c", sv.Field)
}

func TestValidate_HACCPDefaults(t *testing.T) {
	spec, err := Validate([]byte(`{}`), industry.HACCP)
	tfrequire.NoError(t, err)
	assert.Equal(t, 7200.0, spec.Phase1LimitS)
	assert.Equal(t, 14400.0, spec.Phase2LimitS)
	// 135°F = 57.22°C, 70°F = 21.11°C, 41°F = 5°C.
	assert.InDelta(t, 57.222, spec.StartTempC, 0.01)
	assert.InDelta(t, 21.111, spec.MidTempC, 0.01)
	assert.InDelta(t, 5.0, spec.EndTempC, 0.01)
}

func TestValidate_ColdChain(t *testing.T) {
	spec, err := Validate([]byte(`{
		"band_min_c": 2, "band_max_c": 8,
		"min_compliance_pct": 95, "sensor_count": 3
	}`), industry.ColdChain)
	tfrequire.NoError(t, err)
	assert.Equal(t, 300.0, spec.MinExcursionS)

	names, pattern := spec.RequiredSignals()
	assert.Empty(t, names)
	assert.Equal(t, "sensor_3", pattern)

	_, err = Validate([]byte(`{
		"band_min_c": 8, "band_max_c": 2, "min_compliance_pct": 95
	}`), industry.ColdChain)
	assert.Error(t, err)
}

func TestValidate_Concrete(t *testing.T) {
	spec, err := Validate([]byte(`{
		"temp_min_c": 10, "temp_max_c": 32,
		"humidity_min_pct": 80, "humidity_max_pct": 100,
		"min_window_pct": 90
	}`), industry.Concrete)
	tfrequire.NoError(t, err)
	assert.Equal(t, 86400.0, spec.WindowS)
	assert.Equal(t, []string{"temperature", "humidity"}, spec.Sensors)
}

func TestValidate_SterileRejectsHysteresis(t *testing.T) {
	_, err := Validate([]byte(`{
		"min_temp_c": 160, "hold_time_s": 7200,
		"sensor_uncertainty_c": 2, "hysteresis_c": 1
	}`), industry.Sterile)
	var sv *SchemaValidationError
	tfrequire.ErrorAs(t, err, &sv)
	assert.Equal(t, "hysteresis_c", sv.Field)

	spec, err := Validate([]byte(`{
		"min_temp_c": 160, "hold_time_s": 7200, "sensor_uncertainty_c": 2
	}`), industry.Sterile)
	tfrequire.NoError(t, err)
	assert.Equal(t, 160.0, spec.MinTempC)
}

func TestValidate_NotAnObject(t *testing.T) {
	_, err := Validate([]byte(`[1,2,3]`), industry.Powder)
	var sv *SchemaValidationError
	tfrequire.ErrorAs(t, err, &sv)
}
