// Package verdict is the decision engine: it maps a MetricResult and the
// specification it was computed against to a terminal outcome with stable,
// machine-comparable reason codes. The engine is never called with invalid
// inputs: upstream data-quality and schema failures become ERROR in the
// orchestrator before this package runs.
package verdict

import (
	"math"

	"github.com/curelog/curelog/internal/config"
	"github.com/curelog/curelog/internal/industry"
	"github.com/curelog/curelog/internal/metrics"
	"github.com/curelog/curelog/internal/procspec"
	"github.com/curelog/curelog/internal/timeseries"
)

// Outcome is the terminal state of a job.
type Outcome string

const (
	// Pass: every requirement met with margin at least the stated sensor
	// uncertainty (temperature requirements embed the margin in their
	// conservative thresholds).
	Pass Outcome = "PASS"
	// Fail: at least one hard requirement violated.
	Fail Outcome = "FAIL"
	// Indeterminate: genuine ambiguity. The governing metric sits inside
	// the sensor-uncertainty band of the boundary, or the independent
	// shadow calculator disagreed under safety mode. Not an error.
	Indeterminate Outcome = "INDETERMINATE"
	// Error: the pipeline could not produce any outcome. Set by the
	// orchestrator, never by Decide.
	Error Outcome = "ERROR"
)

// Reason codes. Stable strings: downstream consumers and tests compare them.
const (
	ReasonAllRequirementsMet     = "all_requirements_met"
	ReasonHoldTimeShort          = "hold_time_short"
	ReasonThresholdNeverReached  = "threshold_never_reached"
	ReasonRampRateExceeded       = "ramp_rate_exceeded"
	ReasonFoBelowMinimum         = "fo_below_minimum"
	ReasonPressureOutOfBand      = "pressure_out_of_band"
	ReasonPhase1TooSlow          = "phase1_too_slow"
	ReasonPhase2TooSlow          = "phase2_too_slow"
	ReasonNeverCooledToEnd       = "never_cooled_to_end"
	ReasonComplianceBelowMinimum = "compliance_below_minimum"
	ReasonExcursionDetected      = "excursion_detected"
	ReasonWindowComplianceLow    = "window_compliance_low"
	ReasonWithinUncertaintyBand  = "within_uncertainty_band"
	ReasonShadowDisagreement     = "shadow_disagreement"
	ReasonBorderlinePass         = "borderline_pass_promoted"
)

// Decision is the terminal outcome plus everything an auditor needs:
// ordered reason codes, the metrics the outcome was derived from, and the
// normalization warnings that applied (leniency is never invisible).
type Decision struct {
	Outcome  Outcome               `json:"outcome"`
	Reasons  []string              `json:"reasons"`
	Metrics  *metrics.MetricResult `json:"metrics,omitempty"`
	Warnings []timeseries.Warning  `json:"warnings,omitempty"`
}

// Decide evaluates the primary metric against the specification. shadow is
// non-nil only under safety mode; disagreement beyond tolerance forces
// INDETERMINATE. Reason codes are additive: every violated requirement is
// reported, not just the first.
func Decide(primary, shadow *metrics.MetricResult, spec *procspec.Specification, cfg config.PipelineConfig) Decision {
	d := decideIndustry(primary, spec, cfg)
	d.Metrics = primary

	if shadow != nil && !shadowAgrees(primary, shadow, spec) {
		// Never a silent override: the primary's reasons stay, the
		// disagreement is appended, and the outcome degrades.
		d.Outcome = Indeterminate
		d.Reasons = append(d.Reasons, ReasonShadowDisagreement)
		return d
	}

	if cfg.SafetyMode && d.Outcome == Pass && borderline(primary, spec) {
		d.Outcome = Indeterminate
		d.Reasons = append(d.Reasons, ReasonBorderlinePass)
	}
	return d
}

func decideIndustry(m *metrics.MetricResult, spec *procspec.Specification, cfg config.PipelineConfig) Decision {
	switch m.Industry {
	case industry.Powder, industry.Sterile:
		return decideHold(m.Hold, spec)
	case industry.Autoclave:
		return decideFo(m.Fo, spec)
	case industry.HACCP:
		return decideCooling(m.Cooling, spec)
	case industry.ColdChain:
		return decideColdChain(m.ColdChain, spec)
	case industry.Concrete:
		return decideCuring(m.Curing, spec)
	}
	// Unreachable: Industry is validated before metrics are computed.
	return Decision{Outcome: Error, Reasons: []string{"unknown industry"}}
}

func decideHold(h *metrics.HoldMetrics, spec *procspec.Specification) Decision {
	var reasons []string
	if h.PeakTempC < h.ThresholdC {
		reasons = append(reasons, ReasonThresholdNeverReached)
	}
	// Boundary inclusive: a hold lasting exactly the required duration passes.
	if h.HoldSeconds < spec.HoldTimeS {
		reasons = append(reasons, ReasonHoldTimeShort)
	}
	if spec.MaxRampCPerMin > 0 && h.MaxRampCPerMin > spec.MaxRampCPerMin {
		reasons = append(reasons, ReasonRampRateExceeded)
	}
	if len(reasons) > 0 {
		return Decision{Outcome: Fail, Reasons: reasons}
	}
	return Decision{Outcome: Pass, Reasons: []string{ReasonAllRequirementsMet}}
}

func decideFo(f *metrics.FoMetrics, spec *procspec.Specification) Decision {
	var reasons []string
	if f.FoMinutes < spec.MinFoMinutes {
		reasons = append(reasons, ReasonFoBelowMinimum)
	}
	if !f.PressureInBand {
		reasons = append(reasons, ReasonPressureOutOfBand)
	}
	if len(reasons) > 0 {
		return Decision{Outcome: Fail, Reasons: reasons}
	}

	// Ambiguity band: a uniform sensor error of u shifts the whole
	// integrand by the factor 10^(−u/Z). If the conservatively shifted Fo
	// dips below the minimum, the pass is ambiguous by construction.
	if !spec.SuppressUncertaintyCheck && spec.SensorUncertaintyC > 0 {
		foLow := f.FoMinutes * math.Pow(10, -spec.SensorUncertaintyC/spec.ZValueC)
		if foLow < spec.MinFoMinutes {
			return Decision{Outcome: Indeterminate, Reasons: []string{ReasonWithinUncertaintyBand}}
		}
	}
	return Decision{Outcome: Pass, Reasons: []string{ReasonAllRequirementsMet}}
}

func decideCooling(c *metrics.CoolingMetrics, spec *procspec.Specification) Decision {
	var reasons []string
	if !c.ReachedMid || !c.ReachedEnd {
		reasons = append(reasons, ReasonNeverCooledToEnd)
	}
	if c.ReachedMid && c.Phase1Seconds > spec.Phase1LimitS {
		reasons = append(reasons, ReasonPhase1TooSlow)
	}
	if c.ReachedEnd && c.Phase2Seconds > spec.Phase2LimitS {
		reasons = append(reasons, ReasonPhase2TooSlow)
	}
	if len(reasons) > 0 {
		return Decision{Outcome: Fail, Reasons: reasons}
	}
	return Decision{Outcome: Pass, Reasons: []string{ReasonAllRequirementsMet}}
}

func decideColdChain(c *metrics.ColdChainMetrics, spec *procspec.Specification) Decision {
	var reasons []string
	if c.CompliancePct < spec.MinCompliancePct {
		reasons = append(reasons, ReasonComplianceBelowMinimum)
	}
	if len(c.Excursions) > 0 {
		reasons = append(reasons, ReasonExcursionDetected)
	}
	if len(reasons) == 0 {
		return Decision{Outcome: Pass, Reasons: []string{ReasonAllRequirementsMet}}
	}

	// Band edges carry no conservative adjustment, so a failure driven
	// entirely by deviations inside the sensor-uncertainty band is
	// ambiguous: the readings cannot distinguish excursion from noise.
	if !spec.SuppressUncertaintyCheck && spec.SensorUncertaintyC > 0 {
		all := len(c.Excursions) > 0
		for _, e := range c.Excursions {
			if math.Abs(e.PeakDeviationC) > spec.SensorUncertaintyC {
				all = false
				break
			}
		}
		if all && c.CompliancePct >= spec.MinCompliancePct {
			return Decision{Outcome: Indeterminate, Reasons: append(reasons, ReasonWithinUncertaintyBand)}
		}
	}
	return Decision{Outcome: Fail, Reasons: reasons}
}

func decideCuring(c *metrics.CuringMetrics, spec *procspec.Specification) Decision {
	if c.WindowPct < spec.MinWindowPct {
		return Decision{Outcome: Fail, Reasons: []string{ReasonWindowComplianceLow}}
	}
	return Decision{Outcome: Pass, Reasons: []string{ReasonAllRequirementsMet}}
}

// borderline reports whether a PASS sits close enough to its boundary that
// safety mode should demand independent confirmation.
func borderline(m *metrics.MetricResult, spec *procspec.Specification) bool {
	switch {
	case m.Hold != nil:
		return m.Hold.PeakTempC-m.Hold.ThresholdC < spec.SensorUncertaintyC
	case m.Fo != nil:
		return m.Fo.FoMinutes-spec.MinFoMinutes < 0.05*spec.MinFoMinutes
	case m.Cooling != nil:
		return spec.Phase1LimitS-m.Cooling.Phase1Seconds < 60 ||
			spec.Phase2LimitS-m.Cooling.Phase2Seconds < 60
	case m.ColdChain != nil:
		return m.ColdChain.CompliancePct-spec.MinCompliancePct < 0.5
	case m.Curing != nil:
		return m.Curing.WindowPct-spec.MinWindowPct < 0.5
	}
	return false
}
