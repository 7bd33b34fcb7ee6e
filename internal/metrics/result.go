// Package metrics computes industry-specific process metrics from a
// normalized series and a validated specification. Every calculator is a
// pure function; the numeric methods (integration rule, interpolation rule,
// boundary tie-breaks) are fixed so independent reimplementations agree
// bit-for-bit on rational inputs.
package metrics

import (
	"time"

	"github.com/curelog/curelog/internal/industry"
)

// MetricResult is the computed quantities for one job. Exactly one of the
// industry sub-results is non-nil, matching Industry. Read-only once
// produced.
type MetricResult struct {
	Industry  industry.Industry `json:"industry"`
	Hold      *HoldMetrics      `json:"hold,omitempty"`
	Fo        *FoMetrics        `json:"fo,omitempty"`
	Cooling   *CoolingMetrics   `json:"cooling,omitempty"`
	ColdChain *ColdChainMetrics `json:"cold_chain,omitempty"`
	Curing    *CuringMetrics    `json:"curing,omitempty"`
}

// HoldMetrics covers powder cure and sterile dry-heat holds.
type HoldMetrics struct {
	// ThresholdC is the conservative threshold actually applied:
	// target + sensor uncertainty.
	ThresholdC float64 `json:"threshold_c"`

	// HoldSeconds is the governing hold per the spec's hold mode.
	HoldSeconds float64 `json:"hold_seconds"`

	// LongestSeconds and CumulativeSeconds are both always reported.
	LongestSeconds    float64 `json:"longest_seconds"`
	CumulativeSeconds float64 `json:"cumulative_seconds"`

	// IntervalCount is the number of distinct in-hold intervals after
	// hysteresis merging.
	IntervalCount int `json:"interval_count"`

	PeakTempC      float64 `json:"peak_temp_c"`
	MaxRampCPerMin float64 `json:"max_ramp_c_per_min"`
}

// FoMetrics covers autoclave steam sterilization.
type FoMetrics struct {
	FoMinutes          float64 `json:"fo_minutes"`
	RefTempC           float64 `json:"ref_temp_c"`
	ZValueC            float64 `json:"z_value_c"`
	PressureInBand     bool    `json:"pressure_in_band"`
	PressureViolations int     `json:"pressure_violations"`
	HoldTicks          int     `json:"hold_ticks"`
	PeakTempC          float64 `json:"peak_temp_c"`
}

// CoolingMetrics covers HACCP two-phase cooling.
type CoolingMetrics struct {
	PeakTempC float64   `json:"peak_temp_c"`
	PeakAt    time.Time `json:"peak_at"`

	// Crossing times estimated by monotone-decreasing linear interpolation.
	StartCrossing *time.Time `json:"start_crossing,omitempty"`
	MidCrossing   *time.Time `json:"mid_crossing,omitempty"`
	EndCrossing   *time.Time `json:"end_crossing,omitempty"`

	Phase1Seconds float64 `json:"phase1_seconds"`
	Phase2Seconds float64 `json:"phase2_seconds"`

	// PeakBelowStart means the series never reached the phase-1 start
	// temperature; phase 1 is then measured from the peak itself.
	PeakBelowStart bool `json:"peak_below_start"`
	ReachedMid     bool `json:"reached_mid"`
	ReachedEnd     bool `json:"reached_end"`
}

// Excursion is one episode outside the cold-chain band.
type Excursion struct {
	StartAt        time.Time `json:"start_at"`
	DurationS      float64   `json:"duration_s"`
	PeakDeviationC float64   `json:"peak_deviation_c"` // signed: + above band, − below
}

// ColdChainMetrics covers cold-storage band compliance.
type ColdChainMetrics struct {
	CompliancePct float64     `json:"compliance_pct"`
	TotalTicks    int         `json:"total_ticks"`
	InBandTicks   int         `json:"in_band_ticks"`
	Excursions    []Excursion `json:"excursions"`
}

// CuringMetrics covers the concrete initial-window check.
type CuringMetrics struct {
	WindowPct      float64 `json:"window_pct"`
	WindowTicks    int     `json:"window_ticks"`
	CompliantTicks int     `json:"compliant_ticks"`
}
