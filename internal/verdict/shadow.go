package verdict

import (
	"math"

	"github.com/curelog/curelog/internal/metrics"
	"github.com/curelog/curelog/internal/procspec"
)

// shadowAgrees compares primary and shadow metric results within
// per-industry tolerances. The tolerances absorb legitimate method
// differences (trapezoid vs left-Riemann); anything beyond them means one
// of the implementations is wrong, which only INDETERMINATE can express.
func shadowAgrees(primary, shadow *metrics.MetricResult, spec *procspec.Specification) bool {
	switch {
	case primary.Hold != nil && shadow.Hold != nil:
		return within(primary.Hold.HoldSeconds, shadow.Hold.HoldSeconds, 1.0) &&
			within(primary.Hold.CumulativeSeconds, shadow.Hold.CumulativeSeconds, 1.0) &&
			primary.Hold.IntervalCount == shadow.Hold.IntervalCount

	case primary.Fo != nil && shadow.Fo != nil:
		// Left-Riemann differs from trapezoid by at most one edge term;
		// 5% relative (floor 0.1 min) covers any plausible cadence.
		tol := math.Max(0.05*primary.Fo.FoMinutes, 0.1)
		return within(primary.Fo.FoMinutes, shadow.Fo.FoMinutes, tol) &&
			primary.Fo.PressureInBand == shadow.Fo.PressureInBand

	case primary.Cooling != nil && shadow.Cooling != nil:
		return primary.Cooling.ReachedMid == shadow.Cooling.ReachedMid &&
			primary.Cooling.ReachedEnd == shadow.Cooling.ReachedEnd &&
			within(primary.Cooling.Phase1Seconds, shadow.Cooling.Phase1Seconds, 1.0) &&
			within(primary.Cooling.Phase2Seconds, shadow.Cooling.Phase2Seconds, 1.0)

	case primary.ColdChain != nil && shadow.ColdChain != nil:
		return within(primary.ColdChain.CompliancePct, shadow.ColdChain.CompliancePct, 0.1) &&
			len(primary.ColdChain.Excursions) == len(shadow.ColdChain.Excursions)

	case primary.Curing != nil && shadow.Curing != nil:
		return within(primary.Curing.WindowPct, shadow.Curing.WindowPct, 0.1)
	}
	return false
}

func within(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
