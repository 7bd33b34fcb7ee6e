// Package timeseries normalizes raw tabular sensor logs into a canonical
// series: UTC timestamps on a fixed cadence, SI units, explicit data-quality
// warnings. It is the first pipeline stage; everything downstream assumes
// its invariants (strictly increasing timestamps, no duplicates, °C).
package timeseries

import (
	"time"
)

// RawSample is one parsed input row before normalization. Timestamps may
// still be ambiguous; values may be missing (NaN).
type RawSample struct {
	At     time.Time
	Values map[string]float64
}

// Warning is a non-fatal data-quality observation. Warnings are carried
// through to the decision and the evidence bundle so an auditor can see
// what leniency, if any, was applied.
type Warning struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Warning codes. Stable strings: tests and downstream consumers compare them.
const (
	WarnAmbiguousDateOrder = "ambiguous_date_order"
	WarnAssumedTimezone    = "assumed_timezone"
	WarnAssumedUnit        = "assumed_unit"
	WarnDuplicateResolved  = "duplicate_resolved"
	WarnEmptyColumnDropped = "empty_column_dropped"
	WarnExcessiveGap       = "excessive_gap"
	WarnMissingValues      = "missing_values"
)

// NormalizedSeries is the canonical series produced by Normalize. Columnar:
// Times is strictly increasing at a fixed Interval, and every signal slice
// is parallel to Times. Immutable once produced.
type NormalizedSeries struct {
	Interval time.Duration        `json:"interval_ns"`
	Times    []time.Time          `json:"times"`
	Signals  map[string][]float64 `json:"signals"`
	Warnings []Warning            `json:"warnings"`
}

// Len returns the number of canonical ticks.
func (s *NormalizedSeries) Len() int { return len(s.Times) }

// Duration returns the covered time span (zero for fewer than two ticks).
func (s *NormalizedSeries) Duration() time.Duration {
	if len(s.Times) < 2 {
		return 0
	}
	return s.Times[len(s.Times)-1].Sub(s.Times[0])
}

// Signal returns the named signal column, or nil if absent.
func (s *NormalizedSeries) Signal(name string) []float64 {
	return s.Signals[name]
}

// SignalNames returns the available signal names in unspecified order.
func (s *NormalizedSeries) SignalNames() []string {
	names := make([]string, 0, len(s.Signals))
	for name := range s.Signals {
		names = append(names, name)
	}
	return names
}

// Combined collapses the named signals into a single column using mode
// ("min", "mean", or "max"). The conservative default for hold evaluation
// is min: the coldest probe governs.
func (s *NormalizedSeries) Combined(names []string, mode string) []float64 {
	if len(names) == 1 {
		return s.Signals[names[0]]
	}
	out := make([]float64, len(s.Times))
	for i := range s.Times {
		var acc float64
		for j, name := range names {
			v := s.Signals[name][i]
			switch {
			case j == 0:
				acc = v
			case mode == "max" && v > acc:
				acc = v
			case mode == "min" && v < acc:
				acc = v
			case mode == "mean":
				acc += v
			}
		}
		if mode == "mean" {
			acc /= float64(len(names))
		}
		out[i] = acc
	}
	return out
}
