// Package testutil provides synthetic series and CSV builders shared by
// tests across the module. All builders are deterministic: no randomness,
// no wall clock.
package testutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/curelog/curelog/internal/timeseries"
)

// T0 is the base timestamp every synthetic series starts at.
var T0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Series builds a NormalizedSeries directly, bypassing CSV parsing. Every
// signal slice must have the same length.
func Series(interval time.Duration, signals map[string][]float64) *timeseries.NormalizedSeries {
	n := 0
	for _, col := range signals {
		n = len(col)
		break
	}
	times := make([]time.Time, n)
	for i := range times {
		times[i] = T0.Add(time.Duration(i) * interval)
	}
	return &timeseries.NormalizedSeries{Interval: interval, Times: times, Signals: signals}
}

// Constant returns n copies of v.
func Constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Ramp returns n values linearly spaced from a to b inclusive.
func Ramp(a, b float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = a
		return out
	}
	step := (b - a) / float64(n-1)
	for i := range out {
		out[i] = a + float64(i)*step
	}
	return out
}

// Concat joins value segments into one column.
func Concat(segments ...[]float64) []float64 {
	var out []float64
	for _, s := range segments {
		out = append(out, s...)
	}
	return out
}

// CSV renders a one-signal CSV payload with RFC 3339 timestamps at the
// given cadence, suitable for Normalize and pipeline tests.
func CSV(header string, interval time.Duration, values []float64) []byte {
	var b strings.Builder
	b.WriteString("timestamp," + header + "\n")
	for i, v := range values {
		fmt.Fprintf(&b, "%s,%g\n", T0.Add(time.Duration(i)*interval).Format(time.RFC3339), v)
	}
	return []byte(b.String())
}

// CSVColumns renders a multi-signal CSV payload. Column order follows
// headers; every column must have the same length.
func CSVColumns(headers []string, interval time.Duration, columns ...[]float64) []byte {
	var b strings.Builder
	b.WriteString("timestamp," + strings.Join(headers, ",") + "\n")
	for i := range columns[0] {
		b.WriteString(T0.Add(time.Duration(i) * interval).Format(time.RFC3339))
		for _, col := range columns {
			fmt.Fprintf(&b, ",%g", col[i])
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}
