package timeseries

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/curelog/curelog/internal/config"
)

// Options carries the per-job normalization inputs: caller declarations plus
// the requirements the validated specification imposes on the data.
type Options struct {
	// DeclaredTimezone is the caller-declared IANA zone for naive
	// timestamps. Empty means none declared.
	DeclaredTimezone string

	// DeclaredUnit is the caller-declared temperature unit ("C" or "F")
	// for columns without a header unit tag. Empty means assume °C with a
	// warning.
	DeclaredUnit string

	// RequiredSignals are the sensor names the specification demands.
	RequiredSignals []string

	// SensorPattern optionally matches required signals by pattern instead
	// of exact name ("sensor_N" expands to sensor_1..sensor_N).
	SensorPattern string

	// AllowedGap is the spec's allowed_gap_s; zero disables gap checks.
	AllowedGap time.Duration

	// Interval is the canonical cadence. Zero means derive it from the
	// median observed inter-sample gap.
	Interval time.Duration
}

// temperature unit tags recognized in header suffixes like "temp (°F)".
var unitTags = map[string]string{
	"°c": "C", "c": "C", "degc": "C", "celsius": "C",
	"°f": "F", "f": "F", "degf": "F", "fahrenheit": "F",
	// Non-temperature units pass through unconverted.
	"kpa": "kPa", "%rh": "%RH", "rh": "%RH", "%": "%RH",
}

var headerUnitRe = regexp.MustCompile(`^(.*?)\s*\(([^)]+)\)\s*$`)

var timestampHeaders = map[string]bool{
	"timestamp": true, "time": true, "datetime": true,
	"date_time": true, "ts": true, "date": true,
}

// Normalize parses raw CSV bytes into a NormalizedSeries per the explicit
// policy in cfg and the job-specific opts. It never drops data silently:
// every lenient resolution is recorded as a warning, and every fatal defect
// is a typed error (*DataQualityError or *RequiredSignalMissingError).
//
// Resampling uses step-hold (last known value at or before each canonical
// tick), never linear interpolation, so no value in the output was ever
// fabricated between observations.
func Normalize(raw []byte, cfg config.PipelineConfig, opts Options) (*NormalizedSeries, error) {
	if int64(len(raw)) > cfg.MaxInputBytes {
		return nil, &DataQualityError{Defect: "input too large",
			Detail: fmt.Sprintf("%d bytes exceeds limit %d", len(raw), cfg.MaxInputBytes)}
	}

	header, rows, err := readCSV(raw, cfg.MaxSamples)
	if err != nil {
		return nil, err
	}

	tsCol, columns, warnings, err := resolveColumns(header, opts)
	if err != nil {
		return nil, err
	}

	loc, tzWarn, err := resolveLocation(opts.DeclaredTimezone, cfg.DefaultTimezone)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, tzWarn...)

	parser := newTimestampParser(loc, cfg.DateOrder)
	rawStamps := make([]string, len(rows))
	for i, row := range rows {
		rawStamps[i] = row[tsCol]
	}
	if err := parser.resolveDateOrder(rawStamps); err != nil {
		return nil, err
	}

	samples, missing, err := parseRows(rows, tsCol, columns, parser)
	if err != nil {
		return nil, err
	}
	if parser.ambiguityUnresolved() {
		w := Warning{Code: WarnAmbiguousDateOrder,
			Detail: fmt.Sprintf("slash dates are day/month ambiguous; resolved as %s by policy", cfg.DateOrder)}
		if cfg.FailOnParserWarnings {
			return nil, &DataQualityError{Defect: "ambiguous timestamps", Detail: w.Detail}
		}
		warnings = append(warnings, w)
	}
	if missing > 0 {
		warnings = append(warnings, Warning{Code: WarnMissingValues,
			Detail: fmt.Sprintf("%d empty or non-numeric cells held at last known value", missing)})
	}

	sort.SliceStable(samples, func(i, j int) bool { return samples[i].At.Before(samples[j].At) })

	samples, dupWarn, err := resolveDuplicates(samples, cfg.DuplicatePolicy)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, dupWarn...)

	if len(samples) < cfg.MinSamples {
		return nil, &DataQualityError{Defect: "insufficient data points",
			Detail: fmt.Sprintf("%d distinct points, need at least %d", len(samples), cfg.MinSamples)}
	}

	gapWarns, err := detectGaps(samples, opts.AllowedGap, cfg.StrictGaps)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, gapWarns...)

	interval := opts.Interval
	if interval <= 0 {
		interval = medianInterval(samples)
	}

	series := resample(samples, columnNames(columns), interval)
	dropWarns, err := dropEmptySignals(series, expandRequired(opts.RequiredSignals, opts.SensorPattern))
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, dropWarns...)
	series.Warnings = warnings
	return series, nil
}

type column struct {
	index int    // CSV column index
	name  string // canonical signal name
	unit  string // "C", "F", "kPa", "%RH", or "" (assume declared/default)
}

// readCSV decodes the payload and enforces the row-count precondition.
func readCSV(raw []byte, maxRows int) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1 // ragged rows detected below with a better message

	header, err := r.Read()
	if err != nil {
		return nil, nil, &DataQualityError{Defect: "unreadable input", Detail: fmt.Sprintf("no header row: %v", err)}
	}
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &DataQualityError{Defect: "unreadable input", Detail: err.Error()}
		}
		if len(row) != len(header) {
			return nil, nil, &DataQualityError{Defect: "unreadable input",
				Detail: fmt.Sprintf("row %d has %d fields, header has %d", len(rows)+2, len(row), len(header))}
		}
		rows = append(rows, row)
		if len(rows) > maxRows {
			return nil, nil, &DataQualityError{Defect: "input too large",
				Detail: fmt.Sprintf("more than %d rows", maxRows)}
		}
	}
	return header, rows, nil
}

// resolveColumns locates the timestamp column, maps sensor columns to
// canonical names and units, and enforces the required-signal list.
func resolveColumns(header []string, opts Options) (int, []column, []Warning, error) {
	// Column 0 is the documented fallback when no header matches.
	tsCol := 0
	for i, h := range header {
		if timestampHeaders[strings.ToLower(strings.TrimSpace(h))] {
			tsCol = i
			break
		}
	}

	var warnings []Warning
	var columns []column
	assumedUnits := 0
	for i, h := range header {
		if i == tsCol {
			continue
		}
		name := strings.TrimSpace(h)
		unit := ""
		if m := headerUnitRe.FindStringSubmatch(name); m != nil {
			tag := strings.ToLower(strings.TrimSpace(m[2]))
			canonical, ok := unitTags[tag]
			if !ok {
				return 0, nil, nil, &DataQualityError{Defect: "unparseable units",
					Detail: fmt.Sprintf("column %q has unrecognized unit tag %q", name, m[2])}
			}
			name, unit = strings.TrimSpace(m[1]), canonical
		}
		name = strings.ToLower(name)
		// Declared temperature units only apply to temperature-like columns;
		// pressure and humidity pass through untagged.
		if unit == "" && isTemperatureName(name) {
			switch strings.ToUpper(opts.DeclaredUnit) {
			case "C":
				unit = "C"
			case "F":
				unit = "F"
			case "":
				unit = "C"
				assumedUnits++
			default:
				return 0, nil, nil, &DataQualityError{Defect: "unparseable units",
					Detail: fmt.Sprintf("declared unit %q is not C or F", opts.DeclaredUnit)}
			}
		}
		columns = append(columns, column{index: i, name: name, unit: unit})
	}
	if assumedUnits > 0 {
		warnings = append(warnings, Warning{Code: WarnAssumedUnit,
			Detail: fmt.Sprintf("%d temperature column(s) without unit tag assumed °C", assumedUnits)})
	}

	required := expandRequired(opts.RequiredSignals, opts.SensorPattern)
	if len(required) > 0 {
		available := make(map[string]bool, len(columns))
		var availNames []string
		for _, c := range columns {
			available[c.name] = true
			availNames = append(availNames, c.name)
		}
		var missing bool
		for _, req := range required {
			if !available[strings.ToLower(req)] {
				missing = true
			}
		}
		if missing {
			sort.Strings(availNames)
			return 0, nil, nil, &RequiredSignalMissingError{Required: required, Available: availNames}
		}
	}

	return tsCol, columns, warnings, nil
}

func isTemperatureName(name string) bool {
	return strings.Contains(name, "temp") || strings.HasPrefix(name, "sensor_")
}

// expandRequired expands a "sensor_N" pattern (cold chain) into
// sensor_1..sensor_N alongside any exact names.
func expandRequired(names []string, pattern string) []string {
	out := append([]string(nil), names...)
	if pattern == "" {
		return out
	}
	// Pattern form "sensor_N" where the trailing integer is the count.
	idx := strings.LastIndex(pattern, "_")
	if idx < 0 {
		return out
	}
	n, err := strconv.Atoi(pattern[idx+1:])
	if err != nil || n <= 0 {
		return out
	}
	prefix := pattern[:idx+1]
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("%s%d", prefix, i))
	}
	return out
}

func resolveLocation(declared, fallback string) (*time.Location, []Warning, error) {
	if declared != "" {
		loc, err := time.LoadLocation(declared)
		if err != nil {
			return nil, nil, &DataQualityError{Defect: "unparseable timezone",
				Detail: fmt.Sprintf("declared timezone %q: %v", declared, err)}
		}
		return loc, nil, nil
	}
	if fallback == "" {
		fallback = "UTC"
	}
	loc, err := time.LoadLocation(fallback)
	if err != nil {
		return nil, nil, fmt.Errorf("timeseries: default timezone %q: %w", fallback, err)
	}
	var warns []Warning
	if fallback != "UTC" {
		warns = append(warns, Warning{Code: WarnAssumedTimezone,
			Detail: fmt.Sprintf("no timezone declared; assumed %s", fallback)})
	} else {
		warns = append(warns, Warning{Code: WarnAssumedTimezone,
			Detail: "no timezone declared; assumed UTC"})
	}
	return loc, warns, nil
}

// parseRows converts CSV rows into RawSamples. Empty and non-numeric cells
// are counted as missing (NaN) rather than dropped; the resampler holds the
// previous value over them and the caller records a warning.
func parseRows(rows [][]string, tsCol int, columns []column, parser *tsParser) ([]RawSample, int, error) {
	samples := make([]RawSample, 0, len(rows))
	missing := 0
	for i, row := range rows {
		at, err := parser.parse(row[tsCol])
		if err != nil {
			return nil, 0, &DataQualityError{Defect: "unparseable timestamp",
				Detail: fmt.Sprintf("row %d: %v", i+2, err)}
		}
		values := make(map[string]float64, len(columns))
		for _, c := range columns {
			cell := strings.TrimSpace(row[c.index])
			if cell == "" {
				values[c.name] = math.NaN()
				missing++
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				values[c.name] = math.NaN()
				missing++
				continue
			}
			if c.unit == "F" {
				v = (v - 32) * 5 / 9
			}
			values[c.name] = v
		}
		samples = append(samples, RawSample{At: at, Values: values})
	}
	return samples, missing, nil
}

// resolveDuplicates applies the explicit duplicate policy to the sorted
// sample slice.
func resolveDuplicates(samples []RawSample, policy config.DuplicatePolicy) ([]RawSample, []Warning, error) {
	dupCount := 0
	for i := 1; i < len(samples); i++ {
		if samples[i].At.Equal(samples[i-1].At) {
			dupCount++
		}
	}
	if dupCount == 0 {
		return samples, nil, nil
	}
	if policy == config.DuplicateFail {
		first := time.Time{}
		for i := 1; i < len(samples); i++ {
			if samples[i].At.Equal(samples[i-1].At) {
				first = samples[i].At
				break
			}
		}
		return nil, nil, &DataQualityError{Defect: "duplicate timestamps",
			Detail: fmt.Sprintf("%d duplicate(s), first at %s", dupCount, first.Format(time.RFC3339))}
	}

	out := make([]RawSample, 0, len(samples)-dupCount)
	i := 0
	for i < len(samples) {
		j := i + 1
		for j < len(samples) && samples[j].At.Equal(samples[i].At) {
			j++
		}
		if j == i+1 || policy == config.DuplicateFirstWins {
			out = append(out, samples[i])
		} else { // DuplicateMean
			merged := RawSample{At: samples[i].At, Values: make(map[string]float64, len(samples[i].Values))}
			for name := range samples[i].Values {
				sum, n := 0.0, 0
				for k := i; k < j; k++ {
					if v, ok := samples[k].Values[name]; ok && !math.IsNaN(v) {
						sum += v
						n++
					}
				}
				if n == 0 {
					merged.Values[name] = math.NaN()
				} else {
					merged.Values[name] = sum / float64(n)
				}
			}
			out = append(out, merged)
		}
		i = j
	}
	warn := Warning{Code: WarnDuplicateResolved,
		Detail: fmt.Sprintf("%d duplicate timestamp(s) resolved by %s policy", dupCount, policy)}
	return out, []Warning{warn}, nil
}

func detectGaps(samples []RawSample, allowed time.Duration, strict bool) ([]Warning, error) {
	if allowed <= 0 {
		return nil, nil
	}
	var warns []Warning
	for i := 1; i < len(samples); i++ {
		gap := samples[i].At.Sub(samples[i-1].At)
		if gap <= allowed {
			continue
		}
		detail := fmt.Sprintf("gap of %s starting %s exceeds allowed %s",
			gap, samples[i-1].At.Format(time.RFC3339), allowed)
		if strict {
			return nil, &DataQualityError{Defect: "excessive gap", Detail: detail}
		}
		warns = append(warns, Warning{Code: WarnExcessiveGap, Detail: detail})
	}
	return warns, nil
}

// medianInterval derives the canonical cadence from the median observed
// inter-sample gap, rounded to whole seconds with a 1s floor.
func medianInterval(samples []RawSample) time.Duration {
	diffs := make([]time.Duration, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		diffs = append(diffs, samples[i].At.Sub(samples[i-1].At))
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i] < diffs[j] })
	med := diffs[len(diffs)/2]
	med = med.Round(time.Second)
	if med < time.Second {
		med = time.Second
	}
	return med
}

func columnNames(columns []column) []string {
	seen := make(map[string]bool, len(columns))
	var names []string
	for _, c := range columns {
		if !seen[c.name] {
			seen[c.name] = true
			names = append(names, c.name)
		}
	}
	sort.Strings(names)
	return names
}

// dropEmptySignals removes columns in which no cell ever parsed to a
// number. Step-hold has nothing to hold for such a column, and an all-NaN
// signal cannot be serialized into the evidence bundle. The removal is
// recorded as a warning; a required signal with no numeric values is fatal.
func dropEmptySignals(series *NormalizedSeries, required []string) ([]Warning, error) {
	var empty, available []string
	for name, col := range series.Signals {
		if allNaN(col) {
			empty = append(empty, name)
		} else {
			available = append(available, name)
		}
	}
	sort.Strings(empty)
	sort.Strings(available)

	var warns []Warning
	for _, name := range empty {
		for _, req := range required {
			if req == name {
				return nil, &RequiredSignalMissingError{Required: required, Available: available}
			}
		}
		delete(series.Signals, name)
		warns = append(warns, Warning{Code: WarnEmptyColumnDropped,
			Detail: fmt.Sprintf("column %q has no numeric values", name)})
	}
	return warns, nil
}

func allNaN(col []float64) bool {
	for _, v := range col {
		if !math.IsNaN(v) {
			return false
		}
	}
	return len(col) > 0
}

// resample projects the raw samples onto canonical ticks from the first to
// the last timestamp at the given interval. Step-hold: each tick takes the
// most recent real observation at or before it. A sensor whose first
// observation is missing (NaN) back-fills from its first real value.
func resample(samples []RawSample, names []string, interval time.Duration) *NormalizedSeries {
	start, end := samples[0].At, samples[len(samples)-1].At
	n := int(end.Sub(start)/interval) + 1
	// A final sample that falls between ticks still counts: extend the grid
	// one tick past it so the step-hold picks it up.
	if start.Add(time.Duration(n-1) * interval).Before(end) {
		n++
	}

	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * interval)
	}

	signals := make(map[string][]float64, len(names))
	for _, name := range names {
		col := make([]float64, n)
		si := 0
		last := math.NaN()
		for i, tick := range times {
			for si < len(samples) && !samples[si].At.After(tick) {
				if v, ok := samples[si].Values[name]; ok && !math.IsNaN(v) {
					last = v
				}
				si++
			}
			col[i] = last
		}
		// Back-fill leading NaNs from the first real value.
		firstReal := math.NaN()
		for _, v := range col {
			if !math.IsNaN(v) {
				firstReal = v
				break
			}
		}
		for i := range col {
			if math.IsNaN(col[i]) {
				col[i] = firstReal
			} else {
				break
			}
		}
		signals[name] = col
	}

	return &NormalizedSeries{Interval: interval, Times: times, Signals: signals}
}
