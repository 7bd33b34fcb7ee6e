package timeseries

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/curelog/curelog/internal/config"
)

// naiveLayouts are timestamp layouts without a timezone offset, tried in
// order. Layouts with an explicit offset (RFC 3339) are tried first and
// keep their own zone.
var naiveLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// tsParser parses the timestamp column of one file. It remembers whether it
// saw an ambiguous slash date (both fields <= 12) and whether any row in
// the file disambiguated the day/month order, so the caller can decide
// whether the configured DateOrder actually mattered.
type tsParser struct {
	loc   *time.Location
	order config.DateOrder

	sawAmbiguous     bool
	sawDisambiguated bool
}

func newTimestampParser(loc *time.Location, order config.DateOrder) *tsParser {
	return &tsParser{loc: loc, order: order}
}

// resolveDateOrder scans all raw timestamp strings before parsing. If any
// slash date carries a field > 12 the file itself fixes the order, which
// overrides the configured policy (data wins over convention). Mixed
// evidence (some rows demand MDY, others DMY) is unparseable.
func (p *tsParser) resolveDateOrder(raw []string) error {
	demandsMDY, demandsDMY := false, false
	for _, s := range raw {
		a, b, ok := slashDateFields(s)
		if !ok {
			continue
		}
		switch {
		case a > 12 && b > 12:
			return &DataQualityError{Defect: "unparseable timestamp", Detail: fmt.Sprintf("%q has no valid month field", s)}
		case a > 12:
			demandsDMY = true
		case b > 12:
			demandsMDY = true
		default:
			p.sawAmbiguous = true
		}
	}
	if demandsMDY && demandsDMY {
		return &DataQualityError{Defect: "unparseable timestamp", Detail: "file mixes day/month orders"}
	}
	if demandsMDY {
		p.order, p.sawDisambiguated = config.DateOrderMDY, true
	}
	if demandsDMY {
		p.order, p.sawDisambiguated = config.DateOrderDMY, true
	}
	return nil
}

// ambiguityUnresolved reports whether the configured DateOrder was actually
// load-bearing: an ambiguous slash date appeared and nothing in the file
// settled the order.
func (p *tsParser) ambiguityUnresolved() bool {
	return p.sawAmbiguous && !p.sawDisambiguated
}

// parse converts one raw timestamp string to UTC.
func (p *tsParser) parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	// Unix seconds.
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}

	// Offset-carrying layouts keep their own zone.
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}

	// Naive layouts take the declared/assumed location.
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return t.UTC(), nil
		}
	}

	// Slash dates, day/month order per resolved policy.
	if t, ok := p.parseSlashDate(s); ok {
		return t.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp format %q", s)
}

func (p *tsParser) parseSlashDate(s string) (time.Time, bool) {
	layouts := []string{"01/02/2006 15:04:05", "01/02/2006 15:04", "01/02/2006"}
	if p.order == config.DateOrderDMY {
		layouts = []string{"02/01/2006 15:04:05", "02/01/2006 15:04", "02/01/2006"}
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// slashDateFields extracts the first two numeric fields of a slash date.
// ok is false when s is not a slash date at all.
func slashDateFields(s string) (a, b int, ok bool) {
	s = strings.TrimSpace(s)
	datePart, _, _ := strings.Cut(s, " ")
	parts := strings.Split(datePart, "/")
	if len(parts) != 3 {
		return 0, 0, false
	}
	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return a, b, true
}
