package timeseries

import (
	"fmt"
	"strings"
)

// DataQualityError is a fatal defect in the input data: duplicate
// timestamps, insufficient points, unparseable units, excessive gaps under
// strict policy, or oversized input. It is terminal for the job; the only
// legitimate retry is the caller resubmitting corrected input.
type DataQualityError struct {
	Defect string // short stable class, e.g. "duplicate timestamps"
	Detail string // human diagnostic
}

func (e *DataQualityError) Error() string {
	if e.Detail == "" {
		return "timeseries: " + e.Defect
	}
	return fmt.Sprintf("timeseries: %s: %s", e.Defect, e.Detail)
}

// RequiredSignalMissingError reports required sensors absent from the data.
// The message enumerates required vs. available names so the caller can fix
// the header rather than guess.
type RequiredSignalMissingError struct {
	Required  []string
	Available []string
}

func (e *RequiredSignalMissingError) Error() string {
	return fmt.Sprintf("timeseries: required signals missing: required [%s], available [%s]",
		strings.Join(e.Required, ", "), strings.Join(e.Available, ", "))
}
