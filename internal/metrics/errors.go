package metrics

import "fmt"

// ComputationError is an internal invariant violation inside a calculator
// (e.g. a non-monotone interpolation bracket). It marks a defect to be
// fixed, never a data problem, and is never swallowed.
type ComputationError struct {
	Calculator string
	Detail     string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("metrics: %s: internal invariant violated: %s", e.Calculator, e.Detail)
}
