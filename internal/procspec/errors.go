package procspec

import "fmt"

// SchemaValidationError reports a structurally invalid specification. It is
// always fatal and surfaces to the caller verbatim with the offending field.
type SchemaValidationError struct {
	Field  string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("procspec: invalid specification: field %q: %s", e.Field, e.Reason)
}
