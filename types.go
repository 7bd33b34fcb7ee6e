package curelog

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal state of a verification job.
type Outcome string

const (
	OutcomePass          Outcome = "PASS"
	OutcomeFail          Outcome = "FAIL"
	OutcomeIndeterminate Outcome = "INDETERMINATE"
	OutcomeError         Outcome = "ERROR"
)

// Industry names accepted by Decide. The set is closed: anything else is
// rejected during spec validation.
const (
	IndustryPowder    = "powder"
	IndustryAutoclave = "autoclave"
	IndustryHACCP     = "haccp"
	IndustryColdChain = "coldchain"
	IndustryConcrete  = "concrete"
	IndustrySterile   = "sterile"
)

// Input is one verification job: a raw CSV sensor log and the process
// specification to judge it against.
type Input struct {
	// CSV is the raw sensor log bytes, untouched.
	CSV []byte

	// Spec is the process specification JSON document.
	Spec []byte

	// Industry selects the calculator and validation rules.
	Industry string

	// Timezone is the declared IANA zone for naive timestamps (optional).
	Timezone string

	// Unit is the declared temperature unit, "C" or "F", for columns
	// without a header unit tag (optional).
	Unit string
}

// Warning is one normalization leniency that was applied to the data.
// It is a curated view of internal/timeseries.Warning. No internal
// package imports, safe to use from outside the module.
type Warning struct {
	Code   string
	Detail string
}

// Verdict is the public result of one job.
type Verdict struct {
	JobID    uuid.UUID
	Outcome  Outcome
	Reasons  []string
	Warnings []Warning

	// MetricsJSON is the computed metrics snapshot, the same document that
	// becomes the metrics/result.json member of an evidence bundle.
	MetricsJSON []byte

	// Err is the typed stage error behind an ERROR outcome, nil otherwise.
	Err error
}

// BundleInfo describes a built evidence bundle.
type BundleInfo struct {
	ID        uuid.UUID
	RootHash  string
	CreatedAt time.Time
}

// Mismatch is one discrepancy found while verifying a bundle.
type Mismatch struct {
	Kind string
	Path string
	Want string
	Got  string
}

// VerifyReport is the outcome of verifying a bundle. An empty Mismatches
// slice means the bundle checked out completely.
type VerifyReport struct {
	BundleID   uuid.UUID
	RootHash   string
	Mismatches []Mismatch
}

// OK reports whether the bundle verified clean.
func (r *VerifyReport) OK() bool { return len(r.Mismatches) == 0 }
