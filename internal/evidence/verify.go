package evidence

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/curelog/curelog/internal/integrity"
	"github.com/curelog/curelog/internal/metrics"
	"github.com/curelog/curelog/internal/procspec"
	"github.com/curelog/curelog/internal/timeseries"
	"github.com/curelog/curelog/internal/verdict"
)

// Mismatch kinds. A report is a list of these, never a bare boolean, so a
// reviewer can tell a corrupted member from a re-derived verdict change.
const (
	MismatchFileDigest       = "file_digest"
	MismatchFileSize         = "file_size"
	MismatchMemberMissing    = "member_missing"
	MismatchMemberUnexpected = "member_unexpected"
	MismatchRootHash         = "root_hash"
	MismatchOutcome          = "outcome"
	MismatchReasons          = "reasons"
	MismatchReplay           = "replay_failed"
)

// Mismatch is one verification discrepancy.
type Mismatch struct {
	Kind string `json:"kind"`
	Path string `json:"path,omitempty"`
	Want string `json:"want,omitempty"`
	Got  string `json:"got,omitempty"`
}

// Report is the outcome of verifying one bundle.
type Report struct {
	BundleID   uuid.UUID  `json:"bundle_id"`
	RootHash   string     `json:"root_hash"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// OK reports whether the bundle verified clean.
func (r *Report) OK() bool { return len(r.Mismatches) == 0 }

func (r *Report) add(m Mismatch) { r.Mismatches = append(r.Mismatches, m) }

// Verify checks a bundle end to end: every member digest against the
// manifest, the Merkle root, and a full replay of the pipeline from the
// embedded raw input and specification. A structurally unreadable bundle
// (bad zip, missing or unparseable manifest, unknown format) is an error;
// everything else is reported as mismatches.
func Verify(bundle []byte) (*Report, error) {
	zr, err := zip.NewReader(bytes.NewReader(bundle), int64(len(bundle)))
	if err != nil {
		return nil, fmt.Errorf("evidence: open bundle: %w", err)
	}

	members := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("evidence: open member %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("evidence: read member %s: %w", f.Name, err)
		}
		members[f.Name] = data
	}

	rawManifest, ok := members[MemberManifest]
	if !ok {
		return nil, fmt.Errorf("evidence: bundle has no %s", MemberManifest)
	}
	var manifest Manifest
	if err := json.Unmarshal(rawManifest, &manifest); err != nil {
		return nil, fmt.Errorf("evidence: parse manifest: %w", err)
	}
	if manifest.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("evidence: unsupported format_version %q", manifest.FormatVersion)
	}
	if manifest.RootAlgorithm != integrity.RootAlgorithm {
		return nil, fmt.Errorf("evidence: unsupported root_algorithm %q", manifest.RootAlgorithm)
	}

	report := &Report{BundleID: manifest.BundleID, RootHash: manifest.RootHash}
	verifyMembers(report, &manifest, members)
	verifyReplay(report, members)
	return report, nil
}

// verifyMembers re-digests every manifest entry and recomputes the root.
func verifyMembers(report *Report, manifest *Manifest, members map[string][]byte) {
	covered := map[string]bool{MemberManifest: true}
	leaves := make([]string, 0, len(manifest.Entries))

	for _, e := range manifest.Entries {
		covered[e.Path] = true
		data, ok := members[e.Path]
		if !ok {
			report.add(Mismatch{Kind: MismatchMemberMissing, Path: e.Path})
			// The recorded leaf still participates: the root check below
			// answers whether the manifest itself is intact.
			leaves = append(leaves, integrity.LeafHash(e.Algorithm, e.Size, e.Path, e.Digest))
			continue
		}
		digest, err := integrity.Digest(e.Algorithm, data)
		if err != nil {
			report.add(Mismatch{Kind: MismatchFileDigest, Path: e.Path, Got: err.Error()})
			continue
		}
		if digest != e.Digest {
			report.add(Mismatch{Kind: MismatchFileDigest, Path: e.Path, Want: e.Digest, Got: digest})
		}
		if int64(len(data)) != e.Size {
			report.add(Mismatch{Kind: MismatchFileSize, Path: e.Path,
				Want: fmt.Sprint(e.Size), Got: fmt.Sprint(len(data))})
		}
		leaves = append(leaves, integrity.LeafHash(e.Algorithm, int64(len(data)), e.Path, digest))
	}

	for path := range members {
		if !covered[path] {
			report.add(Mismatch{Kind: MismatchMemberUnexpected, Path: path})
		}
	}

	if root := integrity.BuildMerkleRoot(leaves); root != manifest.RootHash {
		report.add(Mismatch{Kind: MismatchRootHash, Want: manifest.RootHash, Got: root})
	}
}

// verifyReplay re-runs normalize, validate, calculate, and decide from the
// embedded raw input and specification, then compares the terminal outcome
// and reason codes against the recorded decision.
func verifyReplay(report *Report, members map[string][]byte) {
	rawCSV, ok := members[MemberRaw]
	if !ok {
		return // already reported as member_missing
	}
	var snap specSnapshot
	if err := json.Unmarshal(members[MemberSpec], &snap); err != nil {
		report.add(Mismatch{Kind: MismatchReplay, Path: MemberSpec, Got: err.Error()})
		return
	}
	var recorded decisionSnapshot
	if err := json.Unmarshal(members[MemberDecision], &recorded); err != nil {
		report.add(Mismatch{Kind: MismatchReplay, Path: MemberDecision, Got: err.Error()})
		return
	}

	spec, err := procspec.Validate(snap.Document, snap.Industry)
	if err != nil {
		report.add(Mismatch{Kind: MismatchReplay, Path: MemberSpec, Got: err.Error()})
		return
	}

	names, pattern := spec.RequiredSignals()
	series, err := timeseries.Normalize(rawCSV, snap.Pipeline, timeseries.Options{
		DeclaredTimezone: snap.DeclaredTimezone,
		DeclaredUnit:     snap.DeclaredUnit,
		RequiredSignals:  names,
		SensorPattern:    pattern,
		AllowedGap:       spec.AllowedGap(),
		Interval:         spec.SampleInterval(),
	})
	if err != nil {
		report.add(Mismatch{Kind: MismatchReplay, Path: MemberRaw, Got: err.Error()})
		return
	}

	primary, err := metrics.Compute(series, spec)
	if err != nil {
		report.add(Mismatch{Kind: MismatchReplay, Path: MemberMetrics, Got: err.Error()})
		return
	}
	var shadow *metrics.MetricResult
	if snap.Pipeline.SafetyMode {
		if shadow, err = metrics.ComputeShadow(series, spec); err != nil {
			report.add(Mismatch{Kind: MismatchReplay, Path: MemberMetrics, Got: err.Error()})
			return
		}
	}

	decision := verdict.Decide(primary, shadow, spec, snap.Pipeline)
	if decision.Outcome != recorded.Outcome {
		report.add(Mismatch{Kind: MismatchOutcome,
			Want: string(recorded.Outcome), Got: string(decision.Outcome)})
	}
	if got, want := strings.Join(decision.Reasons, ","), strings.Join(recorded.Reasons, ","); got != want {
		report.add(Mismatch{Kind: MismatchReasons, Want: want, Got: got})
	}
}
