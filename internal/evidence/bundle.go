package evidence

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/curelog/curelog/internal/config"
	"github.com/curelog/curelog/internal/industry"
	"github.com/curelog/curelog/internal/metrics"
	"github.com/curelog/curelog/internal/timeseries"
	"github.com/curelog/curelog/internal/verdict"
)

// ErrErrorOutcome is returned when a bundle is requested for an ERROR
// outcome. An ERROR job has no defensible intermediate artifacts to attest.
var ErrErrorOutcome = errors.New("evidence: no bundle for ERROR outcome")

// BuildInput is everything a bundle attests. Now is the only clock the
// builder consults.
type BuildInput struct {
	BundleID uuid.UUID
	RawCSV   []byte

	// SpecDocument is the process specification exactly as submitted,
	// before alias rewriting. The verifier re-validates it from scratch.
	SpecDocument json.RawMessage
	Industry     industry.Industry

	// Caller declarations that shaped normalization.
	DeclaredTimezone string
	DeclaredUnit     string

	Series   *timeseries.NormalizedSeries
	Metrics  *metrics.MetricResult
	Decision verdict.Decision
	Config   config.PipelineConfig

	Now func() time.Time
}

// specSnapshot is the spec/specification.json member: the submitted
// document plus every input the verifier needs to replay the pipeline.
type specSnapshot struct {
	Industry         industry.Industry     `json:"industry"`
	Document         json.RawMessage       `json:"document"`
	Pipeline         config.PipelineConfig `json:"pipeline"`
	DeclaredTimezone string                `json:"declared_timezone,omitempty"`
	DeclaredUnit     string                `json:"declared_unit,omitempty"`
}

// decisionSnapshot is the decision/decision.json member. Metrics live in
// their own member; only the terminal outcome is recorded here.
type decisionSnapshot struct {
	BundleID  uuid.UUID            `json:"bundle_id"`
	CreatedAt time.Time            `json:"created_at"`
	Outcome   verdict.Outcome      `json:"outcome"`
	Reasons   []string             `json:"reasons"`
	Warnings  []timeseries.Warning `json:"warnings,omitempty"`
}

// Build produces the bundle archive and its manifest. The archive is
// deterministic: canonical member order, zero file metadata, and all
// timestamps from in.Now.
func Build(in BuildInput) ([]byte, *Manifest, error) {
	if in.Decision.Outcome == verdict.Error {
		return nil, nil, ErrErrorOutcome
	}
	createdAt := in.Now().UTC()

	members := map[string][]byte{MemberRaw: in.RawCSV}

	var err error
	if members[MemberSeries], err = marshalMember(MemberSeries, in.Series); err != nil {
		return nil, nil, err
	}
	snap := specSnapshot{
		Industry:         in.Industry,
		Document:         in.SpecDocument,
		Pipeline:         in.Config,
		DeclaredTimezone: in.DeclaredTimezone,
		DeclaredUnit:     in.DeclaredUnit,
	}
	if members[MemberSpec], err = marshalMember(MemberSpec, snap); err != nil {
		return nil, nil, err
	}
	if members[MemberMetrics], err = marshalMember(MemberMetrics, in.Metrics); err != nil {
		return nil, nil, err
	}
	dec := decisionSnapshot{
		BundleID:  in.BundleID,
		CreatedAt: createdAt,
		Outcome:   in.Decision.Outcome,
		Reasons:   in.Decision.Reasons,
		Warnings:  in.Decision.Warnings,
	}
	if members[MemberDecision], err = marshalMember(MemberDecision, dec); err != nil {
		return nil, nil, err
	}

	manifest, err := buildManifest(in.BundleID, createdAt, in.Config.DigestAlgorithm, members)
	if err != nil {
		return nil, nil, err
	}
	if members[MemberManifest], err = marshalMember(MemberManifest, manifest); err != nil {
		return nil, nil, err
	}

	archive, err := writeArchive(members)
	if err != nil {
		return nil, nil, err
	}
	return archive, manifest, nil
}

func marshalMember(path string, v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("evidence: marshal %s: %w", path, err)
	}
	return append(data, '\n'), nil
}

// writeArchive lays members down in canonical order with zeroed metadata.
// The zip Modified field is left at its zero value, which encodes as the
// fixed MS-DOS epoch, so the container adds no entropy of its own.
func writeArchive(members map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	paths := append(append([]string(nil), memberOrder...), MemberManifest)
	for _, path := range paths {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   path,
			Method: zip.Deflate,
		})
		if err != nil {
			return nil, fmt.Errorf("evidence: create %s: %w", path, err)
		}
		if _, err := w.Write(members[path]); err != nil {
			return nil, fmt.Errorf("evidence: write %s: %w", path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("evidence: close archive: %w", err)
	}
	return buf.Bytes(), nil
}
