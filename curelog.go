// Package curelog is the public API for embedding the curelog compliance
// verifier: it turns a raw sensor log and a process specification into a
// PASS / FAIL / INDETERMINATE / ERROR verdict and a tamper-evident
// evidence bundle that lets any third party reproduce that verdict.
//
//	v, err := curelog.New(
//	    curelog.WithSafetyMode(),
//	    curelog.WithLogger(logger),
//	)
//	if err != nil { ... }
//	verdict, err := v.Decide(ctx, curelog.Input{
//	    CSV: csvBytes, Spec: specJSON, Industry: curelog.IndustryPowder,
//	})
//
// The import graph enforces a strict no-cycle rule: curelog (root) imports
// internal/*, but internal/* never imports curelog (root). Public types
// (Verdict, Warning, VerifyReport) are standalone structs with no internal
// imports; conversion helpers live here because this is the only file that
// sees both sides of the boundary.
package curelog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/curelog/curelog/internal/config"
	"github.com/curelog/curelog/internal/evidence"
	"github.com/curelog/curelog/internal/industry"
	"github.com/curelog/curelog/internal/pipeline"
)

// Verifier runs verification jobs. Construct with New(); a Verifier is
// immutable and safe for concurrent use.
type Verifier struct {
	cfg         config.PipelineConfig
	logger      *slog.Logger
	parallelism int
	now         func() time.Time
}

// New builds a Verifier from options. Option values are validated here, so
// a constructed Verifier can never produce a config error mid-job.
func New(opts ...Option) (*Verifier, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	cfg := config.DefaultPipelineConfig()
	cfg.SafetyMode = o.safetyMode
	cfg.FailOnParserWarnings = o.failOnParserWarnings
	cfg.StrictGaps = o.strictGaps
	if o.duplicatePolicy != "" {
		cfg.DuplicatePolicy = config.DuplicatePolicy(o.duplicatePolicy)
	}
	if o.dateOrder != "" {
		cfg.DateOrder = config.DateOrder(o.dateOrder)
	}
	if o.defaultTimezone != "" {
		cfg.DefaultTimezone = o.defaultTimezone
	}
	if o.digestAlgorithm != "" {
		cfg.DigestAlgorithm = o.digestAlgorithm
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	parallelism := o.parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	now := o.now
	if now == nil {
		now = time.Now
	}

	return &Verifier{cfg: cfg, logger: logger, parallelism: parallelism, now: now}, nil
}

// Decide runs one job to a terminal verdict. Defective inputs come back as
// OutcomeError with the typed cause in Verdict.Err; the returned Go error
// is reserved for context cancellation and marshalling faults.
func (v *Verifier) Decide(ctx context.Context, in Input) (*Verdict, error) {
	res, err := pipeline.Run(ctx, v.job(in))
	if err != nil {
		return nil, err
	}
	return toPublicVerdict(res)
}

// DecideBundle runs one job and, for any non-ERROR outcome, builds the
// evidence bundle. The archive bytes and manifest summary accompany the
// verdict; on ERROR both are nil and only the verdict is returned.
func (v *Verifier) DecideBundle(ctx context.Context, in Input) (*Verdict, []byte, *BundleInfo, error) {
	job := v.job(in)
	res, err := pipeline.Run(ctx, job)
	if err != nil {
		return nil, nil, nil, err
	}
	verdict, err := toPublicVerdict(res)
	if err != nil {
		return nil, nil, nil, err
	}
	if verdict.Outcome == OutcomeError {
		return verdict, nil, nil, nil
	}

	archive, manifest, err := pipeline.Bundle(job, res)
	if err != nil {
		return nil, nil, nil, err
	}
	info := &BundleInfo{
		ID:        manifest.BundleID,
		RootHash:  manifest.RootHash,
		CreatedAt: manifest.CreatedAt,
	}
	return verdict, archive, info, nil
}

// DecideBatch runs jobs concurrently (bounded by WithParallelism) and
// returns verdicts in input order. One job's ERROR never affects another.
func (v *Verifier) DecideBatch(ctx context.Context, inputs []Input) ([]*Verdict, error) {
	jobs := make([]pipeline.Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = v.job(in)
	}
	results := pipeline.RunBatch(ctx, jobs, v.parallelism)

	verdicts := make([]*Verdict, len(results))
	for i, res := range results {
		verdict, err := toPublicVerdict(res)
		if err != nil {
			return nil, err
		}
		verdicts[i] = verdict
	}
	return verdicts, nil
}

// Verify checks an evidence bundle: member digests, the Merkle root, and a
// full replay of the pipeline from the embedded inputs. It needs no
// Verifier because every policy that shaped the verdict is embedded in the
// bundle itself.
func Verify(bundle []byte) (*VerifyReport, error) {
	report, err := evidence.Verify(bundle)
	if err != nil {
		return nil, err
	}
	out := &VerifyReport{BundleID: report.BundleID, RootHash: report.RootHash}
	for _, m := range report.Mismatches {
		out.Mismatches = append(out.Mismatches, Mismatch{
			Kind: m.Kind, Path: m.Path, Want: m.Want, Got: m.Got,
		})
	}
	return out, nil
}

func (v *Verifier) job(in Input) pipeline.Job {
	return pipeline.Job{
		ID:               uuid.New(),
		RawCSV:           in.CSV,
		SpecDocument:     in.Spec,
		Industry:         industry.Industry(in.Industry),
		DeclaredTimezone: in.Timezone,
		DeclaredUnit:     in.Unit,
		Config:           v.cfg,
		Logger:           v.logger,
		Now:              v.now,
	}
}

func toPublicVerdict(res pipeline.Result) (*Verdict, error) {
	verdict := &Verdict{
		JobID:   res.JobID,
		Outcome: Outcome(res.Decision.Outcome),
		Reasons: res.Decision.Reasons,
		Err:     res.Err,
	}
	for _, w := range res.Decision.Warnings {
		verdict.Warnings = append(verdict.Warnings, Warning{Code: w.Code, Detail: w.Detail})
	}
	if res.Metrics != nil {
		data, err := json.MarshalIndent(res.Metrics, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("curelog: marshal metrics: %w", err)
		}
		verdict.MetricsJSON = data
	}
	return verdict, nil
}
