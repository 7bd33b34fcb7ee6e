// Package pipeline orchestrates one verification job end to end:
// normalize, validate, calculate, decide, and optionally bundle. Each run
// is pure per-job; the only shared state is telemetry instruments.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/curelog/curelog/internal/config"
	"github.com/curelog/curelog/internal/evidence"
	"github.com/curelog/curelog/internal/industry"
	"github.com/curelog/curelog/internal/metrics"
	"github.com/curelog/curelog/internal/procspec"
	"github.com/curelog/curelog/internal/timeseries"
	"github.com/curelog/curelog/internal/verdict"
)

// Stage names, used in ERROR reasons and telemetry attributes.
const (
	StageValidate  = "validate"
	StageNormalize = "normalize"
	StageCompute   = "compute"
)

// Job is one unit of work: a raw sensor log, the process specification it
// is judged against, and the policies that govern the run.
type Job struct {
	ID           uuid.UUID
	RawCSV       []byte
	SpecDocument json.RawMessage
	Industry     industry.Industry

	// Caller declarations forwarded to normalization.
	DeclaredTimezone string
	DeclaredUnit     string

	Config config.PipelineConfig

	// Logger receives the per-stage log records for this job. Nil means
	// slog.Default.
	Logger *slog.Logger

	// Now supplies bundle timestamps. Nil means time.Now.
	Now func() time.Time
}

// Result carries the decision plus every intermediate artifact, so a caller
// can bundle or inspect without re-running anything. Err is the typed stage
// error behind an ERROR outcome and nil otherwise.
type Result struct {
	JobID    uuid.UUID
	Decision verdict.Decision
	Spec     *procspec.Specification
	Series   *timeseries.NormalizedSeries
	Metrics  *metrics.MetricResult
	Err      error
}

// Run executes the stages in order. A typed stage error does not surface as
// a Go error: it becomes an ERROR decision whose reason carries the error
// class and message, because ERROR is a terminal outcome like any other.
// The returned error is reserved for context cancellation.
func Run(ctx context.Context, job Job) (res Result, _ error) {
	if err := ctx.Err(); err != nil {
		return Result{JobID: job.ID}, err
	}
	ctx, span := tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("curelog.job_id", job.ID.String()),
			attribute.String("curelog.industry", string(job.Industry)),
		),
	)
	defer func() {
		span.SetAttributes(attribute.String("curelog.outcome", string(res.Decision.Outcome)))
		span.End()
	}()

	logger := job.Logger
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("job_id", job.ID, "industry", job.Industry)
	res = Result{JobID: job.ID}

	spec, err := procspec.Validate(job.SpecDocument, job.Industry)
	if err != nil {
		return errorResult(log, res, StageValidate, err), nil
	}
	res.Spec = spec

	names, pattern := spec.RequiredSignals()
	series, err := timeseries.Normalize(job.RawCSV, job.Config, timeseries.Options{
		DeclaredTimezone: job.DeclaredTimezone,
		DeclaredUnit:     job.DeclaredUnit,
		RequiredSignals:  names,
		SensorPattern:    pattern,
		AllowedGap:       spec.AllowedGap(),
		Interval:         spec.SampleInterval(),
	})
	if err != nil {
		return errorResult(log, res, StageNormalize, err), nil
	}
	res.Series = series

	primary, err := metrics.Compute(series, spec)
	if err != nil {
		return errorResult(log, res, StageCompute, err), nil
	}
	res.Metrics = primary

	var shadow *metrics.MetricResult
	if job.Config.SafetyMode {
		if shadow, err = metrics.ComputeShadow(series, spec); err != nil {
			return errorResult(log, res, StageCompute, err), nil
		}
	}

	res.Decision = verdict.Decide(primary, shadow, spec, job.Config)
	res.Decision.Warnings = series.Warnings

	log.Info("job decided",
		"outcome", res.Decision.Outcome,
		"reasons", res.Decision.Reasons,
		"warnings", len(series.Warnings))
	recordJob(ctx, res.Decision.Outcome)
	return res, nil
}

// Bundle builds the evidence archive for a completed run. It refuses ERROR
// outcomes, mirroring evidence.Build.
func Bundle(job Job, res Result) ([]byte, *evidence.Manifest, error) {
	if res.Err != nil {
		return nil, nil, evidence.ErrErrorOutcome
	}
	now := job.Now
	if now == nil {
		now = time.Now
	}
	id := job.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return evidence.Build(evidence.BuildInput{
		BundleID:         id,
		RawCSV:           job.RawCSV,
		SpecDocument:     job.SpecDocument,
		Industry:         job.Industry,
		DeclaredTimezone: job.DeclaredTimezone,
		DeclaredUnit:     job.DeclaredUnit,
		Series:           res.Series,
		Metrics:          res.Metrics,
		Decision:         res.Decision,
		Config:           job.Config,
		Now:              now,
	})
}

// errorClass maps a typed stage error to its stable reason prefix.
func errorClass(err error) string {
	var schemaErr *procspec.SchemaValidationError
	var qualityErr *timeseries.DataQualityError
	var signalErr *timeseries.RequiredSignalMissingError
	var computeErr *metrics.ComputationError
	switch {
	case errors.As(err, &schemaErr):
		return "spec_invalid"
	case errors.As(err, &qualityErr):
		return "data_quality"
	case errors.As(err, &signalErr):
		return "required_signal_missing"
	case errors.As(err, &computeErr):
		return "computation"
	}
	return "internal"
}

func errorResult(log *slog.Logger, res Result, stage string, err error) Result {
	log.Error("stage failed", "stage", stage, "error", err)
	recordStageFailure(context.Background(), stage)
	recordJob(context.Background(), verdict.Error)
	res.Err = err
	res.Decision = verdict.Decision{
		Outcome: verdict.Error,
		Reasons: []string{fmt.Sprintf("%s: %v", errorClass(err), err)},
	}
	return res
}
