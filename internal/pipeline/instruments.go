package pipeline

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/curelog/curelog/internal/telemetry"
	"github.com/curelog/curelog/internal/verdict"
)

// tracer binds lazily through the global delegate, so spans reach the real
// provider once telemetry.Init installs it.
var tracer = telemetry.Tracer("curelog/pipeline")

var (
	instrumentsOnce sync.Once
	jobsTotal       metric.Int64Counter
	stageFailures   metric.Int64Counter
)

// instruments creates the counters lazily, after telemetry.Init has had a
// chance to install the real meter provider. Without Init the provider is
// no-op and recording costs nothing.
func instruments() {
	instrumentsOnce.Do(func() {
		meter := telemetry.Meter("curelog/pipeline")
		jobsTotal, _ = meter.Int64Counter("curelog.jobs_total",
			metric.WithDescription("Jobs decided, by terminal outcome."))
		stageFailures, _ = meter.Int64Counter("curelog.stage_failures_total",
			metric.WithDescription("Typed stage errors, by stage."))
	})
}

func recordJob(ctx context.Context, outcome verdict.Outcome) {
	instruments()
	if jobsTotal != nil {
		jobsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
	}
}

func recordStageFailure(ctx context.Context, stage string) {
	instruments()
	if stageFailures != nil {
		stageFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
	}
}
