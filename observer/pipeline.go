package observer

import (
	"context"
	"time"

	quire "github.com/nevindra/quire"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Runner is the pipeline surface the wrapper instruments.
// *quire.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, in quire.Input) (*quire.Outcome, error)
}

// ObservedPipeline wraps a Runner to emit OTEL lifecycle spans, metrics, and
// logs. The wrapper creates a parent span for each Run call that contains all
// inner operations (stage spans, LLM calls) as child spans via context
// propagation.
type ObservedPipeline struct {
	inner Runner
	inst  *Instruments
}

// WrapPipeline returns an instrumented pipeline that emits run telemetry.
func WrapPipeline(inner Runner, inst *Instruments) *ObservedPipeline {
	return &ObservedPipeline{inner: inner, inst: inst}
}

// Run wraps the inner pipeline's Run, emitting a pipeline.run span that
// serves as the parent for all stage spans.
func (o *ObservedPipeline) Run(ctx context.Context, in quire.Input) (*quire.Outcome, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		AttrDocumentName.String(in.Name),
	))
	defer span.End()
	start := time.Now()

	span.AddEvent("pipeline.started")

	out, err := o.inner.Run(ctx, in)

	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"

	if ctx.Err() != nil && err != nil {
		status = "cancelled"
		span.AddEvent("pipeline.cancelled")
		span.SetStatus(codes.Error, "cancelled")
	} else if err != nil {
		status = "error"
		span.AddEvent("pipeline.failed", trace.WithAttributes(
			attribute.String("error", err.Error()),
		))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.AddEvent("pipeline.completed")
	}

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("pipeline run completed"))
	rec.AddAttributes(
		otellog.String("document.name", in.Name),
		otellog.String("status", status),
		otellog.Float64("duration_ms", durationMs),
	)

	if out != nil {
		span.SetAttributes(
			AttrPipelineStatus.String(status),
			AttrDocumentID.String(out.Document.ID),
			AttrDocumentPages.Int(out.Document.PageCount),
			AttrDocumentLanguage.String(out.Document.Language.Code),
			AttrExportCount.Int(len(out.Exports)),
		)
		o.inst.DocumentPages.Add(ctx, int64(out.Document.PageCount))
		if len(out.Exports) > 0 {
			o.inst.ExportFiles.Add(ctx, int64(len(out.Exports)))
		}
		rec.AddAttributes(
			otellog.String("document.id", out.Document.ID),
			otellog.Int("document.pages", out.Document.PageCount),
			otellog.String("document.language", out.Document.Language.Code),
			otellog.Int("warnings", len(out.Warnings)),
		)
	} else {
		span.SetAttributes(AttrPipelineStatus.String(status))
	}

	o.inst.PipelineRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
	o.inst.PipelineDuration.Record(ctx, durationMs)

	o.inst.Logger.Emit(ctx, rec)

	return out, err
}

// NewStageFunc returns a quire.StageFunc that records per-stage duration
// metrics. Install it on the pipeline via quire.WithStageFunc.
func NewStageFunc(inst *Instruments) quire.StageFunc {
	return func(stage string, elapsed time.Duration, err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		inst.StageDuration.Record(context.Background(), float64(elapsed.Milliseconds()), metric.WithAttributes(
			AttrStage.String(stage),
			attribute.String("status", status),
		))
	}
}

// compile-time check
var _ Runner = (*ObservedPipeline)(nil)
