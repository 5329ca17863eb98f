package scoring

import (
	"context"
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"qpcrscore/internal/config"
	"qpcrscore/internal/infrastructure"
	"qpcrscore/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of scoring spans.
const TracerName = "qpcrscore.scoring"

// Pipeline scores whole batches of readings.
type Pipeline struct {
	scorer         Scorer
	baselineCycles int
	workers        int
	tracer         trace.Tracer
	logger         *slog.Logger
}

// NewPipeline builds a pipeline for the configured model.
func NewPipeline(cfg config.ScoringConfig, logger *slog.Logger) (*Pipeline, error) {
	scorer, err := NewScorer(cfg)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	baseline := cfg.BaselineCycles
	if baseline <= 0 {
		baseline = config.DefaultBaselineCycles
	}

	return &Pipeline{
		scorer:         scorer,
		baselineCycles: baseline,
		workers:        workers,
		tracer:         otel.Tracer(TracerName),
		logger:         infrastructure.WithComponent(logger, "scoring_pipeline"),
	}, nil
}

// Model returns the scoring model the pipeline applies.
func (p *Pipeline) Model() domain.ScoringModel {
	return p.scorer.Model()
}

// ScoreWell extracts features from one cycle-ordered series and assesses it.
func (p *Pipeline) ScoreWell(series domain.WellSeries) (domain.WellFeatures, Assessment) {
	features := ExtractFeatures(series, p.baselineCycles)
	return features, p.scorer.Assess(features)
}

// Run filters, groups and scores readings. Results follow the order in
// which wells first appear in readings. source is copied onto every result
// and may be empty.
func (p *Pipeline) Run(ctx context.Context, source string, readings []domain.Reading) (*domain.BatchResult, error) {
	batchID := infrastructure.NewBatchID()
	ctx, span := p.tracer.Start(ctx, "scoring.batch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("batch.id", batchID),
			attribute.String("batch.source", source),
			attribute.String("scoring.model", string(p.Model())),
			attribute.Int("readings.in", len(readings)),
		),
	)
	defer span.End()

	kept := Filter(readings)
	wells := Group(kept)
	span.SetAttributes(
		attribute.Int("readings.kept", len(kept)),
		attribute.Int("wells", len(wells)),
	)

	results := make([]domain.WellScoreResult, len(wells))
	model := p.Model()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, series := range wells {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			features, assessment := p.ScoreWell(series)
			if assessment.Degenerate {
				p.logger.WarnContext(gctx, "well has non-numeric features",
					slog.String("batch_id", batchID),
					slog.String("well", series.Well),
					slog.Int("readings", series.Len()),
					slog.Float64("max_delta_rn", features.MaxDeltaRn),
					slog.Float64("baseline_noise", features.BaselineNoise),
					slog.Float64("max_slope", features.MaxSlope))
			}
			results[i] = newResult(source, series, features, assessment, model)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.WarnContext(ctx, "scoring aborted",
			slog.String("batch_id", batchID),
			slog.String("error", err.Error()))
		return nil, err
	}

	summary := Summarize(len(readings), len(kept), results)
	p.logger.InfoContext(ctx, "batch scored",
		slog.String("batch_id", batchID),
		slog.String("source", source),
		slog.String("model", string(model)),
		slog.Int("readings_in", summary.ReadingsIn),
		slog.Int("readings_kept", summary.ReadingsKept),
		slog.Int("wells", summary.Wells),
		slog.Int("degenerate_wells", summary.DegenerateWells))

	return &domain.BatchResult{
		ID:      batchID,
		Source:  source,
		Model:   model,
		Results: results,
		Summary: summary,
	}, nil
}
