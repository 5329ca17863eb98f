package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"qpcrscore/internal/amplification"
	"qpcrscore/internal/config"
	"qpcrscore/internal/exporter"
	"qpcrscore/internal/infrastructure"
	"qpcrscore/internal/scoring"
	"qpcrscore/pkg/contracts/domain"
)

// ScoringService runs the load, score and export path shared by the CLI and
// the HTTP server.
type ScoringService struct {
	loader   *amplification.Loader
	pipeline *scoring.Pipeline
	writer   *exporter.ResultWriter
	metrics  *infrastructure.ScoringMetrics
	logger   *slog.Logger
}

// NewScoringService wires the loader, pipeline and writer from cfg. metrics
// may be nil.
func NewScoringService(cfg *config.Config, metrics *infrastructure.ScoringMetrics, logger *slog.Logger) (*ScoringService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("scoring service: %w", ErrNotInitialized)
	}
	if logger == nil {
		logger = slog.Default()
	}

	pipeline, err := scoring.NewPipeline(cfg.Scoring, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create scoring pipeline: %w", err)
	}

	logger.Info("ScoringService initialized",
		slog.String("model", string(pipeline.Model())),
		slog.String("sheet", cfg.Input.Sheet),
		slog.Int("skip_rows", cfg.Input.SkipRows),
		slog.Bool("source_column", cfg.Export.SourceColumn))

	return &ScoringService{
		loader:   amplification.NewLoader(amplification.OptionsFromConfig(cfg.Input), logger),
		pipeline: pipeline,
		writer:   exporter.NewResultWriter(exporter.OptionsFromConfig(cfg.Export), logger),
		metrics:  metrics,
		logger:   infrastructure.WithComponent(logger, "scoring_service"),
	}, nil
}

// Model returns the scoring model in use.
func (s *ScoringService) Model() domain.ScoringModel {
	return s.pipeline.Model()
}

// ScoreFile loads and scores one file. The file's base name becomes the
// batch source.
func (s *ScoringService) ScoreFile(ctx context.Context, path string) (*domain.BatchResult, error) {
	start := time.Now()
	source := filepath.Base(path)

	readings, err := s.loader.LoadFile(ctx, path)
	if err != nil {
		return s.fail(ctx, source, start, err)
	}
	return s.score(ctx, source, start, readings)
}

// ScoreUpload scores a table read from r. name picks the format and becomes
// the batch source.
func (s *ScoringService) ScoreUpload(ctx context.Context, name string, r io.Reader) (*domain.BatchResult, error) {
	start := time.Now()
	source := filepath.Base(name)

	readings, err := s.loader.Load(ctx, source, r)
	if err != nil {
		return s.fail(ctx, source, start, err)
	}
	return s.score(ctx, source, start, readings)
}

// ScoreFiles scores every path in order. The first failure aborts the run
// and no batch is returned.
func (s *ScoringService) ScoreFiles(ctx context.Context, paths []string) ([]*domain.BatchResult, error) {
	if len(paths) == 0 {
		return nil, ErrNoInputs
	}

	batches := make([]*domain.BatchResult, 0, len(paths))
	for _, path := range paths {
		batch, err := s.ScoreFile(ctx, path)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// ExportCSV writes the results of every batch, in order, as one CSV table.
func (s *ScoringService) ExportCSV(ctx context.Context, w io.Writer, batches ...*domain.BatchResult) error {
	return s.writer.Write(ctx, w, flatten(batches))
}

// ExportFile writes the results of every batch to path.
func (s *ScoringService) ExportFile(ctx context.Context, path string, batches ...*domain.BatchResult) error {
	results := flatten(batches)
	if err := s.writer.WriteFile(ctx, path, results); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "results exported",
		slog.String("path", path),
		slog.Int("batches", len(batches)),
		slog.Int("wells", len(results)))
	return nil
}

// CheckHealth implements Checker.
func (s *ScoringService) CheckHealth(ctx context.Context) error {
	if s == nil || s.pipeline == nil || s.loader == nil || s.writer == nil {
		return ErrNotInitialized
	}
	return ctx.Err()
}

func (s *ScoringService) score(ctx context.Context, source string, start time.Time, readings []domain.Reading) (*domain.BatchResult, error) {
	result, err := s.pipeline.Run(ctx, source, readings)
	if err != nil {
		return s.fail(ctx, source, start, err)
	}
	s.metrics.RecordBatch(ctx, s.Model(), result, time.Since(start), nil)
	return result, nil
}

func (s *ScoringService) fail(ctx context.Context, source string, start time.Time, err error) (*domain.BatchResult, error) {
	s.metrics.RecordBatch(ctx, s.Model(), nil, time.Since(start), err)
	s.logger.WarnContext(ctx, "batch failed",
		slog.String("source", source),
		slog.String("error", err.Error()))
	return nil, err
}

func flatten(batches []*domain.BatchResult) []domain.WellScoreResult {
	n := 0
	for _, b := range batches {
		if b != nil {
			n += len(b.Results)
		}
	}
	results := make([]domain.WellScoreResult, 0, n)
	for _, b := range batches {
		if b != nil {
			results = append(results, b.Results...)
		}
	}
	return results
}
