package http

import (
	"context"
	"io"

	"qpcrscore/pkg/contracts/domain"
)

// ScoringServiceInterface defines the scoring operations the handlers need
type ScoringServiceInterface interface {
	Model() domain.ScoringModel
	ScoreUpload(ctx context.Context, name string, r io.Reader) (*domain.BatchResult, error)
	ExportCSV(ctx context.Context, w io.Writer, batches ...*domain.BatchResult) error
}
