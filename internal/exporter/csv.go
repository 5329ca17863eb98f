package exporter

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"qpcrscore/internal/config"
	"qpcrscore/internal/infrastructure"
	"qpcrscore/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures the result CSV layout
type WriteOptions struct {
	SourceColumn bool // Prefix every record with the source file name
	BOMPrefix    bool // Add UTF-8 BOM for Excel compatibility
}

// OptionsFromConfig maps the export section of the configuration.
func OptionsFromConfig(cfg config.ExportConfig) WriteOptions {
	return WriteOptions{
		SourceColumn: cfg.SourceColumn,
		BOMPrefix:    cfg.BOMPrefix,
	}
}

// ResultWriter renders scored wells as CSV
type ResultWriter struct {
	opts   WriteOptions
	logger *slog.Logger
}

// NewResultWriter creates a new result writer instance
func NewResultWriter(opts WriteOptions, logger *slog.Logger) *ResultWriter {
	return &ResultWriter{
		opts:   opts,
		logger: infrastructure.WithComponent(logger, "result_writer"),
	}
}

// Options returns the layout the writer was built with.
func (w *ResultWriter) Options() WriteOptions {
	return w.opts
}

// Header returns the header row.
func (w *ResultWriter) Header() []string {
	header := make([]string, 0, len(config.OutputColumns)+1)
	if w.opts.SourceColumn {
		header = append(header, config.SourceColumn)
	}
	return append(header, config.OutputColumns...)
}

// Record renders one well in header order.
func (w *ResultWriter) Record(r domain.WellScoreResult) []string {
	record := make([]string, 0, len(config.OutputColumns)+1)
	if w.opts.SourceColumn {
		record = append(record, r.Source)
	}
	return append(record,
		r.Well,
		r.Sample,
		formatFloat(r.MaxDeltaRn),
		formatFloat(r.BaselineNoise),
		formatFloat(r.MaxSlope),
		formatScore(r.Model, r.Score),
		r.Classification,
	)
}

// Write streams the header and one record per result to out.
func (w *ResultWriter) Write(ctx context.Context, out io.Writer, results []domain.WellScoreResult) error {
	if w.opts.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(w.Header()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, r := range results {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(w.Record(r)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes results to filePath. The file is assembled under a
// temporary name and renamed into place, so a failed export never leaves a
// truncated file behind.
func (w *ResultWriter) WriteFile(ctx context.Context, filePath string, results []domain.WellScoreResult) error {
	w.logger.InfoContext(ctx, "Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(results)))

	// Ensure directory exists
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err := w.Write(ctx, buf, results); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		committed = true
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	committed = true

	w.logger.DebugContext(ctx, "CSV file written", slog.String("file_path", filePath))
	return nil
}
