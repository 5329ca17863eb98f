package amplification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"qpcrscore/internal/config"
	apperrors "qpcrscore/internal/errors"
	"qpcrscore/pkg/contracts/domain"
)

// ErrUnsupportedFormat is returned for files that are neither workbooks nor
// delimited text.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Format identifies how an input file is encoded.
type Format string

const (
	FormatWorkbook Format = "xlsx"
	FormatCSV      Format = "csv"
	FormatTSV      Format = "tsv"
)

// DetectFormat picks the format from the file extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatWorkbook, nil
	case ".csv":
		return FormatCSV, nil
	case ".txt", ".tsv":
		return FormatTSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Options controls where the amplification table sits inside a file.
type Options struct {
	Sheet     string
	SkipRows  int
	HasHeader bool
}

// OptionsFromConfig converts the input section of the configuration.
func OptionsFromConfig(cfg config.InputConfig) Options {
	return Options{
		Sheet:     cfg.Sheet,
		SkipRows:  cfg.SkipRows,
		HasHeader: cfg.HasHeader,
	}
}

// Loader turns amplification exports into readings.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

// NewLoader creates a loader with the given table layout.
func NewLoader(opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		opts:   opts,
		logger: logger.With(slog.String("component", "amplification_loader")),
	}
}

// Options returns the table layout used by the loader.
func (l *Loader) Options() Options {
	return l.opts
}

// LoadFile opens path and decodes it according to its extension.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]domain.Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("input file %s", path))
		}
		return nil, apperrors.NewStorageError("failed to open input file", err).
			WithContext("path", path)
	}
	defer f.Close()

	return l.Load(ctx, filepath.Base(path), f)
}

// Load decodes r, using name only to pick the format.
func (l *Loader) Load(ctx context.Context, name string, r io.Reader) ([]domain.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := DetectFormat(name)
	if err != nil {
		return nil, apperrors.NewInputShapeError("cannot read input", err).
			WithContext("file", name)
	}

	var grid [][]string
	switch format {
	case FormatWorkbook:
		grid, err = l.readWorkbook(r)
	case FormatCSV:
		grid, err = readDelimited(r, ',')
	case FormatTSV:
		grid, err = readDelimited(r, '\t')
	}
	if err != nil {
		return nil, withFile(err, name)
	}

	readings, err := decodeGrid(grid, l.opts)
	if err != nil {
		return nil, withFile(err, name)
	}

	l.logger.DebugContext(ctx, "amplification table loaded",
		slog.String("file", name),
		slog.String("format", string(format)),
		slog.Int("grid_rows", len(grid)),
		slog.Int("readings", len(readings)))

	return readings, nil
}

func withFile(err error, name string) error {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.WithContext("file", name)
	}
	return apperrors.NewParsingError("cannot read input", err).WithContext("file", name)
}
