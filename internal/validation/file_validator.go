package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"qpcrscore/internal/amplification"
	apperrors "qpcrscore/internal/errors"
)

// FileValidator checks command line paths before any scoring work starts
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateInputFile checks that path is a readable amplification export
// with a supported extension.
func (v *FileValidator) ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		v.logger.Error("input file does not exist", slog.String("file", path))
		return apperrors.NewNotFoundError(fmt.Sprintf("input file %s", path))
	}
	if err != nil {
		v.logger.Error("failed to stat input file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to stat input file", err).WithContext("path", path)
	}
	if info.IsDir() {
		v.logger.Error("input path is a directory", slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	// Office keeps "~$name.xlsx" lock files next to open workbooks
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("rejecting spreadsheet lock file", slog.String("file", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a spreadsheet lock file", path))
	}

	if _, err := amplification.DetectFormat(path); err != nil {
		v.logger.Error("unsupported input file",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return apperrors.NewInputShapeError("cannot read input", err).WithContext("file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("input file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewPermissionError(fmt.Sprintf("input file %s is not readable: %v", path, err))
	}
	file.Close()

	v.logger.Debug("input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateInputs validates every path and stops at the first failure.
func (v *FileValidator) ValidateInputs(paths []string) error {
	if len(paths) == 0 {
		return apperrors.NewAppValidationError("at least one input file is required")
	}
	for _, path := range paths {
		if err := v.ValidateInputFile(path); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOutputFile checks that path can be written without clobbering a
// directory or one of the inputs. The parent directory is created when
// missing.
func (v *FileValidator) ValidateOutputFile(path string, inputs ...string) error {
	if path == "" {
		return apperrors.NewAppValidationError("output path is required")
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		v.logger.Error("output path is a directory", slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("output %s is a directory", path))
	}

	out, err := filepath.Abs(path)
	if err != nil {
		return apperrors.NewStorageError("failed to resolve output path", err).WithContext("path", path)
	}
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err == nil && abs == out {
			v.logger.Error("output would overwrite an input", slog.String("path", path))
			return apperrors.NewAppValidationError(fmt.Sprintf("output %s is also an input", path))
		}
	}

	return v.ValidateOutputDirectory(filepath.Dir(path))
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to create output directory", err).WithContext("directory", dir)
	}

	// Verify it's writable by creating a scratch file
	scratch, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewPermissionError(fmt.Sprintf("output directory %s is not writable: %v", dir, err))
	}
	scratch.Close()
	os.Remove(scratch.Name())

	v.logger.Debug("output directory validated", slog.String("directory", dir))
	return nil
}

// OutputDirCheck reports whether an export directory is still writable.
// It satisfies the health service checker interface.
type OutputDirCheck struct {
	validator *FileValidator
	dir       string
}

// NewOutputDirCheck creates a readiness check for dir
func NewOutputDirCheck(validator *FileValidator, dir string) *OutputDirCheck {
	return &OutputDirCheck{validator: validator, dir: dir}
}

// CheckHealth validates the directory
func (c *OutputDirCheck) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.validator.ValidateOutputDirectory(c.dir)
}
