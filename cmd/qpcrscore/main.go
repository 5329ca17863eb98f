package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"qpcrscore/internal/config"
	"qpcrscore/internal/files"
	"qpcrscore/internal/infrastructure"
	"qpcrscore/internal/services"
	"qpcrscore/internal/validation"
	"qpcrscore/pkg/contracts"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// inputList collects repeated -in flags
type inputList []string

func (l *inputList) String() string {
	return strings.Join(*l, ",")
}

func (l *inputList) Set(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("input path must not be empty")
	}
	*l = append(*l, value)
	return nil
}

// options holds parsed command line flags. set records which flags were
// given explicitly so config values are only overridden on request.
type options struct {
	inputs       inputList
	out          string
	configFile   string
	model        string
	sheet        string
	skip         int
	workers      int
	sourceColumn bool
	logLevel     string
	version      bool

	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet("qpcrscore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Var(&opts.inputs, "in", "amplification export (.xlsx, .xlsm, .csv, .txt, .tsv) or a directory of them; repeatable")
	fs.StringVar(&opts.out, "out", "", "output CSV path (default <export dir>/"+config.DefaultExportFileName+")")
	fs.StringVar(&opts.configFile, "config", "", "YAML config file (default qpcrscore.yaml or configs/qpcrscore.yaml)")
	fs.StringVar(&opts.model, "model", "", "scoring model: continuous or discrete")
	fs.StringVar(&opts.sheet, "sheet", "", "workbook sheet holding the amplification table")
	fs.IntVar(&opts.skip, "skip", 0, "rows to skip before the header")
	fs.IntVar(&opts.workers, "workers", 0, "parallel well scorers (0 = number of CPUs)")
	fs.BoolVar(&opts.sourceColumn, "source-column", false, "prefix each record with its source file (always on for several inputs)")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: qpcrscore -in run.xlsx [-in run2.xlsx] [-out avaliacao_qpcr.csv] [flags]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	// Trailing arguments are inputs too
	for _, arg := range fs.Args() {
		if err := opts.inputs.Set(arg); err != nil {
			return nil, err
		}
	}

	if !opts.version && len(opts.inputs) == 0 {
		fs.Usage()
		return nil, errors.New("at least one -in file is required")
	}
	return opts, nil
}

// loadConfig reads the configuration and applies explicit flag overrides.
func loadConfig(opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFrom(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.set["model"] {
		cfg.Scoring.Model = strings.ToLower(strings.TrimSpace(opts.model))
	}
	if opts.set["sheet"] {
		cfg.Input.Sheet = opts.sheet
	}
	if opts.set["skip"] {
		cfg.Input.SkipRows = opts.skip
	}
	if opts.set["workers"] {
		cfg.Scoring.Workers = opts.workers
	}
	if opts.set["source-column"] {
		cfg.Export.SourceColumn = opts.sourceColumn
	}
	if opts.set["log-level"] {
		cfg.Logging.Level = strings.ToLower(opts.logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// outputPath returns -out or the configured export location.
func outputPath(opts *options, cfg *config.Config) string {
	if opts.out != "" {
		return opts.out
	}
	return filepath.Join(cfg.Export.OutputDir, cfg.Export.FileName)
}

// run scores every input and writes one CSV. Nothing is written unless all
// inputs score.
func run(ctx context.Context, opts *options, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	out := outputPath(opts, cfg)

	inputs, err := files.NewDiscovery("").ExpandInputs(opts.inputs)
	if err != nil {
		return err
	}
	// Records from several files are ambiguous without their origin
	if len(inputs) > 1 {
		cfg.Export.SourceColumn = true
	}

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateInputs(inputs); err != nil {
		return err
	}
	if err := validator.ValidateOutputFile(out, inputs...); err != nil {
		return err
	}

	svc, err := services.NewScoringService(cfg, nil, logger)
	if err != nil {
		return err
	}

	batches, err := svc.ScoreFiles(ctx, inputs)
	if err != nil {
		return err
	}

	if err := svc.ExportFile(ctx, out, batches...); err != nil {
		return err
	}

	wells := 0
	for _, b := range batches {
		s := b.Summary
		wells += s.Wells
		fmt.Fprintf(stdout, "%s: %d wells scored (%d degenerate), %d of %d readings kept\n",
			b.Source, s.Wells, s.DegenerateWells, s.ReadingsKept, s.ReadingsIn)
	}
	fmt.Fprintf(stdout, "Wrote %d wells to %s (%s model)\n", wells, out, svc.Model())
	return nil
}

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

func realMain(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "qpcrscore: %v\n", err)
		return exitUsage
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "qpcrscore: %v\n", err)
		return exitError
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "qpcrscore: failed to initialize logger: %v\n", err)
		return exitError
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing only; the CLI has nowhere to expose metrics.
	telemetry := cfg.Telemetry
	telemetry.MetricExporter = "none"
	providers, err := infrastructure.InitializeOTel(telemetry, logger)
	if err != nil {
		logger.Warn("OpenTelemetry disabled", slog.String("error", err.Error()))
	} else {
		defer providers.Shutdown(context.Background())
	}

	logger.InfoContext(ctx, "qpcrscore starting",
		slog.String("version", contracts.Version),
		slog.Int("inputs", len(opts.inputs)),
		slog.String("model", cfg.Scoring.Model))

	if err := run(ctx, opts, cfg, logger, stdout); err != nil {
		logger.ErrorContext(ctx, "scoring failed", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "qpcrscore: %v\n", err)
		return exitError
	}
	return exitOK
}
