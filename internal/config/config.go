package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"qpcrscore/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Scoring   ScoringConfig   `yaml:"scoring" envconfig:"SCORING"`
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ScoringConfig holds the scoring model and its calibration constants.
type ScoringConfig struct {
	Model   string `yaml:"model" envconfig:"MODEL" validate:"oneof=continuous discrete"`
	Workers int    `yaml:"workers" envconfig:"WORKERS" validate:"min=0"`

	// Baseline window length in cycles
	BaselineCycles int `yaml:"baseline_cycles" envconfig:"BASELINE_CYCLES" validate:"min=1"`

	Weights     WeightsConfig     `yaml:"weights" envconfig:"WEIGHTS"`
	Calibration CalibrationConfig `yaml:"calibration" envconfig:"CALIBRATION"`
	Discrete    DiscreteConfig    `yaml:"discrete" envconfig:"DISCRETE"`
}

// WeightsConfig holds the continuous model weights. They sum to the top of
// the score range.
type WeightsConfig struct {
	Amplitude float64 `yaml:"amplitude" envconfig:"AMPLITUDE" validate:"gte=0"`
	Noise     float64 `yaml:"noise" envconfig:"NOISE" validate:"gte=0"`
	Slope     float64 `yaml:"slope" envconfig:"SLOPE" validate:"gte=0"`
}

// Sum returns the maximum score reachable with these weights.
func (w WeightsConfig) Sum() float64 {
	return w.Amplitude + w.Noise + w.Slope
}

// Validate checks that the weights span exactly the 0-10 score range the
// classification bands are written for.
func (w WeightsConfig) Validate() error {
	if math.Abs(w.Sum()-MaxScore) > weightsTolerance {
		return fmt.Errorf("scoring weights must sum to %g, got %g", MaxScore, w.Sum())
	}
	return nil
}

// CalibrationConfig holds the full-scale value of each feature.
type CalibrationConfig struct {
	MaxDeltaRn    float64 `yaml:"max_delta_rn" envconfig:"MAX_DELTA_RN" validate:"gt=0"`
	BaselineNoise float64 `yaml:"baseline_noise" envconfig:"BASELINE_NOISE" validate:"gt=0"`
	MaxSlope      float64 `yaml:"max_slope" envconfig:"MAX_SLOPE" validate:"gt=0"`
}

// DiscreteConfig holds the pass thresholds of the 0-3 model.
type DiscreteConfig struct {
	MinDeltaRn       float64 `yaml:"min_delta_rn" envconfig:"MIN_DELTA_RN"`
	MaxBaselineNoise float64 `yaml:"max_baseline_noise" envconfig:"MAX_BASELINE_NOISE"`
	MinSlope         float64 `yaml:"min_slope" envconfig:"MIN_SLOPE"`
}

// InputConfig describes where the amplification table lives in the export.
type InputConfig struct {
	Sheet     string `yaml:"sheet" envconfig:"SHEET" validate:"required"`
	SkipRows  int    `yaml:"skip_rows" envconfig:"SKIP_ROWS" validate:"min=0"`
	HasHeader bool   `yaml:"has_header" envconfig:"HAS_HEADER"`
}

// ExportConfig controls the result CSV.
type ExportConfig struct {
	OutputDir    string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	FileName     string `yaml:"file_name" envconfig:"FILE_NAME" validate:"required"`
	SourceColumn bool   `yaml:"source_column" envconfig:"SOURCE_COLUMN"`
	BOMPrefix    bool   `yaml:"bom_prefix" envconfig:"BOM_PREFIX"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`

	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// ScoringModel returns the configured model as a domain value.
func (s ScoringConfig) ScoringModel() domain.ScoringModel {
	return domain.ScoringModel(strings.ToLower(s.Model))
}

// Load loads configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields carry no default tags, so envconfig only touches what is set.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.Scoring.Model = strings.ToLower(strings.TrimSpace(cfg.Scoring.Model))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}

	if err := c.Scoring.Weights.Validate(); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file path is required for output %q", c.Logging.Output)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"qpcrscore.yaml",
		"configs/qpcrscore.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Scoring: ScoringConfig{
			Model:          string(domain.ScoringModelContinuous),
			Workers:        0,
			BaselineCycles: DefaultBaselineCycles,
			Weights: WeightsConfig{
				Amplitude: DefaultAmplitudeWeight,
				Noise:     DefaultNoiseWeight,
				Slope:     DefaultSlopeWeight,
			},
			Calibration: CalibrationConfig{
				MaxDeltaRn:    DefaultMaxDeltaRnScale,
				BaselineNoise: DefaultBaselineNoiseScale,
				MaxSlope:      DefaultMaxSlopeScale,
			},
			Discrete: DiscreteConfig{
				MinDeltaRn:       DefaultDiscreteMinDeltaRn,
				MaxBaselineNoise: DefaultDiscreteMaxNoise,
				MinSlope:         DefaultDiscreteMinSlope,
			},
		},
		Input: InputConfig{
			Sheet:     DefaultSheetName,
			SkipRows:  DefaultSkipRows,
			HasHeader: true,
		},
		Export: ExportConfig{
			OutputDir: ".",
			FileName:  DefaultExportFileName,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Output:   "console",
			FilePath: "logs/qpcrscore.log",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxUploadBytes:  DefaultMaxUploadBytes,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     5,
				Burst:   10,
			},
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
			Environment:    "development",
		},
	}
}
