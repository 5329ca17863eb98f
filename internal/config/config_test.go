package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qpcrscore/pkg/contracts/domain"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qpcrscore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoadFrom tests the layering of defaults, file and environment
func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults only",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, domain.ScoringModelContinuous, cfg.Scoring.ScoringModel())
				assert.Equal(t, 3.0, cfg.Scoring.Weights.Amplitude)
				assert.Equal(t, 3.0, cfg.Scoring.Weights.Noise)
				assert.Equal(t, 4.0, cfg.Scoring.Weights.Slope)
				assert.Equal(t, 20000.0, cfg.Scoring.Calibration.MaxDeltaRn)
				assert.Equal(t, 1000.0, cfg.Scoring.Calibration.BaselineNoise)
				assert.Equal(t, 4000.0, cfg.Scoring.Calibration.MaxSlope)
				assert.Equal(t, 10, cfg.Scoring.BaselineCycles)
				assert.Equal(t, "Amplification Data", cfg.Input.Sheet)
				assert.Equal(t, 40, cfg.Input.SkipRows)
				assert.True(t, cfg.Input.HasHeader)
				assert.Equal(t, "avaliacao_qpcr.csv", cfg.Export.FileName)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
			},
		},
		{
			name: "environment overrides defaults",
			env: map[string]string{
				"QPCR_SCORING_MODEL":         "Discrete",
				"QPCR_SCORING_WEIGHTS_SLOPE": "5",
				"QPCR_SCORING_WEIGHTS_NOISE": "2",
				"QPCR_INPUT_SKIP_ROWS":       "7",
				"QPCR_SERVER_READ_TIMEOUT":   "5s",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, domain.ScoringModelDiscrete, cfg.Scoring.ScoringModel())
				assert.Equal(t, 5.0, cfg.Scoring.Weights.Slope)
				assert.Equal(t, 2.0, cfg.Scoring.Weights.Noise)
				assert.Equal(t, 3.0, cfg.Scoring.Weights.Amplitude)
				assert.Equal(t, 7, cfg.Input.SkipRows)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
			},
		},
		{
			name: "file overrides defaults",
			file: `
scoring:
  model: discrete
  discrete:
    min_delta_rn: 6000
input:
  sheet: Results
export:
  source_column: true
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, domain.ScoringModelDiscrete, cfg.Scoring.ScoringModel())
				assert.Equal(t, 6000.0, cfg.Scoring.Discrete.MinDeltaRn)
				assert.Equal(t, 500.0, cfg.Scoring.Discrete.MaxBaselineNoise)
				assert.Equal(t, "Results", cfg.Input.Sheet)
				assert.Equal(t, 40, cfg.Input.SkipRows)
				assert.True(t, cfg.Export.SourceColumn)
			},
		},
		{
			name: "environment wins over file",
			env:  map[string]string{"QPCR_INPUT_SHEET": "FromEnv"},
			file: "input:\n  sheet: FromFile\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "FromEnv", cfg.Input.Sheet)
			},
		},
		{
			name:    "unknown model rejected",
			env:     map[string]string{"QPCR_SCORING_MODEL": "sigmoid"},
			wantErr: true,
		},
		{
			name:    "zero calibration range rejected",
			file:    "scoring:\n  calibration:\n    max_slope: 0\n",
			wantErr: true,
		},
		{
			name:    "all-zero weights rejected",
			file:    "scoring:\n  weights:\n    amplitude: 0\n    noise: 0\n    slope: 0\n",
			wantErr: true,
		},
		{
			name:    "weights above the score range rejected",
			file:    "scoring:\n  weights:\n    amplitude: 5\n    noise: 5\n    slope: 5\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "scoring: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10.0, cfg.Scoring.Weights.Sum())
}

func TestValidate_FileOutputNeedsPath(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = ""
	assert.Error(t, cfg.Validate())
}

func TestWeightsConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights WeightsConfig
		wantErr bool
	}{
		{name: "defaults", weights: WeightsConfig{Amplitude: 3, Noise: 3, Slope: 4}},
		{name: "reweighted", weights: WeightsConfig{Amplitude: 2.5, Noise: 2.5, Slope: 5}},
		{name: "float sum", weights: WeightsConfig{Amplitude: 3.3, Noise: 3.3, Slope: 3.4}},
		{name: "above range", weights: WeightsConfig{Amplitude: 5, Noise: 5, Slope: 5}, wantErr: true},
		{name: "below range", weights: WeightsConfig{Amplitude: 1, Noise: 1, Slope: 1}, wantErr: true},
		{name: "all zero", weights: WeightsConfig{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}

	cfg := Default()
	cfg.Scoring.Weights = WeightsConfig{Amplitude: 5, Noise: 5, Slope: 5}
	assert.ErrorContains(t, cfg.Validate(), "must sum to 10")
}
