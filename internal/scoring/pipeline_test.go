package scoring

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qpcrscore/internal/config"
	"qpcrscore/internal/exporter"
	"qpcrscore/pkg/contracts/domain"
)

// plateReadings builds three wells interleaved by cycle, plus rows the
// filter must drop.
func plateReadings() []domain.Reading {
	var readings []domain.Reading
	strong := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 5100, 20100}
	flat := []float64{50, 50, 50}
	for cycle := len(strong); cycle >= 1; cycle-- {
		readings = append(readings, reading("B7", cycle, "Patient 1", strong[cycle-1]))
		if cycle <= len(flat) {
			readings = append(readings, reading("A1", cycle, "NTC", flat[cycle-1]))
		}
	}
	readings = append(readings,
		reading("C3", 1, "Lonely", 20000),
		reading("D4", 1, "", 99999),
		reading("B7", 13, "Patient 1", math.NaN()),
	)
	return readings
}

func newTestPipeline(t *testing.T, mutate func(*config.ScoringConfig)) (*Pipeline, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default().Scoring
	if mutate != nil {
		mutate(&cfg)
	}
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p, err := NewPipeline(cfg, logger)
	require.NoError(t, err)
	return p, &buf
}

func TestPipeline_Run(t *testing.T) {
	p, logs := newTestPipeline(t, nil)

	result, err := p.Run(context.Background(), "run1.xlsx", plateReadings())
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "run1.xlsx", result.Source)
	assert.Equal(t, domain.ScoringModelContinuous, result.Model)
	require.Len(t, result.Results, 3)

	strong := result.Results[0]
	assert.Equal(t, "B7", strong.Well, "first appearance order")
	assert.Equal(t, "Patient 1", strong.Sample)
	assert.Equal(t, 20100.0, strong.MaxDeltaRn)
	assert.Equal(t, 0.0, strong.BaselineNoise)
	assert.Equal(t, 15000.0, strong.MaxSlope)
	assert.Equal(t, 10.0, strong.Score)
	assert.Equal(t, "10 - excelente", strong.Classification)
	assert.Equal(t, "run1.xlsx", strong.Source)
	assert.False(t, strong.Degenerate)

	flat := result.Results[1]
	assert.Equal(t, "A1", flat.Well)
	assert.Equal(t, 3.0, flat.Score)
	assert.Equal(t, "4 - muito fraca", flat.Classification)

	lonely := result.Results[2]
	assert.Equal(t, "C3", lonely.Well)
	assert.True(t, math.IsNaN(lonely.MaxSlope))
	assert.True(t, lonely.Degenerate)
	assert.True(t, math.IsNaN(lonely.Score))
	assert.Equal(t, "1 - indetectável", lonely.Classification)

	assert.Equal(t, domain.BatchSummary{
		ReadingsIn:      18,
		ReadingsKept:    16,
		Wells:           3,
		DegenerateWells: 1,
		Classifications: map[string]int{
			"10 - excelente":   1,
			"4 - muito fraca":  1,
			"1 - indetectável": 1,
		},
	}, result.Summary)

	assert.Contains(t, logs.String(), "well has non-numeric features")
	assert.Contains(t, logs.String(), "batch scored")
}

func TestPipeline_Discrete(t *testing.T) {
	p, _ := newTestPipeline(t, func(c *config.ScoringConfig) { c.Model = "discrete" })
	assert.Equal(t, domain.ScoringModelDiscrete, p.Model())

	result, err := p.Run(context.Background(), "", plateReadings())
	require.NoError(t, err)
	require.Len(t, result.Results, 3)

	for _, r := range result.Results {
		assert.Equal(t, domain.ScoringModelDiscrete, r.Model)
		assert.Empty(t, r.Source)
	}
	assert.Equal(t, 3.0, result.Results[0].Score)
	assert.Equal(t, "ótima", result.Results[0].Classification)
	assert.Equal(t, 1.0, result.Results[1].Score)
	assert.Equal(t, "fraca", result.Results[1].Classification)
	// A missing slope leaves no point count
	assert.True(t, math.IsNaN(result.Results[2].Score))
	assert.Equal(t, "falhou", result.Results[2].Classification)
	assert.Equal(t, 1, result.Summary.DegenerateWells)
}

func TestPipeline_DegenerateWellExport(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		expected string
	}{
		{
			name:     "continuous",
			model:    "continuous",
			expected: "Well,Sample,DeltaRn_final,Ruido_baseline,Derivada_max,Nota,Classificacao\nA1,S1,20000.0,0.0,,,1 - indetectável\n",
		},
		{
			name:     "discrete",
			model:    "discrete",
			expected: "Well,Sample,DeltaRn_final,Ruido_baseline,Derivada_max,Nota,Classificacao\nA1,S1,20000.0,0.0,,,falhou\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPipeline(t, func(c *config.ScoringConfig) { c.Model = tt.model })
			result, err := p.Run(context.Background(), "", []domain.Reading{reading("A1", 1, "S1", 20000)})
			require.NoError(t, err)
			require.Len(t, result.Results, 1)
			assert.True(t, result.Results[0].Degenerate)

			var buf bytes.Buffer
			w := exporter.NewResultWriter(exporter.WriteOptions{}, nil)
			require.NoError(t, w.Write(context.Background(), &buf, result.Results))
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestPipeline_OrderIndependentOfWorkers(t *testing.T) {
	var readings []domain.Reading
	for w := 0; w < 96; w++ {
		well := fmt.Sprintf("%c%d", 'A'+w%8, w/8+1)
		for cycle := 1; cycle <= 40; cycle++ {
			v := float64(w*cycle*cycle) + float64(cycle%3)
			readings = append(readings, reading(well, cycle, "S", v))
		}
	}

	serial, _ := newTestPipeline(t, func(c *config.ScoringConfig) { c.Workers = 1 })
	parallel, _ := newTestPipeline(t, func(c *config.ScoringConfig) { c.Workers = 16 })

	a, err := serial.Run(context.Background(), "", readings)
	require.NoError(t, err)
	b, err := parallel.Run(context.Background(), "", readings)
	require.NoError(t, err)

	require.Len(t, a.Results, 96)
	assert.Equal(t, a.Results, b.Results)
	assert.Equal(t, "A1", a.Results[0].Well)
	assert.Equal(t, "B1", a.Results[1].Well)
}

func TestPipeline_Empty(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	result, err := p.Run(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Results)
	assert.Equal(t, 0, result.Summary.Wells)
	assert.NotNil(t, result.Summary.Classifications)
}

func TestPipeline_Cancelled(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := p.Run(ctx, "", plateReadings())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestPipeline_Deterministic(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	a, err := p.Run(context.Background(), "x", plateReadings())
	require.NoError(t, err)
	b, err := p.Run(context.Background(), "x", plateReadings())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	// NaN != NaN, so compare the finite wells and the degenerate one's flags
	assert.Equal(t, a.Results[:2], b.Results[:2])
	assert.Equal(t, a.Results[2].Score, b.Results[2].Score)
	assert.Equal(t, a.Summary, b.Summary)
}

func TestNewPipeline_UnknownModel(t *testing.T) {
	cfg := config.Default().Scoring
	cfg.Model = "4pl"
	_, err := NewPipeline(cfg, nil)
	assert.Error(t, err)
}
