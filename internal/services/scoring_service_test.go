package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"qpcrscore/internal/config"
	apperrors "qpcrscore/internal/errors"
	"qpcrscore/internal/infrastructure"
	"qpcrscore/pkg/contracts/domain"
)

const csvHeader = "Well,Well Position,Cycle,Target Name,Rn,Delta Rn\n"

// strongCurve is ten flat baseline cycles followed by a steep rise.
func strongCurve(well, sample string) string {
	var b strings.Builder
	values := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 5100, 20100}
	for i, v := range values {
		fmt.Fprintf(&b, "1,%s,%d,%s,%g,%g\n", well, i+1, sample, v+1000, v)
	}
	return b.String()
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Input.SkipRows = 0
	cfg.Scoring.Workers = 2
	return cfg
}

func writeInput(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(csvHeader+body), 0644))
	return path
}

func newService(t *testing.T, cfg *config.Config, metrics *infrastructure.ScoringMetrics) *ScoringService {
	t.Helper()
	svc, err := NewScoringService(cfg, metrics, infrastructure.NewLogger(&bytes.Buffer{}, 0))
	require.NoError(t, err)
	return svc
}

func TestNewScoringService(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewScoringService(nil, nil, nil)
		assert.ErrorIs(t, err, ErrNotInitialized)
	})

	t.Run("unknown model", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scoring.Model = "sigmoid"
		_, err := NewScoringService(cfg, nil, nil)
		assert.Error(t, err)
	})

	t.Run("discrete model", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scoring.Model = "discrete"
		svc := newService(t, cfg, nil)
		assert.Equal(t, domain.ScoringModelDiscrete, svc.Model())
		assert.NoError(t, svc.CheckHealth(context.Background()))
	})
}

func TestScoringService_ScoreFile(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "run1.csv", strongCurve("B7", "Patient 1")+"1,A1,1,NTC,1050,50\n")
	svc := newService(t, testConfig(), nil)

	batch, err := svc.ScoreFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "run1.csv", batch.Source)
	require.Len(t, batch.Results, 2)
	assert.Equal(t, "B7", batch.Results[0].Well)
	assert.Equal(t, 10.0, batch.Results[0].Score)
	assert.Equal(t, "10 - excelente", batch.Results[0].Classification)
	assert.Equal(t, "A1", batch.Results[1].Well)
	assert.True(t, batch.Results[1].Degenerate)
	assert.Equal(t, 13, batch.Summary.ReadingsIn)
}

func TestScoringService_ScoreFileErrors(t *testing.T) {
	dir := t.TempDir()
	svc := newService(t, testConfig(), nil)

	t.Run("missing file", func(t *testing.T) {
		_, err := svc.ScoreFile(context.Background(), filepath.Join(dir, "absent.csv"))
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})

	t.Run("bad cycle", func(t *testing.T) {
		path := writeInput(t, dir, "bad.csv", "1,A1,one,S,1000,10\n")
		_, err := svc.ScoreFile(context.Background(), path)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInputShape))
	})

	t.Run("cancelled", func(t *testing.T) {
		path := writeInput(t, dir, "ok.csv", strongCurve("A1", "S"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.ScoreFile(ctx, path)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestScoringService_ScoreFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeInput(t, dir, "run1.csv", strongCurve("A1", "S1"))
	second := writeInput(t, dir, "run2.csv", strongCurve("A1", "S2"))
	svc := newService(t, testConfig(), nil)

	batches, err := svc.ScoreFiles(context.Background(), []string{first, second})
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "run1.csv", batches[0].Results[0].Source)
	assert.Equal(t, "run2.csv", batches[1].Results[0].Source)

	_, err = svc.ScoreFiles(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoInputs)

	batches, err = svc.ScoreFiles(context.Background(), []string{first, filepath.Join(dir, "absent.csv")})
	assert.Error(t, err)
	assert.Nil(t, batches)
}

func TestScoringService_ScoreUpload(t *testing.T) {
	svc := newService(t, testConfig(), nil)

	batch, err := svc.ScoreUpload(context.Background(), "uploads/plate.tsv",
		strings.NewReader(strings.ReplaceAll(csvHeader+strongCurve("C3", "S"), ",", "\t")))
	require.NoError(t, err)
	assert.Equal(t, "plate.tsv", batch.Source)
	require.Len(t, batch.Results, 1)
	assert.Equal(t, "C3", batch.Results[0].Well)

	_, err = svc.ScoreUpload(context.Background(), "plate.pdf", strings.NewReader("x"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInputShape))
}

func TestScoringService_Export(t *testing.T) {
	dir := t.TempDir()
	first := writeInput(t, dir, "run1.csv", strongCurve("A1", "S1"))
	second := writeInput(t, dir, "run2.csv", strongCurve("B2", "S2"))

	cfg := testConfig()
	cfg.Export.SourceColumn = true
	svc := newService(t, cfg, nil)

	batches, err := svc.ScoreFiles(context.Background(), []string{first, second})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf, batches...))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, append([]string{config.SourceColumn}, config.OutputColumns...), records[0])
	assert.Equal(t, []string{"run1.csv", "A1", "S1", "20100.0", "0.0", "15000.0", "10.0", "10 - excelente"}, records[1])
	assert.Equal(t, "run2.csv", records[2][0])

	out := filepath.Join(dir, "out", config.DefaultExportFileName)
	require.NoError(t, svc.ExportFile(context.Background(), out, batches...))
	content, err := os.ReadFile(out)
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, svc.ExportCSV(context.Background(), &buf, batches...))
	assert.Equal(t, buf.String(), string(content), "file and stream output are identical")
}

func TestScoringService_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := infrastructure.NewScoringMetrics(provider.Meter("test"))
	require.NoError(t, err)

	dir := t.TempDir()
	ok := writeInput(t, dir, "ok.csv", strongCurve("A1", "S"))
	svc := newService(t, testConfig(), metrics)

	_, err = svc.ScoreFile(context.Background(), ok)
	require.NoError(t, err)
	_, err = svc.ScoreFile(context.Background(), filepath.Join(dir, "absent.csv"))
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, isSum := m.Data.(metricdata.Sum[int64]); isSum {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), totals["qpcr_batches_total"])
	assert.Equal(t, int64(12), totals["qpcr_readings_total"])
	assert.Equal(t, int64(1), totals["qpcr_wells_scored_total"])
}
