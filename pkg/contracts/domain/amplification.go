package domain

import (
	"encoding/json"
	"math"
	"strings"
)

// Reading is one instrument data point from the amplification table.
// Sample and DeltaRn are optional; use the accessor methods rather than
// reading the pointers directly.
type Reading struct {
	Run          string   `json:"run"`
	Well         string   `json:"well"`
	Cycle        int      `json:"cycle"`
	Sample       *string  `json:"sample,omitempty"`
	Fluorescence float64  `json:"fluorescence"`
	DeltaRn      *float64 `json:"delta_rn,omitempty"`
}

// HasDeltaRn reports whether the reading carries a deltaRn value.
func (r Reading) HasDeltaRn() bool {
	return r.DeltaRn != nil
}

// HasWell reports whether the well identifier is present. Identifiers are
// compared raw, so " A1" and "A1" are different wells.
func (r Reading) HasWell() bool {
	return r.Well != ""
}

// HasSample reports whether the sample name is present and not blank.
func (r Reading) HasSample() bool {
	return r.Sample != nil && strings.TrimSpace(*r.Sample) != ""
}

// SampleName returns the sample text, or "" when absent.
func (r Reading) SampleName() string {
	if r.Sample == nil {
		return ""
	}
	return *r.Sample
}

// DeltaRnValue returns deltaRn, or NaN when absent.
func (r Reading) DeltaRnValue() float64 {
	if r.DeltaRn == nil {
		return math.NaN()
	}
	return *r.DeltaRn
}

// WellSeries holds the readings of one well in ascending cycle order.
type WellSeries struct {
	Well     string    `json:"well"`
	Readings []Reading `json:"readings"`
}

// Len returns the number of readings in the series.
func (s WellSeries) Len() int {
	return len(s.Readings)
}

// DeltaRn returns the deltaRn values in cycle order. Absent values are NaN.
func (s WellSeries) DeltaRn() []float64 {
	values := make([]float64, len(s.Readings))
	for i, r := range s.Readings {
		values[i] = r.DeltaRnValue()
	}
	return values
}

// FirstSample returns the first present sample name in cycle order.
func (s WellSeries) FirstSample() string {
	for _, r := range s.Readings {
		if r.Sample != nil {
			return *r.Sample
		}
	}
	return ""
}

// WellFeatures are the three curve features extracted from a well.
type WellFeatures struct {
	MaxDeltaRn    float64 `json:"max_delta_rn"`
	BaselineNoise float64 `json:"baseline_noise"`
	MaxSlope      float64 `json:"max_slope"`
}

// Finite reports whether all three features are real numbers.
func (f WellFeatures) Finite() bool {
	return isFinite(f.MaxDeltaRn) && isFinite(f.BaselineNoise) && isFinite(f.MaxSlope)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ScoringModel selects how features are turned into a score.
type ScoringModel string

const (
	// ScoringModelContinuous is the weighted 0-10 model with ten bands.
	ScoringModelContinuous ScoringModel = "continuous"
	// ScoringModelDiscrete is the 0-3 threshold count with four bands.
	ScoringModelDiscrete ScoringModel = "discrete"
)

// IsValid reports whether m names a known model.
func (m ScoringModel) IsValid() bool {
	return m == ScoringModelContinuous || m == ScoringModelDiscrete
}

// WellScoreResult is the per-well output record. It is built once by the
// aggregator and never modified afterwards. Degenerate marks a well with a
// non-numeric feature: its score is NaN and its classification is the floor
// band.
type WellScoreResult struct {
	Source         string       `json:"source,omitempty"`
	Well           string       `json:"well"`
	Sample         string       `json:"sample"`
	MaxDeltaRn     float64      `json:"max_delta_rn"`
	BaselineNoise  float64      `json:"baseline_noise"`
	MaxSlope       float64      `json:"max_slope"`
	Score          float64      `json:"score"`
	Classification string       `json:"classification"`
	Model          ScoringModel `json:"model"`
	Degenerate     bool         `json:"degenerate,omitempty"`
}

// MarshalJSON writes non-finite features and scores as null; encoding/json
// rejects NaN.
func (r WellScoreResult) MarshalJSON() ([]byte, error) {
	type alias WellScoreResult
	return json.Marshal(struct {
		alias
		MaxDeltaRn    *float64 `json:"max_delta_rn"`
		BaselineNoise *float64 `json:"baseline_noise"`
		MaxSlope      *float64 `json:"max_slope"`
		Score         *float64 `json:"score"`
	}{
		alias:         alias(r),
		MaxDeltaRn:    finiteOrNil(r.MaxDeltaRn),
		BaselineNoise: finiteOrNil(r.BaselineNoise),
		MaxSlope:      finiteOrNil(r.MaxSlope),
		Score:         finiteOrNil(r.Score),
	})
}

func finiteOrNil(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	return &v
}

// BatchSummary aggregates counters for one scored batch.
type BatchSummary struct {
	ReadingsIn      int            `json:"readings_in"`
	ReadingsKept    int            `json:"readings_kept"`
	Wells           int            `json:"wells"`
	DegenerateWells int            `json:"degenerate_wells"`
	Classifications map[string]int `json:"classifications"`
}

// BatchResult is the outcome of scoring one input table.
type BatchResult struct {
	ID      string            `json:"id"`
	Source  string            `json:"source,omitempty"`
	Model   ScoringModel      `json:"model"`
	Results []WellScoreResult `json:"results"`
	Summary BatchSummary      `json:"summary"`
}
