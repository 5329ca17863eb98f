package scoring

import (
	"fmt"
	"math"
	"strconv"

	"qpcrscore/internal/config"
	"qpcrscore/pkg/contracts/domain"
)

// Assessment is a scorer's verdict on one well.
type Assessment struct {
	Score          float64
	Classification string
	// Degenerate is set when at least one feature was not a number. The
	// score is then NaN and the classification is the floor band.
	Degenerate bool
}

// Scorer turns well features into an assessment.
type Scorer interface {
	Model() domain.ScoringModel
	Assess(features domain.WellFeatures) Assessment
}

// NewScorer builds the scorer selected by cfg.
func NewScorer(cfg config.ScoringConfig) (Scorer, error) {
	switch cfg.ScoringModel() {
	case domain.ScoringModelContinuous:
		if err := cfg.Weights.Validate(); err != nil {
			return nil, err
		}
		return ContinuousScorer{Weights: cfg.Weights, Calibration: cfg.Calibration}, nil
	case domain.ScoringModelDiscrete:
		return DiscreteScorer{Thresholds: cfg.Discrete}, nil
	default:
		return nil, fmt.Errorf("unknown scoring model %q", cfg.Model)
	}
}

// SubScores are the normalised feature contributions, each in [0, 1].
type SubScores struct {
	Amplitude float64
	Noise     float64
	Slope     float64
}

// ContinuousScorer is the weighted 0-10 model.
type ContinuousScorer struct {
	Weights     config.WeightsConfig
	Calibration config.CalibrationConfig
}

// Model implements Scorer.
func (s ContinuousScorer) Model() domain.ScoringModel {
	return domain.ScoringModelContinuous
}

// SubScores normalises each feature against its calibration range. A NaN
// feature stays NaN.
func (s ContinuousScorer) SubScores(f domain.WellFeatures) SubScores {
	return SubScores{
		Amplitude: clamp01(f.MaxDeltaRn / s.Calibration.MaxDeltaRn),
		Noise:     clamp01(1 - f.BaselineNoise/s.Calibration.BaselineNoise),
		Slope:     clamp01(f.MaxSlope / s.Calibration.MaxSlope),
	}
}

// Assess implements Scorer. A NaN feature carries through to a NaN score.
func (s ContinuousScorer) Assess(f domain.WellFeatures) Assessment {
	sub := s.SubScores(f)
	raw := sub.Amplitude*s.Weights.Amplitude +
		sub.Noise*s.Weights.Noise +
		sub.Slope*s.Weights.Slope
	score := RoundHalfEven(raw, 1)

	return Assessment{
		Score:          score,
		Classification: ContinuousBands.Classify(score),
		Degenerate:     !f.Finite(),
	}
}

// DiscreteScorer awards one point per threshold passed, 0-3 in total.
type DiscreteScorer struct {
	Thresholds config.DiscreteConfig
}

// Model implements Scorer.
func (s DiscreteScorer) Model() domain.ScoringModel {
	return domain.ScoringModelDiscrete
}

// Points counts the thresholds passed. Comparisons are strict and a NaN
// feature never passes.
func (s DiscreteScorer) Points(f domain.WellFeatures) int {
	points := 0
	if f.MaxDeltaRn > s.Thresholds.MinDeltaRn {
		points++
	}
	if f.BaselineNoise < s.Thresholds.MaxBaselineNoise {
		points++
	}
	if f.MaxSlope > s.Thresholds.MinSlope {
		points++
	}
	return points
}

// Assess implements Scorer. A well with a NaN feature gets no point count.
func (s DiscreteScorer) Assess(f domain.WellFeatures) Assessment {
	score := float64(s.Points(f))
	if !f.Finite() {
		score = math.NaN()
	}
	return Assessment{
		Score:          score,
		Classification: DiscreteBands.Classify(score),
		Degenerate:     !f.Finite(),
	}
}

// clamp01 limits x to [0, 1]. NaN is returned unchanged.
func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return x
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

// RoundHalfEven rounds x to the given number of decimals. The decision is
// made on the exact binary value, so 0.25 rounds to 0.2 and 0.35 (stored as
// 0.34999...) rounds to 0.3.
func RoundHalfEven(x float64, decimals int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', decimals, 64), 64)
	if err != nil {
		return x
	}
	return r
}
