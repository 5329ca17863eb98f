package scoring

import "qpcrscore/pkg/contracts/domain"

// newResult assembles the output record of one well.
func newResult(source string, series domain.WellSeries, f domain.WellFeatures, a Assessment, model domain.ScoringModel) domain.WellScoreResult {
	return domain.WellScoreResult{
		Source:         source,
		Well:           series.Well,
		Sample:         series.FirstSample(),
		MaxDeltaRn:     f.MaxDeltaRn,
		BaselineNoise:  f.BaselineNoise,
		MaxSlope:       f.MaxSlope,
		Score:          a.Score,
		Classification: a.Classification,
		Model:          model,
		Degenerate:     a.Degenerate,
	}
}

// Summarize counts wells per classification and degenerate wells.
func Summarize(readingsIn, readingsKept int, results []domain.WellScoreResult) domain.BatchSummary {
	summary := domain.BatchSummary{
		ReadingsIn:      readingsIn,
		ReadingsKept:    readingsKept,
		Wells:           len(results),
		Classifications: make(map[string]int),
	}
	for _, r := range results {
		summary.Classifications[r.Classification]++
		if r.Degenerate {
			summary.DegenerateWells++
		}
	}
	return summary
}
