package scoring

import "qpcrscore/pkg/contracts/domain"

// Filter keeps readings that have a deltaRn, a non-blank sample and a well,
// preserving input order. The input slice is not modified.
func Filter(readings []domain.Reading) []domain.Reading {
	kept := make([]domain.Reading, 0, len(readings))
	for _, r := range readings {
		if r.HasDeltaRn() && r.HasSample() && r.HasWell() {
			kept = append(kept, r)
		}
	}
	return kept
}
