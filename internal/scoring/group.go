package scoring

import (
	"sort"

	"qpcrscore/pkg/contracts/domain"
)

// Group partitions readings by well. Wells appear in the order they are
// first seen; readings within a well are stable-sorted by cycle, so
// duplicate cycles keep their input order.
func Group(readings []domain.Reading) []domain.WellSeries {
	index := make(map[string]int)
	var groups []domain.WellSeries

	for _, r := range readings {
		i, ok := index[r.Well]
		if !ok {
			i = len(groups)
			index[r.Well] = i
			groups = append(groups, domain.WellSeries{Well: r.Well})
		}
		groups[i].Readings = append(groups[i].Readings, r)
	}

	for i := range groups {
		series := groups[i].Readings
		sort.SliceStable(series, func(a, b int) bool {
			return series[a].Cycle < series[b].Cycle
		})
	}

	return groups
}
