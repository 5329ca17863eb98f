package exporter

import (
	"math"
	"strconv"
	"strings"

	"qpcrscore/pkg/contracts/domain"
)

// formatFloat writes f the way Python's float repr does: shortest round-trip
// digits, positional between 1e-4 and 1e16, always with a decimal point or
// exponent. NaN becomes an empty cell.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// formatScore writes the Nota cell: a point count for the discrete model, a
// one-decimal float otherwise.
func formatScore(model domain.ScoringModel, score float64) string {
	if model == domain.ScoringModelDiscrete && !math.IsNaN(score) {
		return strconv.Itoa(int(score))
	}
	return formatFloat(score)
}
