package dataflow

import (
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

// quantiles returns the linearly interpolated quantiles of values at
// the given probabilities. values must not be empty.
func quantiles(values []decimal.Decimal, probs ...float64) []decimal.Decimal {
	sorted := slices.Clone(values)
	slices.SortFunc(sorted, func(a, b decimal.Decimal) int { return a.Cmp(b) })

	out := make([]decimal.Decimal, len(probs))
	n := len(sorted)
	for i, q := range probs {
		if n == 1 {
			out[i] = sorted[0]
			continue
		}
		pos := q * float64(n-1)
		lo := int(math.Floor(pos))
		frac := pos - float64(lo)
		if lo >= n-1 {
			out[i] = sorted[n-1]
			continue
		}
		step := sorted[lo+1].Sub(sorted[lo]).Mul(decimal.NewFromFloat(frac))
		out[i] = sorted[lo].Add(step)
	}
	return out
}

// quartileEdges computes the five bucket edges [min q1 q2 q3 max] for a
// column and reports whether they are strictly increasing, i.e. whether
// the distribution supports four distinct buckets.
func quartileEdges(values []decimal.Decimal) (edges []decimal.Decimal, distinct bool) {
	qs := quantiles(values, 0, 0.25, 0.5, 0.75, 1)
	for i := 1; i < len(qs); i++ {
		if !qs[i-1].LessThan(qs[i]) {
			return qs, false
		}
	}
	return qs, true
}

// quartileLabel assigns a value to one of the four labels given strictly
// increasing edges from quartileEdges.
func quartileLabel(v decimal.Decimal, edges []decimal.Decimal, labels []string) string {
	switch {
	case v.LessThanOrEqual(edges[1]):
		return labels[0]
	case v.LessThanOrEqual(edges[2]):
		return labels[1]
	case v.LessThanOrEqual(edges[3]):
		return labels[2]
	default:
		return labels[3]
	}
}
