package optimizer

import (
	"fmt"
	"math"
)

const dimensionStepMM = 10

// minAxisMM is the practical minimum per canonical axis, longest first.
var minAxisMM = Dims{200, 100, 50}

// GenerateContainers derives nContainers candidate container shapes from the
// quantity-weighted distribution of the item dimensions. Items are grouped
// by volume; each group yields one container sized at the given percentile
// of every canonical axis within the group, rounded up to the next 10 mm and
// clamped to practical minimums. Identifiers are assigned in ascending
// volume-group order: OPT_1 .. OPT_n.
//
// A percentile below 100 deliberately under-covers the tail of each group:
// the few oversized items in that slice become outliers instead of inflating
// every box in the group. The grid search tunes this trade-off.
func GenerateContainers(items []Item, nContainers, percentile int) []Container {
	groups := equalPopulationBinner{}.groups(items, nContainers)
	if countNonEmpty(groups) < nContainers {
		groups = equalWidthBinner{}.groups(items, nContainers)
	}

	containers := make([]Container, 0, nContainers)
	for g, members := range groups {
		var dims Dims
		for axis := 0; axis < 3; axis++ {
			value := axisPercentile(items, members, axis, percentile)
			dims[axis] = math.Max(roundUpTo(value, dimensionStepMM), minAxisMM[axis])
		}
		containers = append(containers, NewContainer(fmt.Sprintf("OPT_%d", g+1), dims[0], dims[1], dims[2]))
	}
	return containers
}

// axisPercentile computes the weighted percentile of one canonical axis over
// the group members. An empty group falls back to the whole catalogue; an
// empty catalogue yields zero, leaving the minimum clamps in charge.
func axisPercentile(items []Item, members []int, axis, percentile int) float64 {
	values := make([]weightedValue, 0, len(members))
	for _, idx := range members {
		values = append(values, weightedValue{value: items[idx].Canonical[axis], weight: items[idx].Quantity})
	}
	if len(values) == 0 {
		for _, item := range items {
			values = append(values, weightedValue{value: item.Canonical[axis], weight: item.Quantity})
		}
	}
	if len(values) == 0 {
		return 0
	}
	return weightedPercentile(values, float64(percentile))
}

// roundUpTo rounds v up to the next multiple of step. Always a ceiling, so a
// rounded dimension is never below the statistic it was derived from.
func roundUpTo(v, step float64) float64 {
	return math.Ceil(v/step) * step
}
