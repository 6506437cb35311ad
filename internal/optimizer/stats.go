package optimizer

import "sort"

// weightedValue pairs a statistic value with its per-unit demand weight.
type weightedValue struct {
	value  float64
	weight int
}

// weightedPercentile returns the smallest value whose cumulative weight
// reaches p percent of the total weight. Operating on (value, weight) pairs
// keeps quantity weighting without materializing an expanded sample.
// The caller guarantees a non-empty input and p in (0, 100].
func weightedPercentile(values []weightedValue, p float64) float64 {
	sorted := make([]weightedValue, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].value < sorted[j].value })

	total := 0
	for _, v := range sorted {
		total += v.weight
	}
	target := p / 100 * float64(total)

	cumulative := 0
	for _, v := range sorted {
		cumulative += v.weight
		if float64(cumulative) >= target {
			return v.value
		}
	}
	return sorted[len(sorted)-1].value
}

// binner partitions catalogue items into groups ordered by ascending volume.
// Groups may come back empty; the generator substitutes whole-catalogue
// statistics for those.
type binner interface {
	groups(items []Item, n int) [][]int
}

// equalPopulationBinner cuts the quantity-weighted volume distribution at
// its k/n quantiles, producing groups of roughly equal weighted population.
type equalPopulationBinner struct{}

func (equalPopulationBinner) groups(items []Item, n int) [][]int {
	out := make([][]int, n)
	if len(items) == 0 {
		return out
	}

	volumes := make([]weightedValue, len(items))
	for i, item := range items {
		volumes[i] = weightedValue{value: item.Volume, weight: item.Quantity}
	}

	bounds := make([]float64, 0, n-1)
	for k := 1; k < n; k++ {
		bounds = append(bounds, weightedPercentile(volumes, float64(k)*100/float64(n)))
	}

	for i, item := range items {
		g := groupFor(bounds, item.Volume)
		out[g] = append(out[g], i)
	}
	return out
}

// equalWidthBinner cuts the volume range into n spans of equal width. Used
// when quantile cuts degenerate (heavy ties collapse group boundaries).
type equalWidthBinner struct{}

func (equalWidthBinner) groups(items []Item, n int) [][]int {
	out := make([][]int, n)
	if len(items) == 0 {
		return out
	}

	lo, hi := items[0].Volume, items[0].Volume
	for _, item := range items[1:] {
		if item.Volume < lo {
			lo = item.Volume
		}
		if item.Volume > hi {
			hi = item.Volume
		}
	}

	width := (hi - lo) / float64(n)
	for i, item := range items {
		g := 0
		if width > 0 {
			g = int((item.Volume - lo) / width)
			if g >= n {
				g = n - 1
			}
		}
		out[g] = append(out[g], i)
	}
	return out
}

// groupFor places a volume into the group delimited by the ascending cut
// boundaries: group index = number of boundaries strictly below the volume.
func groupFor(bounds []float64, volume float64) int {
	g := 0
	for _, b := range bounds {
		if volume > b {
			g++
		}
	}
	return g
}

func countNonEmpty(groups [][]int) int {
	n := 0
	for _, g := range groups {
		if len(g) > 0 {
			n++
		}
	}
	return n
}
