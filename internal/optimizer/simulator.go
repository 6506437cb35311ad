package optimizer

import "sort"

// Evaluate assigns every item to the smallest container it fits in
// (smallest-fit-first: minimal void fill per item, not globally) and returns
// the resulting assignment with quantity-weighted aggregate metrics. Items
// that fit no container stay unassigned. The pass has no side effects and is
// deterministic: re-running with the same inputs yields the same Evaluation.
func Evaluate(items []Item, containers []Container) Evaluation {
	ordered := make([]Container, len(containers))
	copy(ordered, containers)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Volume < ordered[j].Volume })

	assignments := make([]string, len(items))
	totalUnits := 0
	assignedUnits := 0
	voidFillSum := 0.0

	for i, item := range items {
		totalUnits += item.Quantity
		for _, c := range ordered {
			if c.Fits(item) {
				assignments[i] = c.ID
				assignedUnits += item.Quantity
				voidFillSum += c.VoidFillPct(item) * float64(item.Quantity)
				break
			}
		}
	}

	// No assignment at all means no coverage; 100 is the worst case, not an
	// arbitrary default, and guards the division below.
	meanVoidFill := 100.0
	if assignedUnits > 0 {
		meanVoidFill = voidFillSum / float64(assignedUnits)
	}

	outlierRate := 0.0
	if totalUnits > 0 {
		outlierRate = float64(totalUnits-assignedUnits) / float64(totalUnits) * 100
	}

	return Evaluation{
		Assignments:     assignments,
		MeanVoidFillPct: meanVoidFill,
		OutlierRatePct:  outlierRate,
	}
}
