package optimizer

// SafetyContainerID is the reserved identifier of the coverage container
// appended by WithSafetyContainer. Generated containers never use it.
const SafetyContainerID = "OPT_SAFETY"

const (
	safetyMarginMM = 10
	safetyStepMM   = 50
)

// WithSafetyContainer appends one container sized to absorb every item the
// given evaluation left unassigned. Dimensions are the raw per-axis maxima
// of the outlier set (length with length, not canonical-sorted, so every
// observed orientation fits) plus a small margin, rounded up to the next
// 50 mm. No-op when the evaluation has no outliers or the list already
// carries a safety container, so repeated calls never stack duplicates.
//
// The evaluation must be the one obtained from the exact container list
// being augmented; a stale outlier set could under-size the container.
func WithSafetyContainer(containers []Container, items []Item, eval Evaluation) []Container {
	for _, c := range containers {
		if c.ID == SafetyContainerID {
			return containers
		}
	}

	outliers := eval.Outliers()
	if len(outliers) == 0 {
		return containers
	}

	var dims Dims
	for _, idx := range outliers {
		for axis := 0; axis < 3; axis++ {
			if items[idx].Raw[axis] > dims[axis] {
				dims[axis] = items[idx].Raw[axis]
			}
		}
	}
	for axis := 0; axis < 3; axis++ {
		dims[axis] = roundUpTo(dims[axis]+safetyMarginMM, safetyStepMM)
	}

	return append(containers, NewContainer(SafetyContainerID, dims[0], dims[1], dims[2]))
}
