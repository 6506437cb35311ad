package optimizer

import "sort"

// Dims holds three dimensions in millimetres.
type Dims [3]float64

// Item is one catalogue row (SKU): the raw measured dimensions plus the
// number of identical physical units on order. The canonical triple is the
// raw triple sorted descending, which makes fit checks orientation
// independent.
type Item struct {
	ID        string
	Raw       Dims
	Canonical Dims
	Volume    float64
	Quantity  int
}

// NewItem builds an Item with its canonical triple and volume precomputed.
func NewItem(id string, length, width, height float64, quantity int) Item {
	raw := Dims{length, width, height}
	return Item{
		ID:        id,
		Raw:       raw,
		Canonical: canonicalize(raw),
		Volume:    length * width * height,
		Quantity:  quantity,
	}
}

// Container is one candidate box shape. Dimensions are stored canonically
// (sorted descending) and containers are ordered by volume.
type Container struct {
	ID     string
	Dims   Dims
	Volume float64
}

// NewContainer builds a Container from three dimensions in any order.
func NewContainer(id string, a, b, c float64) Container {
	return Container{
		ID:     id,
		Dims:   canonicalize(Dims{a, b, c}),
		Volume: a * b * c,
	}
}

// Fits reports whether the item can be placed in the container in some
// orientation. Both triples are sorted descending, so comparing them
// position by position covers every rotation.
func (c Container) Fits(item Item) bool {
	for axis := 0; axis < 3; axis++ {
		if c.Dims[axis] < item.Canonical[axis] {
			return false
		}
	}
	return true
}

// VoidFillPct returns the share of the container volume the item leaves
// empty, in percent.
func (c Container) VoidFillPct(item Item) float64 {
	if c.Volume <= 0 {
		return 0
	}
	return (c.Volume - item.Volume) / c.Volume * 100
}

// Evaluation is the immutable result of one simulator pass: the container id
// assigned to each item position (empty string for outliers) plus the two
// aggregate metrics. Items themselves are never mutated.
type Evaluation struct {
	Assignments     []string
	MeanVoidFillPct float64
	OutlierRatePct  float64
}

// Outliers returns the positions of items that fit no container.
func (e Evaluation) Outliers() []int {
	var out []int
	for i, id := range e.Assignments {
		if id == "" {
			out = append(out, i)
		}
	}
	return out
}

// AssignedTo returns the positions of items assigned to the given container.
func (e Evaluation) AssignedTo(containerID string) []int {
	var out []int
	for i, id := range e.Assignments {
		if id == containerID {
			out = append(out, i)
		}
	}
	return out
}

// Candidate records one evaluated container set: the percentile that
// generated it, the containers, the metrics of the final evaluation pass and
// the scalar score.
type Candidate struct {
	Percentile      int
	Containers      []Container
	MeanVoidFillPct float64
	OutlierRatePct  float64
	Score           float64
	Evaluation      Evaluation
}

// Params configures the grid search.
type Params struct {
	// Containers is the number of container shapes to generate.
	Containers int
	// Percentiles is the ascending grid of generation percentiles to sweep.
	Percentiles []int
	// OutlierPenalty weights the outlier rate against mean void fill when
	// scoring a candidate.
	OutlierPenalty float64
	// SafetyContainer appends a coverage container whenever a candidate
	// leaves outliers behind.
	SafetyContainer bool
}

// Optimizer describes the behaviour required from a box suite optimizer.
type Optimizer interface {
	Optimize(items []Item) (Candidate, error)
}

func canonicalize(d Dims) Dims {
	sort.Sort(sort.Reverse(sort.Float64Slice(d[:])))
	return d
}
