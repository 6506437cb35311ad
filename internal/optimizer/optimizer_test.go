package optimizer

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func defaultTestParams() Params {
	return Params{
		Containers:      5,
		Percentiles:     []int{86, 88, 90, 92, 94},
		OutlierPenalty:  1.0,
		SafetyContainer: true,
	}
}

func TestOptimizeValidatesParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr error
	}{
		{
			name:    "ZeroContainers",
			mutate:  func(p *Params) { p.Containers = 0 },
			wantErr: ErrInvalidContainers,
		},
		{
			name:    "NegativeContainers",
			mutate:  func(p *Params) { p.Containers = -1 },
			wantErr: ErrInvalidContainers,
		},
		{
			name:    "EmptyGrid",
			mutate:  func(p *Params) { p.Percentiles = nil },
			wantErr: ErrInvalidPercentiles,
		},
		{
			name:    "PercentileZero",
			mutate:  func(p *Params) { p.Percentiles = []int{0, 90} },
			wantErr: ErrInvalidPercentiles,
		},
		{
			name:    "PercentileAboveHundred",
			mutate:  func(p *Params) { p.Percentiles = []int{90, 101} },
			wantErr: ErrInvalidPercentiles,
		},
		{
			name:    "NegativePenalty",
			mutate:  func(p *Params) { p.OutlierPenalty = -0.5 },
			wantErr: ErrInvalidPenalty,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			params := defaultTestParams()
			tc.mutate(&params)

			_, err := New(params).Optimize(gradedCatalogue(10, 5))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestOptimizeRejectsInvalidItems(t *testing.T) {
	t.Parallel()

	invalid := [][]Item{
		{NewItem("ZERO_DIM", 0, 100, 80, 1)},
		{NewItem("NEGATIVE_DIM", 150, -1, 80, 1)},
		{NewItem("ZERO_QTY", 150, 100, 80, 0)},
		{NewItem("NEGATIVE_QTY", 150, 100, 80, -3)},
	}

	for _, items := range invalid {
		items := items
		t.Run(items[0].ID, func(t *testing.T) {
			if _, err := New(defaultTestParams()).Optimize(items); !errors.Is(err, ErrInvalidItem) {
				t.Fatalf("expected ErrInvalidItem for %v, got %v", items[0].ID, err)
			}
		})
	}
}

// Three SKUs with a wide volume spread: the quantile cut degenerates, the
// equal-width fallback takes over, and percentile 90 still covers the small
// group of large items.
func TestOptimizeMixedCatalogue(t *testing.T) {
	t.Parallel()

	items := []Item{
		NewItem("MID", 300, 200, 100, 5),
		NewItem("BIG", 500, 400, 300, 2),
		NewItem("SMALL", 150, 100, 80, 20),
	}
	params := defaultTestParams()
	params.Percentiles = []int{90}

	candidate, err := New(params).Optimize(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidate.Containers) != 5 {
		t.Fatalf("expected 5 containers, got %d", len(candidate.Containers))
	}
	for _, c := range candidate.Containers {
		if c.Dims[0] < 200 || c.Dims[1] < 100 || c.Dims[2] < 50 {
			t.Fatalf("container %s below practical minimums: %v", c.ID, c.Dims)
		}
	}
	if candidate.OutlierRatePct != 0 {
		t.Fatalf("expected all items assigned, got outlier rate %v", candidate.OutlierRatePct)
	}
	for i, id := range candidate.Evaluation.Assignments {
		if id == "" {
			t.Fatalf("expected item %d to be assigned", i)
		}
	}

	wantVoidFill := 1600.0 / 27
	if math.Abs(candidate.MeanVoidFillPct-wantVoidFill) > 1e-9 {
		t.Fatalf("expected mean void fill %v, got %v", wantVoidFill, candidate.MeanVoidFillPct)
	}
}

// A single oversized SKU with thin demand shares the top volume group with a
// well-stocked SKU: at percentile 90 the group statistic excludes it, so it
// becomes an outlier regardless of the penalty weight.
func TestOptimizeThinTailOutlier(t *testing.T) {
	t.Parallel()

	items := append(gradedCatalogue(10, 10), NewItem("BIG", 1000, 900, 800, 1))

	params := defaultTestParams()
	params.Percentiles = []int{90}
	params.SafetyContainer = false

	candidate, err := New(params).Optimize(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantRate := 100.0 * 1 / 101
	if math.Abs(candidate.OutlierRatePct-wantRate) > 1e-9 {
		t.Fatalf("expected outlier rate %v, got %v", wantRate, candidate.OutlierRatePct)
	}
	outliers := candidate.Evaluation.Outliers()
	if len(outliers) != 1 || items[outliers[0]].ID != "BIG" {
		t.Fatalf("expected BIG to be the only outlier, got %v", outliers)
	}

	// Lowering the penalty must not change the assignment, only the score.
	params.OutlierPenalty = 0
	relaxed, err := New(params).Optimize(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(relaxed.OutlierRatePct-wantRate) > 1e-9 {
		t.Fatalf("expected outlier rate unchanged by penalty, got %v", relaxed.OutlierRatePct)
	}
}

func TestOptimizeThinTailCoveredAtHigherPercentile(t *testing.T) {
	t.Parallel()

	items := append(gradedCatalogue(10, 10), NewItem("BIG", 1000, 900, 800, 1))

	params := defaultTestParams()
	params.Percentiles = []int{92}
	params.SafetyContainer = false

	candidate, err := New(params).Optimize(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidate.OutlierRatePct != 0 {
		t.Fatalf("expected percentile 92 to cover the tail SKU, got outlier rate %v", candidate.OutlierRatePct)
	}
}

func TestOptimizeSafetyContainerGuaranteesCoverage(t *testing.T) {
	t.Parallel()

	items := append(gradedCatalogue(10, 10), NewItem("BIG", 1000, 900, 800, 1))

	params := defaultTestParams()
	params.Percentiles = []int{90}

	candidate, err := New(params).Optimize(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if candidate.OutlierRatePct != 0 {
		t.Fatalf("expected outlier rate 0 after augmentation, got %v", candidate.OutlierRatePct)
	}
	if len(candidate.Containers) != 6 {
		t.Fatalf("expected 5+1 containers, got %d", len(candidate.Containers))
	}
	safety := candidate.Containers[5]
	if safety.ID != SafetyContainerID {
		t.Fatalf("expected %s appended last, got %s", SafetyContainerID, safety.ID)
	}
	if safety.Dims != (Dims{1050, 950, 850}) {
		t.Fatalf("unexpected safety dimensions %v", safety.Dims)
	}
}

func TestOptimizeEmptyCatalogue(t *testing.T) {
	t.Parallel()

	candidate, err := New(defaultTestParams()).Optimize(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if candidate.OutlierRatePct != 0 {
		t.Fatalf("expected outlier rate 0, got %v", candidate.OutlierRatePct)
	}
	if candidate.MeanVoidFillPct != 100.0 {
		t.Fatalf("expected void fill 100, got %v", candidate.MeanVoidFillPct)
	}
	if len(candidate.Containers) != 5 {
		t.Fatalf("expected 5 containers, got %d", len(candidate.Containers))
	}
	for _, c := range candidate.Containers {
		if c.Dims != (Dims{200, 100, 50}) {
			t.Fatalf("expected minimum clamp dimensions, got %v", c.Dims)
		}
	}
}

// The returned score can never exceed any individual grid point evaluated
// with the same pipeline.
func TestOptimizeReturnsGridMinimum(t *testing.T) {
	t.Parallel()

	items := append(gradedCatalogue(10, 10), NewItem("BIG", 1000, 900, 800, 1))
	params := defaultTestParams()

	candidate, err := New(params).Optimize(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, p := range params.Percentiles {
		containers := GenerateContainers(items, params.Containers, p)
		eval := Evaluate(items, containers)
		if params.SafetyContainer && len(eval.Outliers()) > 0 {
			containers = WithSafetyContainer(containers, items, eval)
			eval = Evaluate(items, containers)
		}
		score := Score(eval.MeanVoidFillPct, eval.OutlierRatePct, params.OutlierPenalty)
		if candidate.Score > score+1e-9 {
			t.Fatalf("returned score %v exceeds grid point %d score %v", candidate.Score, p, score)
		}
	}
}

func TestOptimizeTieBreaksOnFirstPercentile(t *testing.T) {
	t.Parallel()

	// Identical items produce identical containers at every percentile, so
	// all grid points score the same and the first must win.
	items := []Item{NewItem("A", 200, 150, 100, 10)}

	candidate, err := New(defaultTestParams()).Optimize(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidate.Percentile != 86 {
		t.Fatalf("expected stable tie-break on the first percentile, got %d", candidate.Percentile)
	}
}

func TestOptimizeMetricsMatchFreshEvaluation(t *testing.T) {
	t.Parallel()

	items := append(gradedCatalogue(10, 10), NewItem("BIG", 1000, 900, 800, 1))

	candidate, err := New(defaultTestParams()).Optimize(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fresh := Evaluate(items, candidate.Containers)
	if fresh.MeanVoidFillPct != candidate.MeanVoidFillPct || fresh.OutlierRatePct != candidate.OutlierRatePct {
		t.Fatalf("returned metrics differ from a fresh evaluation: %+v vs %+v", candidate, fresh)
	}
	if !reflect.DeepEqual(fresh, candidate.Evaluation) {
		t.Fatalf("returned evaluation differs from a fresh evaluation")
	}

	again := Evaluate(items, candidate.Containers)
	if !reflect.DeepEqual(fresh, again) {
		t.Fatalf("expected repeated evaluation to be identical")
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	if got := Score(40, 10, 2); got != 60 {
		t.Fatalf("expected score 60, got %v", got)
	}
	if got := Score(40, 10, 0); got != 40 {
		t.Fatalf("expected penalty 0 to ignore outliers, got %v", got)
	}
}

func BenchmarkOptimizeSmall(b *testing.B) {
	items := gradedCatalogue(10, 10)
	opt := New(defaultTestParams())
	for i := 0; i < b.N; i++ {
		if _, err := opt.Optimize(items); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}

func BenchmarkOptimizeLargeCatalogue(b *testing.B) {
	items := make([]Item, 0, 1000)
	for k := 0; k < 1000; k++ {
		step := float64(k % 200)
		items = append(items, NewItem(skuID(k), 100+step, 90+step, 80+step, 1+k%7))
	}
	opt := New(defaultTestParams())
	for i := 0; i < b.N; i++ {
		if _, err := opt.Optimize(items); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}
