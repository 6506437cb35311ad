package optimizer

type gridSearch struct {
	params Params
}

// New creates an Optimizer that sweeps the configured percentile grid and
// keeps the lowest-scoring candidate.
func New(params Params) Optimizer {
	return &gridSearch{params: params}
}

// Score combines the two evaluation metrics into a single scalar. Lower is
// better. penalty encodes the business trade-off: large values strongly
// discourage outliers even at the cost of looser boxes, values near zero
// optimize pure packing efficiency.
func Score(meanVoidFillPct, outlierRatePct, penalty float64) float64 {
	return meanVoidFillPct + penalty*outlierRatePct
}

// Optimize runs generate, evaluate, optional safety augmentation and scoring
// for every percentile in the grid and returns the best-scoring candidate.
// Ties go to the first percentile in grid order. The winner is re-evaluated
// once more so the returned metrics exactly match a fresh evaluation of the
// returned container list.
func (o *gridSearch) Optimize(items []Item) (Candidate, error) {
	if err := validateParams(o.params); err != nil {
		return Candidate{}, err
	}
	if err := validateItems(items); err != nil {
		return Candidate{}, err
	}

	var best Candidate
	found := false
	for _, p := range o.params.Percentiles {
		containers := GenerateContainers(items, o.params.Containers, p)
		eval := Evaluate(items, containers)
		if o.params.SafetyContainer && len(eval.Outliers()) > 0 {
			containers = WithSafetyContainer(containers, items, eval)
			eval = Evaluate(items, containers)
		}

		candidate := Candidate{
			Percentile:      p,
			Containers:      containers,
			MeanVoidFillPct: eval.MeanVoidFillPct,
			OutlierRatePct:  eval.OutlierRatePct,
			Score:           Score(eval.MeanVoidFillPct, eval.OutlierRatePct, o.params.OutlierPenalty),
			Evaluation:      eval,
		}
		if !found || candidate.Score < best.Score {
			best = candidate
			found = true
		}
	}

	final := Evaluate(items, best.Containers)
	best.MeanVoidFillPct = final.MeanVoidFillPct
	best.OutlierRatePct = final.OutlierRatePct
	best.Score = Score(final.MeanVoidFillPct, final.OutlierRatePct, o.params.OutlierPenalty)
	best.Evaluation = final

	return best, nil
}

func validateParams(p Params) error {
	if p.Containers <= 0 {
		return ErrInvalidContainers
	}
	if len(p.Percentiles) == 0 {
		return ErrInvalidPercentiles
	}
	for _, pct := range p.Percentiles {
		if pct <= 0 || pct > 100 {
			return ErrInvalidPercentiles
		}
	}
	if p.OutlierPenalty < 0 {
		return ErrInvalidPenalty
	}
	return nil
}

// validateItems enforces the engine precondition: upstream input is expected
// to be validated at the boundary, so a violation fails fast.
func validateItems(items []Item) error {
	for _, item := range items {
		if item.Quantity <= 0 {
			return ErrInvalidItem
		}
		for _, d := range item.Raw {
			if d <= 0 {
				return ErrInvalidItem
			}
		}
	}
	return nil
}
