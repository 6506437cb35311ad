package optimizer

import "errors"

var (
	// ErrInvalidItem is returned when an item has a non-positive dimension or quantity.
	ErrInvalidItem = errors.New("items must have positive dimensions and a positive quantity")
	// ErrInvalidContainers is returned when the requested container count is not positive.
	ErrInvalidContainers = errors.New("container count must be a positive integer")
	// ErrInvalidPercentiles is returned when the percentile grid is empty or contains values outside (0, 100].
	ErrInvalidPercentiles = errors.New("percentile grid must contain values in (0, 100]")
	// ErrInvalidPenalty is returned when the outlier penalty weight is negative.
	ErrInvalidPenalty = errors.New("outlier penalty must be non-negative")
)
