package catalog

import (
	"errors"
	"sync"

	"github.com/eugenenazirov/box-optimizer/internal/optimizer"
)

var (
	// ErrInvalidItems indicates a catalogue row with a non-positive dimension or quantity.
	ErrInvalidItems = errors.New("catalogue items must have positive dimensions and quantities")
)

// Storage provides access to the item catalogue consumed by the optimizer.
type Storage interface {
	GetItems() ([]optimizer.Item, error)
	SetItems(items []optimizer.Item) error
}

// MemoryStorage keeps the catalogue in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu    sync.RWMutex
	items []optimizer.Item
}

// NewMemoryStorage initialises an empty catalogue.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// GetItems returns a defensive copy of the current catalogue.
func (s *MemoryStorage) GetItems() ([]optimizer.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]optimizer.Item, len(s.items))
	copy(out, s.items)
	return out, nil
}

// SetItems validates and stores the provided catalogue. Every dimension and
// every quantity must be positive: the optimizer assumes validated input, so
// malformed rows are rejected here at the boundary.
func (s *MemoryStorage) SetItems(items []optimizer.Item) error {
	for _, item := range items {
		if item.Quantity <= 0 {
			return ErrInvalidItems
		}
		for _, d := range item.Raw {
			if d <= 0 {
				return ErrInvalidItems
			}
		}
	}

	out := make([]optimizer.Item, len(items))
	copy(out, items)

	s.mu.Lock()
	s.items = out
	s.mu.Unlock()

	return nil
}
