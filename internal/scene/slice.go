package scene

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nerrad567/screener-core/internal/geometry"
)

// Slice defaults.
const (
	DefaultSliceName = "New Slice"
	DefaultSceneName = "New Scene"
)

// DefaultSliceRect is the rect of a slice created without one.
var DefaultSliceRect = geometry.NewRect(0, 0, 1920, 1080)

// Slice is a named physical output region.
type Slice struct {
	ID   string        `json:"id"`
	Name string        `json:"name"`
	Rect geometry.Rect `json:"rect"`
}

// NewSlice creates a slice. An empty name selects the default.
func NewSlice(name string, rect geometry.Rect) *Slice {
	if name == "" {
		name = DefaultSliceName
	}
	return &Slice{ID: uuid.NewString(), Name: name, Rect: rect}
}

// ParseSlice decodes a slice, defaulting missing fields.
func ParseSlice(data []byte) (*Slice, error) {
	s := &Slice{Name: DefaultSliceName, Rect: DefaultSliceRect}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: slice: %w", ErrInvalidJSON, err)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return s, nil
}

// Merge applies a partial payload. The id is preserved. On error s is
// unchanged.
func (s *Slice) Merge(data []byte) error {
	next := s.Clone()
	if err := json.Unmarshal(data, next); err != nil {
		return fmt.Errorf("%w: slice: %w", ErrInvalidJSON, err)
	}
	next.ID = s.ID
	*s = *next
	return nil
}

// Clone returns a copy of the slice.
func (s *Slice) Clone() *Slice {
	c := *s
	return &c
}
