package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// SortableGenerator emits "<prefix>_<uuidv7>". Version 7 UUIDs lead with a
// millisecond timestamp, so later IDs sort after earlier ones.
type SortableGenerator struct {
	prefix string
	newV7  func() (uuid.UUID, error)
}

func NewSortableGenerator(prefix string) *SortableGenerator {
	return &SortableGenerator{prefix: prefix, newV7: uuid.NewV7}
}

func (g *SortableGenerator) NewID() (string, error) {
	u, err := g.newV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid v7: %w", err)
	}
	if g.prefix == "" {
		return u.String(), nil
	}
	return g.prefix + "_" + u.String(), nil
}
