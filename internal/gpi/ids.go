package gpi

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces session identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDv7 session ids.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined ids in order. It panics when the
// list is exhausted.
type FixedGenerator struct {
	mu    sync.Mutex
	ids   []string
	index int
}

// NewFixedGenerator creates a generator that returns ids in sequence.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next id.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.index >= len(g.ids) {
		panic("FixedGenerator: no more ids")
	}
	id := g.ids[g.index]
	g.index++
	return id
}
