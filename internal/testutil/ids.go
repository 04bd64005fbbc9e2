package testutil

// FixedSessionGenerator returns the same session id every time.
//
// Golden traces embed the session id, so every run of a scenario must
// produce the same one. Unlike gpi.FixedGenerator, which hands out ids in
// sequence and panics when they run out, this generator never exhausts.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator returning id.
//
// If id is empty, Generate() returns "test-session".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
