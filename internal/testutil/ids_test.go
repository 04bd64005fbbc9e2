package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/gpi/internal/gpi"
)

var _ gpi.IDGenerator = (*FixedSessionGenerator)(nil)

func TestFixedSessionGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedSessionGenerator("session-123")

	assert.Equal(t, "session-123", gen.Generate())
	assert.Equal(t, "session-123", gen.Generate())
}

func TestFixedSessionGenerator_EmptyIDDefault(t *testing.T) {
	gen := NewFixedSessionGenerator("")

	assert.Equal(t, "test-session", gen.Generate())
}

func TestFixedSessionGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedSessionGenerator("thread-safe")

	done := make(chan bool)
	for range 10 {
		go func() {
			for range 100 {
				assert.Equal(t, "thread-safe", gen.Generate())
			}
			done <- true
		}()
	}
	for range 10 {
		<-done
	}
}
