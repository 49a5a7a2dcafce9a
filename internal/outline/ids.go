package outline

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces node identifiers unique within a tree's lifetime.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random 128-bit identifiers.
type UUIDGenerator struct{}

// NewUUIDGenerator returns the default identifier generator.
func NewUUIDGenerator() UUIDGenerator {
	return UUIDGenerator{}
}

// NewID returns a new random UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// CounterGenerator issues "<prefix><n>" identifiers from a monotonic counter
// scoped to one session. It is safe for concurrent use.
type CounterGenerator struct {
	prefix string
	next   atomic.Uint64
}

// NewCounterGenerator creates a counter generator starting at 1.
func NewCounterGenerator(prefix string) *CounterGenerator {
	return &CounterGenerator{prefix: prefix}
}

// NewID returns the next identifier.
func (g *CounterGenerator) NewID() string {
	return g.prefix + strconv.FormatUint(g.next.Add(1), 10)
}
