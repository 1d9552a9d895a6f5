package model

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDGenerator produces unique snack identifiers.
type IDGenerator interface {
	NewID() (ID, error)
}

// ULIDGenerator generates lexically sortable ULIDs. IDs generated within the
// same millisecond stay strictly increasing.
type ULIDGenerator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy io.Reader
}

// NewULIDGenerator creates a ULIDGenerator backed by crypto/rand.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewID returns a fresh ULID.
func (g *ULIDGenerator) NewID() (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now()), g.entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return ID(id.String()), nil
}

// SequenceGenerator yields prefix-1, prefix-2, ... and is meant for tests
// and deterministic demos.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	next   uint64
}

// NewSequenceGenerator creates a SequenceGenerator.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// NewID returns the next id in the sequence.
func (g *SequenceGenerator) NewID() (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.next++
	return ID(g.prefix + "-" + strconv.FormatUint(g.next, 10)), nil
}
