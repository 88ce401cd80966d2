// Package memory implements the ability to read and write blocks to memory
// using a slice.
package memory

import (
	"sync"

	"github.com/ardanlabs/petition/foundation/blockchain/database"
)

// Memory represents the serialization implementation for reading and storing
// blocks in memory using a slice. This implements the database.Storage
// interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.Block
	saves  int
}

// New constructs a Memory value for use.
func New(blocks ...database.Block) *Memory {
	return &Memory{blocks: blocks}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Load returns a copy of the stored chain.
func (m *Memory) Load() ([]database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cpy := make([]database.Block, len(m.blocks))
	copy(cpy, m.blocks)
	return cpy, nil
}

// Save replaces the stored chain with a copy of the specified chain.
func (m *Memory) Save(blocks []database.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = make([]database.Block, len(blocks))
	copy(m.blocks, blocks)
	m.saves++

	return nil
}

// Saves returns the number of times the chain was saved.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.saves
}
