// Package database handles all the lower level support for maintaining the
// blockchain in storage and serving consistent snapshots of it in memory.
package database

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
)

// Set of errors the database reports.
var (
	ErrStorage   = errors.New("storage failure")
	ErrCorrupt   = errors.New("stored chain is corrupt")
	ErrNoPayload = errors.New("transaction payload is missing")
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain. Save
// receives the full chain and must replace the stored chain atomically so a
// reader never sees a partial write.
type Storage interface {
	Load() ([]Block, error)
	Save(blocks []Block) error
	Close() error
}

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// CheckFunc is handed a snapshot of the chain while the write lock is held.
// It returns the payload of the block to append, or an error to abort.
type CheckFunc func(chain []Block) (TxData, error)

// =============================================================================

// Database manages the ordered set of blocks. Writers are serialized, readers
// always get a complete snapshot.
type Database struct {
	writeMu sync.Mutex

	mu     sync.RWMutex
	blocks []Block

	storage   Storage
	evHandler EventHandler
	now       func() Timestamp
}

// New constructs a database from the specified storage. When the storage is
// empty or can't be read, the chain is initialized with a genesis block which
// is persisted before New returns.
func New(storage Storage, evHandler EventHandler) (*Database, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	db := Database{
		storage:   storage,
		evHandler: ev,
		now:       Now,
	}

	if err := db.load(); err != nil {
		return nil, err
	}

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// Blocks returns a copy of the current chain.
func (db *Database) Blocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	cpy := make([]Block, len(db.blocks))
	copy(cpy, db.blocks)
	return cpy
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[len(db.blocks)-1]
}

// AppendAndPersist adds a new block with the payload to the chain and writes
// the chain to storage.
func (db *Database) AppendAndPersist(data TxData) (Block, error) {
	return db.Append(func(chain []Block) (TxData, error) {
		return data, nil
	})
}

// Append executes the check function and the append of the block it returns
// as one step under the write lock. This is the only way the chain grows. If
// the write to storage fails, the in-memory chain is left untouched.
func (db *Database) Append(check CheckFunc) (Block, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	chain := db.Blocks()

	data, err := check(chain)
	if err != nil {
		return Block{}, err
	}
	if data == nil {
		return Block{}, ErrNoPayload
	}

	block := NewBlock(chain[len(chain)-1], data, db.now())
	chain = append(chain, block)

	if err := db.storage.Save(chain); err != nil {
		db.evHandler("database: append: blk[%d]: ERROR: %s", block.Index, err)
		return Block{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	db.mu.Lock()
	db.blocks = chain
	db.mu.Unlock()

	db.evHandler("database: append: blk[%d]: type[%s]: hash[%s]", block.Index, block.TxType, block.Hash)

	return block, nil
}

// =============================================================================

// load reads the chain from storage. A missing, empty or unreadable chain is
// replaced with a fresh genesis block.
func (db *Database) load() error {
	blocks, err := db.storage.Load()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		db.evHandler("database: load: INIT: no chain in storage")

	case err != nil:
		db.evHandler("database: load: CORRUPT: chain discarded, reinitializing with genesis: %s", err)
		blocks = nil

	case len(blocks) == 0:
		db.evHandler("database: load: INIT: chain in storage is empty")
	}

	if len(blocks) == 0 {
		blocks = []Block{NewGenesis(db.now())}
		if err := db.storage.Save(blocks); err != nil {
			return fmt.Errorf("%w: saving genesis: %w", ErrStorage, err)
		}
		db.evHandler("database: load: genesis: hash[%s]", blocks[0].Hash)
	}

	db.mu.Lock()
	db.blocks = blocks
	db.mu.Unlock()

	db.evHandler("database: load: blocks[%d]: latest[%s]", len(blocks), blocks[len(blocks)-1].Hash)

	return nil
}
