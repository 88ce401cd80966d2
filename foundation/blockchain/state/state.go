// Package state is the core API for the petition ledger and implements all
// the business rules and processing.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/petition/foundation/blockchain/database"
	"github.com/ardanlabs/petition/foundation/blockchain/registry"
)

// Set of error variables for the business rules of the ledger.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrPetitionNotFound     = errors.New("petition not found")
	ErrPetitionExists       = errors.New("petition already exists")
	ErrAlreadySigned        = errors.New("petition already signed by user")
	ErrUserNotFound         = errors.New("user not registered")
	ErrKeyRotationForbidden = errors.New("user has signed petitions, key can't be replaced")
	ErrInvalidSignature     = errors.New("signature does not verify")
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the ledger.
type Config struct {
	Storage   database.Storage
	Registry  *registry.Registry
	EvHandler EventHandler
}

// State manages the ledger and the identity registry.
type State struct {
	evHandler EventHandler

	// mu serializes key registration with signature appends so a key can't
	// be replaced between the signed check and the append.
	mu sync.Mutex

	db       *database.Database
	registry *registry.Registry
}

// New constructs the state for the ledger. The chain is loaded from storage
// and initialized with a genesis block when there is nothing to load.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	// A registry that only lives in memory is enough for a test or
	// a read only tool.
	reg := cfg.Registry
	if reg == nil {
		reg = registry.New("", ev)
	}

	db, err := database.New(cfg.Storage, ev)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	state := State{
		evHandler: ev,
		db:        db,
		registry:  reg,
	}

	return &state, nil
}

// Shutdown cleanly brings the ledger down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	return s.db.Close()
}

// Registry returns the identity registry used by the ledger.
func (s *State) Registry() *registry.Registry {
	return s.registry
}
