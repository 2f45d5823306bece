// Package state is the core API for the ledger and implements all the
// business rules and processing.
package state

import (
	"errors"
	"time"

	"github.com/contentledger/notary/foundation/blockchain/database"
	"github.com/contentledger/notary/foundation/blockchain/genesis"
	"github.com/contentledger/notary/foundation/blockchain/mempool"
)

// Set of errors returned by the ledger.
var (
	ErrNotFound           = database.ErrNotFound
	ErrInvalidChain       = database.ErrInvalidChain
	ErrNoTransactions     = errors.New("no transactions in mempool")
	ErrMissingContentHash = errors.New("content hash is required")
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of sealing blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for sealing blocks in the background.
type Worker interface {
	Shutdown()
	SignalStartSealing()
}

// Recorder interface represents the behavior required to be implemented by
// any package collecting measurements about the ledger.
type Recorder interface {
	BlockSealed(block database.Block, duration time.Duration, pending int)
	TransactionSubmitted(pending int)
}

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	BeneficiaryID string
	Genesis       genesis.Genesis
	Storage       database.Serializer
	EvHandler     EventHandler
	Recorder      Recorder
}

// State manages the ledger.
type State struct {
	beneficiaryID string
	evHandler     EventHandler
	recorder      Recorder

	genesis genesis.Genesis
	mempool *mempool.Mempool
	db      *database.Database

	Worker Worker
}

// New constructs a new ledger over the blocks held by the storage. The stored
// blocks are validated and an invalid chain fails with ErrInvalidChain.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	state := State{
		beneficiaryID: cfg.BeneficiaryID,
		evHandler:     ev,
		recorder:      recorder,

		genesis: cfg.Genesis,
		mempool: mempool.New(),
		db:      db,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the ledger down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all sealing activity before closing the storage.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return s.db.Close()
}

// Truncate resets the chain and the mempool both in memory and in storage.
func (s *State) Truncate() error {
	s.mempool.Truncate()
	return s.db.Reset()
}

// Genesis returns the chain parameters the ledger is sealing under.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// BeneficiaryID returns the account that receives the sealing reward by
// default.
func (s *State) BeneficiaryID() string {
	return s.beneficiaryID
}

// =============================================================================

type nopRecorder struct{}

func (nopRecorder) BlockSealed(database.Block, time.Duration, int) {}
func (nopRecorder) TransactionSubmitted(int)                       {}
