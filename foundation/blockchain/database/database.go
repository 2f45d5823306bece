// Package database handles all the lower level support for maintaining the
// ledger in memory and through a serializer that persists sealed blocks.
package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/contentledger/notary/foundation/blockchain/genesis"
)

// Set of errors returned by the database.
var (
	ErrNotFound    = errors.New("not found")
	ErrHeadChanged = errors.New("chain head changed")
)

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(block Block) error
	GetBlock(num uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// ReadAll walks the serializer and returns every stored block in order.
func ReadAll(serializer Serializer) ([]Block, error) {
	var blocks []Block

	iter := serializer.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

// =============================================================================

// Location identifies where a content hash was recorded in the chain. The
// timestamp is when the recording transaction was constructed.
type Location struct {
	BlockIndex  uint64 `json:"block_index"`
	BlockHash   string `json:"block_hash"`
	Transaction Tx     `json:"transaction"`
	TimeStamp   int64  `json:"timestamp"`
}

// position is an entry in the content hash index.
type position struct {
	block int
	tx    int
}

// Database manages the sealed blocks of the chain and an index of the
// content hashes recorded in them.
type Database struct {
	mu sync.RWMutex

	genesis    genesis.Genesis
	blocks     []Block
	index      map[string]position
	serializer Serializer
	evHandler  func(v string, args ...any)
}

// New constructs a new database and reads the blocks already stored by the
// serializer. The stored blocks must form a valid chain.
func New(genesis genesis.Genesis, serializer Serializer, evHandler func(v string, args ...any)) (*Database, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	db := Database{
		genesis:    genesis,
		index:      make(map[string]position),
		serializer: serializer,
		evHandler:  ev,
	}

	blocks, err := ReadAll(serializer)
	if err != nil {
		return nil, fmt.Errorf("reading blocks: %w", err)
	}

	if len(blocks) > 0 {
		ev("database: New: validate: blks[%d]", len(blocks))

		if err := ValidateChain(blocks, genesis.Difficulty).Err(); err != nil {
			return nil, err
		}
	}

	for _, block := range blocks {
		db.append(block)
	}

	return &db, nil
}

// Close closes the serializer.
func (db *Database) Close() error {
	return db.serializer.Close()
}

// Reset re-initializes the database back to an empty chain.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.serializer.Reset(); err != nil {
		return err
	}

	db.blocks = nil
	db.index = make(map[string]position)

	return nil
}

// =============================================================================

// LatestBlock returns the head of the chain. The genesis block is created
// and persisted if the chain is empty.
func (db *Database) LatestBlock() (Block, error) {
	db.mu.RLock()
	if n := len(db.blocks); n > 0 {
		block := db.blocks[n-1].Clone()
		db.mu.RUnlock()
		return block, nil
	}
	db.mu.RUnlock()

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.ensureGenesis(); err != nil {
		return Block{}, err
	}

	return db.blocks[len(db.blocks)-1].Clone(), nil
}

// Genesis returns the first block of the chain, creating it if needed.
func (db *Database) Genesis() (Block, error) {
	if _, err := db.LatestBlock(); err != nil {
		return Block{}, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	if len(db.blocks) == 0 {
		return Block{}, ErrNotFound
	}

	return db.blocks[0].Clone(), nil
}

// ensureGenesis creates the genesis block when the chain is empty. The
// caller must hold the write lock.
func (db *Database) ensureGenesis() error {
	if len(db.blocks) > 0 {
		return nil
	}

	block := NewGenesisBlock()

	db.evHandler("database: ensureGenesis: create: blk[0]: hash[%s]", block.Hash)

	if err := db.serializer.Write(block); err != nil {
		return fmt.Errorf("writing genesis: %w", err)
	}

	db.append(block)

	return nil
}

// Append adds a sealed block to the head of the chain. The block must be
// built on the current head, otherwise ErrHeadChanged is returned and
// nothing changes.
func (db *Database) Append(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if len(db.blocks) == 0 {
		return ErrHeadChanged
	}

	head := db.blocks[len(db.blocks)-1]
	if block.PrevBlockHash != head.Hash {
		return ErrHeadChanged
	}

	if err := block.ValidateBlock(head, db.genesis.Difficulty); err != nil {
		return fmt.Errorf("%w: block %d: %s", ErrInvalidChain, block.Number, err)
	}

	if err := db.serializer.Write(block); err != nil {
		return fmt.Errorf("writing block %d: %w", block.Number, err)
	}

	db.append(block.Clone())

	db.evHandler("database: Append: blk[%d]: hash[%s]: trans[%d]", block.Number, block.Hash, len(block.Trans))

	return nil
}

// append adds the block to memory and indexes its transactions. The first
// block to record a content hash wins. The caller must hold the write lock.
func (db *Database) append(block Block) {
	db.blocks = append(db.blocks, block)

	blk := len(db.blocks) - 1
	for i, tx := range block.Trans {
		if _, exists := db.index[tx.ContentHash]; !exists {
			db.index[tx.ContentHash] = position{block: blk, tx: i}
		}
	}
}

// =============================================================================

// Locate returns the location of the first transaction in chain order that
// recorded the content hash.
func (db *Database) Locate(contentHash string) (Location, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	pos, exists := db.index[contentHash]
	if !exists {
		return Location{}, ErrNotFound
	}

	block := db.blocks[pos.block]
	tx := block.Trans[pos.tx]

	loc := Location{
		BlockIndex:  block.Number,
		BlockHash:   block.Hash,
		Transaction: tx.Clone(),
		TimeStamp:   tx.CreatedAt,
	}

	return loc, nil
}

// GetBlock returns the block with the specified number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num >= uint64(len(db.blocks)) {
		return Block{}, ErrNotFound
	}

	return db.blocks[num].Clone(), nil
}

// QueryBlocksByNumber returns the blocks between the two numbers inclusive.
// The range is clamped to the blocks that exist.
func (db *Database) QueryBlocksByNumber(from uint64, to uint64) []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if len(db.blocks) == 0 || from > to {
		return nil
	}

	if last := uint64(len(db.blocks) - 1); to > last {
		to = last
	}

	var out []Block
	for i := from; i <= to; i++ {
		out = append(out, db.blocks[i].Clone())
	}

	return out
}

// Length returns the number of blocks in the chain.
func (db *Database) Length() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.blocks)
}

// Blocks returns a copy of every block in the chain.
func (db *Database) Blocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]Block, len(db.blocks))
	for i, block := range db.blocks {
		out[i] = block.Clone()
	}

	return out
}

// Validate checks the chain held in memory.
func (db *Database) Validate() ValidationResult {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return ValidateChain(db.blocks, db.genesis.Difficulty)
}
