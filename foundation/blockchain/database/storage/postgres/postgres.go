// Package postgres implements the ability to read and write blocks to a
// PostgreSQL database, storing each block as a row.
package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/contentledger/notary/foundation/blockchain/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// advisoryLockKey serializes concurrent writers of the blocks table. The
// value is arbitrary but must be the same for every node sharing a database.
const advisoryLockKey = int64(1_207_334_561)

// The block document is kept as text since jsonb would reorder the keys.
const schema = `
CREATE TABLE IF NOT EXISTS ledger_blocks (
	number          BIGINT PRIMARY KEY,
	hash            TEXT NOT NULL UNIQUE,
	prev_block_hash TEXT NOT NULL,
	data            TEXT NOT NULL,
	written_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres represents the serialization implementation for reading and
// storing blocks in a PostgreSQL table. This implements the
// database.Serializer interface.
type Postgres struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// New connects to the database at the specified url and makes sure the
// blocks table exists.
func New(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p, err := NewWithPool(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return p, nil
}

// NewWithPool constructs a Postgres value over an existing pool.
func NewWithPool(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	p := Postgres{
		pool:    pool,
		timeout: 5 * time.Second,
	}

	return &p, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// Write inserts the block. The block must be the next number after the
// last stored block.
func (p *Postgres) Write(block database.Block) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}

	var count uint64
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM ledger_blocks").Scan(&count); err != nil {
		return fmt.Errorf("read chain length: %w", err)
	}

	if block.Number != count {
		return fmt.Errorf("block is out of order, got %d, exp %d", block.Number, count)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO ledger_blocks (number, hash, prev_block_hash, data) VALUES ($1, $2, $3, $4)`,
		int64(block.Number), block.Hash, block.PrevBlockHash, string(data),
	); err != nil {
		return fmt.Errorf("insert block %d: %w", block.Number, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit block %d: %w", block.Number, err)
	}

	return nil
}

// GetBlock returns the contents of the specified block by number.
func (p *Postgres) GetBlock(num uint64) (database.Block, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	var data string
	err := p.pool.QueryRow(ctx, "SELECT data FROM ledger_blocks WHERE number = $1", int64(num)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Block{}, database.ErrNotFound
		}
		return database.Block{}, fmt.Errorf("get block %d: %w", num, err)
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(data)))
	decoder.UseNumber()

	var block database.Block
	if err := decoder.Decode(&block); err != nil {
		return database.Block{}, fmt.Errorf("decoding block %d: %w", num, err)
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// the genesis block.
func (p *Postgres) ForEach() database.Iterator {
	return &postgresIterator{storage: p}
}

// Reset will clear out the blockchain in the database.
func (p *Postgres) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if _, err := p.pool.Exec(ctx, "TRUNCATE ledger_blocks"); err != nil {
		return fmt.Errorf("truncate blocks: %w", err)
	}

	return nil
}

// =============================================================================

// postgresIterator represents the iteration implementation for walking
// through and reading blocks from the database. This implements the
// database Iterator interface.
type postgresIterator struct {
	storage *Postgres // Access to the storage API.
	current uint64    // Current block number being iterated over.
	eoc     bool      // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from the database.
func (pi *postgresIterator) Next() (database.Block, error) {
	if pi.eoc {
		return database.Block{}, errors.New("end of chain")
	}

	block, err := pi.storage.GetBlock(pi.current)
	if errors.Is(err, database.ErrNotFound) {
		pi.eoc = true
	}

	pi.current++

	return block, err
}

// Done returns the end of chain value.
func (pi *postgresIterator) Done() bool {
	return pi.eoc
}
