package state

import (
	"github.com/contentledger/notary/foundation/blockchain/database"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// =============================================================================

// Locate returns the location of the first transaction in chain order that
// recorded the content hash. ErrNotFound is returned if the content hash
// was never sealed.
func (s *State) Locate(contentHash string) (database.Location, error) {
	return s.db.Locate(contentHash)
}

// LatestBlock returns the head of the chain, creating the genesis block
// if the chain is empty.
func (s *State) LatestBlock() (database.Block, error) {
	return s.db.LatestBlock()
}

// GenesisBlock returns the first block of the chain.
func (s *State) GenesisBlock() (database.Block, error) {
	return s.db.Genesis()
}

// QueryBlock returns the block with the specified number.
func (s *State) QueryBlock(num uint64) (database.Block, error) {
	return s.db.GetBlock(num)
}

// QueryBlocksByNumber returns the set of blocks based on block numbers.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) ([]database.Block, error) {
	if from == QueryLatest || to == QueryLatest {
		latest, err := s.db.LatestBlock()
		if err != nil {
			return nil, err
		}

		if from == QueryLatest {
			from = latest.Number
		}
		to = latest.Number
	}

	return s.db.QueryBlocksByNumber(from, to), nil
}

// ChainLength returns the number of blocks in the chain without creating
// the genesis block.
func (s *State) ChainLength() int {
	return s.db.Length()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// RetrieveMempool returns a copy of the pending transactions.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// Validate checks every block of the chain and reports the first violation.
func (s *State) Validate() database.ValidationResult {
	return s.db.Validate()
}
