package state

import (
	"github.com/contentledger/notary/foundation/blockchain/database"
)

// Stats represents a summary of the ledger.
type Stats struct {
	TotalBlocks           int    `json:"total_blocks"`
	TotalTransactions     int    `json:"total_transactions"`
	VerifiedContentHashes int    `json:"verified_content_hashes"`
	PendingTransactions   int    `json:"pending_transactions"`
	ChainValid            bool   `json:"chain_valid"`
	LatestBlockHash       string `json:"latest_block_hash"`
}

// Stats summarizes the chain. Every value is computed from the same copy of
// the chain.
func (s *State) Stats() (Stats, error) {
	if _, err := s.db.LatestBlock(); err != nil {
		return Stats{}, err
	}

	pending := s.mempool.Count()
	blocks := s.db.Blocks()

	content := make(map[string]struct{})
	var trans int
	for _, block := range blocks {
		trans += len(block.Trans)
		for _, tx := range block.Trans {
			if tx.ContentHash != database.RewardContentHash {
				content[tx.ContentHash] = struct{}{}
			}
		}
	}

	stats := Stats{
		TotalBlocks:           len(blocks),
		TotalTransactions:     trans,
		VerifiedContentHashes: len(content),
		PendingTransactions:   pending,
		ChainValid:            database.ValidateChain(blocks, s.genesis.Difficulty).Valid,
	}

	if len(blocks) > 0 {
		stats.LatestBlockHash = blocks[len(blocks)-1].Hash
	}

	return stats, nil
}
