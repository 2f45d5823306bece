package state

import (
	"fmt"

	"github.com/contentledger/notary/foundation/blockchain/database"
)

// NewTransaction constructs a pending transaction without adding it to the
// mempool.
func (s *State) NewTransaction(contentHash string, dataType string, submitter string, metadata map[string]any) (database.Tx, error) {
	if contentHash == "" {
		return database.Tx{}, ErrMissingContentHash
	}

	tx, err := database.NewTx(contentHash, dataType, submitter, metadata)
	if err != nil {
		return database.Tx{}, fmt.Errorf("constructing tx: %w", err)
	}

	return tx, nil
}

// SubmitTransaction constructs a pending transaction and adds it to the end
// of the mempool.
func (s *State) SubmitTransaction(contentHash string, dataType string, submitter string, metadata map[string]any) (database.Tx, error) {
	tx, err := s.NewTransaction(contentHash, dataType, submitter, metadata)
	if err != nil {
		return database.Tx{}, err
	}

	n, err := s.mempool.Submit(tx)
	if err != nil {
		return database.Tx{}, err
	}

	s.evHandler("state: SubmitTransaction: tx[%s]: pending[%d]", tx, n)
	s.recorder.TransactionSubmitted(n)

	return tx, nil
}
