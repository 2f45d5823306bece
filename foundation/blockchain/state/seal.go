package state

import (
	"context"
	"errors"
	"time"

	"github.com/contentledger/notary/foundation/blockchain/database"
)

// SealNextBlock drains the mempool and seals the transactions into the next
// block of the chain. ErrNoTransactions is returned when there is nothing to
// seal. If sealing fails after the drain, the drained transactions are put
// back at the front of the mempool.
func (s *State) SealNextBlock(ctx context.Context, beneficiary string) (database.Block, error) {
	return s.seal(ctx, beneficiary, nil)
}

// SubmitAndSeal seals the pending transactions followed by the specified
// transactions into the next block. The specified transactions never wait
// in the mempool, so no other sealing operation can take them first. If
// sealing fails they are left in the mempool behind the drained ones.
func (s *State) SubmitAndSeal(ctx context.Context, beneficiary string, trans []database.Tx) (database.Block, error) {
	return s.seal(ctx, beneficiary, trans)
}

// seal performs the drain and sealing of a block.
func (s *State) seal(ctx context.Context, beneficiary string, extra []database.Tx) (database.Block, error) {
	s.evHandler("state: seal: SEALING: started")
	defer s.evHandler("state: seal: SEALING: completed")

	// Cancellation before the drain leaves the mempool untouched.
	if err := ctx.Err(); err != nil {
		return database.Block{}, err
	}

	if beneficiary == "" {
		beneficiary = s.beneficiaryID
	}

	trans := append(s.mempool.Drain(), extra...)
	if len(trans) == 0 {
		s.evHandler("state: seal: SEALING: no transactions to seal")
		return database.Block{}, ErrNoTransactions
	}

	s.evHandler("state: seal: SEALING: drained: trans[%d]", len(trans))

	t := time.Now()
	block, err := s.sealTrans(ctx, beneficiary, trans)
	if err != nil {
		s.evHandler("state: seal: SEALING: ERROR: %s: requeue trans[%d]", err, len(trans))
		s.mempool.Requeue(trans)
		return database.Block{}, err
	}

	s.recorder.BlockSealed(block, time.Since(t), s.mempool.Count())

	return block, nil
}

// sealTrans performs the proof of work against the current head and appends
// the block. If another block was appended while the work was performed, the
// work is redone against the new head.
func (s *State) sealTrans(ctx context.Context, beneficiary string, trans []database.Tx) (database.Block, error) {
	trans = append(database.CloneTrans(trans), database.NewRewardTx(beneficiary, s.genesis.MiningReward))

	for {
		prevBlock, err := s.db.LatestBlock()
		if err != nil {
			return database.Block{}, err
		}

		s.evHandler("state: sealTrans: SEALING: perform POW: prevBlk[%d]", prevBlock.Number)

		block, err := database.POW(ctx, s.genesis.Difficulty, prevBlock, trans, s.evHandler)
		if err != nil {
			return database.Block{}, err
		}

		// Just check one more time we were not cancelled.
		if err := ctx.Err(); err != nil {
			return database.Block{}, err
		}

		err = s.db.Append(block)
		switch {
		case errors.Is(err, database.ErrHeadChanged):
			s.evHandler("state: sealTrans: SEALING: head changed: retry")
			continue

		case err != nil:
			return database.Block{}, err
		}

		s.evHandler("state: sealTrans: SEALING: sealed: blk[%d]: hash[%s]", block.Number, block.Hash)

		return block.Clone(), nil
	}
}
