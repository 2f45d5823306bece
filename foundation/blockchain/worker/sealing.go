package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/contentledger/notary/foundation/blockchain/state"
)

// sealingOperations handles sealing.
func (w *Worker) sealingOperations() {
	w.evHandler("worker: sealingOperations: G started")
	defer w.evHandler("worker: sealingOperations: G completed")

	for {
		select {
		case <-w.startSealing:
			if !w.isShutdown() {
				w.runSealingOperation()
			}
		case <-w.tick():
			if !w.isShutdown() {
				w.runSealingOperation()
			}
		case <-w.shut:
			w.evHandler("worker: sealingOperations: received shut signal")
			return
		}
	}
}

// runSealingOperation takes all the transactions from the mempool and writes
// a new block to the chain.
func (w *Worker) runSealingOperation() {
	w.evHandler("worker: runSealingOperation: SEALING: started")
	defer w.evHandler("worker: runSealingOperation: SEALING: completed")

	// Make sure there are transactions in the mempool.
	length := w.state.QueryMempoolLength()
	if length == 0 {
		w.evHandler("worker: runSealingOperation: SEALING: no transactions to seal: Txs[%d]", length)
		return
	}

	// After running a sealing operation, check if a new operation should
	// be signaled again.
	defer func() {
		length := w.state.QueryMempoolLength()
		if length > 0 && !w.isShutdown() {
			w.evHandler("worker: runSealingOperation: SEALING: signal new sealing operation: Txs[%d]", length)
			w.SignalStartSealing()
		}
	}()

	// Drain the cancel sealing channel before starting.
	select {
	case <-w.cancelSealing:
		w.evHandler("worker: runSealingOperation: SEALING: drained cancel channel")
	default:
	}

	// Create a context so sealing can be cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(2)

	// This G exists to cancel the sealing operation.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case <-w.cancelSealing:
			w.evHandler("worker: runSealingOperation: SEALING: CANCEL: requested")
		case <-w.shut:
			w.evHandler("worker: runSealingOperation: SEALING: CANCEL: shutdown")
		case <-ctx.Done():
		}
	}()

	// This G is performing the sealing.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		t := time.Now()
		block, err := w.state.SealNextBlock(ctx, w.state.BeneficiaryID())
		duration := time.Since(t)

		w.evHandler("worker: runSealingOperation: SEALING: sealing duration[%v]", duration)

		if err != nil {
			switch {
			case errors.Is(err, state.ErrNoTransactions):
				w.evHandler("worker: runSealingOperation: SEALING: WARNING: no transactions in mempool")
			case ctx.Err() != nil:
				w.evHandler("worker: runSealingOperation: SEALING: CANCEL: complete")
			default:
				w.evHandler("worker: runSealingOperation: SEALING: ERROR: %s", err)
			}
			return
		}

		w.evHandler("viewer: block sealed: blk[%d]: hash[%s]: trans[%d]", block.Number, block.Hash, len(block.Trans))
	}()

	// Wait for both G's to terminate.
	wg.Wait()
}
