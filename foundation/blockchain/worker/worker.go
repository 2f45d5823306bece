// Package worker implements the background sealing of blocks for the ledger.
package worker

import (
	"sync"
	"time"

	"github.com/contentledger/notary/foundation/blockchain/state"
)

// Worker manages the sealing workflows for the ledger.
type Worker struct {
	state         *state.State
	wg            sync.WaitGroup
	ticker        *time.Ticker
	shut          chan struct{}
	startSealing  chan bool
	cancelSealing chan bool
	evHandler     state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes. When the interval is greater than
// zero, a sealing operation is also started on every tick.
func Run(st *state.State, interval time.Duration, evHandler state.EventHandler) *Worker {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	w := Worker{
		state:         st,
		shut:          make(chan struct{}),
		startSealing:  make(chan bool, 1),
		cancelSealing: make(chan bool, 1),
		evHandler:     evHandler,
	}

	if interval > 0 {
		w.ticker = time.NewTicker(interval)
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.sealingOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	if w.ticker != nil {
		w.evHandler("worker: shutdown: stop ticker")
		w.ticker.Stop()
	}

	w.evHandler("worker: shutdown: signal cancel sealing")
	w.SignalCancelSealing()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartSealing starts a sealing operation. If there is already a signal
// pending in the channel, just return since a sealing operation will start.
func (w *Worker) SignalStartSealing() {
	select {
	case w.startSealing <- true:
	default:
	}
	w.evHandler("worker: SignalStartSealing: sealing signaled")
}

// SignalCancelSealing signals the G executing the runSealingOperation
// function to stop immediately.
func (w *Worker) SignalCancelSealing() {
	select {
	case w.cancelSealing <- true:
	default:
	}
	w.evHandler("worker: SignalCancelSealing: SEALING: CANCEL: signaled")
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

// tick returns the ticker channel or nil when no interval is configured.
func (w *Worker) tick() <-chan time.Time {
	if w.ticker == nil {
		return nil
	}
	return w.ticker.C
}
