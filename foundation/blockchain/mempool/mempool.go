// Package mempool maintains the pool of transactions waiting to be sealed.
package mempool

import (
	"errors"
	"sync"

	"github.com/contentledger/notary/foundation/blockchain/database"
)

// ErrDuplicate is returned when a transaction with the same id is already
// waiting in the pool.
var ErrDuplicate = errors.New("transaction already in the pool")

// Mempool represents the pending transactions in submission order.
type Mempool struct {
	mu   sync.RWMutex
	pool []database.Tx
	ids  map[string]struct{}
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{
		ids: make(map[string]struct{}),
	}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Submit appends a transaction to the end of the pool and returns the new
// number of transactions in the pool.
func (mp *Mempool) Submit(tx database.Tx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.ids[tx.ID]; exists {
		return len(mp.pool), ErrDuplicate
	}

	mp.pool = append(mp.pool, tx.Clone())
	mp.ids[tx.ID] = struct{}{}

	return len(mp.pool), nil
}

// Drain empties the pool and returns what it held. A submission either lands
// in the drained set or in the pool left behind, never both.
func (mp *Mempool) Drain() []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	trans := mp.pool
	if trans == nil {
		trans = []database.Tx{}
	}

	mp.pool = nil
	mp.ids = make(map[string]struct{})

	return trans
}

// Requeue places previously drained transactions back at the front of the
// pool in their original order. Transactions already in the pool are kept
// behind them.
func (mp *Mempool) Requeue(trans []database.Tx) {
	if len(trans) == 0 {
		return
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	pool := make([]database.Tx, 0, len(trans)+len(mp.pool))
	for _, tx := range trans {
		if _, exists := mp.ids[tx.ID]; exists {
			continue
		}
		pool = append(pool, tx)
		mp.ids[tx.ID] = struct{}{}
	}

	mp.pool = append(pool, mp.pool...)
}

// Delete removes a transaction from the pool.
func (mp *Mempool) Delete(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.ids[tx.ID]; !exists {
		return
	}

	for i := range mp.pool {
		if mp.pool[i].ID == tx.ID {
			mp.pool = append(mp.pool[:i], mp.pool[i+1:]...)
			break
		}
	}

	delete(mp.ids, tx.ID)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
	mp.ids = make(map[string]struct{})
}

// Copy returns a copy of the transactions in submission order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return database.CloneTrans(mp.pool)
}
