// Package ledgergrp maintains the group of handlers for recording content
// and querying the ledger.
package ledgergrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	v1 "github.com/contentledger/notary/business/web/v1"
	"github.com/contentledger/notary/foundation/blockchain/database"
	"github.com/contentledger/notary/foundation/blockchain/state"
	"github.com/contentledger/notary/foundation/events"
	"github.com/contentledger/notary/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// batchDataType labels the transactions recorded through the batch endpoint.
const batchDataType = "batch_verification"

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
	WS    websocket.Upgrader
}

// SubmitTransaction adds a new transaction to the mempool and signals the
// worker to seal it.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req submitRequest
	if err := web.Decode(r, &req); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	tx, err := h.State.SubmitTransaction(req.ContentHash, req.DataType, req.Submitter, req.Metadata)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "tx", tx.ID, "content_hash", tx.ContentHash, "submitter", tx.Submitter)

	if h.State.Worker != nil {
		h.State.Worker.SignalStartSealing()
	}

	resp := submitResponse{
		Status:      "transaction added to mempool",
		Transaction: tx,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
}

// AddToChain records the content hash and seals it into a block before
// responding.
func (h Handlers) AddToChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req addRequest
	if err := web.Decode(r, &req); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	tx, err := h.State.NewTransaction(req.ContentHash, req.DataType, req.Submitter, req.Metadata)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	block, err := h.State.SubmitAndSeal(ctx, req.Submitter, []database.Tx{tx})
	if err != nil {
		return fmt.Errorf("seal: %w", err)
	}

	resp := addResponse{
		Message:     "Content added to blockchain successfully",
		Transaction: tx,
		Block:       block,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BatchAdd records a set of content hashes and seals them into one block
// before responding.
func (h Handlers) BatchAdd(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req batchRequest
	if err := web.Decode(r, &req); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	trans := make([]database.Tx, len(req.ContentHashes))
	results := make([]batchResult, len(req.ContentHashes))
	for i, contentHash := range req.ContentHashes {
		tx, err := h.State.NewTransaction(contentHash, batchDataType, req.Submitter, nil)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}

		trans[i] = tx
		results[i] = batchResult{ContentHash: contentHash, Transaction: tx}
	}

	block, err := h.State.SubmitAndSeal(ctx, req.Submitter, trans)
	if err != nil {
		return fmt.Errorf("seal: %w", err)
	}

	stats, err := h.State.Stats()
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	resp := batchResponse{
		Message: fmt.Sprintf("Batch verified %d content hashes", len(req.ContentHashes)),
		Results: results,
		Block:   block,
		Stats:   stats,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Seal seals the pending transactions into the next block.
func (h Handlers) Seal(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.SealNextBlock(ctx, r.URL.Query().Get("beneficiary"))
	if err != nil {
		if errors.Is(err, state.ErrNoTransactions) {
			return web.Respond(ctx, w, statusResponse{Status: "no pending transactions"}, http.StatusOK)
		}
		return fmt.Errorf("seal: %w", err)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// BlocksByNumber returns all the blocks based on the specified to/from values.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := blockNumber(web.Param(r, "from"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	to, err := blockNumber(web.Param(r, "to"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if from > to {
		return v1.NewRequestError(errors.New("from greater than to"), http.StatusBadRequest)
	}

	blocks, err := h.State.QueryBlocksByNumber(from, to)
	if err != nil {
		return fmt.Errorf("query blocks: %w", err)
	}

	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Locate reports where the content hash was recorded in the chain.
func (h Handlers) Locate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	loc, err := h.State.Locate(web.Param(r, "hash"))
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return v1.NewRequestError(errors.New("content hash not found in the chain"), http.StatusNotFound)
		}
		return fmt.Errorf("locate: %w", err)
	}

	resp := verification{
		Verified: true,
		Location: loc,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Validate checks every block of the chain.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := validateResponse{
		Validation:  h.State.Validate(),
		ChainLength: h.State.ChainLength(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Stats returns a summary of the chain.
func (h Handlers) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	stats, err := h.State.Stats()
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	return web.Respond(ctx, w, statsResponse{Stats: stats}, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the ledger.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// Starting a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Block waiting to receive events from the ledger or ticker.
	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// =============================================================================

// blockNumber parses a block number where latest or an empty value means
// the head of the chain.
func blockNumber(s string) (uint64, error) {
	if s == "latest" || s == "" {
		return state.QueryLatest, nil
	}

	return strconv.ParseUint(s, 10, 64)
}
