// Package nodegrp maintains the group of handlers for operating the node.
// These routes are served on the private listener only.
package nodegrp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/contentledger/notary/foundation/blockchain/genesis"
	"github.com/contentledger/notary/foundation/blockchain/state"
	"github.com/contentledger/notary/foundation/events"
	"github.com/contentledger/notary/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log           *zap.SugaredLogger
	State         *state.State
	Evts          *events.Events
	IssuerAccount string
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest, err := h.State.LatestBlock()
	if err != nil {
		return fmt.Errorf("latest block: %w", err)
	}

	status := nodeStatus{
		LatestBlockHash:   latest.Hash,
		LatestBlockNumber: latest.Number,
		Pending:           h.State.QueryMempoolLength(),
		BeneficiaryID:     h.State.BeneficiaryID(),
		IssuerAccount:     h.IssuerAccount,
		Subscribers:       h.Evts.Subscribers(),
		Genesis:           h.State.Genesis(),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Genesis returns the chain parameters.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// Reset truncates the chain and the mempool.
func (h Handlers) Reset(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	if err := h.State.Truncate(); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	h.Log.Infow("chain reset", "traceid", v.TraceID)

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "chain reset",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

type nodeStatus struct {
	LatestBlockHash   string          `json:"latest_block_hash"`
	LatestBlockNumber uint64          `json:"latest_block_number"`
	Pending           int             `json:"pending_transactions"`
	BeneficiaryID     string          `json:"beneficiary_id"`
	IssuerAccount     string          `json:"issuer_account,omitempty"`
	Subscribers       int             `json:"event_subscribers"`
	Genesis           genesis.Genesis `json:"genesis"`
}
