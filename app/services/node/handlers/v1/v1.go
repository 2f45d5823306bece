// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/contentledger/notary/app/services/node/handlers/v1/hashgrp"
	"github.com/contentledger/notary/app/services/node/handlers/v1/ledgergrp"
	"github.com/contentledger/notary/app/services/node/handlers/v1/nodegrp"
	"github.com/contentledger/notary/app/services/node/handlers/v1/proofgrp"
	"github.com/contentledger/notary/foundation/blockchain/proof"
	"github.com/contentledger/notary/foundation/blockchain/state"
	"github.com/contentledger/notary/foundation/events"
	"github.com/contentledger/notary/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	State   *state.State
	Builder *proof.Builder
	Evts    *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	hgh := hashgrp.Handlers{
		Log: cfg.Log,
	}

	app.Handle(http.MethodPost, version, "/hash", hgh.Hash)
	app.Handle(http.MethodPost, version, "/hash/batch", hgh.Batch)
	app.Handle(http.MethodPost, version, "/hash/verify", hgh.Verify)

	lgh := ledgergrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
		WS:    websocket.Upgrader{},
	}

	app.Handle(http.MethodGet, version, "/events", lgh.Events)
	app.Handle(http.MethodPost, version, "/tx/submit", lgh.SubmitTransaction)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", lgh.Mempool)
	app.Handle(http.MethodPost, version, "/chain/add", lgh.AddToChain)
	app.Handle(http.MethodPost, version, "/chain/batch", lgh.BatchAdd)
	app.Handle(http.MethodGet, version, "/chain/validate", lgh.Validate)
	app.Handle(http.MethodGet, version, "/chain/stats", lgh.Stats)
	app.Handle(http.MethodPost, version, "/blocks/seal", lgh.Seal)
	app.Handle(http.MethodGet, version, "/blocks/list/:from/:to", lgh.BlocksByNumber)
	app.Handle(http.MethodGet, version, "/verify/:hash", lgh.Locate)

	pgh := proofgrp.Handlers{
		Log:     cfg.Log,
		Builder: cfg.Builder,
	}

	app.Handle(http.MethodGet, version, "/proof/:hash", pgh.Proof)
	app.Handle(http.MethodGet, version, "/certificate/:hash", pgh.Certificate)
	app.Handle(http.MethodPost, version, "/certificate/verify", pgh.VerifyCertificate)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	ngh := nodegrp.Handlers{
		Log:           cfg.Log,
		State:         cfg.State,
		Evts:          cfg.Evts,
		IssuerAccount: cfg.Builder.IssuerAccount(),
	}

	app.Handle(http.MethodGet, version, "/node/status", ngh.Status)
	app.Handle(http.MethodGet, version, "/node/genesis", ngh.Genesis)
	app.Handle(http.MethodPost, version, "/node/reset", ngh.Reset)
}
