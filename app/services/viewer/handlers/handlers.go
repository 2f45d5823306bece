// Package handlers contains the routes for the ledger event viewer.
package handlers

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/contentledger/notary/business/web/v1/mid"
	"github.com/contentledger/notary/foundation/web"
	"go.uber.org/zap"
)

// UIMux constructs an http.Handler with all viewer routes defined. The
// page connects to the events websocket of the node at nodeHost.
func UIMux(build string, shutdown chan os.Signal, log *zap.SugaredLogger, nodeHost string) (*web.App, error) {
	app := web.NewApp(
		shutdown,
		mid.Logger(log),
		mid.Errors(log),
		mid.Metrics(),
		mid.Cors("*"),
		mid.Panics(),
	)

	ig, err := newIndex(build, nodeHost)
	if err != nil {
		return nil, fmt.Errorf("loading index template: %w", err)
	}
	app.Handle(http.MethodGet, "", "/", ig.handler)

	static, err := fs.Sub(assets, "assets")
	if err != nil {
		return nil, fmt.Errorf("loading assets: %w", err)
	}

	fsrv := http.StripPrefix("/assets/", http.FileServer(http.FS(static)))
	f := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		fsrv.ServeHTTP(w, r)
		return nil
	}
	app.Handle(http.MethodGet, "", "/assets/*", f)

	return app, nil
}
