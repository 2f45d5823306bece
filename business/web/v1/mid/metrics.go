package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/contentledger/notary/business/sys/metrics"
	"github.com/contentledger/notary/foundation/web"
)

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			if v, verr := web.GetValues(ctx); verr == nil {
				metrics.AddRequest(r.Method, v.Route, v.StatusCode, time.Since(v.Now))
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
