// Package metrics constructs the metrics the application will track.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/contentledger/notary/foundation/blockchain/database"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Total HTTP requests by method, route and response status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	errorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_http_errors_total",
		Help: "Total requests that ended in an error.",
	})

	panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_http_panics_total",
		Help: "Total requests that panicked.",
	})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_http_rate_limited_total",
		Help: "Total requests rejected by the rate limiter.",
	})

	blocksSealed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_blocks_sealed_total",
		Help: "Total blocks sealed by this node.",
	})

	sealDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_seal_duration_seconds",
		Help:    "Time spent draining, searching for a nonce and appending a block.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	transactionsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_transactions_submitted_total",
		Help: "Total transactions submitted to the mempool.",
	})

	transactionsSealed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_transactions_sealed_total",
		Help: "Total transactions sealed into blocks, reward entries included.",
	})

	pendingTransactions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_pending_transactions",
		Help: "Current number of transactions waiting in the mempool.",
	})

	chainHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_chain_height",
		Help: "Number of the latest block sealed by this node.",
	})
)

// Handler returns the handler serving the metrics in the prometheus format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// AddRequest records a completed request.
func AddRequest(method string, route string, status int, duration time.Duration) {
	requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// AddError records a request that ended in an error.
func AddError() {
	errorsTotal.Inc()
}

// AddPanic records a request that panicked.
func AddPanic() {
	panicsTotal.Inc()
}

// AddRateLimited records a request rejected by the rate limiter.
func AddRateLimited() {
	rateLimitedTotal.Inc()
}

// =============================================================================

// Ledger records measurements reported by the ledger. The zero value is
// ready for use.
type Ledger struct{}

// BlockSealed records a newly sealed block.
func (Ledger) BlockSealed(block database.Block, duration time.Duration, pending int) {
	blocksSealed.Inc()
	sealDuration.Observe(duration.Seconds())
	transactionsSealed.Add(float64(len(block.Trans)))
	chainHeight.Set(float64(block.Number))
	pendingTransactions.Set(float64(pending))
}

// TransactionSubmitted records a transaction added to the mempool.
func (Ledger) TransactionSubmitted(pending int) {
	transactionsSubmitted.Inc()
	pendingTransactions.Set(float64(pending))
}
