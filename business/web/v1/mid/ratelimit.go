package mid

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/contentledger/notary/business/sys/metrics"
	v1 "github.com/contentledger/notary/business/web/v1"
	"github.com/contentledger/notary/foundation/web"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned to callers exceeding their request rate.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiters idle longer than this are forgotten.
const (
	staleAfter = 10 * time.Minute
	sweepEvery = 5 * time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit enforces a token bucket per remote IP. The bucket refills at
// rps tokens per second and holds up to burst tokens. A non-positive rps
// disables the limiter.
func RateLimit(rps float64, burst int) web.Middleware {
	var (
		mu        sync.Mutex
		limiters  = make(map[string]*ipLimiter)
		lastSweep = time.Now()
	)

	allow := func(ip string) bool {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()

		if now.Sub(lastSweep) > sweepEvery {
			for k, l := range limiters {
				if now.Sub(l.lastSeen) > staleAfter {
					delete(limiters, k)
				}
			}
			lastSweep = now
		}

		l, exists := limiters[ip]
		if !exists {
			l = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			limiters[ip] = l
		}
		l.lastSeen = now

		return l.limiter.AllowN(now, 1)
	}

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {
		if rps <= 0 {
			return handler
		}

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !allow(remoteIP(r)) {
				metrics.AddRateLimited()
				w.Header().Set("Retry-After", "1")
				return v1.NewRequestError(ErrRateLimited, http.StatusTooManyRequests)
			}

			// Call the next handler.
			return handler(ctx, w, r)
		}

		return h
	}

	return m
}

// remoteIP returns the IP of the caller without the port.
func remoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
