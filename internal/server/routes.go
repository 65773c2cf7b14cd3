package server

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/ahmethakanbesel/bazaar-history/internal/metrics"
	"github.com/ahmethakanbesel/bazaar-history/internal/observation"
)

type options struct {
	currentLimit rate.Limit
	currentBurst int
}

// Option configures the HTTP handler.
type Option func(*options)

// WithCurrentRateLimit caps /api/current pass-through requests per second
// across all clients. perSecond <= 0 disables the cap. The collector does not
// go through the HTTP handler and is never throttled by it.
func WithCurrentRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		if perSecond <= 0 {
			o.currentLimit = rate.Inf
			return
		}
		o.currentLimit = rate.Limit(perSecond)
		o.currentBurst = max(burst, 1)
	}
}

// NewHandler creates the full HTTP handler with routes and middleware.
// Exported for use in tests (e.g., httptest.NewServer).
func NewHandler(svc *observation.Service, opts ...Option) http.Handler {
	return newMux(svc, opts...)
}

func newMux(svc *observation.Service, opts ...Option) http.Handler {
	o := options{currentLimit: rate.Inf}
	for _, opt := range opts {
		opt(&o)
	}
	h := &handler{svc: svc}
	current := throttle(rate.NewLimiter(o.currentLimit, o.currentBurst))

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /api/current", current(http.HandlerFunc(h.current)))
	mux.HandleFunc("GET /api/history", h.historyAll)
	mux.HandleFunc("GET /api/history/{productId}", h.historyFor)

	// Apply middleware stack: recovery -> requestID -> logging -> cors -> instrument
	var handler http.Handler = mux
	handler = instrument(handler)
	handler = cors(handler)
	handler = logging(handler)
	handler = requestID(handler)
	handler = recovery(handler)

	return handler
}
