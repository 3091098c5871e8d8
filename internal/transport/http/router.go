package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"socialkyc/pkg/platform/middleware/request"
)

const (
	defaultRequestTimeout = 60 * time.Second
	defaultBodyLimit      = 64 << 10
)

// Registrar mounts a feature's routes.
type Registrar interface {
	Register(r chi.Router)
}

// Options configures the router.
type Options struct {
	Logger  *slog.Logger
	Metrics *request.Metrics
	// Gatherer backs /metrics; nil leaves the endpoint out.
	Gatherer prometheus.Gatherer
	// DevIndexer is mounted at /dev/indexer when set. Never set it in production.
	DevIndexer     http.Handler
	RequestTimeout time.Duration
	BodyLimit      int64
}

// NewRouter wires the middleware stack, the operational endpoints and every
// feature handler. Handlers delegate to services without business logic.
func NewRouter(opts Options, handlers ...Registrar) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = defaultBodyLimit
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(opts.Logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(opts.Logger))
	r.Use(request.LatencyMiddleware(opts.Metrics))
	r.Use(chimw.Timeout(opts.RequestTimeout))
	r.Use(request.BodyLimit(opts.BodyLimit))
	r.Use(request.ContentTypeJSON)

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if opts.DevIndexer != nil {
		r.Post("/dev/indexer", opts.DevIndexer.ServeHTTP)
	}

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
