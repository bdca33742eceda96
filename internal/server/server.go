// Package server exposes the header provider over HTTP.
//
// Every GET / request builds one bridge bound to the shared worker pool,
// awaits the generated headers and writes them as a JSON object (or msgpack
// when the client asks for application/msgpack).
package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/aatumaykin/anisette/internal/bridge"
	"github.com/aatumaykin/anisette/internal/headers"
	"github.com/aatumaykin/anisette/internal/logger"
)

// Options configures the HTTP surface.
type Options struct {
	// RequestTimeout bounds how long a request waits for headers; zero means no bound.
	RequestTimeout time.Duration

	// RateLimit, если задан, ограничивает частоту запросов
	RateLimit *rate.Limiter

	// MetricsPath serves Gatherer when both are set.
	MetricsPath string
	Gatherer    prometheus.Gatherer

	Metrics *HTTPMetrics
}

// Server serves generated headers.
type Server struct {
	pool     bridge.Submitter
	provider headers.Provider
	logger   *logger.Logger
	opts     Options
}

// New creates a server. The pool is shared with other users and is not
// stopped by the server.
func New(pool bridge.Submitter, provider headers.Provider, log *logger.Logger, opts Options) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		pool:     pool,
		provider: provider,
		logger:   log,
		opts:     opts,
	}
}

// Handler returns the root HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHeaders)
	mux.HandleFunc("HEAD /{$}", s.handleHeadersHead)
	if s.opts.MetricsPath != "" && s.opts.Gatherer != nil {
		mux.Handle("GET "+s.opts.MetricsPath, promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	var h http.Handler = mux
	if s.opts.RateLimit != nil {
		h = rateLimitMiddleware(s.opts.RateLimit)(h)
	}
	h = accessLogMiddleware(s.logger, s.opts.Metrics)(h)
	h = requestIDMiddleware(h)
	return h
}
