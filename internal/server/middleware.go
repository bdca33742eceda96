package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/aatumaykin/anisette/internal/logger"
)

// StatusClientClosedRequest is recorded for requests whose client went away
// before a response was written. It is never sent on the wire.
const StatusClientClosedRequest = 499

// RequestIDHeader carries the per-request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDFromContext returns the request id set by the request id middleware.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestIDMiddleware keeps a caller supplied id or generates a new one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// accessLogMiddleware logs each request and feeds HTTP metrics.
func accessLogMiddleware(log *logger.Logger, metrics *HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			if metrics != nil {
				metrics.inFlight.Inc()
				defer metrics.inFlight.Dec()
			}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				if r.Context().Err() != nil {
					status = StatusClientClosedRequest
				} else {
					status = http.StatusOK
				}
			}
			duration := time.Since(start)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			if metrics != nil {
				metrics.RecordRequest(route, status, duration)
			}

			fields := []logger.Field{
				{Key: "request_id", Value: RequestIDFromContext(r.Context())},
				{Key: "method", Value: r.Method},
				{Key: "path", Value: r.URL.Path},
				{Key: "status", Value: status},
				{Key: "bytes", Value: rec.bytes},
				{Key: "duration_ms", Value: duration.Milliseconds()},
			}
			switch {
			case status == StatusClientClosedRequest:
				log.InfoCtx(r.Context(), "request abandoned by client", fields...)
			case status >= http.StatusInternalServerError:
				log.WarnCtx(r.Context(), "request failed", fields...)
			default:
				log.InfoCtx(r.Context(), "request served", fields...)
			}
		})
	}
}

// rateLimitMiddleware rejects requests over the limit with 429. The server
// only listens on loopback, so one limiter covers every client.
func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				retryAfter := 1
				if limit := limiter.Limit(); limit > 0 && limit < 1 {
					retryAfter = int(1/float64(limit)) + 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
