package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aatumaykin/anisette/internal/bridge"
	"github.com/aatumaykin/anisette/internal/headers"
	"github.com/aatumaykin/anisette/internal/logger"
)

// handleHeaders serves GET /.
func (s *Server) handleHeaders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	h, err := bridge.Run(ctx, s.pool, s.provider.Generate)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Клиент ушёл, результат задачи отбрасывается
			s.logger.DebugCtx(ctx, "client went away before headers were ready",
				logger.Field{Key: "request_id", Value: RequestIDFromContext(ctx)})
			return
		}
		status := StatusFor(err)
		s.logger.ErrorCtx(ctx, "header request failed", err,
			logger.Field{Key: "request_id", Value: RequestIDFromContext(ctx)},
			logger.Field{Key: "status", Value: status})
		writeError(w, status)
		return
	}

	format := negotiateFormat(r.Header.Get("Accept"))
	body, err := headers.Encode(h, format)
	if err != nil {
		s.logger.ErrorCtx(ctx, "failed to encode headers", err,
			logger.Field{Key: "request_id", Value: RequestIDFromContext(ctx)},
			logger.Field{Key: "format", Value: string(format)})
		writeError(w, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleHeadersHead answers HEAD / without generating headers.
func (s *Server) handleHeadersHead(w http.ResponseWriter, r *http.Request) {
	format := negotiateFormat(r.Header.Get("Accept"))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
}

// negotiateFormat picks msgpack only when asked for; JSON otherwise.
func negotiateFormat(accept string) headers.Format {
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		switch strings.ToLower(strings.TrimSpace(mediaType)) {
		case "application/msgpack", "application/x-msgpack", "application/vnd.msgpack":
			return headers.FormatMsgpack
		}
	}
	return headers.FormatJSON
}
