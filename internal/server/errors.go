package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/aatumaykin/anisette/internal/bridge"
	"github.com/aatumaykin/anisette/internal/headers"
	"github.com/aatumaykin/anisette/internal/workers"
)

// StatusFor maps a header request failure to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, workers.ErrPoolClosed), errors.Is(err, workers.ErrQueueFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, headers.ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, bridge.ErrResultChannelBroken):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with the status text only, never a partial body.
func writeError(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}
