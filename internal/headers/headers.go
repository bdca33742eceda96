// Package headers defines the authentication header set and the blocking
// providers that produce it.
package headers

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrGeneration wraps every failure of the upstream header generator.
	ErrGeneration = errors.New("header generation failed")
	// ErrEmptyHeaders means the generator returned no headers at all.
	ErrEmptyHeaders = errors.New("generator returned no headers")
)

// Headers maps header names to values. Treat it as immutable once produced.
type Headers map[string]string

// Clone returns an independent copy.
func (h Headers) Clone() Headers {
	return maps.Clone(h)
}

// Names returns the header names in sorted order.
func (h Headers) Names() []string {
	return slices.Sorted(maps.Keys(h))
}

// Provider produces a fresh header set. Generate may block for a long time
// and must only be called from a worker, never from a request goroutine.
type Provider interface {
	Generate() (Headers, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() (Headers, error)

func (f ProviderFunc) Generate() (Headers, error) {
	return f()
}

// generationError wraps cause so that errors.Is matches both ErrGeneration and cause.
func generationError(format string, args ...any) error {
	return fmt.Errorf("%w: %w", ErrGeneration, fmt.Errorf(format, args...))
}
