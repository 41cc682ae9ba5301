// Package adapters maps product sources to price-extraction capabilities.
//
// An adapter knows how to turn one source's product URL into a price
// observation. The registry resolves a URL to its adapter by host; the
// worker stays adapter-agnostic.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/colelamarris56-code/price-monitor/internal/models"
)

var (
	ErrAdapterNotFound  = errors.New("no adapter registered for source")
	ErrExtractionFailed = errors.New("price marker not found")
	ErrFetchTimeout     = errors.New("fetch timed out")
)

// Adapter extracts a price observation for a product URL. Implementations
// must bound each invocation with their own timeout and release any
// per-invocation resources on every exit path. On success the observation
// carries a non-nil price; a missing price marker is ErrExtractionFailed,
// never a silent nil or zero.
type Adapter interface {
	FetchPrice(ctx context.Context, rawURL string) (models.PriceObservation, error)
}

// Registry is a static mapping from source identifier to adapter. It is
// populated at startup and read-only afterwards, so concurrent Resolve calls
// need no locking.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

func (r *Registry) Register(source string, a Adapter) {
	r.adapters[normalizeSource(source)] = a
}

// Resolve returns the adapter registered for the URL's source. A miss is
// ErrAdapterNotFound, which is non-retryable: retrying cannot change the
// absence of a registered adapter.
func (r *Registry) Resolve(rawURL string) (Adapter, error) {
	const op = "adapters.Resolve"

	source, err := Source(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a, ok := r.adapters[source]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", op, source, ErrAdapterNotFound)
	}

	return a, nil
}

// Source derives the source identifier from a product URL: the host,
// lowercased, with a leading "www." stripped.
func Source(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	return normalizeSource(u.Hostname()), nil
}

func normalizeSource(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(host, "www.")
}
