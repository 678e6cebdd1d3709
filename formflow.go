// Package formflow coordinates multi-section form sessions: per-section and
// whole-form validation against a remote backend, a shared record-scoped
// state store, render gating for error indicators, and section navigation.
// The subpackages carry the behavior; this package exposes construction
// helpers that keep the internal transport hidden from consumers.
package formflow

import (
	"net/http"
	"time"

	"github.com/goliatone/formflow/internal/remote"
	"github.com/goliatone/formflow/pkg/validation"
)

// ServiceOption configures the HTTP-backed validation service.
type ServiceOption func(*remote.Options)

// WithHTTPClient supplies the HTTP client used for requests. The client is
// cloned so callers can keep using theirs unchanged.
func WithHTTPClient(client *http.Client) ServiceOption {
	return func(o *remote.Options) {
		o.HTTPClient = client
	}
}

// WithRequestTimeout bounds each remote call.
func WithRequestTimeout(d time.Duration) ServiceOption {
	return func(o *remote.Options) {
		o.RequestTimeout = d
	}
}

// WithAuthToken sets the bearer token attached to every request.
func WithAuthToken(token string) ServiceOption {
	return func(o *remote.Options) {
		o.AuthToken = token
	}
}

// NewHTTPService constructs a validation service posting to the given base
// URL, keeping the concrete transport type hidden from consumers.
func NewHTTPService(baseURL string, options ...ServiceOption) (validation.Service, error) {
	cfg := remote.Options{BaseURL: baseURL}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return remote.New(cfg)
}
