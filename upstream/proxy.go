// Package upstream provides the downstream handler the gate forwards to: a
// reverse proxy to the wrapped speech service.
package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
)

type options struct {
	logger    *slog.Logger
	transport http.RoundTripper
}

// Option configures the proxy.
type Option func(*options)

// WithLogger sets the logger used for upstream transport errors.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTransport replaces http.DefaultTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// ErrorResponse is the body written when the upstream cannot be reached.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ParseTarget parses and checks the upstream base URL.
func ParseTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("upstream url %q: missing host", raw)
	}
	return u, nil
}

// New returns a handler that forwards every request to target. The request
// path and query are appended to target's path; method, body and headers,
// including cookies and Authorization, pass through unchanged apart from
// the X-Forwarded-* headers. Responses are flushed as they arrive so
// streamed transcriptions reach the client immediately.
func New(target *url.URL, opts ...Option) http.Handler {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	logger := o.logger.With("component", "upstream")

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport:     o.transport,
		FlushInterval: -1,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, r.Context().Err()) {
				// Client went away; nothing useful to write.
				return
			}
			logger.Error("upstream request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "upstream unavailable"})
		},
	}
}
