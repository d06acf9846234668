// Package gate implements an API key login gate placed in front of a
// downstream HTTP service.
//
// Every request is either answered by the gate (login page, key validation,
// logout, redirect to login, application page) or forwarded unchanged to the
// downstream handler. The only state is the configured key and the session
// token derived from it, both fixed at construction; no session table exists.
package gate

import (
	"log/slog"
	"net/http"
	"os"
	"slices"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmcleod/fwgate/web"
)

const (
	LoginPath    = "/login"
	ValidatePath = "/auth/validate"
	LogoutPath   = "/auth/logout"
	rootPath     = "/"
)

// passthroughPaths are open paths the gate does not answer itself: they go
// straight to the downstream regardless of authentication state.
var passthroughPaths = []string{
	"/health",
	"/docs",
	"/openapi.json",
	"/favicon.ico",
}

// Config is the immutable configuration of a Gate.
type Config struct {
	// Secret is the configured API key. Nil or disabled turns gating off.
	Secret *Secret
	// RootMode selects what an allowed request for "/" receives.
	// Empty means RootForward.
	RootMode RootMode
	// ExtraOpenPaths are additional exact paths forwarded without
	// authentication. They cannot replace the built-in open paths.
	ExtraOpenPaths []string
}

// Gate is an http.Handler that guards a downstream handler.
type Gate struct {
	secret     *Secret
	rootMode   RootMode
	downstream http.Handler
	routes     map[string]http.Handler
	audit      *auditLogger
	metrics    *gateMetrics

	logger     *slog.Logger
	registerer prometheus.Registerer
	alertFn    AlertFunc
	loginPage  []byte
	appPage    []byte
}

// Option configures the Gate instance.
type Option func(*Gate)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithRegisterer registers the gate's Prometheus counters with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(g *Gate) {
		g.registerer = reg
	}
}

// WithAlertFunc replaces the default alert callback, which logs a warning,
// for spikes of rejected API keys.
func WithAlertFunc(fn AlertFunc) Option {
	return func(g *Gate) {
		g.alertFn = fn
	}
}

// WithPages overrides the embedded login and application pages.
// A nil page keeps the embedded one.
func WithPages(login, app []byte) Option {
	return func(g *Gate) {
		if login != nil {
			g.loginPage = login
		}
		if app != nil {
			g.appPage = app
		}
	}
}

// New creates a Gate that forwards allowed requests to downstream.
func New(cfg Config, downstream http.Handler, opts ...Option) *Gate {
	g := &Gate{
		secret:     cfg.Secret,
		rootMode:   cfg.RootMode,
		downstream: downstream,
		loginPage:  web.LoginPage(),
		appPage:    web.AppPage(),
	}
	if g.secret == nil {
		g.secret = NewSecret("")
	}
	if g.rootMode == "" {
		g.rootMode = RootForward
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	if g.alertFn == nil {
		logger := g.logger
		g.alertFn = func(e AlertEvent) {
			logger.Warn("security alert",
				slog.String("alert", string(e.Type)),
				slog.String("message", e.Message),
				slog.Int("count", e.Count),
				slog.Int("threshold", e.Threshold))
		}
	}
	g.audit = newAuditLogger(g.logger)
	g.audit.alerts = newFailureCollector(g.alertFn)
	g.metrics = newGateMetrics(g.registerer)
	g.routes = g.openRoutes(cfg.ExtraOpenPaths)
	return g
}

// openRoutes builds the routing table consulted before any gating decision.
func (g *Gate) openRoutes(extra []string) map[string]http.Handler {
	routes := map[string]http.Handler{
		LoginPath:    SecurityHeaders(http.HandlerFunc(g.Login)),
		ValidatePath: http.HandlerFunc(g.Validate),
		LogoutPath:   http.HandlerFunc(g.Logout),
	}
	for _, p := range slices.Concat(passthroughPaths, extra) {
		if _, ok := routes[p]; !ok {
			routes[p] = g.downstream
		}
	}
	return routes
}

// OpenPaths returns the sorted set of paths that bypass gating.
func (g *Gate) OpenPaths() []string {
	paths := make([]string, 0, len(g.routes))
	for p := range g.routes {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Enabled reports whether gating is active.
func (g *Gate) Enabled() bool {
	return g.secret.Enabled()
}

func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := g.routes[r.URL.Path]; ok {
		g.metrics.decision(decisionOpen)
		h.ServeHTTP(w, r)
		return
	}

	d := Decide(g.secret, g.rootMode, r)
	g.metrics.decision(d.String())
	switch d {
	case Forward:
		g.downstream.ServeHTTP(w, r)
	case ServeApp:
		SecurityHeaders(http.HandlerFunc(g.serveApp)).ServeHTTP(w, r)
	default:
		g.audit.logRedirect(r)
		redirect(w, LoginPath)
	}
}

func (g *Gate) serveApp(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusOK, g.appPage)
}
