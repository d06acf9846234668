// Package config loads the gate's process-wide configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. Command-line flags are applied last by the caller.
// The result is read once at startup and never changes afterwards.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvAPIKey        = "API_KEY"
	EnvConfigFile    = "FW_CONFIG"
	EnvListen        = "FW_LISTEN_ADDR"
	EnvUpstreamURL   = "FW_UPSTREAM_URL"
	EnvRootMode      = "FW_ROOT_MODE"
	EnvMetricsListen = "FW_METRICS_ADDR"
	EnvOpenPaths     = "FW_OPEN_PATHS"
)

// Root modes accepted in RootMode.
const (
	RootModeForward = "forward"
	RootModeApp     = "app"
)

var (
	ErrInvalidRootMode = errors.New("invalid root mode")
	ErrInvalidOpenPath = errors.New("open paths must start with /")
)

// Config is the gate's configuration.
type Config struct {
	// APIKey is the shared secret. Empty disables gating.
	APIKey string `yaml:"api_key"`
	// Listen is the address of the gated listener.
	Listen string `yaml:"listen"`
	// UpstreamURL is the base URL of the wrapped service.
	UpstreamURL string `yaml:"upstream_url"`
	// RootMode is "forward" or "app".
	RootMode string `yaml:"root_mode"`
	// MetricsListen is the address of the Prometheus listener.
	// Empty disables it.
	MetricsListen string `yaml:"metrics_listen"`
	// OpenPaths are extra exact paths that bypass gating.
	OpenPaths []string `yaml:"open_paths"`
	TLSCert   string   `yaml:"tls_cert"`
	TLSKey    string   `yaml:"tls_key"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:      ":8080",
		UpstreamURL: "http://127.0.0.1:8000",
		RootMode:    RootModeForward,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the process environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("opening config file: %w", err)
		}
		defer f.Close()
		if err := cfg.decode(f); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

// decode overlays YAML from r onto c. Unknown keys are rejected so typos do
// not silently fall back to defaults.
func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overrides fields from non-empty environment variables.
func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.APIKey, EnvAPIKey)
	set(&c.Listen, EnvListen)
	set(&c.UpstreamURL, EnvUpstreamURL)
	set(&c.RootMode, EnvRootMode)
	set(&c.MetricsListen, EnvMetricsListen)
	if v := getenv(EnvOpenPaths); v != "" {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.OpenPaths = append(c.OpenPaths, p)
			}
		}
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if !slices.Contains([]string{RootModeForward, RootModeApp}, c.RootMode) {
		return fmt.Errorf("%w %q: want %q or %q", ErrInvalidRootMode, c.RootMode, RootModeForward, RootModeApp)
	}
	for _, p := range c.OpenPaths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%w: %q", ErrInvalidOpenPath, p)
		}
	}
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if c.UpstreamURL == "" {
		return errors.New("upstream url is required")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("tls cert and key must be set together")
	}
	return nil
}
