package cmd

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/fwgate/config"
	"github.com/jmcleod/fwgate/gate"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "test-secret")
	configFile = ""

	out, err := runRoot(t, "token")
	require.NoError(t, err)
	assert.Equal(t, "89b649f6b172f167310f21a877573cfa\n", out)
}

func TestTokenCommandWithoutKey(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")
	configFile = ""

	_, err := runRoot(t, "token")
	assert.ErrorIs(t, err, errNoAPIKey)
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	printBanner(&buf)
	assert.NotEmpty(t, buf.String())
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "test-secret")
	t.Setenv(config.EnvRootMode, "")
	t.Setenv(config.EnvOpenPaths, "/from-env")
	configFile = ""

	flags := serverCmd.Flags()
	t.Cleanup(func() {
		for _, name := range []string{"root-mode", "open-path"} {
			flags.Lookup(name).Changed = false
		}
		rootMode = config.RootModeForward
		openPaths = nil
	})
	require.NoError(t, flags.Parse([]string{"--root-mode", "app", "--open-path", "/v1/models"}))

	cfg, err := loadConfig(serverCmd)
	require.NoError(t, err)
	assert.Equal(t, "test-secret", cfg.APIKey)
	assert.Equal(t, config.RootModeApp, cfg.RootMode)
	assert.Equal(t, []string{"/from-env", "/v1/models"}, cfg.OpenPaths)
	assert.Equal(t, ":8080", cfg.Listen, "unchanged flags keep config values")
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv(config.EnvRootMode, "spa")
	configFile = ""

	_, err := loadConfig(serverCmd)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidRootMode)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid configuration"))
}

func TestNewHandler(t *testing.T) {
	var hits atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, "speech:"+r.URL.Path)
	}))
	defer backend.Close()

	cfg := config.Default()
	cfg.APIKey = "test-secret"
	cfg.UpstreamURL = backend.URL
	cfg.OpenPaths = []string{"/v1/models"}

	h, err := newHandler(cfg, discardLogger(), prometheus.NewRegistry())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, gate.LoginPath, rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	assert.Equal(t, "speech:/v1/models", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/v1/audio/speech", nil)
	req.Header.Set("Authorization", "Bearer sk-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "speech:/v1/audio/speech", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: gate.CookieName, Value: gate.DeriveToken("test-secret")})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "speech:/", rec.Body.String())

	assert.Equal(t, int32(3), hits.Load())
}

func TestNewHandlerBadUpstream(t *testing.T) {
	cfg := config.Default()
	cfg.UpstreamURL = "not a url"
	_, err := newHandler(cfg, discardLogger(), prometheus.NewRegistry())
	assert.Error(t, err)
}
