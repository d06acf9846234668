package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jmcleod/fwgate/config"
	"github.com/jmcleod/fwgate/gate"
	"github.com/jmcleod/fwgate/upstream"
)

var (
	listenAddr    string
	upstreamURL   string
	rootMode      string
	metricsListen string
	openPaths     []string
	tlsCert       string
	tlsKey        string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the login gate in front of the upstream service",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer memguard.Purge()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		handler, err := newHandler(cfg, logger, reg)
		if err != nil {
			return err
		}

		server := &http.Server{
			Addr:              cfg.Listen,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 2)
		go func() {
			var err error
			if cfg.TLSCert != "" {
				err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			} else {
				err = server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		var metricsServer *http.Server
		if cfg.MetricsListen != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			metricsServer = &http.Server{
				Addr:              cfg.MetricsListen,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					done <- fmt.Errorf("metrics server failed: %w", err)
				}
			}()
		}

		printBanner(cmd.OutOrStdout())
		logger.Info("starting gate",
			slog.String("listen", cfg.Listen),
			slog.String("upstream", cfg.UpstreamURL),
			slog.String("root_mode", cfg.RootMode),
			slog.String("metrics_listen", cfg.MetricsListen),
			slog.Bool("tls", cfg.TLSCert != ""))

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("shutting down", slog.String("signal", sig.String()))
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if metricsServer != nil {
				metricsServer.Shutdown(ctx)
			}
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

// loadConfig layers flags explicitly set on the command line over the file
// and environment configuration.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Listen = listenAddr
	}
	if flags.Changed("upstream") {
		cfg.UpstreamURL = upstreamURL
	}
	if flags.Changed("root-mode") {
		cfg.RootMode = rootMode
	}
	if flags.Changed("metrics-listen") {
		cfg.MetricsListen = metricsListen
	}
	if flags.Changed("open-path") {
		cfg.OpenPaths = append(cfg.OpenPaths, openPaths...)
	}
	if flags.Changed("tls-cert") {
		cfg.TLSCert = tlsCert
	}
	if flags.Changed("tls-key") {
		cfg.TLSKey = tlsKey
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newHandler wires the gate in front of the upstream proxy, behind chi's
// request id, access log and panic recovery middleware.
func newHandler(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (http.Handler, error) {
	target, err := upstream.ParseTarget(cfg.UpstreamURL)
	if err != nil {
		return nil, err
	}

	secret := gate.NewSecret(cfg.APIKey)
	if !secret.Enabled() {
		logger.Warn("no API key configured; gating is disabled and every request is forwarded",
			slog.String("env", config.EnvAPIKey))
	}

	g := gate.New(gate.Config{
		Secret:         secret,
		RootMode:       gate.RootMode(cfg.RootMode),
		ExtraOpenPaths: cfg.OpenPaths,
	}, upstream.New(target, upstream.WithLogger(logger)),
		gate.WithLogger(logger),
		gate.WithRegisterer(reg),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Handle("/*", g)
	return r, nil
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVarP(&listenAddr, "listen", "l", ":8080", "Address of the gated listener")
	serverCmd.Flags().StringVarP(&upstreamURL, "upstream", "u", "http://127.0.0.1:8000", "Base URL of the wrapped speech service")
	serverCmd.Flags().StringVar(&rootMode, "root-mode", config.RootModeForward, `What "/" serves once allowed: "forward" or "app"`)
	serverCmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "Address of the Prometheus metrics listener (disabled when empty)")
	serverCmd.Flags().StringArrayVar(&openPaths, "open-path", nil, "Extra exact path that bypasses the gate (repeatable)")
	serverCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to TLS certificate file")
	serverCmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to TLS key file")
}
