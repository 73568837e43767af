package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Project-Sylos/Harbor/internal/config"
	"github.com/Project-Sylos/Harbor/internal/logging"
	"github.com/Project-Sylos/Harbor/internal/nav"
	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/Project-Sylos/Harbor/internal/view"
	"github.com/Project-Sylos/Harbor/sdk"
)

// errFailed marks a command whose outcome was already printed
var errFailed = errors.New("command failed")

var (
	configPath   string
	serverURL    string
	logLevel     string
	concurrency  int
	locationPath string
)

var rootCmd = &cobra.Command{
	Use:           "harbor",
	Short:         "Client for the Harbor file storage service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Configuration file path (JSON or YAML)")
	flags.StringVar(&serverURL, "server", "", "Storage service base URL")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.IntVar(&concurrency, "concurrency", 0, "Maximum files uploading at once")
	flags.StringVar(&locationPath, "location", "", "File that remembers the current folder between runs")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// loadConfig layers defaults, the config file and command-line flags
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.Server.BaseURL = serverURL
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("concurrency") {
		cfg.Upload.Concurrency = concurrency
	}
	return cfg, config.Validate(&cfg)
}

// session bundles an open sdk.Session with its terminal and teardown
type session struct {
	*sdk.Session
	term    *view.Terminal
	metrics *http.Server
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	logger := logging.New(cfg.Log, os.Stderr)
	term := view.NewTerminal(os.Stdout, cfg.Server.BaseURL)

	opts := []sdk.Option{
		sdk.WithLogger(logger),
		sdk.WithView(term),
		sdk.WithReporter(term),
	}
	if locationPath != "" {
		opts = append(opts, sdk.WithLocation(nav.NewFileLocation(locationPath, logger)))
	}

	s := &session{term: term}
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, sdk.WithMetrics(reg))
		s.metrics = serveMetrics(ctx, cfg.Metrics.Addr, reg, logger)
	}

	s.Session, err = sdk.Open(ctx, cfg, opts...)
	if err != nil {
		s.closeMetrics()
		return nil, err
	}
	return s, nil
}

func (s *session) Close() {
	_ = s.Session.Close()
	s.closeMetrics()
}

func (s *session) closeMetrics() {
	if s.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.metrics.Shutdown(ctx)
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info(ctx, "metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "metrics endpoint failed", "error", err)
		}
	}()
	return srv
}
