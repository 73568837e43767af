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

	"github.com/spf13/cobra"

	"github.com/Project-Sylos/Harbor/internal/config"
	"github.com/Project-Sylos/Harbor/internal/logging"
	"github.com/Project-Sylos/Harbor/internal/stubserver"
	"github.com/Project-Sylos/Harbor/internal/types"
)

// stubFlags are the command-line overrides of the stub config section
type stubFlags struct {
	configPath    string
	port          int
	checksumDelay time.Duration
	seedDepth     int
	seed          int64
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f stubFlags
	cmd := &cobra.Command{
		Use:           "stubserver",
		Short:         "In-memory Harbor storage service for local runs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Log, os.Stderr)
			return run(cmd.Context(), cfg.Stub, logger, f.checksumDelay)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "Configuration file path (JSON or YAML)")
	flags.IntVar(&f.port, "port", 0, "Listen port (overrides the config)")
	flags.DurationVar(&f.checksumDelay, "checksum-delay", 0, "Delay before a stored file's checksum is published")
	flags.IntVar(&f.seedDepth, "seed-depth", 0, "Depth of the generated sample tree, 0 for none (overrides the config)")
	flags.Int64Var(&f.seed, "seed", 0, "Random seed of the sample tree (overrides the config)")
	return cmd
}

// loadConfig layers defaults, the config file and the flags that were set
func loadConfig(cmd *cobra.Command, f stubFlags) (types.Config, error) {
	cfg := config.DefaultConfig()
	if f.configPath != "" {
		loaded, err := config.LoadFromFile(f.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Stub.Port = f.port
	}
	if flags.Changed("seed-depth") {
		cfg.Stub.Seed.MaxDepth = f.seedDepth
		if cfg.Stub.Seed.MaxFolders == 0 && cfg.Stub.Seed.MaxFiles == 0 {
			cfg.Stub.Seed.MinFolders, cfg.Stub.Seed.MaxFolders = 1, 3
			cfg.Stub.Seed.MinFiles, cfg.Stub.Seed.MaxFiles = 1, 4
			cfg.Stub.Seed.FileBytes = 1024
		}
	}
	if flags.Changed("seed") {
		cfg.Stub.Seed.Seed = f.seed
	}
	if err := config.Validate(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg types.StubConfig, logger logging.Logger, checksumDelay time.Duration) error {
	server := stubserver.New(cfg,
		stubserver.WithLogger(logger),
		stubserver.WithChecksumDelay(checksumDelay),
	)
	if cfg.Seed.MaxDepth > 0 {
		if err := stubserver.Seed(server.Store(), cfg.Seed); err != nil {
			server.Close()
			return fmt.Errorf("seed: %w", err)
		}
		logger.Info(ctx, "seeded sample tree", "depth", cfg.Seed.MaxDepth, "seed", cfg.Seed.Seed)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		server.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down stub server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
