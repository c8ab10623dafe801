package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"govinv/internal/config"
	"govinv/internal/lifecycle"
	"govinv/internal/mcp"
	"govinv/internal/slogutil"
	"govinv/internal/storage"
	"govinv/internal/version"
)

// runtimeDeps bundles what every long-running command needs.
type runtimeDeps struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *storage.Store
	tools  *mcp.MCPServer
	closer io.Closer
}

func (d *runtimeDeps) Close() {
	if d.store != nil {
		_ = d.store.Close()
	}
	if d.closer != nil {
		_ = d.closer.Close()
	}
}

func getRoot() (string, error) {
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	return root, nil
}

func loadConfig() (*config.Config, error) {
	root, err := getRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(root, configFlag)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openRuntime loads config, opens the store and builds the tool server.
// Logs go to console, which must not be stdout in MCP mode.
func openRuntime(ctx context.Context, console io.Writer) (*runtimeDeps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, closer, err := slogutil.FromConfig(cfg.Logging, console)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	deps := &runtimeDeps{cfg: cfg, logger: logger, closer: closer}

	store, err := storage.Open(ctx, storage.Options{
		Driver:       cfg.Store.Driver,
		Path:         cfg.Store.Path,
		DSN:          cfg.Store.DSN,
		MaxOpenConns: cfg.Store.MaxOpenConns,
		QueryTimeout: time.Duration(cfg.Store.QueryTimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.store = store

	runner := lifecycle.NewExecRunner(cfg.Lifecycle, logger)
	svc := mcp.NewServices(store, runner, cfg, logger)
	deps.tools = mcp.NewMCPServer(version.Version, svc, logger)
	return deps, nil
}

func stderrOrDiscard(quiet bool) io.Writer {
	if quiet {
		return io.Discard
	}
	return os.Stderr
}
