package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdemd/internal/game"
	"github.com/lox/holdemd/internal/server"
	"github.com/lox/holdemd/internal/store"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" default:"1" help:"Run the poker server"`
}

// ServeCmd runs the table server. Flags map onto the environment the service
// is deployed with; the HCL config file adds the table directory.
type ServeCmd struct {
	Port          int    `kong:"default='8080',env='PORT',help='Listen port'"`
	Config        string `kong:"default='holdemd.hcl',env='HOLDEMD_CONFIG',help='Path to HCL config file'"`
	ActionTimeout int    `kong:"default='0',env='ACTION_TIMEOUT_SECONDS',help='Action timeout in seconds (overrides config)'"`
	StoreURL      string `kong:"env='STORE_URL',help='Durable store DSN (sqlite path); in-memory when unset'"`
	Debug         bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	logger := setupLogger(c.Debug)

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.ActionTimeout != 0 {
		cfg.Server.ActionTimeoutSeconds = c.ActionTimeout
	}
	if c.StoreURL != "" {
		cfg.Server.StoreURL = c.StoreURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx := setupSignalHandler(logger)

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	st := store.Open(probeCtx, cfg.Server.StoreURL, logger)
	cancel()
	defer func() { _ = st.Close() }()

	clock := quartz.NewReal()
	sessions := server.NewSessionManager(clock, cfg.ReconnectGrace(), st, logger)
	engineCfg := game.EngineConfig{
		ActionTimeout: cfg.ActionTimeout(),
		StreetDelay:   cfg.StreetDelay(),
		NewHandDelay:  cfg.NewHandDelay(),
	}
	bridge := server.NewBridge(engineCfg, clock, st, sessions, logger)

	directory := cfg.Directory()
	if err := bridge.CreateTables(ctx, directory); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := server.NewServer(addr, bridge, sessions, logger)

	logger.Info("starting holdemd",
		"version", version,
		"addr", addr,
		"tables", len(directory),
		"action_timeout", cfg.ActionTimeout(),
		"reconnect_grace", cfg.ReconnectGrace())

	return srv.Start(ctx)
}

func setupLogger(debug bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// setupSignalHandler returns a context cancelled on SIGINT or SIGTERM. A
// second signal exits immediately.
func setupSignalHandler(logger *log.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		sig = <-sigCh
		logger.Warn("received second signal, exiting", "signal", sig)
		os.Exit(1)
	}()
	return ctx
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("holdemd"),
		kong.Description("Authoritative multi-table no-limit hold'em server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
