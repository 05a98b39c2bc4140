// Package main implements the entry point for the devicekit runtime host.
// It loads configuration, assembles the core with the bundled components,
// and drives the cooperative tick loop until a shutdown signal arrives.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/devicekit/components/console"
	"github.com/c360/devicekit/components/sysinfo"
	"github.com/c360/devicekit/config"
	"github.com/c360/devicekit/core"
	"github.com/c360/devicekit/metric"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "devicekit"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cliCfg.LogLevel != "" {
		cfg.LogLevel = cliCfg.LogLevel
	}
	if cliCfg.MetricsAddr != "" {
		cfg.MetricsAddr = cliCfg.MetricsAddr
	}

	logger := setupLogger(cfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting devicekit runtime",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	metricsRegistry := metric.NewMetricsRegistry()

	c := core.New(cfg, core.WithLogger(logger), core.WithMetrics(metricsRegistry.CoreMetrics()))
	registerComponents(c, cfg, cliCfg)

	if st := c.Begin(); !st.OK() {
		return fmt.Errorf("bring-up failed: %s", st)
	}

	return runWithSignalHandling(c, cfg, metricsRegistry)
}

// registerComponents adds the bundled components, applying each one's
// configured parameters.
func registerComponents(c *core.Core, cfg *config.Config, cliCfg *CLIConfig) {
	si := sysinfo.New()
	if params := cfg.ComponentParams(sysinfo.Name); params != nil {
		si.Configure(params)
	}
	c.AddComponent(si)

	if cliCfg.Console {
		c.AddComponent(console.New())
	}
}

// runWithSignalHandling drives the tick loop and the optional metrics server
// until SIGINT or SIGTERM.
func runWithSignalHandling(c *core.Core, cfg *config.Config, metricsRegistry *metric.MetricsRegistry) error {
	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	g, ctx := errgroup.WithContext(signalCtx)

	var metricsServer *metric.Server
	if cfg.MetricsAddr != "" {
		metricsServer = metric.NewServer(cfg.MetricsAddr, "/metrics", metricsRegistry)
		g.Go(func() error {
			slog.Info("Serving metrics", "address", metricsServer.Address())
			return metricsServer.Start()
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				c.Tick()
			}
		}
	})

	<-ctx.Done()
	slog.Info("Received shutdown signal")

	c.Shutdown()
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			slog.Error("Error stopping metrics server", "error", err)
		}
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("runtime error: %w", err)
	}
	slog.Info("devicekit shutdown complete")
	return nil
}
