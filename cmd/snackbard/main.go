// Package main is the entry point for the snackbard notification daemon.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/snackbar/internal/audio"
	"github.com/jmylchreest/snackbar/internal/config"
	"github.com/jmylchreest/snackbar/internal/daemon"
	"github.com/jmylchreest/snackbar/internal/dbus"
	"github.com/jmylchreest/snackbar/internal/display"
	"github.com/jmylchreest/snackbar/internal/metrics"
	"github.com/jmylchreest/snackbar/internal/provider"
	"github.com/jmylchreest/snackbar/internal/theme"
)

const (
	appID   = "io.github.jmylchreest.snackbard"
	appName = "snackbard"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/snackbar/snackbar.toml)")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		println("snackbard version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	path := *configPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			logger.Error("failed to get config path", "error", err)
			os.Exit(1)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("failed to load config", "path", path, "error", err)
		os.Exit(1)
	}
	if *metricsAddr != "" {
		cfg.Daemon.MetricsAddr = *metricsAddr
	}

	os.Exit(run(cfg, path, logger))
}

// run starts the GTK application and blocks until it quits.
func run(cfg *config.Config, configPath string, logger *slog.Logger) int {
	logger.Info("starting snackbard", "version", version)

	opts, err := cfg.Options()
	if err != nil {
		logger.Error("invalid snack options", "error", err)
		return 1
	}

	app := adw.NewApplication(appID, 0)

	// Shared state between GTK main loop and signal handlers
	var (
		snacks           *provider.Provider
		renderer         *display.Renderer
		dbusServer       *dbus.NotificationServer
		themeLoader      *theme.Loader
		audioManager     *audio.Manager
		configWatcher    *daemon.ConfigWatcher
		metricsServer    *metrics.Server
		internalNotifier *daemon.InternalNotifier
		running          atomic.Bool
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		glib.IdleAdd(func() {
			app.Quit()
		})
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		// Keep the daemon alive without any window open
		app.Hold()

		themeLoader = theme.NewLoader(logger)
		if err := themeLoader.LoadTheme(cfg.Theme.Name); err != nil {
			logger.Warn("failed to load theme, using default", "error", err)
		}
		themeLoader.Apply(nil)
		themeLoader.StartHotReload()

		renderer = display.NewRenderer(&app.Application, cfg, logger)
		if err := renderer.Start(); err != nil {
			logger.Error("failed to start display renderer", "error", err)
			app.Quit()
			return
		}

		m := metrics.New()
		snacks = provider.New(provider.Config{
			Options:  opts,
			Renderer: renderer,
			Observer: m,
			Logger:   logger,
		})
		renderer.SetCallbacks(snacks)

		if cfg.Daemon.MetricsAddr != "" {
			metricsServer = metrics.NewServer(cfg.Daemon.MetricsAddr, m, logger)
			if addr, err := metricsServer.Start(); err != nil {
				logger.Warn("failed to start metrics server", "error", err)
				metricsServer = nil
			} else {
				logger.Info("serving metrics", "addr", addr)
			}
		}

		audioManager = audio.NewManager(cfg, nil, logger)
		snacks.AddHooks(provider.Hooks{OnEnter: audioManager.OnEnter})

		dbusServer = dbus.NewNotificationServer(logger)
		info := dbus.DefaultServerInfo()
		info.Name = appName
		info.Version = version
		dbusServer.SetServerInfo(info)

		bridge := daemon.NewBridge(snacks, dbusServer, logger)
		bridge.SetCriticalPersists(cfg.Daemon.CriticalPersists)
		snacks.AddHooks(bridge.Hooks())
		dbusServer.SetNotifyHandler(bridge.HandleNotify)
		dbusServer.SetCloseHandler(bridge.HandleCloseRequest)

		if err := dbusServer.Start(); err != nil {
			logger.Error("failed to start D-Bus server", "error", err)
			app.Quit()
			return
		}

		internalNotifier = daemon.NewInternalNotifier(snacks, logger)
		internalNotifier.SetMinInterval(cfg.Daemon.RateLimit.Duration())

		configWatcher, err = daemon.NewConfigWatcher(configPath, cfg, logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else {
			configWatcher.SetReloadCallback(func(newConfig *config.Config) {
				if err := daemon.ApplyOptions(snacks, newConfig); err != nil {
					internalNotifier.NotifyConfigError(err)
					return
				}
				bridge.SetCriticalPersists(newConfig.Daemon.CriticalPersists)
				audioManager.UpdateConfig(newConfig)
				internalNotifier.SetMinInterval(newConfig.Daemon.RateLimit.Duration())
				renderer.UpdateConfig(newConfig)

				glib.IdleAdd(func() {
					if newConfig.Theme.Name != themeLoader.CurrentTheme() {
						if err := themeLoader.LoadTheme(newConfig.Theme.Name); err != nil {
							logger.Warn("failed to load new theme", "theme", newConfig.Theme.Name, "error", err)
							internalNotifier.NotifyThemeError(err)
						} else {
							themeLoader.StartHotReload()
						}
					}
					internalNotifier.NotifyConfigReloaded()
				})
			})
			configWatcher.SetErrorCallback(internalNotifier.NotifyConfigError)
			if err := configWatcher.Start(); err != nil {
				logger.Warn("failed to start config watcher", "error", err)
			}
		}

		logger.Info("snackbard ready",
			"anchor", opts.Anchor.String(),
			"max_snacks", opts.MaxSnacks,
			"theme", themeLoader.CurrentTheme(),
		)
		internalNotifier.NotifyStartup(version)
	})

	app.ConnectShutdown(func() {
		if !running.Load() {
			return
		}
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if dbusServer != nil {
			_ = dbusServer.Stop()
		}
		if snacks != nil {
			snacks.Shutdown()
		}
		if audioManager != nil {
			audioManager.Stop()
		}
		if themeLoader != nil {
			themeLoader.StopHotReload()
		}
		if renderer != nil {
			renderer.Stop()
		}
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			_ = metricsServer.Shutdown(ctx)
			cancel()
		}
		running.Store(false)
	})

	// GApplication must not see our own flags.
	status := app.Run(os.Args[:1])
	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}

	logger.Info("snackbard stopped")
	return 0
}
