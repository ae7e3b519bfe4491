package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/contre95/djsetlist/src/features/config"
	"github.com/contre95/djsetlist/src/features/hosting"
	"github.com/contre95/djsetlist/src/features/logging"
	"github.com/contre95/djsetlist/src/features/metrics"
	"github.com/contre95/djsetlist/src/features/recognizing"
	"github.com/contre95/djsetlist/src/infra/audiotag"
	"github.com/contre95/djsetlist/src/infra/tag"
	"github.com/contre95/djsetlist/src/infra/watcher"
)

func main() {
	configPath := os.Getenv("DJSETLIST_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfgManager, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Setup default logger with slog
	logger := logging.SetupLogger(cfgManager)
	slog.SetDefault(logger)
	slog.Debug("Loaded configuration", "path", configPath, "config", cfgManager.GetYAML())

	var recorder *metrics.Recorder
	if cfgManager.Get().Metrics.Enabled {
		recorder, err = metrics.NewRecorder()
		if err != nil {
			log.Fatalf("failed to create metrics recorder: %v", err)
		}
	}

	// Create the recognition service
	tagReader := tag.NewTagReader(cfgManager.Get().Recognition.DefaultMimeType)
	audiotagClient := audiotag.NewClient(cfgManager)
	recognizingService := recognizing.NewService(cfgManager, audiotagClient, tagReader, recorder)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reload config.yaml on change if enabled
	if cfgManager.Get().Server.WatchConfig {
		configWatcher, err := watcher.NewWatcher(configPath, watcher.DefaultDebounce, func(watcher.FileEvent) {
			if err := cfgManager.Reload(configPath); err != nil {
				slog.Error("Failed to reload config", "path", configPath, "error", err)
			}
		})
		if err != nil {
			slog.Error("Failed to create config watcher", "error", err)
		} else if err := configWatcher.Start(ctx); err != nil {
			slog.Error("Failed to start config watcher", "error", err)
		} else {
			defer configWatcher.Stop()
		}
	}

	// Create and start the Telegram bot if enabled
	var telegramBot *hosting.TelegramBot
	if cfgManager.Get().Telegram.Enabled {
		telegramBot, err = hosting.NewTelegramBot(cfgManager, recognizingService)
		if err != nil {
			slog.Error("Failed to initialize Telegram bot", "error", err)
		} else {
			go telegramBot.Start()
			slog.Info("Telegram bot started")
		}
	}

	// Create and start the HTTP server
	server := hosting.NewServer(cfgManager, recognizingService, recorder)
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("Server stopped", "error", err)
			stop()
		}
	}()
	slog.Info("Server started. Press Ctrl+C to shut down.", "port", cfgManager.Get().Server.Port)

	// Wait for a shutdown signal
	<-ctx.Done()
	slog.Info("Shutting down server...")

	// Shutdown the Telegram bot
	if telegramBot != nil {
		telegramBot.Stop()
		slog.Info("Telegram bot stopped")
	}

	// Shutdown the server
	if err := server.Shutdown(); err != nil {
		log.Fatalf("failed to shutdown server: %v", err)
	}
	slog.Info("Server gracefully shut down.")
}
