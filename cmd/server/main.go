package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/clipfetch/api"
	"github.com/yourusername/clipfetch/internal/app"
	"github.com/yourusername/clipfetch/internal/domain"
	"github.com/yourusername/clipfetch/internal/infrastructure"
	"github.com/yourusername/clipfetch/internal/telemetry"
	"github.com/yourusername/clipfetch/pkg/logger"
)

var version = "1.0.0"

var configPath = flag.String("config", "", "Path to config file (default: search ./configs, ~/.clipfetch, /etc/clipfetch)")

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "clipfetch: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	// Category logs are optional
	var events *logger.MultiLogger
	if config.Logging.LogsDir != "" {
		events, err = logger.NewMultiLogger(logger.MultiLoggerConfig{
			Level:   config.Logging.Level,
			LogsDir: config.Logging.LogsDir,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize category logs: %w", err)
		}
		defer events.Close()
	}

	log.Info("Starting clipfetch server",
		zap.String("version", version),
		zap.String("addr", config.Server.Addr()),
		zap.String("download_dir", config.Download.Dir),
		zap.Bool("unique_names", config.Download.UniqueNames),
		zap.Bool("telemetry", config.Telemetry.Enabled))

	if err := os.MkdirAll(config.Download.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory %s: %w", config.Download.Dir, err)
	}

	tel, err := telemetry.New(telemetry.Config{
		Enabled:        config.Telemetry.Enabled,
		ServiceName:    config.Telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	router, hub := buildRouter(config, tel, log, events)

	server := &http.Server{
		Addr:              config.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: config.Server.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
		defer cancel()

		// Sockets are hijacked, so Shutdown does not wait for them
		hub.Close()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
		}
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to flush telemetry", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("Server exited")
	return nil
}

// buildRouter wires the extractors, progress hub and download manager into
// the HTTP router
func buildRouter(config *domain.Config, tel *telemetry.Telemetry, log *zap.Logger, events *logger.MultiLogger) (*gin.Engine, *infrastructure.ProgressHub) {
	gin.SetMode(gin.ReleaseMode)

	fetcher := infrastructure.NewMediaFetcher(&http.Client{}, config.Download.UserAgent)

	extractors := map[domain.Platform]domain.Extractor{
		domain.PlatformYouTube:   infrastructure.NewYouTubeExtractor(fetcher.Client(), log),
		domain.PlatformInstagram: infrastructure.NewInstagramExtractor(fetcher, log),
		domain.PlatformTikTok:    infrastructure.NewTikTokExtractor(fetcher, "", "", log),
	}

	hub := infrastructure.NewProgressHub(&config.Progress, tel, log)
	notifier := infrastructure.NewNotificationService(&config.Notification, log)

	downloadMgr := app.NewDownloadManager(extractors, hub, notifier, tel, &config.Download, log, events)

	router := api.SetupRouter(api.RouterDeps{
		Downloads: downloadMgr,
		Hub:       hub,
		Telemetry: tel,
		Version:   version,
		Logger:    log,
	})

	return router, hub
}
