package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voterdesk/internal/config"
	"voterdesk/internal/constants"
	"voterdesk/internal/database"
	"voterdesk/internal/notify"
	"voterdesk/internal/ratelimit"
	"voterdesk/internal/retry"
	"voterdesk/internal/service"
	"voterdesk/internal/tracing"
	"voterdesk/pkg/media"
	"voterdesk/pkg/provider"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging (includes sensitive information)")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("voterdesk %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting voterdesk")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Info("Verbose logging enabled - sensitive information will be logged")
	} else if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
			logger.SetLevel(logrus.InfoLevel)
		} else {
			if level > logrus.InfoLevel {
				level = logrus.InfoLevel
			}
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	tracingManager := tracing.NewManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	// Database comes up behind exponential backoff so a slow volume mount
	// does not kill the process.
	var db *database.Database
	backoff := retry.NewBackoff(retry.BackoffConfig{
		InitialDelay: time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  constants.DefaultDatabaseRetryAttempts,
		Jitter:       true,
	})

	err = backoff.Retry(ctx, func() error {
		var initErr error
		db, initErr = database.New(cfg.Database.Path, &cfg.Database)
		if initErr != nil {
			logger.Warnf("Failed to initialize database: %v", initErr)
		}
		return initErr
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database after retries: %w", err)
	}
	defer db.Close()

	providerClient := provider.NewClient(cfg.Provider)

	mediaHandler, err := media.NewHandler(cfg.Media, providerClient)
	if err != nil {
		return fmt.Errorf("failed to initialize media handler: %w", err)
	}

	hub := notify.NewHub(db, logger)

	contactService := service.NewContactService(db, logger)
	ledger := service.NewLedger(db, contactService, providerClient, logger)
	resolver := service.NewResolver(db, cfg.Provider.CountryCode)
	gate := service.NewReengagementGate(ledger, cfg.Provider.ReengagementWindowHours)

	dispatcher := service.NewDispatcher(providerClient, ledger, resolver, gate, hub,
		cfg.Provider.SendsPerSecond, logger)
	reconciler := service.NewReconciler(ledger, db, mediaHandler, hub,
		cfg.Provider.CountryCode, logger)

	limiter := ratelimit.NewMemoryStore(cfg.RateLimit.OperatorRPS, cfg.RateLimit.OperatorBurst)

	go runRetentionLoop(ctx, db, mediaHandler, cfg.RetentionDays, logger)

	server := NewServer(cfg, dispatcher, reconciler, ledger, mediaHandler, hub, limiter, logger)
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(constants.DefaultGracefulShutdownSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}

// runRetentionLoop prunes old ledger rows, notifications, contact cache
// entries, and mirrored media once a day.
func runRetentionLoop(ctx context.Context, db *database.Database, mediaHandler media.Handler, retentionDays int, logger *logrus.Logger) {
	if retentionDays <= 0 {
		retentionDays = constants.DefaultRetentionDays
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := db.CleanupOldMessages(retentionDays); err != nil {
			logger.Warnf("Failed to clean up old messages: %v", err)
		}
		if err := db.CleanupOldNotifications(retentionDays); err != nil {
			logger.Warnf("Failed to clean up old notifications: %v", err)
		}
		if err := db.CleanupOldContacts(retentionDays); err != nil {
			logger.Warnf("Failed to clean up old contacts: %v", err)
		}
		if err := mediaHandler.CleanupOldFiles(int64(retentionDays) * 24 * 60 * 60); err != nil {
			logger.Warnf("Failed to clean up mirrored media: %v", err)
		}

		logger.WithField("retention_days", retentionDays).Info("Retention cleanup completed")
	}
}
