// Package main is the entry point for the signalboard service. It loads
// per-model trading signal logs into SQLite, serves the statistics and
// simulation API, and keeps the catalog fresh on a cron schedule.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/signalboard/internal/clientdata"
	"github.com/aristath/signalboard/internal/clients/kucoin"
	"github.com/aristath/signalboard/internal/config"
	"github.com/aristath/signalboard/internal/database"
	"github.com/aristath/signalboard/internal/modules/catalog"
	cataloghandlers "github.com/aristath/signalboard/internal/modules/catalog/handlers"
	"github.com/aristath/signalboard/internal/modules/charts"
	chartshandlers "github.com/aristath/signalboard/internal/modules/charts/handlers"
	"github.com/aristath/signalboard/internal/modules/performance"
	performancehandlers "github.com/aristath/signalboard/internal/modules/performance/handlers"
	"github.com/aristath/signalboard/internal/modules/simulation"
	simulationhandlers "github.com/aristath/signalboard/internal/modules/simulation/handlers"
	"github.com/aristath/signalboard/internal/reliability"
	"github.com/aristath/signalboard/internal/scheduler"
	"github.com/aristath/signalboard/internal/server"
	"github.com/aristath/signalboard/internal/signals"
	"github.com/aristath/signalboard/pkg/logger"
)

func main() {
	// Load configuration first so the logger honors LOG_LEVEL.
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Str("models_dir", cfg.ModelsDir).Msg("Starting signalboard")

	// Databases
	signalsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "signals.db"),
		Profile: database.ProfileStandard,
		Name:    "signals",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open signals database")
	}
	defer signalsDB.Close()

	clientDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open client_data database")
	}
	defer clientDB.Close()

	databases := map[string]*database.DB{
		"signals":     signalsDB,
		"client_data": clientDB,
	}

	for _, db := range databases {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to run migrations")
		}
	}

	// Repositories and services
	cacheRepo := clientdata.NewRepository(clientDB.Conn())
	signalRepo := signals.NewRepository(signalsDB, log)
	loader := signals.NewLoader(signalRepo, cfg.ModelsDir, log)

	catalogService := catalog.NewService(signalRepo, loader, log)
	performanceService := performance.NewService(catalogService, cacheRepo, log)
	catalogService.OnRefresh(performanceService.Invalidate)
	simulationService := simulation.NewService(catalogService, log)

	candleClient := kucoin.NewClient(cfg.CandleProxyURL, cacheRepo, log)
	chartsService := charts.NewService(candleClient, log)

	// Initial catalog load. Per-model failures are logged by the
	// loader; only a fully broken catalog is fatal.
	if err := catalogService.Reload(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load signal catalog")
	}

	// Backups
	backupService := reliability.NewBackupService(databases, filepath.Join(cfg.DataDir, "backups"), log)

	var r2BackupService *reliability.R2BackupService
	if cfg.Backup.Enabled {
		r2Client, err := reliability.NewR2Client(
			cfg.Backup.AccountID,
			cfg.Backup.AccessKeyID,
			cfg.Backup.SecretAccessKey,
			cfg.Backup.Bucket,
			cfg.Backup.Prefix,
			log,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize R2 client - cloud backup disabled")
		} else {
			r2BackupService = reliability.NewR2BackupService(r2Client, backupService, cfg.DataDir, log)
			log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Cloud backup enabled")
		}
	} else {
		log.Debug().Msg("R2 credentials not configured - cloud backup disabled")
	}

	// Background jobs
	sched := scheduler.New(log)
	registerJobs(sched, cfg, catalogService, cacheRepo, databases, backupService, r2BackupService, log)
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:         log,
		Config:      cfg,
		SignalsDB:   signalsDB,
		ClientDB:    clientDB,
		Catalog:     cataloghandlers.NewHandler(catalogService, log),
		Performance: performancehandlers.NewHandler(performanceService, log),
		Simulation:  simulationhandlers.NewHandler(simulationService, log),
		Charts:      chartshandlers.NewHandler(chartsService, log),
		System:      server.NewSystemHandlers(cfg.DataDir, databases, r2BackupService, log),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shut down")
	}

	log.Info().Msg("Server stopped")
}

// registerJobs wires the recurring background jobs. Schedules use
// six-field cron expressions with a leading seconds field.
func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	catalogService *catalog.Service,
	cacheRepo *clientdata.Repository,
	databases map[string]*database.DB,
	backupService *reliability.BackupService,
	r2Backup *reliability.R2BackupService,
	log zerolog.Logger,
) {
	addJob := func(schedule string, job scheduler.Job) {
		if err := sched.AddJob(schedule, job); err != nil {
			log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
		}
	}

	// Re-read the model logs every 15 minutes so new signals and
	// resolved outcomes show up without a restart.
	addJob("0 */15 * * * *", scheduler.NewCatalogReloadJob(catalogService, log))
	addJob("@hourly", clientdata.NewCleanupJob(cacheRepo, log))
	addJob("0 0 2 * * *", reliability.NewDailyMaintenanceJob(databases, backupService, cfg.DataDir, log))

	if r2Backup != nil {
		addJob("0 0 3 * * *", reliability.NewCloudBackupJob(r2Backup, cfg.Backup.RetentionDays, log))
	}
}
