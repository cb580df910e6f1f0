package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dvloznov/spendlens/internal/api/handlers"
	"github.com/dvloznov/spendlens/internal/api/middleware"
	"github.com/dvloznov/spendlens/internal/config"
	"github.com/dvloznov/spendlens/internal/jobs/inmemory"
	"github.com/dvloznov/spendlens/internal/ledger"
	"github.com/dvloznov/spendlens/internal/logger"
	"github.com/dvloznov/spendlens/internal/pipeline"
)

func main() {
	// Parse command-line flags
	var (
		configFile = flag.String("config", "", "Config file (default "+config.DefaultPath()+")")
		port       = flag.String("port", "", "HTTP server port (overrides config)")
	)
	flag.Parse()

	log := logger.New()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load .env")
	}
	v := config.NewViper()
	if *port != "" {
		v.Set("server.port", *port)
	}
	cfg, err := config.Load(v, *configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid log level")
	}
	log = log.Level(level)

	ctx := logger.WithContext(context.Background(), log)

	rt, err := pipeline.NewRuntime(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build pipeline runtime")
	}
	defer rt.Close()

	if !cfg.Oracle.Configured() {
		log.Warn().Msg("No oracle API key configured - image uploads, enrichment and narratives are disabled")
	}
	if cfg.Storage.Bucket == "" {
		log.Warn().Msg("No GCS bucket configured - uploads will not be archived")
	}

	// Load the ledger snapshot
	l, err := ledger.LoadFile(cfg.Ledger.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Ledger.Path).Msg("Failed to load ledger")
	}
	log.Info().Str("path", cfg.Ledger.Path).Int("transactions", l.Len()).Msg("Ledger loaded")

	var saveMu sync.Mutex
	persist := func() error {
		saveMu.Lock()
		defer saveMu.Unlock()
		return l.SaveFile(cfg.Ledger.Path)
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, cfg.Pipeline.Workers, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := handlers.NewExtractJobHandler(rt.NewProcessor(l), persist, log)

	log.Info().Int("workers", cfg.Pipeline.Workers).Msg("Starting job workers")
	if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	// Initialize handlers
	router := &handlers.Router{
		Uploads:      handlers.NewUploadsHandler(jobQueue, rt.Fetcher, cfg.Storage.Bucket, cfg.Server.MaxUploadMB<<20, log),
		Jobs:         handlers.NewJobsHandler(jobStore, log),
		Transactions: handlers.NewTransactionsHandler(l, persist, log),
		Summary:      handlers.NewSummaryHandler(l, rt.Oracle, cfg.Server.NarrativeTTL, log),
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      middleware.Chain(router.Handler(), log),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 2 * cfg.Oracle.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	if err := persist(); err != nil {
		log.Error().Err(err).Msg("Failed to save ledger")
	}

	log.Info().Msg("Server exited")
}
