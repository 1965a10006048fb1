// jobmate-matching-service
//
// Daily job discovery and matching for all active candidates:
//   - weighted match scoring with explainable breakdowns
//   - fingerprint de-duplicated ingestion (capped per run)
//   - posting lifecycle state machine with scheduled purges
//   - borderline rescoring after preference changes
//   - AI search insights cached on the preferences row
//   - cadence-gated digest dispatch via Redis
//
// Exposes a REST API used by the Gateway; the daily batch also fires on
// a cron schedule.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"jobmate/matching-service/internal/api"
	"jobmate/matching-service/internal/config"
	"jobmate/matching-service/internal/db"
	"jobmate/matching-service/internal/discovery"
	"jobmate/matching-service/internal/events"
	"jobmate/matching-service/internal/ingest"
	"jobmate/matching-service/internal/insights"
	"jobmate/matching-service/internal/lifecycle"
	"jobmate/matching-service/internal/logger"
	"jobmate/matching-service/internal/matching"
	"jobmate/matching-service/internal/notify"
	"jobmate/matching-service/internal/rescoring"
	"jobmate/matching-service/internal/scheduler"
	"jobmate/matching-service/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pool.Close()
	log.Info("postgres connected")

	// ── Redis ────────────────────────────────────────────────────────────────
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("redis connected")

	// ── Stores ───────────────────────────────────────────────────────────────
	postings := store.NewPostings(pool)
	prefs := store.NewPreferences(pool)
	profiles := store.NewProfiles(pool)
	applications := store.NewApplications(pool)

	// ── Services ─────────────────────────────────────────────────────────────
	publisher := events.NewPublisher(rdb)
	scorer := matching.NewScorer(matching.DefaultWeights())
	ingestor := ingest.New(postings, log, ingest.DefaultMaxPerRun)
	cleaner := lifecycle.NewCleaner(postings, log)
	lifecycleSvc := lifecycle.NewService(postings, applications, log)
	rescorer := rescoring.New(profiles, postings, scorer, publisher, log)
	gate := notify.NewGate(publisher, prefs, log)

	var generator insights.Generator
	if cfg.GeminiAPIKey != "" {
		generator, err = insights.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatal("gemini client failed", zap.Error(err))
		}
	} else {
		log.Warn("GEMINI_API_KEY not set, insights will serve cache only")
	}
	insightsSvc := insights.NewService(prefs, profiles, postings, generator, log)

	source := discovery.NewAdzunaSource(cfg.AdzunaAppID, cfg.AdzunaAppKey, cfg.AdzunaCountry, log)
	driver := discovery.New(discovery.Config{
		Source:   source,
		Prefs:    prefs,
		Profiles: profiles,
		Feedback: postings,
		Scorer:   scorer,
		Ingestor: ingestor,
		Cleaner:  cleaner,
		Gate:     gate,
		Logger:   log,
	})

	// ── Scheduler ────────────────────────────────────────────────────────────
	sched := scheduler.New(driver, cfg.DiscoveryIntervalHours, log)
	if err := sched.Start(ctx); err != nil {
		log.Fatal("scheduler start failed", zap.Error(err))
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	h := api.NewHandler(prefs, rescorer, insightsSvc, lifecycleSvc, postings, driver, log)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("version", version), zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	log.Info("stopped")
}
