package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/practiceloop/dictation/internal/api"
	"github.com/practiceloop/dictation/internal/audio"
	"github.com/practiceloop/dictation/internal/cache"
	"github.com/practiceloop/dictation/internal/catalog"
	"github.com/practiceloop/dictation/internal/config"
	"github.com/practiceloop/dictation/internal/database"
	"github.com/practiceloop/dictation/internal/history"
	"github.com/practiceloop/dictation/internal/loader"
	"github.com/practiceloop/dictation/internal/queue"
	"github.com/practiceloop/dictation/internal/sentences"
	"github.com/practiceloop/dictation/internal/session"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	cat, err := loadCatalog(cfg)
	if err != nil {
		slog.Error("failed to load language catalog", "error", err)
		os.Exit(1)
	}

	// Database connection (optional — attempts history only)
	var db *pgxpool.Pool
	var attempts *history.Service
	if cfg.Database.URL != "" {
		db, err = database.NewPool(ctx, cfg.Database)
		if err != nil {
			slog.Warn("database unavailable, running without attempt history", "error", err)
		} else {
			defer db.Close()
			if err := history.EnsureSchema(ctx, db); err != nil {
				slog.Warn("failed to ensure history schema", "error", err)
			}
			attempts = history.NewService(db)
		}
	}

	// Redis connection (optional — synthesis result cache, background jobs)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisUp := true
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without cache and background jobs", "error", err)
		redisUp = false
	}
	defer rdb.Close()

	ld := loader.New(loader.Config{
		ModelsDir:      cfg.Loader.ModelsDir,
		Device:         cfg.Loader.Device,
		PiperBin:       cfg.Loader.PiperBin,
		WhisperBaseURL: cfg.Loader.WhisperBaseURL,
		WhisperAPIKey:  cfg.Loader.WhisperAPIKey,
		MMSBaseURL:     cfg.Loader.MMSBaseURL,
	}, slog.Default())

	sess := session.New(cat, ld, slog.Default())
	defer sess.Close()

	if _, err := sess.SetLanguage(ctx, cfg.Catalog.DefaultLanguage); err != nil {
		slog.Warn("initial language switch failed; select a language via the API",
			"language", cfg.Catalog.DefaultLanguage, "error", err)
	}

	var synthCache audio.ResultCache
	if redisUp {
		synthCache = cache.NewSynthesisCache(rdb, cfg.Audio.ArtifactTTL, slog.Default())
	}

	pipeline, err := audio.NewPipeline(cfg.Audio.TempDir, cfg.Audio.URLPrefix, sess, synthCache, slog.Default())
	if err != nil {
		slog.Error("failed to set up audio pipeline", "error", err)
		os.Exit(1)
	}

	store := sentences.Load(cfg.Audio.DataDir, cat.Codes(), slog.Default())

	if redisUp {
		queueClient := queue.NewClient(cfg.Redis)
		defer queueClient.Close()
		for _, code := range cat.Codes() {
			if err := queueClient.EnqueueVoicePrefetch(queue.VoicePrefetchPayload{LanguageCode: code}); err != nil {
				slog.Warn("failed to enqueue voice prefetch", "language", code, "error", err)
			}
		}
	}

	router := api.NewRouter(db, rdb, cfg, sess, cat, pipeline, store, attempts, slog.Default())
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // a language switch may sit behind a model download
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting dictation server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.Path != "" {
		return catalog.LoadFile(cfg.Catalog.Path)
	}
	return catalog.Default(), nil
}
