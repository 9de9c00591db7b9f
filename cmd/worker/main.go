package main

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/practiceloop/dictation/internal/catalog"
	"github.com/practiceloop/dictation/internal/config"
	"github.com/practiceloop/dictation/internal/loader"
	"github.com/practiceloop/dictation/internal/queue"
	"github.com/practiceloop/dictation/internal/queue/workers"
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

	var cat *catalog.Catalog
	if cfg.Catalog.Path != "" {
		cat, err = catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			slog.Error("failed to load language catalog", "error", err)
			os.Exit(1)
		}
	} else {
		cat = catalog.Default()
	}

	ld := loader.New(loader.Config{
		ModelsDir:      cfg.Loader.ModelsDir,
		Device:         cfg.Loader.Device,
		PiperBin:       cfg.Loader.PiperBin,
		WhisperBaseURL: cfg.Loader.WhisperBaseURL,
		WhisperAPIKey:  cfg.Loader.WhisperAPIKey,
		MMSBaseURL:     cfg.Loader.MMSBaseURL,
	}, slog.Default())

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			"default": 1,
		},
	})

	sweepWorker := workers.NewSweepWorker(slog.Default())
	prefetchWorker := workers.NewPrefetchWorker(cat, ld, slog.Default())
	mux := queue.NewMux(
		asynq.HandlerFunc(sweepWorker.ProcessTask),
		asynq.HandlerFunc(prefetchWorker.ProcessTask),
	)

	// Sweep stale audio artifacts periodically.
	scheduler := asynq.NewScheduler(redisOpt, nil)
	sweepPayload, _ := json.Marshal(queue.ArtifactSweepPayload{
		Dir:           cfg.Audio.TempDir,
		MaxAgeSeconds: int64(cfg.Audio.ArtifactTTL.Seconds()),
	})
	if _, err := scheduler.Register("@every 10m", asynq.NewTask(queue.TypeArtifactSweep, sweepPayload)); err != nil {
		slog.Error("failed to register sweep schedule", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			slog.Error("scheduler error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("starting worker", "concurrency", 4)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
