package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/pdf2speech/internal/cache"
	"github.com/nikhilbhutani/pdf2speech/internal/config"
	"github.com/nikhilbhutani/pdf2speech/internal/database"
	"github.com/nikhilbhutani/pdf2speech/internal/document"
	"github.com/nikhilbhutani/pdf2speech/internal/narration"
	"github.com/nikhilbhutani/pdf2speech/internal/queue"
	"github.com/nikhilbhutani/pdf2speech/internal/queue/workers"
	"github.com/nikhilbhutani/pdf2speech/internal/storage"
	"github.com/nikhilbhutani/pdf2speech/internal/tts"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	synth, err := tts.New(ctx, cfg.TTS)
	if err != nil {
		slog.Error("failed to create tts provider", "error", err)
		os.Exit(1)
	}

	store := storage.NewSupabaseStorage(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey)
	pipeline := narration.NewPipeline(document.NewPDFLoader(), synth, tts.SettingsFromConfig(cfg.TTS), cfg.TTS.MaxChars)
	narrationWorker := workers.NewNarrationWorker(
		narration.NewService(db, store, cfg.Storage.Bucket),
		narration.NewProgressTracker(cache.NewCache(rdb)),
		pipeline,
		store,
		cfg.Storage.Bucket,
		cfg.Worker.WorkDir,
	)

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
		},
	)

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeNarrationRun, asynq.HandlerFunc(narrationWorker.ProcessTask))

	slog.Info("starting worker",
		"concurrency", cfg.Worker.Concurrency,
		"tts", synth.Name(),
	)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
