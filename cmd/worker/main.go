package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/anstrom/filecrate/internal/config"
	"github.com/anstrom/filecrate/internal/database"
	"github.com/anstrom/filecrate/internal/model"
	"github.com/anstrom/filecrate/internal/queue"
	"github.com/anstrom/filecrate/internal/repository"
	"github.com/anstrom/filecrate/internal/storage"
	"github.com/anstrom/filecrate/internal/worker"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("ensure schema")
	}

	files := repository.NewFileRepository(pool)
	shares := repository.NewShareRepository(pool)

	local, err := storage.NewLocal(cfg.UploadDir, cfg.AppBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("init local storage")
	}
	stores := map[model.Provider]storage.BlobStore{model.ProviderLocal: local}
	if cfg.S3Endpoint != "" && cfg.S3Bucket != "" {
		s3, err := storage.NewS3(storage.S3Options{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("init s3 storage")
		}
		stores[model.ProviderS3] = s3
	}
	router := storage.NewRouter(cfg.StorageProvider, stores)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register("@every 1h", queue.NewPurgeTask()); err != nil {
		log.Fatal().Err(err).Msg("register purge schedule")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("start scheduler")
	}
	defer scheduler.Shutdown()

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
	})
	processor := worker.NewProcessor(files, shares, router)
	mux := processor.Handler()

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	log.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker started")
	if err := server.Run(mux); err != nil {
		log.Error().Err(err).Msg("worker stopped")
		os.Exit(1)
	}
}
