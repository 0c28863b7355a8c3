package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/anstrom/filecrate/internal/api"
	"github.com/anstrom/filecrate/internal/auth"
	"github.com/anstrom/filecrate/internal/config"
	"github.com/anstrom/filecrate/internal/database"
	"github.com/anstrom/filecrate/internal/model"
	"github.com/anstrom/filecrate/internal/repository"
	"github.com/anstrom/filecrate/internal/share"
	"github.com/anstrom/filecrate/internal/storage"
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

	users := repository.NewUserRepository(pool)
	invites := repository.NewInviteRepository(pool)
	files := repository.NewFileRepository(pool)
	shareRepo := repository.NewShareRepository(pool)

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
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Fatal().Err(err).Msg("ensure bucket")
		}
		stores[model.ProviderS3] = s3
	}
	router := storage.NewRouter(cfg.StorageProvider, stores)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	shares := share.NewRegistry(shareRepo, files, cfg.AppBaseURL, nil)

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queueClient.Close()

	srv := api.New(cfg, users, invites, files, shares, router, tokens, queueClient, local.Dir())
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
