// Command api serves the aidcore case-management REST API.
//
// @title                       AidCore Case Management API
// @version                     1.0
// @description                 Case management REST API: users, cases, notes, documents and the case activity trail.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hamudihigo-collab/aidcore/internal/api"
	"github.com/hamudihigo-collab/aidcore/internal/core/service"
	mongostore "github.com/hamudihigo-collab/aidcore/internal/infrastructure/db/mongo"
	"github.com/hamudihigo-collab/aidcore/internal/infrastructure/db/postgres"
	redisstore "github.com/hamudihigo-collab/aidcore/internal/infrastructure/db/redis"
	"github.com/hamudihigo-collab/aidcore/internal/infrastructure/http/handlers"
	"github.com/hamudihigo-collab/aidcore/internal/infrastructure/queue"
	"github.com/hamudihigo-collab/aidcore/internal/pkg/config"
	"github.com/hamudihigo-collab/aidcore/internal/pkg/password"
	"github.com/hamudihigo-collab/aidcore/internal/pkg/token"
	"github.com/hamudihigo-collab/aidcore/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "aidcore",
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("server exited cleanly")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Stores ---
	db, err := postgres.Open(ctx, postgres.Config{
		DSN:            cfg.Postgres.DSN(),
		MaxConns:       cfg.Postgres.PoolMax,
		MinConns:       cfg.Postgres.PoolMin,
		IdleTimeout:    cfg.Postgres.IdleTimeout,
		ConnectTimeout: cfg.Postgres.ConnectTimeout,
		QueryTimeout:   cfg.Postgres.QueryTimeout,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Str("host", cfg.Postgres.Host).Str("db", cfg.Postgres.Name).Msg("connected to postgres")

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close error")
		}
	}()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	mongoClient, mongoDB, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect error")
		}
	}()
	log.Info().Str("db", cfg.Mongo.Database).Msg("connected to mongodb")

	activityRepo := mongostore.NewActivityRepository(mongoDB)
	if err := activityRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("ensure activity indexes failed")
	}

	// --- Activity dispatcher ---
	dispatcher := queue.NewDispatcher(cfg.Activity.Workers, cfg.Activity.QueueSize, activityRepo, logger.Component(log, "activity"))
	dispatcher.Start(ctx)

	// --- Security ---
	tokens, err := token.NewService(token.Config{
		AccessSecret:  cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		ExtendedTTL:   cfg.JWT.ExtendedTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})
	if err != nil {
		return err
	}
	hasher := password.NewHasher(cfg.Security.BcryptCost)

	// --- Services ---
	users := postgres.NewUserRepository(db)
	cases := postgres.NewCaseRepository(db)
	idem := redisstore.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)

	e := api.NewRouter(api.Deps{
		Log:         logger.Component(log, "http"),
		Development: cfg.IsDevelopment(),
		CORSOrigins: cfg.CORSOrigins,
		Tokens:      tokens,
		Auth:        service.NewAuthService(users, hasher, tokens, logger.Component(log, "auth")),
		Cases:       service.NewCaseService(cases, users, dispatcher, activityRepo, idem, logger.Component(log, "cases")),
		Notes:       service.NewNoteService(postgres.NewNoteRepository(db), cases, dispatcher, logger.Component(log, "notes")),
		Documents:   service.NewDocumentService(postgres.NewDocumentRepository(db), cases, dispatcher, logger.Component(log, "documents")),
		Users:       service.NewUserService(users, logger.Component(log, "users")),
		Health: []handlers.Dependency{
			handlers.PostgresDependency(db),
			handlers.RedisDependency(rdb),
			handlers.MongoDependency(mongoDB),
		},
	})

	// --- Serve until signalled ---
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-sigCtx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		_ = e.Close()
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("activity dispatcher did not drain")
	}
	return nil
}
