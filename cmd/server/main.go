// Package main runs the portal HTTP server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/puresec-ng/banyan-portal/internal/config"
	"github.com/puresec-ng/banyan-portal/internal/database"
	"github.com/puresec-ng/banyan-portal/internal/docstore"
	"github.com/puresec-ng/banyan-portal/internal/portal"
	"github.com/puresec-ng/banyan-portal/internal/profile"
	"github.com/puresec-ng/banyan-portal/internal/querycache"
	"github.com/puresec-ng/banyan-portal/internal/queue"
	"github.com/puresec-ng/banyan-portal/internal/repository"
	"github.com/puresec-ng/banyan-portal/internal/session"
	"github.com/puresec-ng/banyan-portal/internal/upstream"
	"github.com/puresec-ng/banyan-portal/internal/wizard"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("ensure schema", zap.Error(err))
	}

	store, err := docstore.New(cfg)
	if err != nil {
		logger.Fatal("init docstore", zap.Error(err))
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Fatal("ensure staging bucket", zap.Error(err))
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer asynqClient.Close()

	sessionRepo := repository.NewSessionRepository(pool)
	sessions := session.NewManager(cfg, sessionRepo)

	client := upstream.New(cfg, logger)
	client.SetUnauthorizedHook(sessions.DestroyByToken)

	machine := wizard.NewMachine(repository.NewWizardRepository(pool), client, logger)
	profiles := profile.NewService(client, repository.NewBVNRepository(pool), logger)
	cache := querycache.New(30 * time.Second)

	srv := portal.New(cfg, logger, sessions, machine, client,
		repository.NewDocumentRepository(pool), store,
		func(ctx context.Context, payload queue.ForwardPayload) error {
			return queue.EnqueueForward(ctx, asynqClient, payload)
		},
		cache, profiles)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
