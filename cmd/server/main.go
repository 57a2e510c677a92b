package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/example/venuebook/internal/config"
	"github.com/example/venuebook/internal/database"
	"github.com/example/venuebook/internal/logging"
	"github.com/example/venuebook/internal/metrics"
	"github.com/example/venuebook/internal/routes"
	"github.com/example/venuebook/internal/services"
	"github.com/example/venuebook/internal/store"
	"github.com/example/venuebook/internal/utils"
)

func main() {
	cfg := config.Load()

	zl, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zl.Sync()

	db, err := database.Connect(cfg.DatabaseURL, cfg.LogLevel == "debug", zl)
	if err != nil {
		zl.Fatal("database", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	var mailer services.Mailer
	if cfg.SMTPHost != "" {
		mailer = services.NewSMTPMailer(services.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		}, zl)
	} else {
		zl.Warn("SMTP_HOST not set, emails will be logged instead of sent")
		mailer = services.NewLogMailer(zl)
	}

	var revoker services.Revoker = services.NopRevoker{}
	if cfg.RedisURL != "" {
		redisRevoker, err := services.NewRedisRevokerFromURL(context.Background(), cfg.RedisURL)
		if err != nil {
			zl.Fatal("redis", zap.Error(err))
		}
		defer redisRevoker.Close()
		revoker = redisRevoker
		zl.Info("token revocation enabled")
	}

	authService := services.NewAuthService(services.AuthDeps{
		Store:     store.NewAccountStore(db, store.WithBcryptCost(cfg.BcryptCost)),
		Tokens:    utils.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Mailer:    mailer,
		Revoker:   revoker,
		Metrics:   m,
		Logger:    zl,
		ClientURL: cfg.ClientURL,
	})

	app := routes.NewApp(authService, cfg, zl, m, registry)

	go func() {
		zl.Info("starting server", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			zl.Fatal("fiber.Listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
