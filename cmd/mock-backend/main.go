package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/marketplace-client/api/controllers"
	"github.com/angelmondragon/marketplace-client/api/routes"
	"github.com/angelmondragon/marketplace-client/internal/devserver"
	"github.com/angelmondragon/marketplace-client/pkg/config"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
	"github.com/angelmondragon/marketplace-client/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "mock-backend"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "mock-backend",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := devserver.New(cfg.DevServer, cfg.Password, cfg.Checkout, devserver.WithLogger(logg))
	if err != nil {
		logg.Error(ctx, "failed to create dev backend", err)
		os.Exit(1)
	}
	if cfg.DevServer.Seed {
		if err := backend.Seed(); err != nil {
			logg.Error(ctx, "failed to seed dev backend", err)
			os.Exit(1)
		}
	}

	deps := routes.Deps{Ready: map[string]controllers.Pinger{}}
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		deps.Counter = redisClient
		deps.Ready["redis"] = redisClient
	} else {
		deps.Counter = devserver.NewCounter(time.Now)
	}

	addr := ":" + cfg.DevServer.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"seeded": cfg.DevServer.Seed,
	})
	logg.Info(ctx, "starting mock backend")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, backend, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "mock backend shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "mock backend stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "mock backend stopped")
}
