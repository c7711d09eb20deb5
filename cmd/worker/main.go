package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisclient "github.com/yungbote/activitylog-backend/internal/clients/redis"
	"github.com/yungbote/activitylog-backend/internal/data/db"
	"github.com/yungbote/activitylog-backend/internal/data/repos"
	"github.com/yungbote/activitylog-backend/internal/observability"
	"github.com/yungbote/activitylog-backend/internal/platform/envutil"
	"github.com/yungbote/activitylog-backend/internal/platform/logger"
	"github.com/yungbote/activitylog-backend/internal/services"
	"github.com/yungbote/activitylog-backend/internal/workers"
)

func main() {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "activitylog-worker",
		Environment: envutil.String("DEPLOY_ENV", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	dbService, err := db.New(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Error("Auto migration failed", "error", err)
		os.Exit(1)
	}
	gdb := dbService.DB()

	eventRepo := repos.NewActivityEventRepo(gdb, log)
	userRepo := repos.NewUserRepo(gdb, log)
	activityService := services.NewActivityService(gdb, log, eventRepo, userRepo)

	stream, err := redisclient.NewAnalyticsStream(log)
	if err != nil {
		log.Error("Analytics stream init failed", "error", err)
		os.Exit(1)
	}
	defer stream.Close()

	worker := workers.NewAnalyticsWorker(log, stream, activityService, envutil.Int("WORKER_CONSUMERS", 2))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Analytics worker starting")
	if err := worker.Run(ctx); err != nil {
		log.Error("Worker exited", "error", err)
		os.Exit(1)
	}
	log.Info("Analytics worker stopped")
}
