package main

import (
	"context"
	"fmt"
	"os"
	"time"

	redisclient "github.com/yungbote/activitylog-backend/internal/clients/redis"
	"github.com/yungbote/activitylog-backend/internal/data/db"
	"github.com/yungbote/activitylog-backend/internal/data/repos"
	"github.com/yungbote/activitylog-backend/internal/http/handlers"
	"github.com/yungbote/activitylog-backend/internal/observability"
	"github.com/yungbote/activitylog-backend/internal/platform/envutil"
	"github.com/yungbote/activitylog-backend/internal/platform/logger"
	"github.com/yungbote/activitylog-backend/internal/server"
	"github.com/yungbote/activitylog-backend/internal/services"
)

func main() {
	// Logger
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "activitylog-api",
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

	// Database
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

	// Repos
	log.Info("Setting up repos...")
	eventRepo := repos.NewActivityEventRepo(gdb, log)
	userRepo := repos.NewUserRepo(gdb, log)

	// Services
	log.Info("Setting up services...")
	activityService := services.NewActivityService(gdb, log, eventRepo, userRepo)

	// Optional stream producer for the async ingestion path
	var stream redisclient.AnalyticsStream
	if envutil.String("REDIS_ADDR", "") != "" {
		stream, err = redisclient.NewAnalyticsStream(log)
		if err != nil {
			log.Warn("Analytics stream unavailable, /events/enqueue disabled", "error", err)
			stream = nil
		}
	}

	// Handlers + router
	log.Info("Setting up router...")
	router := server.NewRouter(server.RouterConfig{
		Log:             log,
		HealthHandler:   handlers.NewHealthHandler(),
		ActivityHandler: handlers.NewActivityHandler(activityService, stream),
	})

	port := envutil.String("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
