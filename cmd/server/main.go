package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduwang/tmssr-250809/internal/cache"
	"github.com/eduwang/tmssr-250809/internal/config"
	"github.com/eduwang/tmssr-250809/internal/repository"
	"github.com/eduwang/tmssr-250809/internal/service"
	"github.com/eduwang/tmssr-250809/internal/transport/rest"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// Assistant config
	assistantCfg := config.DefaultAssistantConfig()
	if assistantCfg.IsEnabled() {
		log.Println("Feedback assistant: configured")
	} else {
		log.Println("Feedback assistant: NOT SET (using mock feedback)")
	}
	if len(cfg.AdminUIDs) == 0 {
		log.Println("Warning: ADMIN_UIDS not set, admin dashboard has no members")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize repositories
	scenarioRepo := repository.NewScenarioRepo(db)
	responseRepo := repository.NewResponseRepo(db)
	settingsRepo := repository.NewSettingsRepo(db)

	// Initialize caches
	resultCache := cache.NewResultCache(rdb)
	sessionCache := cache.NewSessionCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.AdminUIDs)
	scenarioSvc := service.NewScenarioService(scenarioRepo)
	settingsSvc := service.NewSettingsService(settingsRepo)
	feedbackSvc := service.NewFeedbackService(assistantCfg)
	responseSvc := service.NewResponseService(responseRepo, scenarioSvc, settingsSvc, feedbackSvc, resultCache)
	resultSvc := service.NewResultService(responseRepo, resultCache)

	// Create router with container
	container := &rest.Container{
		AuthService:     authSvc,
		ScenarioService: scenarioSvc,
		ResponseService: responseSvc,
		ResultService:   resultSvc,
		SettingsService: settingsSvc,
		Sessions:        sessionCache,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  GET  /v1/scenario/active")
		log.Println("  POST /v1/responses")
		log.Println("  POST /v1/responses/feedback")
		log.Println("  GET  /v1/results")
		log.Println("  GET  /v1/results/export/{csv,png,pdf}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
