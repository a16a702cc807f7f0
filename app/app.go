// File: app/app.go
package app

import (
	"context"
	"manga-auth-api/config"
	"manga-auth-api/db"
	"manga-auth-api/handler"
	"manga-auth-api/logger"
	"manga-auth-api/repository"
	"manga-auth-api/router"
	"manga-auth-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations("file://db/migrations"); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer redisClient.Close()

	// --- Wiring All Layers Together ---
	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	verificationRepo := repository.NewVerificationTokenRepository(database)

	blacklist := service.NewTokenBlacklist(redisClient)
	refreshService := service.NewRefreshService(database, tokenRepo, userRepo)
	authService := service.NewAuthService(userRepo, verificationRepo, refreshService, blacklist, service.LogEmailSender{})
	userService := service.NewUserService(userRepo, refreshService)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	gate := handler.NewGate(userRepo)

	r := router.NewRouter(authHandler, userHandler, gate)

	// Identity resolution and the revocation check run in front of every
	// route; the gate then enforces per-route requirements.
	protected := handler.AuthMiddleware(blacklist, r)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: protected,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
