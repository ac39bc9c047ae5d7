package main // Entry point package

import (
	"context"
	"log" // Logging library
	"time"

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/user-auth-service/internal/auth"
	"github.com/iliyamo/user-auth-service/internal/config"
	"github.com/iliyamo/user-auth-service/internal/database"
	"github.com/iliyamo/user-auth-service/internal/handler"
	"github.com/iliyamo/user-auth-service/internal/queue"
	"github.com/iliyamo/user-auth-service/internal/repository"
	"github.com/iliyamo/user-auth-service/internal/router"
	queue_publisher "github.com/iliyamo/user-auth-service/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Signing keys are read from disk exactly once, here. Every later
	// issue/verify call works off the cached material.
	keys, err := auth.LoadKeys(cfg.SessionPrivateKey, cfg.SessionPublicKey, cfg.ActionPrivateKey, cfg.ActionPublicKey)
	if err != nil {
		log.Fatalf("signing keys: %v", err)
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	roles := repository.NewRoleRepo(db)

	// Seed the built-in role catalog before serving traffic; signup depends
	// on the default role existing.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := roles.Seed(ctx); err != nil {
		cancel()
		log.Fatalf("seed roles: %v", err)
	}
	cancel()

	notifier := queue_publisher.NewEmailNotifier(cfg.MailFrom)

	// Deliver queued mail in the background. The worker reconnects on broker
	// failures and never takes the API down with it.
	worker := &queue.MailWorker{From: cfg.MailFrom, SMTPHost: cfg.SMTPHost, SMTPPort: cfg.SMTPPort}
	go worker.StartMailConsumer()

	authHandler := handler.NewAuthHandler(cfg, users, sessions, roles, keys, notifier)
	userHandler := handler.NewUserHandler(cfg, users, keys, notifier)
	roleHandler := handler.NewRoleHandler(roles)

	rdb := config.NewRedisClient()              // nil when Redis is unreachable; limiter degrades to a no-op
	rateCfg := config.LoadRateLimitConfig()     // disabled unless RATE_LIMIT_ENABLED is set

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, userHandler, roleHandler, keys, sessions, roles, rateCfg, rdb)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
