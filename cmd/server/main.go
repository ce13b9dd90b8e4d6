package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/blood-donation-match/internal/config"
	"github.com/iliyamo/blood-donation-match/internal/database"
	"github.com/iliyamo/blood-donation-match/internal/handler"
	"github.com/iliyamo/blood-donation-match/internal/middleware"
	"github.com/iliyamo/blood-donation-match/internal/queue"
	"github.com/iliyamo/blood-donation-match/internal/repository"
	"github.com/iliyamo/blood-donation-match/internal/router"
	"github.com/iliyamo/blood-donation-match/internal/service"
)

func main() {
	// Load a local .env when present; in production the variables come
	// from the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	requests := repository.NewRequestRepo(db)
	responses := repository.NewResponseRepo(db)

	matcher := service.NewMatcher(users, requests, responses)
	matcher.Events = service.AMQPPublisher{}
	matcher.EnforceDonorRole = cfg.EnforceDonorRole

	// Redis backs rate limiting and the response cache; both degrade to
	// no-ops when the client is nil.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and caching disabled")
	}

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret)
	router.RegisterDonation(e, handler.NewDonationHandler(matcher), rdb, config.LoadCacheConfig())

	// Consume response-created events in the background and append them
	// to logs/donation.log.
	go func() {
		if err := queue.StartResponseConsumer(); err != nil {
			log.Printf("response consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
