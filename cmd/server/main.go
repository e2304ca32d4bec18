package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/boardgameshare/server/internal/config"
	"github.com/boardgameshare/server/internal/database"
	"github.com/boardgameshare/server/internal/handler"
	"github.com/boardgameshare/server/internal/middleware"
	"github.com/boardgameshare/server/internal/queue"
	"github.com/boardgameshare/server/internal/repository"
	"github.com/boardgameshare/server/internal/router"
	"github.com/boardgameshare/server/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; without it the limiter and cache pass through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	accounts := repository.NewAccountRepo(db)
	tokens := repository.NewTokenRepo(db)
	games := repository.NewGameRepo(db)
	requests := repository.NewBorrowRequestRepo(db)
	records := repository.NewLendingRecordRepo(db)
	events := repository.NewEventRepo(db)
	regs := repository.NewRegistrationRepo(db)

	clock := service.SystemClock{}
	publisher := queue.NewPublisher()

	borrowSvc := service.NewBorrowRequestService(requests, games, accounts, clock, publisher)
	lendingSvc := service.NewLendingService(records, clock, publisher)
	eventSvc := service.NewEventService(events, regs, games, clock, publisher)

	authH := handler.NewAuthHandler(cfg, accounts, tokens)
	gameH := handler.NewGameHandler(games)
	borrowH := handler.NewBorrowRequestHandler(borrowSvc)
	lendingH := handler.NewLendingHandler(lendingSvc)
	eventH := handler.NewEventHandler(eventSvc)
	publicH := handler.NewPublicHandler(games, eventSvc)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterOwner(e, gameH, borrowH, lendingH, cfg.JWTSecret)
	router.RegisterMember(e, borrowH, lendingH, eventH, gameH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	// Turns broker messages into notification log lines; reconnects on
	// its own and never takes the API down.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
