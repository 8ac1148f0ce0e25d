package main // Entry point package

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/reschevie/reschevie-api/internal/config"
	"github.com/reschevie/reschevie-api/internal/database"
	"github.com/reschevie/reschevie-api/internal/handler"
	"github.com/reschevie/reschevie-api/internal/queue"
	"github.com/reschevie/reschevie-api/internal/repository"
	"github.com/reschevie/reschevie-api/internal/router"
	"github.com/reschevie/reschevie-api/internal/session"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments export vars
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		// Sessions live in Redis; without it nobody can log in.
		log.Fatal("redis: connection failed; sessions unavailable")
	}
	store := session.NewStore(rdb, time.Duration(cfg.SessionTTLMin)*time.Minute)

	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)
	inquiries := repository.NewInquiryRepo(db)
	newsletters := repository.NewNewsletterRepo(db)

	authH := handler.NewAuthHandler(cfg, users, store)
	inqH := handler.NewInquiryHandler(products, inquiries)
	newsH := handler.NewNewsletterHandler(users, newsletters)

	// Background consumer tails inquiry.submitted into logs/inquiry.log.
	go func() {
		if err := queue.StartInquiryConsumer(); err != nil {
			log.Printf("inquiry-consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAPI(e, authH, inqH, newsH, store, rdb, config.LoadRateLimitConfig())

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
