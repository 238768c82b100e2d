package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"vehicle-reserve-backend/internal/booking"
	"vehicle-reserve-backend/internal/config"
	"vehicle-reserve-backend/internal/database"
	"vehicle-reserve-backend/internal/handler"
	"vehicle-reserve-backend/internal/line"
	"vehicle-reserve-backend/internal/logging"
	"vehicle-reserve-backend/internal/metrics"
	"vehicle-reserve-backend/internal/middleware"
	"vehicle-reserve-backend/internal/notify"
	"vehicle-reserve-backend/internal/queue"
	"vehicle-reserve-backend/internal/repository"
	"vehicle-reserve-backend/internal/router"
	"vehicle-reserve-backend/internal/sweeper"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.Env)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBMaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	defer db.Close()
	if err := database.Migrate(db, "mysql"); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, cache and shared rate limit disabled")
	}

	// repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	services := repository.NewServiceRepo(db)
	slots := repository.NewTimeSlotRepo(db)
	reservations := repository.NewReservationRepo(db)

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	var notifier booking.Notifier = booking.NopNotifier{}
	if cfg.AMQPURL != "" {
		notifier = notify.NewPublisher(cfg.AMQPURL, log)
		go queue.StartConsumer(cfg.AMQPURL, log)
	}

	allocator := booking.NewAllocator(reservations, slots, services, notifier, m, log)

	cacheCfg := config.LoadCacheConfig()
	cacheMW := middleware.NewRedisCache(cacheCfg, rdb)
	invalidator := &middleware.CacheInvalidator{Prefix: cacheCfg.Prefix, RDB: rdb}

	h := router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, line.NewClient(cfg.LineChannelID), users, tokens, log),
		User:        handler.NewUserHandler(users),
		Service:     handler.NewServiceHandler(services, invalidator),
		TimeSlot:    handler.NewTimeSlotHandler(slots, allocator, invalidator),
		Reservation: handler.NewReservationHandler(allocator),
		Health:      handler.NewHealthHandler(db, rdb),
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(log, cfg.Env == "dev")
	e.Use(echomw.Recover())
	e.Use(middleware.Observe(log, m))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.Register(e, h, cfg.JWTSecret, cacheMW, promReg)

	sw := sweeper.New(reservations, m, log)
	cr, err := sw.Start(cfg.SweepSpec)
	if err != nil {
		log.Fatal().Err(err).Str("spec", cfg.SweepSpec).Msg("sweep scheduler failed")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cr.Stop()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
