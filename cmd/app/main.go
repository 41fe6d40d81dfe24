package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/vehiclerental/config"
	"github.com/Domenick1991/vehiclerental/internal/bootstrap"
	"github.com/Domenick1991/vehiclerental/internal/cache"
	"github.com/Domenick1991/vehiclerental/internal/kafka"
	"github.com/Domenick1991/vehiclerental/internal/logger"
	"github.com/Domenick1991/vehiclerental/internal/repository"
	"github.com/Domenick1991/vehiclerental/internal/service/availability"
	"github.com/Domenick1991/vehiclerental/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.Env, cfg.App.Name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		bookingRepo repository.BookingRepository
		refRepo     repository.ReferenceRepository
	)
	switch cfg.App.Storage {
	case config.StorageMemory:
		mem := repository.NewMemoryBookingRepository()
		bookingRepo, refRepo = mem, mem
		log.Warn("using in-memory storage, bookings are lost on restart")
	default:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatal("connect postgres", zap.Error(err))
		}
		defer pool.Close()

		if err := repository.Migrate(ctx, pool); err != nil {
			log.Fatal("apply migrations", zap.Error(err))
		}
		bookingRepo = repository.NewBookingRepository(pool)
		refRepo = repository.NewReferenceRepository(pool)
	}

	opts := []booking.BookingServiceOption{booking.WithReferences(refRepo)}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.BookingEventsTopic != "" {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer func() { _ = producer.Close() }()
		if err := producer.CheckConnection(ctx); err != nil {
			log.Warn("kafka unreachable, booking events will be dropped until it recovers", zap.Error(err))
		}
		opts = append(opts, booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic))
	}
	bookingService := booking.NewBookingService(bookingRepo, log, opts...)

	deps := bootstrap.RouterDeps{
		Bookings:     bookingService,
		Availability: availability.NewChecker(bookingRepo),
		JWTSecret:    []byte(cfg.Auth.JWTSecret),
		Logger:       log,
	}
	if cfg.Redis.Addr != "" {
		client := cache.NewRedisClient(cfg.Redis)
		defer func() { _ = client.Close() }()
		store := cache.NewRedisIdempotencyStore(client,
			time.Duration(cfg.Booking.IdempotencyTTLSeconds)*time.Second,
			time.Duration(cfg.Booking.IdempotencyClaimTTLSeconds)*time.Second,
		)
		if err := store.Ping(ctx); err != nil {
			log.Warn("redis unreachable, idempotency keys will be ignored until it recovers", zap.Error(err))
		}
		deps.Idempotency = store
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := bootstrap.NewRouter(deps)

	if err := bootstrap.Run(ctx, cfg, router, log); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
