package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/localink/localink/api"
	"github.com/localink/localink/config"
	"github.com/localink/localink/internal/bootstrap"
	"github.com/localink/localink/internal/cache"
	"github.com/localink/localink/internal/kafka"
	"github.com/localink/localink/internal/logger"
	"github.com/localink/localink/internal/ratelimit"
	"github.com/localink/localink/internal/repository"
	"github.com/localink/localink/internal/service/booking"
	"github.com/localink/localink/internal/service/messages"
	"github.com/localink/localink/internal/service/profiles"
	"github.com/localink/localink/internal/service/reviews"
	"github.com/localink/localink/internal/service/tours"
	"github.com/localink/localink/migrations"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("app stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := migrations.Apply(ctx, pool); err != nil {
			return err
		}
		zlog.Info("migrations applied")
	}

	checks := map[string]bootstrap.Checker{"postgres": pool.Ping}

	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		redisCache = cache.NewRedisCache(cfg.Redis, cfg.Booking.ToursCacheTTL())
		defer redisCache.Close()
		checks["redis"] = redisCache.Ping
	}

	var store ratelimit.Store
	if cfg.RateLimit.Backend == "redis" {
		store = ratelimit.NewRedisStore(redisCache.Client())
	} else {
		mem := ratelimit.NewMemoryStore(time.Minute)
		defer mem.Stop()
		store = mem
	}
	httpLimiter := ratelimit.New(store, "http", cfg.RateLimit.Requests, cfg.RateLimit.Window())
	messageLimiter := ratelimit.New(store, "messages", cfg.RateLimit.Messages, cfg.RateLimit.MessagesWindow())

	var producer booking.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		p := kafka.NewProducer(cfg.Kafka.Brokers, zlog)
		defer p.Close()
		producer = p
		checks["kafka"] = p.CheckConnection
	}

	tx := repository.NewTransactor(pool, cfg.Database.MaxTxAttempts)
	repos := repository.NewRepositories(pool)

	bookingOpts := []booking.BookingServiceOption{
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithMaxAdvanceDays(cfg.Booking.MaxAdvanceDays),
		booking.WithLogger(zlog.Named("booking")),
	}
	tourOpts := []tours.TourServiceOption{tours.WithLogger(zlog.Named("tours"))}
	var reviewOpts []reviews.ReviewServiceOption
	if redisCache != nil {
		bookingOpts = append(bookingOpts, booking.WithListingCache(redisCache))
		tourOpts = append(tourOpts, tours.WithCache(redisCache))
		reviewOpts = append(reviewOpts, reviews.WithListingCache(redisCache))
	}
	bookingService := booking.NewBookingService(tx, repos.Bookings, producer, cfg.Kafka.BookingEventsTopic, bookingOpts...)
	tourService := tours.NewTourService(tx, repos.Tours, repos.Reviews, tourOpts...)
	reviewService := reviews.NewReviewService(tx, repos.Reviews, zlog.Named("reviews"), reviewOpts...)
	messageService := messages.NewMessageService(repos.Bookings, repos.Messages, messageLimiter, zlog.Named("messages"))
	profileService := profiles.NewProfileService(tx, repos.Users)

	gin.SetMode(cfg.HTTP.GinMode)
	router := bootstrap.NewRouter(cfg, bootstrap.Deps{
		Handlers: api.Handlers{
			Tours:    api.NewTourHandler(tourService),
			Bookings: api.NewBookingHandler(bookingService),
			Reviews:  api.NewReviewHandler(reviewService),
			Messages: api.NewMessageHandler(messageService),
			Profile:  api.NewProfileHandler(profileService),
		},
		Limiter: httpLimiter,
		Checks:  checks,
		Log:     zlog,
	})

	return bootstrap.Run(ctx, cfg, router, zlog)
}
