package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodorder-be/internal/chat"
	"foodorder-be/internal/config"
	"foodorder-be/internal/db"
	"foodorder-be/internal/events"
	"foodorder-be/internal/httpapi"
	"foodorder-be/internal/logger"
	"foodorder-be/internal/metrics"
	"foodorder-be/internal/middleware"
	"foodorder-be/internal/order"
	"foodorder-be/internal/restaurant"
	"foodorder-be/internal/review"
	"foodorder-be/internal/telemetry"
	"foodorder-be/internal/user"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName    = "foodorder-api"
	serviceVersion = "1.0.0"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
	logger.L().Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.L()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, serviceVersion)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metricsHandler, shutdownMeter, err := metrics.InitMeterProvider(serviceName, serviceVersion)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	rec, err := metrics.NewRecorder(nil)
	if err != nil {
		return err
	}

	database, err := db.NewDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	log.Info("database connection established")

	publisher := newPublisher(cfg)
	defer publisher.Close()

	rdb := newRedisClient(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	app := newApp(database, publisher, rdb, rec, cfg.CatalogTTL)
	limiter := middleware.NewRateLimiter(cfg.InternalKey)

	router := httpapi.NewRouter(app.handler, httpapi.Options{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     limiter,
		Metrics:     metricsHandler,
		Ping:        database.PingContext,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return app.propagator.Run(gctx, cfg.SyncInterval)
	})

	g.Go(func() error {
		return limiter.Cleanup(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type app struct {
	handler    *httpapi.Handler
	propagator *order.Propagator
}

// newApp wires repositories and services over one database handle.
func newApp(database *sql.DB, publisher events.Publisher, rdb *redis.Client, rec *metrics.Recorder, catalogTTL time.Duration) app {
	restaurantRepo := restaurant.NewRepository(database)
	userRepo := user.NewRepository(database)

	orderRepo := order.NewRepository(database)
	propagator := order.NewPropagator(orderRepo, rec)

	catalog := chat.NewCatalogStore(restaurantRepo, rdb, catalogTTL)

	return app{
		handler: &httpapi.Handler{
			Orders:      order.NewService(orderRepo, propagator, publisher, rec),
			Restaurants: restaurant.NewService(restaurantRepo),
			Reviews:     review.NewService(restaurantRepo, userRepo, publisher),
			Chat:        chat.NewResponder(catalog, rec),
		},
		propagator: propagator,
	}
}

func newPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.L().Info("kafka brokers not configured, order events disabled")
		return events.NoopPublisher{}
	}
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OrderTopic)
}

// newRedisClient returns nil when no address is set; the chat catalog then
// reads straight from the database.
func newRedisClient(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}
