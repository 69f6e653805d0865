package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pye-wu/axon-demo/config"
	httpHandler "github.com/pye-wu/axon-demo/internal/adapter/http/handler"
	"github.com/pye-wu/axon-demo/internal/adapter/messaging/inproc"
	"github.com/pye-wu/axon-demo/internal/adapter/messaging/redisstream"
	"github.com/pye-wu/axon-demo/internal/adapter/storage/memory"
	pgStorage "github.com/pye-wu/axon-demo/internal/adapter/storage/postgres"
	redisStorage "github.com/pye-wu/axon-demo/internal/adapter/storage/redis"
	"github.com/pye-wu/axon-demo/internal/core/ports"
	"github.com/pye-wu/axon-demo/internal/service"
	"github.com/pye-wu/axon-demo/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// transport is what both bus drivers offer the runtime.
type transport interface {
	ports.EventPublisher
	ports.CommandGateway
	ConsumeEvents(ctx context.Context, h ports.EventHandler) error
	ConsumeCommands(ctx context.Context, h ports.CommandHandler) error
}

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Str("bus", cfg.Bus.Driver).
		Msg("Starting bank service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		eventStore   ports.EventStore
		checkpoints  ports.CheckpointStore
		sagaStore    ports.SagaStore
		healthChecks []ports.HealthChecker
	)

	// Event log, checkpoints and saga state
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		if err := pgStorage.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
		log.Info().Msg("PostgreSQL connected")

		eventStore = pgStorage.NewEventStore(pool)
		checkpoints = pgStorage.NewCheckpointRepo(pool)
		sagaStore = pgStorage.NewSagaRepo(pool)
		healthChecks = append(healthChecks, pgStorage.NewHealthCheck(pool))
	default:
		log.Warn().Msg("Using in-memory storage, state is lost on exit")
		eventStore = memory.NewEventStore()
		checkpoints = memory.NewCheckpointStore()
		sagaStore = memory.NewSagaStore()
	}

	// Transport, delivery guard and locking
	var (
		bus       transport
		guard     ports.DeliveryGuard
		locker    ports.Locker
		rateLimit ports.RateLimitStore
	)
	switch cfg.Bus.Driver {
	case "redis":
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		streams := redisstream.New(rdb, redisstream.Options{
			EventStream:   cfg.Bus.EventStream,
			CommandStream: cfg.Bus.CommandStream,
			Group:         cfg.Bus.Group,
			Consumer:      cfg.Bus.Consumer,
			Block:         cfg.Bus.Block,
			BatchSize:     cfg.Bus.BatchSize,
			DLQSuffix:     cfg.Bus.DLQSuffix,
		}, logger.Component(log, "bus"))
		if err := streams.Setup(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to create consumer groups")
		}

		bus = streams
		guard = redisStorage.NewDeliveryGuard(rdb)
		locker = redisStorage.NewLocker(rdb, redisStorage.LockOptions{
			Expiry:     cfg.Lock.Expiry,
			Tries:      cfg.Lock.Tries,
			RetryDelay: cfg.Lock.RetryDelay,
		}, logger.Component(log, "lock"))
		if cfg.RateLimit.Enabled {
			rateLimit = redisStorage.NewRateLimitStore(rdb)
		}
		healthChecks = append(healthChecks, redisStorage.NewHealthCheck(rdb))
	default:
		bus = inproc.New(cfg.Bus.BufferSize, logger.Component(log, "bus"))
		guard = memory.NewDeliveryGuard()
		locker = service.NewKeyedMutex()
		if cfg.RateLimit.Enabled {
			log.Warn().Msg("Rate limiting needs redis, disabled")
		}
	}

	// Initialize business services
	accountSvc := service.NewAccountService(eventStore, locker, logger.Component(log, "accounts"))
	transferSvc := service.NewTransferService(eventStore, sagaStore, locker, logger.Component(log, "transfers"))
	dispatcher := service.NewCommandDispatcher(accountSvc, transferSvc, guard, cfg.Saga.DedupTTL, logger.Component(log, "dispatcher"))
	sagas := service.NewSagaManager(sagaStore, eventStore, bus, guard, locker, cfg.Saga.DedupTTL, logger.Component(log, "saga"))
	relay := service.NewEventRelay(eventStore, checkpoints, bus, cfg.Relay.Name, cfg.Relay.PollInterval, cfg.Relay.BatchSize, logger.Component(log, "relay"))

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AccountSvc:     accountSvc,
		TransferSvc:    transferSvc,
		RateLimitStore: rateLimit,
		HealthCheckers: healthChecks,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return relay.Run(gctx) })
	g.Go(func() error { return bus.ConsumeEvents(gctx, sagas) })
	g.Go(func() error { return bus.ConsumeCommands(gctx, dispatcher) })
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server exited")
}
