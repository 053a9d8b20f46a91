package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/iliyamo/carparking/internal/config"
	"github.com/iliyamo/carparking/internal/database"
	"github.com/iliyamo/carparking/internal/handler"
	"github.com/iliyamo/carparking/internal/jobs"
	"github.com/iliyamo/carparking/internal/logging"
	"github.com/iliyamo/carparking/internal/middleware"
	"github.com/iliyamo/carparking/internal/notify"
	"github.com/iliyamo/carparking/internal/queue"
	"github.com/iliyamo/carparking/internal/repository"
	"github.com/iliyamo/carparking/internal/repository/memory"
	"github.com/iliyamo/carparking/internal/router"
	"github.com/iliyamo/carparking/internal/service"
	"github.com/iliyamo/carparking/internal/telemetry"
)

// stores groups the persistence backends the services need.
type stores struct {
	slots    repository.SlotStore
	bookings repository.BookingStore
	users    repository.UserStore
	tokens   repository.TokenStore
	contacts repository.ContactStore
	db       *sql.DB // nil for the memory driver
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.StorageDriver == config.DriverMemory {
		m := memory.New()
		return stores{slots: m, bookings: m, users: m, tokens: m, contacts: m}, nil
	}
	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		return stores{}, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return stores{}, err
	}
	return stores{
		slots:    repository.NewSlotRepo(db),
		bookings: repository.NewBookingRepo(db),
		users:    repository.NewUserRepo(db),
		tokens:   repository.NewTokenRepo(db),
		contacts: repository.NewContactRepo(db),
		db:       db,
	}, nil
}

func main() {
	_ = godotenv.Load() // .env is optional outside development

	cfg, err := config.Load()
	if err != nil {
		logging.Init(false)
		logging.Logger().Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(cfg.IsDevelopment())
	log := logging.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Settings{
		Enabled:     cfg.OTelEnabled,
		ServiceName: cfg.OTelServiceName,
		Endpoint:    cfg.OTelEndpoint,
		Environment: cfg.Env,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("telemetry init failed")
	}
	if err := middleware.InitMetrics(); err != nil {
		log.Warn().Err(err).Msg("http metrics disabled")
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("storage init failed")
	}
	log.Info().Str("driver", cfg.StorageDriver).Msg("storage ready")

	// Redis is optional: without it the limiter and cache pass through.
	var rdb *redis.Client
	rdb, err = config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, rate limiting and caching off")
	}

	qcfg := config.LoadQueueConfig()
	var (
		events    service.EventPublisher
		publisher *queue.Publisher
	)
	if qcfg.URL != "" {
		publisher = queue.NewPublisher(qcfg)
		events = publisher
		if qcfg.ConsumerEnabled {
			consumer := queue.NewConsumer(qcfg, notify.NewDispatcher(config.LoadNotifyConfig()))
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("queue consumer stopped")
				}
			}()
		}
	} else {
		log.Info().Msg("RABBITMQ_URL not set, events are not published")
	}

	accounts := service.NewAccounts(cfg, st.users, st.tokens)
	engine := service.NewBookingEngine(st.bookings, events)
	engine.TxTimeout = cfg.BookingTxTimeout

	var scheduler *jobs.Scheduler
	if jcfg := config.LoadJobsConfig(); jcfg.Enabled {
		scheduler = jobs.NewScheduler(jcfg, st.tokens)
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("scheduler init failed")
		}
	}

	e := router.New(router.Handlers{
		Auth:     handler.NewAuthHandler(accounts, cfg.JWTSecret),
		Slots:    handler.NewSlotHandler(service.NewSlotRegistry(st.slots)),
		Bookings: handler.NewBookingHandler(engine),
		Users:    handler.NewUserHandler(accounts),
		Contacts: handler.NewContactHandler(service.NewContacts(st.contacts, events)),
	}, router.Guards{
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}, otelecho.Middleware(cfg.OTelServiceName))

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdown(e, scheduler, publisher, rdb, st.db, shutdownTelemetry)
}

func shutdown(e *echo.Echo, scheduler *jobs.Scheduler, publisher *queue.Publisher, rdb *redis.Client, db *sql.DB, telemetryDown telemetry.ShutdownFunc) {
	log := logging.Logger()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if scheduler != nil {
		scheduler.Stop(ctx)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("close publisher")
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	if err := telemetryDown(ctx); err != nil {
		log.Warn().Err(err).Msg("telemetry shutdown")
	}
}
