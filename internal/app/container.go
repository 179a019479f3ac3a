package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/services"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/subscribers"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/infrastructure/cache"
	sharedApplication "github.com/felixgeelhaar/slotwise/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/security"
	"github.com/felixgeelhaar/slotwise/pkg/config"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Clock  sharedDomain.Clock

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient   *redis.Client
	SnapshotCache *cache.RedisSnapshotCache

	// Observability
	Metrics    observability.Metrics
	Prometheus *observability.PrometheusMetrics
	Health     *observability.HealthRegistry

	// Repositories
	ProfessionalRepo domain.ProfessionalRepository
	ClientRepo       domain.ClientRepository
	ServiceRepo      domain.ServiceRepository
	AbsenceRepo      domain.AbsenceRepository
	BookingRepo      domain.BookingRepository
	SnapshotRepo     domain.SnapshotRepository
	OutboxRepo       outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Events
	EventPublisher         eventbus.Publisher
	EventBus               *eventbus.InProcessEventBus
	OutboxProcessor        *outbox.Processor
	InvalidationSubscriber *subscribers.SnapshotInvalidationSubscriber

	// Services
	Calculator  *services.Calculator
	Admission   *services.AdmissionChecker
	Invalidator *services.SnapshotInvalidator
	Refresher   *services.Refresher

	// Command Handlers
	CreateBookingHandler        *commands.CreateBookingHandler
	RescheduleBookingHandler    *commands.RescheduleBookingHandler
	TransitionBookingHandler    *commands.TransitionBookingHandler
	RecordAbsenceHandler        *commands.RecordAbsenceHandler
	VoidAbsenceHandler          *commands.VoidAbsenceHandler
	RefreshAvailabilityHandler  *commands.RefreshAvailabilityHandler
	RegisterProfessionalHandler *commands.RegisterProfessionalHandler
	RegisterClientHandler       *commands.RegisterClientHandler
	RegisterServiceHandler      *commands.RegisterServiceHandler

	// Query Handlers
	GetAvailabilityHandler         *queries.GetAvailabilityHandler
	AvailabilityRangeHandler       *queries.AvailabilityRangeHandler
	NextAvailableHandler           *queries.NextAvailableHandler
	AvailabilityBySpecialtyHandler *queries.AvailabilityBySpecialtyHandler
	AvailableStartsHandler         *queries.AvailableStartsHandler
	CanBookHandler                 *queries.CanBookHandler
	GetBookingHandler              *queries.GetBookingHandler
	ListBookingsHandler            *queries.ListBookingsHandler
	GetAbsenceHandler              *queries.GetAbsenceHandler
	ListProfessionalsHandler       *queries.ListProfessionalsHandler
}

// Option customises container construction.
type Option func(*Container)

// WithClock replaces the system clock.
func WithClock(clock sharedDomain.Clock) Option {
	return func(c *Container) { c.Clock = clock }
}

// WithMetrics replaces the Prometheus metrics sink.
func WithMetrics(metrics observability.Metrics) Option {
	return func(c *Container) { c.Metrics = metrics }
}

// NewContainer creates a new container with all dependencies wired.
// SQLite databases are migrated on open; PostgreSQL is migrated by the
// migrate command.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
		Clock:  sharedDomain.SystemClock{Location: cfg.Location()},
		Health: observability.NewHealthRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Metrics == nil {
		c.Prometheus = observability.NewPrometheusMetrics()
		c.Metrics = c.Prometheus
	}

	sqlitePath := cfg.SQLitePath
	if sqlitePath != "" && sqlitePath != ":memory:" {
		var err error
		if sqlitePath, err = security.CleanPath("SQLITE_PATH", sqlitePath); err != nil {
			return nil, err
		}
	}

	var documents crypto.Encrypter
	if cfg.DocumentKey != "" {
		enc, err := crypto.NewAESGCMFromBase64Key(cfg.DocumentKey)
		if err != nil {
			return nil, fmt.Errorf("DOCUMENT_ENCRYPTION_KEY: %w", err)
		}
		documents = enc
	}

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: sqlitePath,
		MaxConns:   cfg.DatabaseMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	c.Health.Register("database", observability.Critical, conn.Ping)
	logger.Info("connected to database", "driver", c.DBDriver.String())

	if c.DBDriver == database.DriverSQLite {
		applied, err := migrations.Run(ctx, conn)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("database migrated", "versions", applied)
		}
	}

	if err := c.connectRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}

	// Create repositories
	factory := NewRepositoryFactory(conn, documents)
	c.ProfessionalRepo = factory.ProfessionalRepository()
	c.ClientRepo = factory.ClientRepository()
	c.ServiceRepo = factory.ServiceRepository()
	c.AbsenceRepo = factory.AbsenceRepository()
	c.BookingRepo = factory.BookingRepository()
	c.SnapshotRepo = factory.SnapshotRepository()
	c.OutboxRepo = factory.OutboxRepository()
	c.UnitOfWork = factory.UnitOfWork()

	if err := c.buildServices(); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.connectBroker(); err != nil {
		c.Close()
		return nil, err
	}

	c.buildHandlers()
	return c, nil
}

func (c *Container) connectRedis(ctx context.Context) error {
	cfg := c.Config
	if cfg.RedisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, availability cache disabled", "error", err)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		if !cfg.IsDevelopment() {
			_ = client.Close()
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, availability cache disabled", "error", err)
		_ = client.Close()
		return nil
	}

	c.RedisClient = client
	cacheCfg := cache.DefaultConfig()
	if cfg.SnapshotTTL > 0 {
		cacheCfg.TTL = cfg.SnapshotTTL
	}
	if cfg.CacheBreakerFailures > 0 {
		threshold, err := convert.IntToUint32(cfg.CacheBreakerFailures)
		if err != nil {
			_ = client.Close()
			return fmt.Errorf("CACHE_BREAKER_FAILURES: %w", err)
		}
		cacheCfg.FailureThreshold = threshold
	}
	c.SnapshotCache = cache.NewRedisSnapshotCache(client, cacheCfg, c.Logger)
	c.Health.Register("redis", observability.Optional, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	c.Logger.Info("connected to Redis", "ttl", cacheCfg.TTL.String())
	return nil
}

// snapshotCache returns the cache as the domain interface, nil when Redis is off.
func (c *Container) snapshotCache() domain.SnapshotCache {
	if c.SnapshotCache == nil {
		return nil
	}
	return c.SnapshotCache
}

func (c *Container) buildServices() error {
	cfg := c.Config
	catalog, err := WindowCatalog(cfg)
	if err != nil {
		return err
	}

	absences := services.NewAbsenceResolver(c.AbsenceRepo)
	c.Calculator, err = services.NewCalculator(
		c.ProfessionalRepo,
		absences,
		services.NewBookingResolver(c.BookingRepo),
		services.CalculatorConfig{Catalog: catalog, Granularity: cfg.SlotGranularity},
		c.Logger,
		c.Metrics,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability calculator: %w", err)
	}

	c.Admission = services.NewAdmissionChecker(
		c.ProfessionalRepo,
		c.BookingRepo,
		absences,
		services.AdmissionConfig{Catalog: catalog, ClientDailyLimit: cfg.ClientDailyLimit},
		c.Logger,
		c.Metrics,
	)
	c.Invalidator = services.NewSnapshotInvalidator(c.SnapshotRepo, c.snapshotCache(), c.Logger)
	c.Refresher = services.NewRefresher(
		c.ProfessionalRepo,
		c.Calculator,
		c.SnapshotRepo,
		c.snapshotCache(),
		c.Clock,
		cfg.RefreshConcurrency,
		c.Logger,
		c.Metrics,
	)
	c.InvalidationSubscriber = subscribers.NewSnapshotInvalidationSubscriber(c.Invalidator, c.Logger, c.Metrics)
	return nil
}

func (c *Container) connectBroker() error {
	cfg := c.Config
	switch cfg.EventBroker {
	case config.BrokerNone:
		c.EventPublisher = eventbus.NewDiscardPublisher(c.Logger)

	case config.BrokerInProcess:
		c.EventBus = eventbus.NewInProcessEventBus(c.Logger)
		c.EventBus.RegisterConsumer(c.InvalidationSubscriber)
		c.EventPublisher = c.EventBus

	case config.BrokerRabbitMQ:
		publisher, err := eventbus.NewRabbitMQPublisher(eventbus.RabbitMQConfig{
			URL:    cfg.RabbitMQURL,
			Logger: c.Logger,
		})
		if err != nil {
			if !cfg.IsDevelopment() {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			c.Logger.Warn("RabbitMQ not available, discarding events", "error", err)
			c.EventPublisher = eventbus.NewDiscardPublisher(c.Logger)
			break
		}
		c.EventPublisher = publisher
		c.Health.Register("rabbitmq", observability.Optional, publisher.Ping)

	case config.BrokerKafka:
		publisher, err := eventbus.NewKafkaPublisher(eventbus.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Logger:  c.Logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create Kafka publisher: %w", err)
		}
		c.EventPublisher = publisher
		c.Health.Register("kafka", observability.Optional, eventbus.KafkaReadyCheck(cfg.KafkaBrokers))

	default:
		return fmt.Errorf("unsupported event broker %q", cfg.EventBroker)
	}

	processorCfg := outbox.DefaultProcessorConfig()
	processorCfg.PollInterval = cfg.OutboxPollInterval
	processorCfg.BatchSize = cfg.OutboxBatchSize
	processorCfg.MaxRetries = cfg.OutboxMaxRetries
	processorCfg.RetentionDays = cfg.OutboxRetentionDays
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorCfg, c.Logger, outbox.WithMetrics(c.Metrics))
	return nil
}

func (c *Container) buildHandlers() {
	bookingDeps := commands.BookingDeps{
		Bookings:      c.BookingRepo,
		Professionals: c.ProfessionalRepo,
		Clients:       c.ClientRepo,
		Services:      c.ServiceRepo,
		Admission:     c.Admission,
		Outbox:        c.OutboxRepo,
		UnitOfWork:    c.UnitOfWork,
		Invalidator:   c.Invalidator,
		Clock:         c.Clock,
		Logger:        c.Logger,
	}
	absenceDeps := commands.AbsenceDeps{
		Absences:      c.AbsenceRepo,
		Professionals: c.ProfessionalRepo,
		Bookings:      c.BookingRepo,
		Outbox:        c.OutboxRepo,
		UnitOfWork:    c.UnitOfWork,
		Invalidator:   c.Invalidator,
		Policy:        domain.AbsencePolicy{VacationMinTenureDays: c.Config.VacationMinTenureDays},
		Clock:         c.Clock,
		Logger:        c.Logger,
	}

	// Create command handlers
	c.CreateBookingHandler = commands.NewCreateBookingHandler(bookingDeps)
	c.RescheduleBookingHandler = commands.NewRescheduleBookingHandler(bookingDeps)
	c.TransitionBookingHandler = commands.NewTransitionBookingHandler(bookingDeps)
	c.RecordAbsenceHandler = commands.NewRecordAbsenceHandler(absenceDeps)
	c.VoidAbsenceHandler = commands.NewVoidAbsenceHandler(absenceDeps)
	c.RefreshAvailabilityHandler = commands.NewRefreshAvailabilityHandler(c.Refresher)
	c.RegisterProfessionalHandler = commands.NewRegisterProfessionalHandler(c.ProfessionalRepo, c.Clock, c.Logger)
	c.RegisterClientHandler = commands.NewRegisterClientHandler(c.ClientRepo, c.Clock)
	c.RegisterServiceHandler = commands.NewRegisterServiceHandler(c.ServiceRepo, c.Clock)

	// Create query handlers
	c.GetAvailabilityHandler = queries.NewGetAvailabilityHandler(c.Calculator, c.SnapshotRepo, c.snapshotCache(), c.Clock, c.Logger, c.Metrics).
		WithInvalidations(c.Invalidator)
	c.AvailabilityRangeHandler = queries.NewAvailabilityRangeHandler(c.GetAvailabilityHandler)
	c.NextAvailableHandler = queries.NewNextAvailableHandler(c.GetAvailabilityHandler)
	c.AvailabilityBySpecialtyHandler = queries.NewAvailabilityBySpecialtyHandler(c.ProfessionalRepo, c.GetAvailabilityHandler)
	c.AvailableStartsHandler = queries.NewAvailableStartsHandler(c.Calculator, c.ServiceRepo)
	c.CanBookHandler = queries.NewCanBookHandler(c.Admission, c.ServiceRepo)
	c.GetBookingHandler = queries.NewGetBookingHandler(c.BookingRepo)
	c.ListBookingsHandler = queries.NewListBookingsHandler(c.BookingRepo)
	c.GetAbsenceHandler = queries.NewGetAbsenceHandler(c.AbsenceRepo)
	c.ListProfessionalsHandler = queries.NewListProfessionalsHandler(c.ProfessionalRepo)
}

// Today returns the current date in the configured time zone.
func (c *Container) Today() domain.Date {
	return domain.DateOf(c.Clock.Now())
}

// WindowCatalog builds the schedule catalogue, overlaying the YAML file
// named by SCHEDULE_CATALOG_PATH on the defaults.
func WindowCatalog(cfg *config.Config) (domain.WindowCatalog, error) {
	if cfg.ScheduleCatalogPath == "" {
		return domain.DefaultWindowCatalog(), nil
	}
	path, err := security.CleanFile("SCHEDULE_CATALOG_PATH", cfg.ScheduleCatalogPath)
	if err != nil {
		return domain.WindowCatalog{}, err
	}
	file, err := config.LoadScheduleCatalog(path)
	if err != nil {
		return domain.WindowCatalog{}, err
	}

	overrides := make(map[domain.ScheduleType]domain.Interval, len(file.Windows))
	for name, w := range file.Windows {
		scheduleType, err := domain.ParseScheduleType(name)
		if err != nil {
			return domain.WindowCatalog{}, fmt.Errorf("windows.%s: %w", name, err)
		}
		start, err := domain.ParseTimeOfDay(w.Start)
		if err != nil {
			return domain.WindowCatalog{}, fmt.Errorf("windows.%s.start: %w", name, err)
		}
		end, err := domain.ParseTimeOfDay(w.End)
		if err != nil {
			return domain.WindowCatalog{}, fmt.Errorf("windows.%s.end: %w", name, err)
		}
		overrides[scheduleType] = domain.Interval{Start: start, End: end}
	}
	return domain.NewWindowCatalog(overrides)
}

// Close releases every resource the container opened.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed")
		}
	}
}

// shutdownTimeout bounds graceful shutdown of servers started from the container.
const shutdownTimeout = 10 * time.Second

// ShutdownContext returns a context for graceful shutdown.
func ShutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), shutdownTimeout)
}
