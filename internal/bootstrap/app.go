package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/locvowork/payroll/internal/config"
	"github.com/locvowork/payroll/internal/database"
	"github.com/locvowork/payroll/internal/domain"
	"github.com/locvowork/payroll/internal/handler"
	"github.com/locvowork/payroll/internal/logger"
	"github.com/locvowork/payroll/internal/repository"
	"github.com/locvowork/payroll/internal/service"
)

type App struct {
	Echo *echo.Echo
	Repo domain.EmployeeRepository
	// Index is never nil after InitializeStores; it is a DisabledEmployeeIndex without Elasticsearch.
	Index domain.EmployeeIndex
	// Search is nil when Elasticsearch is not configured or unreachable.
	Search  *database.ElasticSearchClient
	Service service.EmployeeService

	closers []func() error
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	return &App{
		Echo: e,
	}
}

// InitializeStores loads configuration, logging, the employee store and the search index.
func (a *App) InitializeStores(ctx context.Context) error {
	// Load environment configuration
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig

	// Initialize logging
	logger.InitLogging(cfg.LOG_FILE_PATH, cfg.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	repo, err := a.openRepository(ctx, cfg.STORAGE_DRIVER)
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.STORAGE_DRIVER, err)
	}
	a.Repo = repo
	logger.InfoLog(ctx, "Employee storage %q ready", cfg.STORAGE_DRIVER)

	a.Index = a.openIndex(ctx)

	exporter, err := service.NewEmployeeExporter(cfg.EXPORT_TEMPLATE_PATH)
	if err != nil {
		return fmt.Errorf("failed to initialize exporter: %w", err)
	}
	a.Service = service.NewEmployeeService(a.Repo, a.Index, exporter)
	return nil
}

// Initialize prepares everything the HTTP server needs.
func (a *App) Initialize(ctx context.Context) error {
	if err := a.InitializeStores(ctx); err != nil {
		return err
	}

	empHandler := handler.NewEmployeeHandler(a.Service, config.DefaultEnvConfig.PUBLIC_BASE_URL)

	// Register Middlewares
	a.RegisterMiddlewares()

	// Register Routes
	a.RegisterRoutes(empHandler)

	return nil
}

func (a *App) openRepository(ctx context.Context, driver string) (domain.EmployeeRepository, error) {
	cfg := config.DefaultEnvConfig

	switch driver {
	case config.StorageDriverPostgres:
		db, err := database.NewPostgresDB(ctx, database.Config{
			Host:            cfg.DB_HOST,
			Port:            cfg.DB_PORT,
			User:            cfg.DB_USER,
			Password:        cfg.DB_PASSWORD,
			DBName:          cfg.DB_NAME,
			SSLMode:         cfg.DB_SSL_MODE,
			MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
			MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
			ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := repository.EnsureSchema(ctx, db); err != nil {
			return nil, err
		}
		return repository.NewEmployeeRepository(db), nil

	case config.StorageDriverMemory:
		return repository.NewMemoryEmployeeRepository(), nil

	case config.StorageDriverDatastore:
		dc, err := database.NewDatastoreClient(ctx, cfg.DATASTORE_PROJECT_ID)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, dc.Close)
		return repository.NewDatastoreEmployeeRepository(dc), nil

	case config.StorageDriverDynamoDB:
		client, err := database.NewDynamoDBClient(ctx, database.DynamoDBConfig{
			Region:   cfg.AWS_REGION,
			Endpoint: cfg.DYNAMODB_ENDPOINT,
			Table:    cfg.DYNAMODB_TABLE,
		})
		if err != nil {
			return nil, err
		}
		if err := database.EnsureEmployeeTable(ctx, client, cfg.DYNAMODB_TABLE); err != nil {
			return nil, err
		}
		return repository.NewDynamoEmployeeRepository(client, cfg.DYNAMODB_TABLE), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// openIndex falls back to a disabled index: search is optional and must not block startup.
func (a *App) openIndex(ctx context.Context) domain.EmployeeIndex {
	cfg := config.DefaultEnvConfig
	if cfg.ELASTICSEARCH_URL == "" {
		logger.InfoLog(ctx, "ELASTICSEARCH_URL not set, employee search disabled")
		return database.DisabledEmployeeIndex{}
	}

	es, err := database.NewElasticSearchClient(cfg.ELASTICSEARCH_URL, cfg.ELASTICSEARCH_INDEX)
	if err == nil {
		if err = es.EnsureIndex(ctx); err != nil {
			_ = es.Close()
		}
	}
	if err != nil {
		logger.WarnLog(ctx, "Elasticsearch unavailable, employee search disabled: %v", err)
		return database.DisabledEmployeeIndex{}
	}

	a.Search = es
	a.closers = append(a.closers, es.Close)
	logger.InfoLog(ctx, "Employee search index %q ready", cfg.ELASTICSEARCH_INDEX)
	return es
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	a.Echo.Use(contextLogger)
	a.Echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := logger.FromContext(c.Request().Context()).Info()
			if v.Error != nil {
				event = logger.FromContext(c.Request().Context()).Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	a.Echo.Use(middleware.Recover())
}

// contextLogger attaches a logger carrying the request id to the request context.
func contextLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		ctx := logger.WithLogger(req.Context(), map[string]interface{}{"request_id": id})
		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}

func (a *App) RegisterRoutes(empHandler *handler.EmployeeHandler) {
	a.Echo.GET("/healthcheck", handler.HealthcheckHandler)
	empHandler.Register(a.Echo.Group("/employees"))
}

// Run serves HTTP until SIGINT/SIGTERM, then shuts down gracefully and closes the stores.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Join(err, a.Close())
		}
	case <-ctx.Done():
		logger.InfoLog(ctx, "Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultEnvConfig.SHUTDOWN_TIMEOUT)
	defer cancel()
	return errors.Join(a.Echo.Shutdown(shutdownCtx), a.Close())
}

// Close releases every store opened by InitializeStores.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
