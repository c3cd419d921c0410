// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	anchorService "github.com/medledger/tokenledger/internal/anchor/service"
	anchorUseCase "github.com/medledger/tokenledger/internal/anchor/usecase"
	"github.com/medledger/tokenledger/internal/config"
	cryptoDomain "github.com/medledger/tokenledger/internal/crypto/domain"
	cryptoService "github.com/medledger/tokenledger/internal/crypto/service"
	"github.com/medledger/tokenledger/internal/database"
	"github.com/medledger/tokenledger/internal/http"
	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	ledgerUseCase "github.com/medledger/tokenledger/internal/ledger/usecase"
	"github.com/medledger/tokenledger/internal/metrics"
	outboxUseCase "github.com/medledger/tokenledger/internal/outbox/usecase"
)

const (
	driverPostgres = "postgres"
	driverMySQL    = "mysql"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config  *config.Config
	version string

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	clock           *ledgerDomain.Clock
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	kmsService      cryptoService.KMSService
	signingKey      []byte

	// Managers
	txManager database.TxManager

	// Repositories
	tokenRecordRepo       ledgerUseCase.TokenRecordRepository
	tokenIndexRepo        ledgerUseCase.TokenIndexRepository
	verificationEventRepo ledgerUseCase.VerificationEventRepository
	ownerRepo             ledgerUseCase.OwnerRepository
	outboxRepo            outboxUseCase.OutboxEventRepository
	receiptRepo           anchorUseCase.ReceiptRepository

	// Anchor publishers
	anchorPublishers []anchorService.Publisher
	journalPublisher *anchorService.JournalPublisher
	pubSubPublisher  *anchorService.PubSubPublisher

	// Use Cases
	ledgerUseCase       ledgerUseCase.LedgerUseCase
	verificationUseCase ledgerUseCase.VerificationUseCase
	ownershipUseCase    ledgerUseCase.OwnershipUseCase
	anchorUseCase       anchorUseCase.AnchorUseCase
	outboxUseCase       outboxUseCase.UseCase

	// Servers and Workers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                        sync.Mutex
	loggerInit                sync.Once
	dbInit                    sync.Once
	clockInit                 sync.Once
	metricsProviderInit       sync.Once
	businessMetricsInit       sync.Once
	kmsServiceInit            sync.Once
	signingKeyInit            sync.Once
	txManagerInit             sync.Once
	tokenRecordRepoInit       sync.Once
	tokenIndexRepoInit        sync.Once
	verificationEventRepoInit sync.Once
	ownerRepoInit             sync.Once
	outboxRepoInit            sync.Once
	receiptRepoInit           sync.Once
	anchorPublishersInit      sync.Once
	ledgerUseCaseInit         sync.Once
	verificationUseCaseInit   sync.Once
	ownershipUseCaseInit      sync.Once
	anchorUseCaseInit         sync.Once
	outboxUseCaseInit         sync.Once
	httpServerInit            sync.Once
	metricsServerInit         sync.Once
	initErrors                map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// SetVersion records the build version reported by the metrics resource. Call it before
// any component is initialized.
func (c *Container) SetVersion(version string) {
	c.version = version
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// Clock returns the ledger clock. Every use case shares it so timestamps never go
// backwards within the process.
func (c *Container) Clock() *ledgerDomain.Clock {
	c.clockInit.Do(func() {
		c.clock = ledgerDomain.NewClock()
	})
	return c.clock
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. It is a no-op when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.pubSubPublisher != nil {
		if err := c.pubSubPublisher.Close(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("anchor topic shutdown: %w", err))
		}
	}

	if c.journalPublisher != nil {
		if err := c.journalPublisher.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("anchor journal close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if c.signingKey != nil {
		cryptoDomain.Zero(c.signingKey)
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(shutdownErrors...))
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}

	var opts []metrics.ProviderOption
	if c.version != "" {
		opts = append(opts, metrics.WithServiceVersion(c.version))
	}

	provider, err := metrics.NewProvider(c.config.MetricsNamespace, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	tokenHandler, err := c.TokenHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get token handler for http server: %w", err)
	}

	verificationHandler, err := c.VerificationHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get verification handler for http server: %w", err)
	}

	ownershipHandler, err := c.OwnershipHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get ownership handler for http server: %w", err)
	}

	anchorHandler, err := c.AnchorHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get anchor handler for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(
		c.config,
		tokenHandler,
		verificationHandler,
		ownershipHandler,
		anchorHandler,
		metricsProvider,
	)

	return server, nil
}

func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}

// repositoryFor picks the implementation matching the configured driver.
func repositoryFor[T any](driver string, postgres, mysql func() T) (T, error) {
	switch driver {
	case driverMySQL:
		return mysql(), nil
	case driverPostgres:
		return postgres(), nil
	default:
		var zero T
		return zero, fmt.Errorf("unsupported database driver: %s", driver)
	}
}
