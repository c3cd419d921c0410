package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/medledger/tokenledger/internal/app"
	"github.com/medledger/tokenledger/internal/config"
)

// RunServer starts the API server, the metrics server and, when anchoring is enabled, the
// outbox relay. The ledger must have an owner before anything is served: LEDGER_INITIAL_OWNER
// is applied first, and startup fails if the ledger is still uninitialized. Blocks until
// SIGINT/SIGTERM or a fatal server error, then shuts down within DBConnMaxLifetime.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)
	container.SetVersion(version)

	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	defer closeContainer(container, logger)

	owner, err := container.EnsureOwner(ctx)
	if err != nil {
		return err
	}
	logger.Info("ledger active", slog.String("owner", owner.Identity))

	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serverErr := make(chan error, 3)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("api server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				serverErr <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	relayDone := make(chan struct{})
	if cfg.AnchorEnabled {
		relay, err := container.OutboxUseCase()
		if err != nil {
			return fmt.Errorf("failed to initialize outbox relay: %w", err)
		}

		go func() {
			defer close(relayDone)
			if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				serverErr <- fmt.Errorf("outbox relay error: %w", err)
			}
		}()
	} else {
		close(relayDone)
	}

	var shutdownErrors []error

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error, initiating shutdown", slog.Any("error", err))
		shutdownErrors = append(shutdownErrors, err)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// The relay holds an open transaction while a cycle is in flight.
	select {
	case <-relayDone:
	case <-shutdownCtx.Done():
		shutdownErrors = append(shutdownErrors, errors.New("outbox relay did not stop before the shutdown timeout"))
	}

	return errors.Join(shutdownErrors...)
}
