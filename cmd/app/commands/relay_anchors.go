package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	outboxUseCase "github.com/medledger/tokenledger/internal/outbox/usecase"
)

// RunRelayAnchors drains pending anchor events. With once set it runs a single relay cycle and
// prints the result; otherwise it polls until SIGINT/SIGTERM.
func RunRelayAnchors(
	ctx context.Context,
	relay outboxUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	once bool,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	if once {
		result, err := relay.ProcessEvents(ctx)
		if err != nil {
			return fmt.Errorf("failed to relay anchor events: %w", err)
		}
		return outputRelayResult(writer, result, format)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("anchor relay started")
	if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("anchor relay stopped: %w", err)
	}
	logger.Info("anchor relay stopped")
	return nil
}

func outputRelayResult(writer io.Writer, result outboxUseCase.RelayResult, format string) error {
	if format == FormatJSON {
		return writeJSON(writer, result)
	}

	_, _ = fmt.Fprintf(writer, "Claimed:    %d\n", result.Claimed)
	_, _ = fmt.Fprintf(writer, "Processed:  %d\n", result.Processed)
	_, _ = fmt.Fprintf(writer, "Retrying:   %d\n", result.Retrying)
	_, _ = fmt.Fprintf(writer, "Failed:     %d\n", result.Failed)
	return nil
}
