// Package usecase relays transactional outbox events to their processors.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/medledger/tokenledger/internal/database"
	apperrors "github.com/medledger/tokenledger/internal/errors"
	"github.com/medledger/tokenledger/internal/outbox/domain"
)

// ErrUnknownEventType is returned when no processor is registered for an event type.
var ErrUnknownEventType = errors.New("unknown outbox event type")

// Config holds outbox relay configuration.
type Config struct {
	Interval    time.Duration
	BatchSize   int
	MaxRetries  int
	Concurrency int
}

// OutboxEventRepository defines outbox event repository operations.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
}

// EventProcessor handles one outbox event. Processors must be idempotent: an event is
// delivered again when the relay cycle that handled it could not commit.
type EventProcessor interface {
	Process(ctx context.Context, event *domain.OutboxEvent) error
}

// EventProcessorFunc adapts a function to EventProcessor.
type EventProcessorFunc func(ctx context.Context, event *domain.OutboxEvent) error

// Process calls f(ctx, event).
func (f EventProcessorFunc) Process(ctx context.Context, event *domain.OutboxEvent) error {
	return f(ctx, event)
}

// Dispatcher routes events to the processor registered for their type.
type Dispatcher struct {
	processors map[string]EventProcessor
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{processors: make(map[string]EventProcessor)}
}

// Register binds a processor to an event type, replacing any previous binding.
func (d *Dispatcher) Register(eventType string, processor EventProcessor) {
	d.processors[eventType] = processor
}

// Process forwards the event to its processor.
func (d *Dispatcher) Process(ctx context.Context, event *domain.OutboxEvent) error {
	processor, ok := d.processors[event.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEventType, event.EventType)
	}
	return processor.Process(ctx, event)
}

// RelayResult summarizes one relay cycle.
type RelayResult struct {
	Claimed   int `json:"claimed"`
	Processed int `json:"processed"`
	Retrying  int `json:"retrying"`
	Failed    int `json:"failed"`
}

// UseCase defines the interface for outbox use cases.
type UseCase interface {
	Start(ctx context.Context) error
	ProcessEvents(ctx context.Context) (RelayResult, error)
}

// OutboxUseCase claims pending events and hands them to the event processor.
type OutboxUseCase struct {
	config         Config
	txManager      database.TxManager
	outboxRepo     OutboxEventRepository
	eventProcessor EventProcessor
	now            func() time.Time
	logger         *slog.Logger
}

// NewOutboxUseCase creates a new OutboxUseCase.
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	eventProcessor EventProcessor,
	logger *slog.Logger,
) *OutboxUseCase {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}

	return &OutboxUseCase{
		config:         config,
		txManager:      txManager,
		outboxRepo:     outboxRepo,
		eventProcessor: eventProcessor,
		now:            func() time.Time { return time.Now().UTC() },
		logger:         logger,
	}
}

// Start runs relay cycles every Interval until ctx is cancelled.
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting outbox relay",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("batch_size", uc.config.BatchSize),
			slog.Int("concurrency", uc.config.Concurrency),
		)
	}

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping outbox relay")
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := uc.ProcessEvents(ctx); err != nil && uc.logger != nil {
				uc.logger.Error("failed to relay outbox events", slog.Any("error", err))
			}
		}
	}
}

// ProcessEvents runs a single relay cycle. Claimed events are processed concurrently and
// their new state is written back before the claiming transaction commits.
func (uc *OutboxUseCase) ProcessEvents(ctx context.Context) (RelayResult, error) {
	var result RelayResult

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		result = RelayResult{}

		events, err := uc.outboxRepo.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}
		result.Claimed = len(events)
		if len(events) == 0 {
			return nil
		}

		outcomes := make([]error, len(events))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(uc.config.Concurrency)
		for i, event := range events {
			g.Go(func() error {
				outcomes[i] = uc.eventProcessor.Process(gctx, event)
				return nil
			})
		}
		_ = g.Wait()

		for i, event := range events {
			uc.applyOutcome(event, outcomes[i], &result)

			if err := uc.outboxRepo.Update(ctx, event); err != nil {
				return apperrors.Wrap(err, "failed to update outbox event")
			}
		}

		return nil
	})
	if err != nil {
		return RelayResult{}, err
	}

	if result.Claimed > 0 && uc.logger != nil {
		uc.logger.Info("relayed outbox events",
			slog.Int("claimed", result.Claimed),
			slog.Int("processed", result.Processed),
			slog.Int("retrying", result.Retrying),
			slog.Int("failed", result.Failed),
		)
	}

	return result, nil
}

func (uc *OutboxUseCase) applyOutcome(event *domain.OutboxEvent, outcome error, result *RelayResult) {
	now := uc.now()

	if outcome == nil {
		event.MarkProcessed(now)
		result.Processed++
		return
	}

	event.MarkAttemptFailed(outcome, uc.config.MaxRetries, now)
	if event.Status == domain.OutboxEventStatusFailed {
		result.Failed++
	} else {
		result.Retrying++
	}

	if uc.logger != nil {
		uc.logger.Warn("outbox event attempt failed",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.EventType),
			slog.Int("retries", event.Retries),
			slog.String("status", string(event.Status)),
			slog.Any("error", outcome),
		)
	}
}
