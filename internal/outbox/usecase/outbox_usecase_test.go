package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/medledger/tokenledger/internal/outbox/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

// MockOutboxEventRepository is a mock implementation of OutboxEventRepository
type MockOutboxEventRepository struct {
	mock.Mock
}

func (m *MockOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOutboxEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEvent), args.Error(1)
}

func (m *MockOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockEventProcessor is a mock implementation of EventProcessor
type MockEventProcessor struct {
	mock.Mock
}

func (m *MockEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newPendingEvent(t *testing.T, retries int) *domain.OutboxEvent {
	t.Helper()
	event, err := domain.NewOutboxEvent("anchor.requested", map[string]string{"pdf_hash": "ab"},
		time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	event.Retries = retries
	return event
}

func testConfig() Config {
	return Config{Interval: 10 * time.Millisecond, BatchSize: 10, MaxRetries: 3, Concurrency: 2}
}

func TestNewOutboxUseCase(t *testing.T) {
	uc := NewOutboxUseCase(Config{BatchSize: 5}, &MockTxManager{}, &MockOutboxEventRepository{},
		&MockEventProcessor{}, nil)

	assert.Equal(t, 1, uc.config.Concurrency)
	assert.Equal(t, 1, uc.config.MaxRetries)
	assert.Equal(t, 5, uc.config.BatchSize)
}

func TestOutboxUseCase_Start_ContextCancellation(t *testing.T) {
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil).Maybe()
	outboxRepo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{}, nil).Maybe()

	uc := NewOutboxUseCase(testConfig(), txManager, outboxRepo, &MockEventProcessor{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := uc.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOutboxUseCase_ProcessEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_AllProcessed", func(t *testing.T) {
		txManager := &MockTxManager{}
		outboxRepo := &MockOutboxEventRepository{}
		processor := &MockEventProcessor{}

		events := []*domain.OutboxEvent{newPendingEvent(t, 0), newPendingEvent(t, 0), newPendingEvent(t, 1)}

		txManager.On("WithTx", ctx, mock.Anything).Return(nil)
		outboxRepo.On("GetPendingEvents", ctx, 10).Return(events, nil)
		processor.On("Process", mock.Anything, mock.Anything).Return(nil).Times(3)
		outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
			return e.Status == domain.OutboxEventStatusProcessed && e.ProcessedAt != nil
		})).Return(nil).Times(3)

		uc := NewOutboxUseCase(testConfig(), txManager, outboxRepo, processor, nil)

		result, err := uc.ProcessEvents(ctx)
		require.NoError(t, err)
		assert.Equal(t, RelayResult{Claimed: 3, Processed: 3}, result)
		assert.Nil(t, events[2].LastError)

		outboxRepo.AssertExpectations(t)
		processor.AssertExpectations(t)
	})

	t.Run("Success_NoEvents", func(t *testing.T) {
		txManager := &MockTxManager{}
		outboxRepo := &MockOutboxEventRepository{}
		processor := &MockEventProcessor{}

		txManager.On("WithTx", ctx, mock.Anything).Return(nil)
		outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{}, nil)

		uc := NewOutboxUseCase(testConfig(), txManager, outboxRepo, processor, nil)

		result, err := uc.ProcessEvents(ctx)
		require.NoError(t, err)
		assert.Equal(t, RelayResult{}, result)
		processor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
		outboxRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Success_FailedAttemptStaysPending", func(t *testing.T) {
		txManager := &MockTxManager{}
		outboxRepo := &MockOutboxEventRepository{}
		processor := &MockEventProcessor{}

		event := newPendingEvent(t, 0)

		txManager.On("WithTx", ctx, mock.Anything).Return(nil)
		outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{event}, nil)
		processor.On("Process", mock.Anything, event).Return(errors.New("topic unavailable"))
		outboxRepo.On("Update", ctx, event).Return(nil)

		uc := NewOutboxUseCase(testConfig(), txManager, outboxRepo, processor, nil)

		result, err := uc.ProcessEvents(ctx)
		require.NoError(t, err)
		assert.Equal(t, RelayResult{Claimed: 1, Retrying: 1}, result)
		assert.Equal(t, domain.OutboxEventStatusPending, event.Status)
		assert.Equal(t, 1, event.Retries)
		require.NotNil(t, event.LastError)
		assert.Equal(t, "topic unavailable", *event.LastError)
	})

	t.Run("Success_MaxRetriesReached", func(t *testing.T) {
		txManager := &MockTxManager{}
		outboxRepo := &MockOutboxEventRepository{}
		processor := &MockEventProcessor{}

		event := newPendingEvent(t, 2)

		txManager.On("WithTx", ctx, mock.Anything).Return(nil)
		outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{event}, nil)
		processor.On("Process", mock.Anything, event).Return(errors.New("topic unavailable"))
		outboxRepo.On("Update", ctx, event).Return(nil)

		uc := NewOutboxUseCase(testConfig(), txManager, outboxRepo, processor, nil)

		result, err := uc.ProcessEvents(ctx)
		require.NoError(t, err)
		assert.Equal(t, RelayResult{Claimed: 1, Failed: 1}, result)
		assert.Equal(t, domain.OutboxEventStatusFailed, event.Status)
		assert.Equal(t, 3, event.Retries)
	})

	t.Run("Success_ConcurrencyBounded", func(t *testing.T) {
		txManager := &MockTxManager{}
		outboxRepo := &MockOutboxEventRepository{}

		events := make([]*domain.OutboxEvent, 0, 6)
		for range 6 {
			events = append(events, newPendingEvent(t, 0))
		}

		var mu sync.Mutex
		active, peak := 0, 0
		processor := EventProcessorFunc(func(ctx context.Context, event *domain.OutboxEvent) error {
			mu.Lock()
			active++
			peak = max(peak, active)
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			return nil
		})

		txManager.On("WithTx", ctx, mock.Anything).Return(nil)
		outboxRepo.On("GetPendingEvents", ctx, 10).Return(events, nil)
		outboxRepo.On("Update", ctx, mock.Anything).Return(nil).Times(6)

		uc := NewOutboxUseCase(testConfig(), txManager, outboxRepo, processor, nil)

		result, err := uc.ProcessEvents(ctx)
		require.NoError(t, err)
		assert.Equal(t, 6, result.Processed)
		assert.LessOrEqual(t, peak, 2)
	})

	t.Run("Error_GetPendingEvents", func(t *testing.T) {
		txManager := &MockTxManager{}
		outboxRepo := &MockOutboxEventRepository{}
		processor := &MockEventProcessor{}

		txManager.On("WithTx", ctx, mock.Anything).Return(nil)
		outboxRepo.On("GetPendingEvents", ctx, 10).Return(nil, errors.New("lock timeout"))

		uc := NewOutboxUseCase(testConfig(), txManager, outboxRepo, processor, nil)

		_, err := uc.ProcessEvents(ctx)
		assert.EqualError(t, err, "lock timeout")
		processor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
	})

	t.Run("Error_Update", func(t *testing.T) {
		txManager := &MockTxManager{}
		outboxRepo := &MockOutboxEventRepository{}
		processor := &MockEventProcessor{}

		event := newPendingEvent(t, 0)

		txManager.On("WithTx", ctx, mock.Anything).Return(nil)
		outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{event}, nil)
		processor.On("Process", mock.Anything, event).Return(nil)
		outboxRepo.On("Update", ctx, event).Return(errors.New("connection reset"))

		uc := NewOutboxUseCase(testConfig(), txManager, outboxRepo, processor, nil)

		result, err := uc.ProcessEvents(ctx)
		assert.ErrorContains(t, err, "failed to update outbox event")
		assert.Equal(t, RelayResult{}, result)
	})
}

func TestDispatcher_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RoutesByEventType", func(t *testing.T) {
		processor := &MockEventProcessor{}
		event := newPendingEvent(t, 0)
		processor.On("Process", ctx, event).Return(nil)

		dispatcher := NewDispatcher()
		dispatcher.Register("anchor.requested", processor)

		require.NoError(t, dispatcher.Process(ctx, event))
		processor.AssertExpectations(t)
	})

	t.Run("Error_UnknownEventType", func(t *testing.T) {
		event := newPendingEvent(t, 0)
		event.EventType = "token.deleted"

		err := NewDispatcher().Process(ctx, event)
		assert.ErrorIs(t, err, ErrUnknownEventType)
		assert.ErrorContains(t, err, "token.deleted")
	})
}
