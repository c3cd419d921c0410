package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	"github.com/medledger/tokenledger/internal/metrics"
	outboxDomain "github.com/medledger/tokenledger/internal/outbox/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// passThroughTxManager runs fn with the caller's context.
type passThroughTxManager struct {
	calls int
}

func (p *passThroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

type mockTokenRecordRepository struct {
	mock.Mock
}

func (m *mockTokenRecordRepository) Create(ctx context.Context, record *ledgerDomain.TokenRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockTokenRecordRepository) Get(
	ctx context.Context,
	pdfHash ledgerDomain.Fingerprint,
) (*ledgerDomain.TokenRecord, error) {
	args := m.Called(ctx, pdfHash)
	record, _ := args.Get(0).(*ledgerDomain.TokenRecord)
	return record, args.Error(1)
}

func (m *mockTokenRecordRepository) Count(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

type mockTokenIndexRepository struct {
	mock.Mock
}

func (m *mockTokenIndexRepository) Append(
	ctx context.Context,
	kind ledgerDomain.IndexKind,
	key, pdfHash ledgerDomain.Fingerprint,
) (uint64, error) {
	args := m.Called(ctx, kind, key, pdfHash)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockTokenIndexRepository) List(
	ctx context.Context,
	kind ledgerDomain.IndexKind,
	key ledgerDomain.Fingerprint,
) ([]ledgerDomain.Fingerprint, error) {
	args := m.Called(ctx, kind, key)
	hashes, _ := args.Get(0).([]ledgerDomain.Fingerprint)
	return hashes, args.Error(1)
}

type mockVerificationEventRepository struct {
	mock.Mock
}

func (m *mockVerificationEventRepository) Create(ctx context.Context, event *ledgerDomain.VerificationEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockVerificationEventRepository) List(
	ctx context.Context,
	filter ledgerDomain.VerificationFilter,
	offset, limit int,
) ([]*ledgerDomain.VerificationEvent, error) {
	args := m.Called(ctx, filter, offset, limit)
	events, _ := args.Get(0).([]*ledgerDomain.VerificationEvent)
	return events, args.Error(1)
}

func (m *mockVerificationEventRepository) ListBefore(
	ctx context.Context,
	before uuid.UUID,
	limit int,
) ([]*ledgerDomain.VerificationEvent, error) {
	args := m.Called(ctx, before, limit)
	events, _ := args.Get(0).([]*ledgerDomain.VerificationEvent)
	return events, args.Error(1)
}

type mockOwnerRepository struct {
	mock.Mock
}

func (m *mockOwnerRepository) Get(ctx context.Context) (*ledgerDomain.Owner, error) {
	args := m.Called(ctx)
	owner, _ := args.Get(0).(*ledgerDomain.Owner)
	return owner, args.Error(1)
}

func (m *mockOwnerRepository) GetForUpdate(ctx context.Context) (*ledgerDomain.Owner, error) {
	args := m.Called(ctx)
	owner, _ := args.Get(0).(*ledgerDomain.Owner)
	return owner, args.Error(1)
}

func (m *mockOwnerRepository) Create(ctx context.Context, owner *ledgerDomain.Owner) (bool, error) {
	args := m.Called(ctx, owner)
	return args.Bool(0), args.Error(1)
}

func (m *mockOwnerRepository) Update(ctx context.Context, owner *ledgerDomain.Owner) error {
	return m.Called(ctx, owner).Error(0)
}

func (m *mockOwnerRepository) CreateTransfer(ctx context.Context, transfer *ledgerDomain.OwnershipTransfer) error {
	return m.Called(ctx, transfer).Error(0)
}

func (m *mockOwnerRepository) ListTransfers(ctx context.Context) ([]*ledgerDomain.OwnershipTransfer, error) {
	args := m.Called(ctx)
	transfers, _ := args.Get(0).([]*ledgerDomain.OwnershipTransfer)
	return transfers, args.Error(1)
}

type mockOutboxEventRepository struct {
	mock.Mock
}

func (m *mockOutboxEventRepository) Create(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

type mockVerificationSigner struct {
	mock.Mock
}

func (m *mockVerificationSigner) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *mockVerificationSigner) Sign(event *ledgerDomain.VerificationEvent) ([]byte, error) {
	args := m.Called(event)
	signature, _ := args.Get(0).([]byte)
	return signature, args.Error(1)
}

func (m *mockVerificationSigner) Verify(event *ledgerDomain.VerificationEvent) error {
	return m.Called(event).Error(0)
}

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordVerification(ctx context.Context, found bool) {
	m.Called(ctx, found)
}

func (m *mockBusinessMetrics) RecordAnchorPublish(ctx context.Context, publisher, status string) {
	m.Called(ctx, publisher, status)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)
