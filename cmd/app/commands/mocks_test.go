package commands

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	anchorService "github.com/medledger/tokenledger/internal/anchor/service"
	cryptoDomain "github.com/medledger/tokenledger/internal/crypto/domain"
	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	outboxUseCase "github.com/medledger/tokenledger/internal/outbox/usecase"
)

type MockKMSService struct {
	mock.Mock
}

func (m *MockKMSService) OpenKeeper(ctx context.Context, uri string) (cryptoDomain.KMSKeeper, error) {
	args := m.Called(ctx, uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(cryptoDomain.KMSKeeper), args.Error(1)
}

type MockKMSKeeper struct {
	mock.Mock
}

func (m *MockKMSKeeper) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKMSKeeper) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	args := m.Called(ctx, ciphertext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKMSKeeper) Close() error {
	return m.Called().Error(0)
}

type MockOwnershipUseCase struct {
	mock.Mock
}

func (m *MockOwnershipUseCase) InitializeOwner(ctx context.Context, identity string) (*ledgerDomain.Owner, bool, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*ledgerDomain.Owner), args.Bool(1), args.Error(2)
}

func (m *MockOwnershipUseCase) TransferOwnership(
	ctx context.Context,
	caller, newOwner string,
) (*ledgerDomain.Owner, error) {
	args := m.Called(ctx, caller, newOwner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerDomain.Owner), args.Error(1)
}

func (m *MockOwnershipUseCase) GetOwner(ctx context.Context) (*ledgerDomain.Owner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerDomain.Owner), args.Error(1)
}

func (m *MockOwnershipUseCase) ListTransfers(ctx context.Context) ([]*ledgerDomain.OwnershipTransfer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledgerDomain.OwnershipTransfer), args.Error(1)
}

type MockLedgerUseCase struct {
	mock.Mock
}

func (m *MockLedgerUseCase) StoreTokenHash(
	ctx context.Context,
	input ledgerDomain.StoreTokenInput,
) (*ledgerDomain.TokenRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerDomain.TokenRecord), args.Error(1)
}

func (m *MockLedgerUseCase) GetTokenRecord(
	ctx context.Context,
	pdfHash ledgerDomain.Fingerprint,
) (*ledgerDomain.TokenRecord, error) {
	args := m.Called(ctx, pdfHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerDomain.TokenRecord), args.Error(1)
}

func (m *MockLedgerUseCase) GetStats(ctx context.Context) (*ledgerDomain.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerDomain.Stats), args.Error(1)
}

func (m *MockLedgerUseCase) GetDoctorTokens(
	ctx context.Context,
	doctorHash ledgerDomain.Fingerprint,
) ([]ledgerDomain.Fingerprint, error) {
	args := m.Called(ctx, doctorHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledgerDomain.Fingerprint), args.Error(1)
}

func (m *MockLedgerUseCase) GetPatientTokens(
	ctx context.Context,
	patientHash ledgerDomain.Fingerprint,
) ([]ledgerDomain.Fingerprint, error) {
	args := m.Called(ctx, patientHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledgerDomain.Fingerprint), args.Error(1)
}

type MockVerificationUseCase struct {
	mock.Mock
}

func (m *MockVerificationUseCase) VerifyTokenHash(
	ctx context.Context,
	pdfHash ledgerDomain.Fingerprint,
	verifier string,
) (*ledgerDomain.VerificationResult, error) {
	args := m.Called(ctx, pdfHash, verifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerDomain.VerificationResult), args.Error(1)
}

func (m *MockVerificationUseCase) VerifyDocument(
	ctx context.Context,
	r io.Reader,
	verifier string,
) (*ledgerDomain.DocumentVerification, error) {
	args := m.Called(ctx, r, verifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerDomain.DocumentVerification), args.Error(1)
}

func (m *MockVerificationUseCase) ListVerifications(
	ctx context.Context,
	filter ledgerDomain.VerificationFilter,
	offset, limit int,
) ([]*ledgerDomain.VerificationEvent, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledgerDomain.VerificationEvent), args.Error(1)
}

func (m *MockVerificationUseCase) VerifyVerificationLog(
	ctx context.Context,
	limit int,
) (*ledgerDomain.SignatureReport, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerDomain.SignatureReport), args.Error(1)
}

type MockRelay struct {
	mock.Mock
}

func (m *MockRelay) Start(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRelay) ProcessEvents(ctx context.Context) (outboxUseCase.RelayResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(outboxUseCase.RelayResult), args.Error(1)
}

type MockJournalVerifier struct {
	mock.Mock
}

func (m *MockJournalVerifier) Verify(ctx context.Context) (anchorService.JournalReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(anchorService.JournalReport), args.Error(1)
}
