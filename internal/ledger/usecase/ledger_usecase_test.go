package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	anchorDomain "github.com/medledger/tokenledger/internal/anchor/domain"
	apperrors "github.com/medledger/tokenledger/internal/errors"
	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	outboxDomain "github.com/medledger/tokenledger/internal/outbox/domain"
)

func fp(b byte) ledgerDomain.Fingerprint {
	var f ledgerDomain.Fingerprint
	for i := range f {
		f[i] = b
	}
	return f
}

func fixedClock() *ledgerDomain.Clock {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var tick time.Duration
	return ledgerDomain.NewClockWithSource(func() time.Time {
		tick += time.Second
		return base.Add(tick)
	})
}

func newMemoryLedger(store *memoryStore, config LedgerConfig, outbox OutboxEventRepository) LedgerUseCase {
	return NewLedgerUseCase(
		config,
		store,
		memoryRecords{store},
		NewIndexService(memoryIndexes{store}),
		memoryOwners{store},
		outbox,
		fixedClock(),
		discardLogger(),
	)
}

func TestLedgerUseCase_StoreTokenHash(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_StoreAndRead", func(t *testing.T) {
		store := newMemoryStore()
		ledger := newMemoryLedger(store, LedgerConfig{MetadataMaxBytes: 64}, nil)

		stored, err := ledger.StoreTokenHash(ctx, ledgerDomain.StoreTokenInput{
			PDFHash:     fp(0xA1),
			DoctorHash:  fp(0xD1),
			PatientHash: fp(0xB1),
			TokenNumber: 7,
			Metadata:    "{}",
		})
		require.NoError(t, err)
		assert.True(t, stored.Exists)
		assert.False(t, stored.Timestamp.IsZero())

		record, err := ledger.GetTokenRecord(ctx, fp(0xA1))
		require.NoError(t, err)
		assert.True(t, record.Exists)
		assert.Equal(t, fp(0xD1), record.DoctorHash)
		assert.Equal(t, fp(0xB1), record.PatientHash)
		assert.Equal(t, uint64(7), record.TokenNumber)
		assert.Equal(t, "{}", record.Metadata)
		assert.Equal(t, stored.Timestamp, record.Timestamp)

		doctorTokens, err := ledger.GetDoctorTokens(ctx, fp(0xD1))
		require.NoError(t, err)
		assert.Equal(t, []ledgerDomain.Fingerprint{fp(0xA1)}, doctorTokens)

		patientTokens, err := ledger.GetPatientTokens(ctx, fp(0xB1))
		require.NoError(t, err)
		assert.Equal(t, []ledgerDomain.Fingerprint{fp(0xA1)}, patientTokens)
	})

	t.Run("Error_DuplicateLeavesRecordUnchanged", func(t *testing.T) {
		store := newMemoryStore()
		ledger := newMemoryLedger(store, LedgerConfig{}, nil)

		first, err := ledger.StoreTokenHash(ctx, ledgerDomain.StoreTokenInput{
			PDFHash: fp(0xA1), DoctorHash: fp(0xD1), PatientHash: fp(0xB1), TokenNumber: 7, Metadata: "{}",
		})
		require.NoError(t, err)

		_, err = ledger.StoreTokenHash(ctx, ledgerDomain.StoreTokenInput{
			PDFHash: fp(0xA1), DoctorHash: fp(0xD2), PatientHash: fp(0xB2), TokenNumber: 9, Metadata: "x",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ledgerDomain.ErrDuplicateHash)
		assert.Equal(t, "duplicate_hash", apperrors.CodeOf(err))

		record, err := ledger.GetTokenRecord(ctx, fp(0xA1))
		require.NoError(t, err)
		assert.Equal(t, fp(0xD1), record.DoctorHash)
		assert.Equal(t, uint64(7), record.TokenNumber)
		assert.Equal(t, "{}", record.Metadata)
		assert.Equal(t, first.Timestamp, record.Timestamp)

		doctorTokens, err := ledger.GetDoctorTokens(ctx, fp(0xD2))
		require.NoError(t, err)
		assert.Empty(t, doctorTokens)

		count, err := memoryRecords{store}.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), count)
	})

	t.Run("Success_IndexesKeepInsertionOrder", func(t *testing.T) {
		store := newMemoryStore()
		ledger := newMemoryLedger(store, LedgerConfig{}, nil)

		for _, pdf := range []byte{0x03, 0x01, 0x02} {
			_, err := ledger.StoreTokenHash(ctx, ledgerDomain.StoreTokenInput{
				PDFHash: fp(pdf), DoctorHash: fp(0xD1), PatientHash: fp(0xB0 + pdf),
			})
			require.NoError(t, err)
		}

		doctorTokens, err := ledger.GetDoctorTokens(ctx, fp(0xD1))
		require.NoError(t, err)
		assert.Equal(t, []ledgerDomain.Fingerprint{fp(0x03), fp(0x01), fp(0x02)}, doctorTokens)

		patientTokens, err := ledger.GetPatientTokens(ctx, fp(0xB2))
		require.NoError(t, err)
		assert.Equal(t, []ledgerDomain.Fingerprint{fp(0x02)}, patientTokens)
	})

	t.Run("Success_TimestampsNeverDecrease", func(t *testing.T) {
		store := newMemoryStore()
		ledger := newMemoryLedger(store, LedgerConfig{}, nil)

		var last time.Time
		for i := byte(1); i <= 5; i++ {
			record, err := ledger.StoreTokenHash(ctx, ledgerDomain.StoreTokenInput{
				PDFHash: fp(i), DoctorHash: fp(0xD1), PatientHash: fp(0xB1),
			})
			require.NoError(t, err)
			assert.False(t, record.Timestamp.Before(last))
			last = record.Timestamp
		}
	})

	t.Run("Error_ZeroFingerprint", func(t *testing.T) {
		store := newMemoryStore()
		ledger := newMemoryLedger(store, LedgerConfig{}, nil)

		_, err := ledger.StoreTokenHash(ctx, ledgerDomain.StoreTokenInput{
			PDFHash: fp(0xA1), PatientHash: fp(0xB1),
		})
		assert.ErrorIs(t, err, ledgerDomain.ErrInvalidFingerprint)
		assert.Empty(t, store.records)
	})

	t.Run("Error_MetadataTooLarge", func(t *testing.T) {
		store := newMemoryStore()
		ledger := newMemoryLedger(store, LedgerConfig{MetadataMaxBytes: 8}, nil)

		_, err := ledger.StoreTokenHash(ctx, ledgerDomain.StoreTokenInput{
			PDFHash: fp(0xA1), DoctorHash: fp(0xD1), PatientHash: fp(0xB1), Metadata: strings.Repeat("m", 9),
		})
		assert.ErrorIs(t, err, ledgerDomain.ErrMetadataTooLarge)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Success_AnchorRequestQueuedWhenEnabled", func(t *testing.T) {
		store := newMemoryStore()
		outbox := &mockOutboxEventRepository{}
		outbox.On("Create", mock.Anything, mock.MatchedBy(func(event *outboxDomain.OutboxEvent) bool {
			return event.EventType == anchorDomain.EventTypeAnchorRequested &&
				strings.Contains(event.Payload, fp(0xA1).String())
		})).Return(nil).Once()

		ledger := newMemoryLedger(store, LedgerConfig{AnchorEnabled: true}, outbox)

		_, err := ledger.StoreTokenHash(ctx, ledgerDomain.StoreTokenInput{
			PDFHash: fp(0xA1), DoctorHash: fp(0xD1), PatientHash: fp(0xB1),
		})
		require.NoError(t, err)
		outbox.AssertExpectations(t)
	})

	t.Run("Success_NoAnchorRequestWhenDisabled", func(t *testing.T) {
		store := newMemoryStore()
		outbox := &mockOutboxEventRepository{}

		ledger := newMemoryLedger(store, LedgerConfig{AnchorEnabled: false}, outbox)

		_, err := ledger.StoreTokenHash(ctx, ledgerDomain.StoreTokenInput{
			PDFHash: fp(0xA1), DoctorHash: fp(0xD1), PatientHash: fp(0xB1),
		})
		require.NoError(t, err)
		outbox.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Error_OutboxFailureFailsStore", func(t *testing.T) {
		store := newMemoryStore()
		outbox := &mockOutboxEventRepository{}
		outbox.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

		ledger := newMemoryLedger(store, LedgerConfig{AnchorEnabled: true}, outbox)

		_, err := ledger.StoreTokenHash(ctx, ledgerDomain.StoreTokenInput{
			PDFHash: fp(0xA1), DoctorHash: fp(0xD1), PatientHash: fp(0xB1),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to queue anchor request")
	})
}

func TestLedgerUseCase_StoreTokenHash_RepositoryErrors(t *testing.T) {
	ctx := context.Background()
	input := ledgerDomain.StoreTokenInput{PDFHash: fp(0xA1), DoctorHash: fp(0xD1), PatientHash: fp(0xB1)}

	t.Run("Error_IndexAppendFailure", func(t *testing.T) {
		recordRepo := &mockTokenRecordRepository{}
		indexRepo := &mockTokenIndexRepository{}
		txManager := &passThroughTxManager{}

		recordRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.TokenRecord")).Return(nil).Once()
		indexRepo.On("Append", mock.Anything, ledgerDomain.DoctorIndex, fp(0xD1), fp(0xA1)).
			Return(uint64(0), errors.New("lock timeout")).Once()

		ledger := NewLedgerUseCase(
			LedgerConfig{}, txManager, recordRepo, NewIndexService(indexRepo), nil, nil, fixedClock(), discardLogger(),
		)

		_, err := ledger.StoreTokenHash(ctx, input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to append token to indexes")
		assert.Equal(t, 1, txManager.calls)
		recordRepo.AssertExpectations(t)
		indexRepo.AssertExpectations(t)
		indexRepo.AssertNotCalled(t, "Append", mock.Anything, ledgerDomain.PatientIndex, mock.Anything, mock.Anything)
	})

	t.Run("Error_CreateFailureSkipsIndexes", func(t *testing.T) {
		recordRepo := &mockTokenRecordRepository{}
		indexRepo := &mockTokenIndexRepository{}

		recordRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()

		ledger := NewLedgerUseCase(
			LedgerConfig{}, &passThroughTxManager{}, recordRepo, NewIndexService(indexRepo), nil, nil,
			fixedClock(), discardLogger(),
		)

		_, err := ledger.StoreTokenHash(ctx, input)
		require.Error(t, err)
		indexRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLedgerUseCase_GetTokenRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_MissReturnsAbsentRecord", func(t *testing.T) {
		ledger := newMemoryLedger(newMemoryStore(), LedgerConfig{}, nil)

		record, err := ledger.GetTokenRecord(ctx, fp(0xEE))
		require.NoError(t, err)
		assert.False(t, record.Exists)
		assert.True(t, record.PDFHash.IsZero())
		assert.True(t, record.Timestamp.IsZero())
		assert.Zero(t, record.TokenNumber)
	})

	t.Run("Error_RepositoryFailure", func(t *testing.T) {
		recordRepo := &mockTokenRecordRepository{}
		recordRepo.On("Get", mock.Anything, fp(0xEE)).Return(nil, errors.New("timeout")).Once()

		ledger := NewLedgerUseCase(
			LedgerConfig{}, &passThroughTxManager{}, recordRepo, nil, nil, nil, fixedClock(), discardLogger(),
		)

		record, err := ledger.GetTokenRecord(ctx, fp(0xEE))
		assert.Error(t, err)
		assert.Nil(t, record)
	})
}

func TestLedgerUseCase_GetStats(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := newMemoryStore()
		ledger := newMemoryLedger(store, LedgerConfig{}, nil)
		_, _, err := NewOwnershipUseCase(store, memoryOwners{store}, fixedClock(), discardLogger()).
			InitializeOwner(ctx, "registry-admin")
		require.NoError(t, err)

		for i := byte(1); i <= 3; i++ {
			_, err := ledger.StoreTokenHash(ctx, ledgerDomain.StoreTokenInput{
				PDFHash: fp(i), DoctorHash: fp(0xD1), PatientHash: fp(0xB1),
			})
			require.NoError(t, err)
		}

		stats, err := ledger.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), stats.TotalTokens)
		assert.Equal(t, "registry-admin", stats.Owner)
	})

	t.Run("Error_OwnerNotInitialized", func(t *testing.T) {
		ledger := newMemoryLedger(newMemoryStore(), LedgerConfig{}, nil)

		_, err := ledger.GetStats(ctx)
		assert.ErrorIs(t, err, ledgerDomain.ErrOwnerNotInitialized)
	})
}
