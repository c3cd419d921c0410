package usecase

import (
	"context"
	"log/slog"

	anchorDomain "github.com/medledger/tokenledger/internal/anchor/domain"
	"github.com/medledger/tokenledger/internal/database"
	apperrors "github.com/medledger/tokenledger/internal/errors"
	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	outboxDomain "github.com/medledger/tokenledger/internal/outbox/domain"
)

// LedgerConfig holds the registry settings.
type LedgerConfig struct {
	// MetadataMaxBytes bounds TokenRecord.Metadata; <= 0 disables the bound.
	MetadataMaxBytes int
	// AnchorEnabled writes an anchor request to the outbox with every stored record.
	AnchorEnabled bool
}

// ledgerUseCase implements LedgerUseCase.
type ledgerUseCase struct {
	config       LedgerConfig
	txManager    database.TxManager
	recordRepo   TokenRecordRepository
	indexService IndexService
	ownerRepo    OwnerRepository
	outboxRepo   OutboxEventRepository
	clock        *ledgerDomain.Clock
	logger       *slog.Logger
}

// NewLedgerUseCase creates the hash registry facade. outboxRepo may be nil when anchoring
// is disabled.
func NewLedgerUseCase(
	config LedgerConfig,
	txManager database.TxManager,
	recordRepo TokenRecordRepository,
	indexService IndexService,
	ownerRepo OwnerRepository,
	outboxRepo OutboxEventRepository,
	clock *ledgerDomain.Clock,
	logger *slog.Logger,
) LedgerUseCase {
	return &ledgerUseCase{
		config:       config,
		txManager:    txManager,
		recordRepo:   recordRepo,
		indexService: indexService,
		ownerRepo:    ownerRepo,
		outboxRepo:   outboxRepo,
		clock:        clock,
		logger:       logger,
	}
}

// StoreTokenHash inserts the record, appends it to both indexes and queues the anchor
// request in one transaction.
func (l *ledgerUseCase) StoreTokenHash(
	ctx context.Context,
	input ledgerDomain.StoreTokenInput,
) (*ledgerDomain.TokenRecord, error) {
	if err := input.Validate(l.config.MetadataMaxBytes); err != nil {
		return nil, err
	}

	var record *ledgerDomain.TokenRecord
	err := l.txManager.WithTx(ctx, func(ctx context.Context) error {
		record = input.Record(l.clock.Now())

		if err := l.recordRepo.Create(ctx, record); err != nil {
			return err
		}

		if err := l.indexService.AppendToIndexes(ctx, record.DoctorHash, record.PatientHash, record.PDFHash); err != nil {
			return apperrors.Wrap(err, "failed to append token to indexes")
		}

		if l.config.AnchorEnabled && l.outboxRepo != nil {
			event, err := outboxDomain.NewOutboxEvent(
				anchorDomain.EventTypeAnchorRequested,
				anchorDomain.FromRecord(record),
				record.Timestamp,
			)
			if err != nil {
				return err
			}
			if err := l.outboxRepo.Create(ctx, event); err != nil {
				return apperrors.Wrap(err, "failed to queue anchor request")
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("token stored",
		slog.String("pdf_hash", record.PDFHash.String()),
		slog.String("doctor_hash", record.DoctorHash.String()),
		slog.String("patient_hash", record.PatientHash.String()),
		slog.Uint64("token_number", record.TokenNumber),
		slog.Time("timestamp", record.Timestamp),
	)

	return record, nil
}

// GetTokenRecord returns the record or an absent record. Lookup misses are not errors.
func (l *ledgerUseCase) GetTokenRecord(
	ctx context.Context,
	pdfHash ledgerDomain.Fingerprint,
) (*ledgerDomain.TokenRecord, error) {
	record, err := l.recordRepo.Get(ctx, pdfHash)
	if err != nil {
		if apperrors.Is(err, ledgerDomain.ErrTokenRecordNotFound) {
			return &ledgerDomain.TokenRecord{}, nil
		}
		return nil, err
	}
	return record, nil
}

// GetStats returns the record count and the current owner.
func (l *ledgerUseCase) GetStats(ctx context.Context) (*ledgerDomain.Stats, error) {
	total, err := l.recordRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	owner, err := l.ownerRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	return &ledgerDomain.Stats{TotalTokens: total, Owner: owner.Identity}, nil
}

func (l *ledgerUseCase) GetDoctorTokens(
	ctx context.Context,
	doctorHash ledgerDomain.Fingerprint,
) ([]ledgerDomain.Fingerprint, error) {
	return l.indexService.GetDoctorTokens(ctx, doctorHash)
}

func (l *ledgerUseCase) GetPatientTokens(
	ctx context.Context,
	patientHash ledgerDomain.Fingerprint,
) ([]ledgerDomain.Fingerprint, error) {
	return l.indexService.GetPatientTokens(ctx, patientHash)
}
