package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	apperrors "github.com/medledger/tokenledger/internal/errors"
	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	ledgerService "github.com/medledger/tokenledger/internal/ledger/service"
)

// verificationPageSize is the page size used when walking the whole log.
const verificationPageSize = 500

// verificationUseCase implements VerificationUseCase.
type verificationUseCase struct {
	recordRepo  TokenRecordRepository
	eventRepo   VerificationEventRepository
	hashService ledgerService.HashService
	signer      ledgerService.VerificationSigner
	clock       *ledgerDomain.Clock
	logger      *slog.Logger
}

// NewVerificationUseCase creates the verification log facade.
func NewVerificationUseCase(
	recordRepo TokenRecordRepository,
	eventRepo VerificationEventRepository,
	hashService ledgerService.HashService,
	signer ledgerService.VerificationSigner,
	clock *ledgerDomain.Clock,
	logger *slog.Logger,
) VerificationUseCase {
	return &verificationUseCase{
		recordRepo:  recordRepo,
		eventRepo:   eventRepo,
		hashService: hashService,
		signer:      signer,
		clock:       clock,
		logger:      logger,
	}
}

// VerifyTokenHash reads the record, then appends the verification event whether or not
// the record exists.
func (v *verificationUseCase) VerifyTokenHash(
	ctx context.Context,
	pdfHash ledgerDomain.Fingerprint,
	verifier string,
) (*ledgerDomain.VerificationResult, error) {
	if !ledgerDomain.ValidIdentity(verifier) {
		return nil, ledgerDomain.ErrInvalidVerifier
	}

	record, err := v.recordRepo.Get(ctx, pdfHash)
	if err != nil && !apperrors.Is(err, ledgerDomain.ErrTokenRecordNotFound) {
		return nil, err
	}
	result := ledgerDomain.ResultFromRecord(record)

	event := &ledgerDomain.VerificationEvent{
		ID:        uuid.Must(uuid.NewV7()),
		PDFHash:   pdfHash,
		Verifier:  verifier,
		Found:     result.Exists,
		Timestamp: v.clock.Now(),
	}

	signature, err := v.signer.Sign(event)
	if err != nil {
		v.logAuditFailure(ctx, event, err)
		return nil, ledgerDomain.ErrAuditWriteFailed
	}
	event.Signature = signature

	if err := v.eventRepo.Create(ctx, event); err != nil {
		v.logAuditFailure(ctx, event, err)
		return nil, ledgerDomain.ErrAuditWriteFailed
	}

	return &result, nil
}

func (v *verificationUseCase) logAuditFailure(ctx context.Context, event *ledgerDomain.VerificationEvent, err error) {
	v.logger.ErrorContext(ctx, "failed to record verification event",
		slog.String("pdf_hash", event.PDFHash.String()),
		slog.String("verifier", event.Verifier),
		slog.Any("error", err),
	)
}

// VerifyDocument hashes the document and verifies the resulting fingerprint.
func (v *verificationUseCase) VerifyDocument(
	ctx context.Context,
	r io.Reader,
	verifier string,
) (*ledgerDomain.DocumentVerification, error) {
	if !ledgerDomain.ValidIdentity(verifier) {
		return nil, ledgerDomain.ErrInvalidVerifier
	}

	// The read error stays in the chain so transports can tell an oversized body apart.
	pdfHash, err := v.hashService.DocumentFingerprint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}

	result, err := v.VerifyTokenHash(ctx, pdfHash, verifier)
	if err != nil {
		return nil, err
	}

	return &ledgerDomain.DocumentVerification{PDFHash: pdfHash, VerificationResult: *result}, nil
}

func (v *verificationUseCase) ListVerifications(
	ctx context.Context,
	filter ledgerDomain.VerificationFilter,
	offset, limit int,
) ([]*ledgerDomain.VerificationEvent, error) {
	return v.eventRepo.List(ctx, filter, offset, limit)
}

// VerifyVerificationLog walks the log newest first and checks each signature. The walk is
// bounded by the newest event at the start and pages by id, so events appended during the
// walk are not counted.
func (v *verificationUseCase) VerifyVerificationLog(
	ctx context.Context,
	limit int,
) (*ledgerDomain.SignatureReport, error) {
	report := &ledgerDomain.SignatureReport{InvalidIDs: []uuid.UUID{}}

	newest, err := v.eventRepo.List(ctx, ledgerDomain.VerificationFilter{}, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(newest) == 0 {
		return report, nil
	}
	v.checkSignature(report, newest[0])
	cursor := newest[0].ID

	for limit <= 0 || report.Checked < limit {
		pageSize := verificationPageSize
		if limit > 0 {
			pageSize = min(pageSize, limit-report.Checked)
		}

		events, err := v.eventRepo.ListBefore(ctx, cursor, pageSize)
		if err != nil {
			return nil, err
		}

		for _, event := range events {
			v.checkSignature(report, event)
		}

		if len(events) < pageSize {
			break
		}
		cursor = events[len(events)-1].ID
	}

	return report, nil
}

func (v *verificationUseCase) checkSignature(report *ledgerDomain.SignatureReport, event *ledgerDomain.VerificationEvent) {
	report.Checked++
	switch {
	case !event.IsSigned():
		report.Unsigned++
	case v.signer.Verify(event) == nil:
		report.Valid++
	default:
		report.Invalid++
		report.InvalidIDs = append(report.InvalidIDs, event.ID)
	}
}
