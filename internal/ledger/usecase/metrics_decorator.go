package usecase

import (
	"context"
	"io"
	"time"

	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	"github.com/medledger/tokenledger/internal/metrics"
)

const metricsDomain = "ledger"

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func recordMetrics(ctx context.Context, m metrics.BusinessMetrics, operation string, start time.Time, err error) {
	status := statusOf(err)
	m.RecordOperation(ctx, metricsDomain, operation, status)
	m.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// ledgerUseCaseWithMetrics decorates LedgerUseCase with metrics instrumentation.
type ledgerUseCaseWithMetrics struct {
	next    LedgerUseCase
	metrics metrics.BusinessMetrics
}

// NewLedgerUseCaseWithMetrics wraps a LedgerUseCase with metrics recording.
func NewLedgerUseCaseWithMetrics(useCase LedgerUseCase, m metrics.BusinessMetrics) LedgerUseCase {
	return &ledgerUseCaseWithMetrics{next: useCase, metrics: m}
}

func (l *ledgerUseCaseWithMetrics) StoreTokenHash(
	ctx context.Context,
	input ledgerDomain.StoreTokenInput,
) (*ledgerDomain.TokenRecord, error) {
	start := time.Now()
	result, err := l.next.StoreTokenHash(ctx, input)
	recordMetrics(ctx, l.metrics, "token_store", start, err)
	return result, err
}

func (l *ledgerUseCaseWithMetrics) GetTokenRecord(
	ctx context.Context,
	pdfHash ledgerDomain.Fingerprint,
) (*ledgerDomain.TokenRecord, error) {
	start := time.Now()
	result, err := l.next.GetTokenRecord(ctx, pdfHash)
	recordMetrics(ctx, l.metrics, "token_get", start, err)
	return result, err
}

func (l *ledgerUseCaseWithMetrics) GetStats(ctx context.Context) (*ledgerDomain.Stats, error) {
	start := time.Now()
	stats, err := l.next.GetStats(ctx)
	recordMetrics(ctx, l.metrics, "stats_get", start, err)
	return stats, err
}

func (l *ledgerUseCaseWithMetrics) GetDoctorTokens(
	ctx context.Context,
	doctorHash ledgerDomain.Fingerprint,
) ([]ledgerDomain.Fingerprint, error) {
	start := time.Now()
	hashes, err := l.next.GetDoctorTokens(ctx, doctorHash)
	recordMetrics(ctx, l.metrics, "doctor_tokens_list", start, err)
	return hashes, err
}

func (l *ledgerUseCaseWithMetrics) GetPatientTokens(
	ctx context.Context,
	patientHash ledgerDomain.Fingerprint,
) ([]ledgerDomain.Fingerprint, error) {
	start := time.Now()
	hashes, err := l.next.GetPatientTokens(ctx, patientHash)
	recordMetrics(ctx, l.metrics, "patient_tokens_list", start, err)
	return hashes, err
}

// verificationUseCaseWithMetrics decorates VerificationUseCase with metrics instrumentation.
// Successful verifications are also counted by outcome.
type verificationUseCaseWithMetrics struct {
	next    VerificationUseCase
	metrics metrics.BusinessMetrics
}

// NewVerificationUseCaseWithMetrics wraps a VerificationUseCase with metrics recording.
func NewVerificationUseCaseWithMetrics(useCase VerificationUseCase, m metrics.BusinessMetrics) VerificationUseCase {
	return &verificationUseCaseWithMetrics{next: useCase, metrics: m}
}

func (v *verificationUseCaseWithMetrics) VerifyTokenHash(
	ctx context.Context,
	pdfHash ledgerDomain.Fingerprint,
	verifier string,
) (*ledgerDomain.VerificationResult, error) {
	start := time.Now()
	result, err := v.next.VerifyTokenHash(ctx, pdfHash, verifier)
	recordMetrics(ctx, v.metrics, "token_verify", start, err)
	if err == nil {
		v.metrics.RecordVerification(ctx, result.Exists)
	}
	return result, err
}

func (v *verificationUseCaseWithMetrics) VerifyDocument(
	ctx context.Context,
	r io.Reader,
	verifier string,
) (*ledgerDomain.DocumentVerification, error) {
	start := time.Now()
	result, err := v.next.VerifyDocument(ctx, r, verifier)
	recordMetrics(ctx, v.metrics, "document_verify", start, err)
	if err == nil {
		v.metrics.RecordVerification(ctx, result.Exists)
	}
	return result, err
}

func (v *verificationUseCaseWithMetrics) ListVerifications(
	ctx context.Context,
	filter ledgerDomain.VerificationFilter,
	offset, limit int,
) ([]*ledgerDomain.VerificationEvent, error) {
	start := time.Now()
	events, err := v.next.ListVerifications(ctx, filter, offset, limit)
	recordMetrics(ctx, v.metrics, "verification_list", start, err)
	return events, err
}

func (v *verificationUseCaseWithMetrics) VerifyVerificationLog(
	ctx context.Context,
	limit int,
) (*ledgerDomain.SignatureReport, error) {
	start := time.Now()
	report, err := v.next.VerifyVerificationLog(ctx, limit)
	recordMetrics(ctx, v.metrics, "verification_log_check", start, err)
	return report, err
}

// ownershipUseCaseWithMetrics decorates OwnershipUseCase with metrics instrumentation.
type ownershipUseCaseWithMetrics struct {
	next    OwnershipUseCase
	metrics metrics.BusinessMetrics
}

// NewOwnershipUseCaseWithMetrics wraps an OwnershipUseCase with metrics recording.
func NewOwnershipUseCaseWithMetrics(useCase OwnershipUseCase, m metrics.BusinessMetrics) OwnershipUseCase {
	return &ownershipUseCaseWithMetrics{next: useCase, metrics: m}
}

func (o *ownershipUseCaseWithMetrics) InitializeOwner(
	ctx context.Context,
	identity string,
) (*ledgerDomain.Owner, bool, error) {
	start := time.Now()
	owner, created, err := o.next.InitializeOwner(ctx, identity)
	recordMetrics(ctx, o.metrics, "owner_initialize", start, err)
	return owner, created, err
}

func (o *ownershipUseCaseWithMetrics) TransferOwnership(
	ctx context.Context,
	caller, newOwner string,
) (*ledgerDomain.Owner, error) {
	start := time.Now()
	owner, err := o.next.TransferOwnership(ctx, caller, newOwner)
	recordMetrics(ctx, o.metrics, "ownership_transfer", start, err)
	return owner, err
}

func (o *ownershipUseCaseWithMetrics) GetOwner(ctx context.Context) (*ledgerDomain.Owner, error) {
	start := time.Now()
	owner, err := o.next.GetOwner(ctx)
	recordMetrics(ctx, o.metrics, "owner_get", start, err)
	return owner, err
}

func (o *ownershipUseCaseWithMetrics) ListTransfers(ctx context.Context) ([]*ledgerDomain.OwnershipTransfer, error) {
	start := time.Now()
	transfers, err := o.next.ListTransfers(ctx)
	recordMetrics(ctx, o.metrics, "ownership_transfers_list", start, err)
	return transfers, err
}
