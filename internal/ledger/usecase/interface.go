// Package usecase implements the consultation token ledger: the hash registry, the doctor
// and patient indexes, the verification log and the owner-gated administration.
package usecase

import (
	"context"
	"io"

	"github.com/google/uuid"

	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	outboxDomain "github.com/medledger/tokenledger/internal/outbox/domain"
)

// TokenRecordRepository persists token records. Records are insert-only.
type TokenRecordRepository interface {
	Create(ctx context.Context, record *ledgerDomain.TokenRecord) error
	Get(ctx context.Context, pdfHash ledgerDomain.Fingerprint) (*ledgerDomain.TokenRecord, error)
	Count(ctx context.Context) (uint64, error)
}

// TokenIndexRepository persists the doctor and patient indexes.
type TokenIndexRepository interface {
	Append(ctx context.Context, kind ledgerDomain.IndexKind, key, pdfHash ledgerDomain.Fingerprint) (uint64, error)
	List(ctx context.Context, kind ledgerDomain.IndexKind, key ledgerDomain.Fingerprint) ([]ledgerDomain.Fingerprint, error)
}

// VerificationEventRepository persists the append-only verification log.
type VerificationEventRepository interface {
	Create(ctx context.Context, event *ledgerDomain.VerificationEvent) error
	List(
		ctx context.Context,
		filter ledgerDomain.VerificationFilter,
		offset, limit int,
	) ([]*ledgerDomain.VerificationEvent, error)
	ListBefore(ctx context.Context, before uuid.UUID, limit int) ([]*ledgerDomain.VerificationEvent, error)
}

// OwnerRepository persists the ledger owner and its transfer history.
type OwnerRepository interface {
	Get(ctx context.Context) (*ledgerDomain.Owner, error)
	GetForUpdate(ctx context.Context) (*ledgerDomain.Owner, error)
	Create(ctx context.Context, owner *ledgerDomain.Owner) (bool, error)
	Update(ctx context.Context, owner *ledgerDomain.Owner) error
	CreateTransfer(ctx context.Context, transfer *ledgerDomain.OwnershipTransfer) error
	ListTransfers(ctx context.Context) ([]*ledgerDomain.OwnershipTransfer, error)
}

// OutboxEventRepository receives the anchor events written alongside stored records.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// IndexService maintains the doctor and patient indexes derived from the registry.
type IndexService interface {
	// AppendToIndexes appends pdfHash to both indexes. It must run inside the store transaction.
	AppendToIndexes(ctx context.Context, doctorHash, patientHash, pdfHash ledgerDomain.Fingerprint) error
	GetDoctorTokens(ctx context.Context, doctorHash ledgerDomain.Fingerprint) ([]ledgerDomain.Fingerprint, error)
	GetPatientTokens(ctx context.Context, patientHash ledgerDomain.Fingerprint) ([]ledgerDomain.Fingerprint, error)
}

// LedgerUseCase is the hash registry facade.
type LedgerUseCase interface {
	// StoreTokenHash records a new token. A pdf hash can be stored once; later attempts fail
	// with ledgerDomain.ErrDuplicateHash and change nothing.
	StoreTokenHash(ctx context.Context, input ledgerDomain.StoreTokenInput) (*ledgerDomain.TokenRecord, error)
	// GetTokenRecord returns the stored record, or an absent record (Exists false) on a miss.
	GetTokenRecord(ctx context.Context, pdfHash ledgerDomain.Fingerprint) (*ledgerDomain.TokenRecord, error)
	GetStats(ctx context.Context) (*ledgerDomain.Stats, error)
	GetDoctorTokens(ctx context.Context, doctorHash ledgerDomain.Fingerprint) ([]ledgerDomain.Fingerprint, error)
	GetPatientTokens(ctx context.Context, patientHash ledgerDomain.Fingerprint) ([]ledgerDomain.Fingerprint, error)
}

// VerificationUseCase answers verification queries and keeps the verification log.
type VerificationUseCase interface {
	// VerifyTokenHash looks the hash up and records a verification event, hit or miss.
	// If the event cannot be written the call fails with ledgerDomain.ErrAuditWriteFailed.
	VerifyTokenHash(
		ctx context.Context,
		pdfHash ledgerDomain.Fingerprint,
		verifier string,
	) (*ledgerDomain.VerificationResult, error)
	// VerifyDocument fingerprints the document read from r and verifies the fingerprint.
	VerifyDocument(ctx context.Context, r io.Reader, verifier string) (*ledgerDomain.DocumentVerification, error)
	ListVerifications(
		ctx context.Context,
		filter ledgerDomain.VerificationFilter,
		offset, limit int,
	) ([]*ledgerDomain.VerificationEvent, error)
	// VerifyVerificationLog recomputes event signatures, newest first. limit <= 0 checks every event.
	VerifyVerificationLog(ctx context.Context, limit int) (*ledgerDomain.SignatureReport, error)
}

// OwnershipUseCase is the access control gate.
type OwnershipUseCase interface {
	// InitializeOwner sets the first owner. It reports false when an owner already exists,
	// in which case nothing changes.
	InitializeOwner(ctx context.Context, identity string) (*ledgerDomain.Owner, bool, error)
	// TransferOwnership replaces the owner when caller is the current owner.
	TransferOwnership(ctx context.Context, caller, newOwner string) (*ledgerDomain.Owner, error)
	GetOwner(ctx context.Context) (*ledgerDomain.Owner, error)
	ListTransfers(ctx context.Context) ([]*ledgerDomain.OwnershipTransfer, error)
}
