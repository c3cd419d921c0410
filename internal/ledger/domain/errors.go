package domain

import (
	"github.com/medledger/tokenledger/internal/errors"
)

// Ledger errors. Each carries a stable code that the HTTP layer returns to clients.
var (
	// ErrDuplicateHash indicates the pdf hash is already recorded.
	ErrDuplicateHash = errors.NewCoded("duplicate_hash", errors.ErrConflict, "token hash already recorded")

	// ErrUnauthorized indicates a privileged call from someone other than the current owner.
	ErrUnauthorized = errors.NewCoded("unauthorized", errors.ErrForbidden, "caller is not the ledger owner")

	// ErrInvalidTarget indicates an empty new owner identity.
	ErrInvalidTarget = errors.NewCoded("invalid_target", errors.ErrBadRequest, "new owner must not be empty")

	// ErrAuditWriteFailed indicates the verification event could not be recorded.
	ErrAuditWriteFailed = errors.NewCoded(
		"audit_write_failed",
		errors.ErrInternal,
		"verification event could not be recorded",
	)

	// ErrInvalidFingerprint indicates a malformed or zero fingerprint.
	ErrInvalidFingerprint = errors.NewCoded(
		"invalid_fingerprint",
		errors.ErrInvalidInput,
		"fingerprint must be 32 non-zero bytes encoded as 64 hex characters",
	)

	// ErrMetadataTooLarge indicates metadata above the configured bound.
	ErrMetadataTooLarge = errors.NewCoded("metadata_too_large", errors.ErrInvalidInput, "metadata is too large")

	// ErrInvalidVerifier indicates an empty verifier identity.
	ErrInvalidVerifier = errors.NewCoded("invalid_verifier", errors.ErrInvalidInput, "verifier identity must not be empty")

	// ErrOwnerNotInitialized indicates the ledger has no owner yet.
	ErrOwnerNotInitialized = errors.NewCoded(
		"owner_not_initialized",
		errors.ErrInternal,
		"ledger owner is not initialized",
	)

	// ErrSignatureInvalid indicates a verification event whose signature does not match.
	ErrSignatureInvalid = errors.New("verification event signature is invalid")
)

// Lookup errors returned by repositories.
var (
	// ErrTokenRecordNotFound indicates no record is stored for the pdf hash.
	ErrTokenRecordNotFound = errors.Wrap(errors.ErrNotFound, "token record not found")
)
