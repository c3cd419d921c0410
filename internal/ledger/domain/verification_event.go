package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationEvent records that an identity queried a fingerprint, found or not.
type VerificationEvent struct {
	ID        uuid.UUID
	PDFHash   Fingerprint
	Verifier  string
	Found     bool
	Timestamp time.Time
	// Signature is the HMAC of the event, or nil when no signing key is configured.
	Signature []byte
}

// IsSigned reports whether the event carries a signature.
func (e *VerificationEvent) IsSigned() bool {
	return len(e.Signature) > 0
}

// VerificationResult is what a verifier learns about a fingerprint.
type VerificationResult struct {
	Exists      bool
	Timestamp   time.Time
	TokenNumber uint64
}

// ResultFromRecord derives the result from a lookup; a nil or absent record gives zero values.
func ResultFromRecord(record *TokenRecord) VerificationResult {
	if record == nil || !record.Exists {
		return VerificationResult{}
	}
	return VerificationResult{
		Exists:      true,
		Timestamp:   record.Timestamp,
		TokenNumber: record.TokenNumber,
	}
}

// DocumentVerification is the outcome of verifying an uploaded document.
type DocumentVerification struct {
	PDFHash Fingerprint
	VerificationResult
}

// VerificationFilter narrows ListVerifications. A zero PDFHash matches every event.
type VerificationFilter struct {
	PDFHash Fingerprint
}

// SignatureReport summarizes a verification log signature check.
type SignatureReport struct {
	Checked  int
	Valid    int
	Invalid  int
	Unsigned int
	// InvalidIDs lists the events whose signature did not match.
	InvalidIDs []uuid.UUID
}
