// Package service provides the ledger's cryptographic helpers: document and identity
// fingerprinting and verification event signing.
package service

import (
	"io"

	"github.com/medledger/tokenledger/internal/ledger/domain"
)

// HashService computes fingerprints.
type HashService interface {
	// DocumentFingerprint returns the SHA-256 of everything read from r.
	DocumentFingerprint(r io.Reader) (domain.Fingerprint, error)

	// IdentifierFingerprint returns the SHA-256 of a raw doctor or patient identifier.
	IdentifierFingerprint(identifier string) domain.Fingerprint
}

// VerificationSigner signs verification events so tampering with the log is detectable.
type VerificationSigner interface {
	// Enabled reports whether a signing key is configured.
	Enabled() bool

	// Sign returns the event signature, or nil when signing is disabled.
	Sign(event *domain.VerificationEvent) ([]byte, error)

	// Verify returns domain.ErrSignatureInvalid when the signature does not match.
	Verify(event *domain.VerificationEvent) error
}
