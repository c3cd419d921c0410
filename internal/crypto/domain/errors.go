package domain

import (
	"github.com/medledger/tokenledger/internal/errors"
)

// Key loading errors. They are configuration errors and stop the process at startup.
var (
	// ErrInvalidKeySize indicates decoded key material is not SigningKeySize bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidKeyEncoding indicates a key or ciphertext is not valid standard base64.
	ErrInvalidKeyEncoding = errors.Wrap(errors.ErrInvalidInput, "invalid key encoding")

	// ErrKMSKeyURINotSet indicates a wrapped key was configured without the KMS key to unwrap it.
	ErrKMSKeyURINotSet = errors.Wrap(errors.ErrInvalidInput, "KMS_KEY_URI is required for a wrapped signing key")

	// ErrConflictingSigningKeys indicates both a plain and a wrapped signing key were configured.
	ErrConflictingSigningKeys = errors.Wrap(
		errors.ErrInvalidInput,
		"VERIFICATION_SIGNING_KEY and VERIFICATION_SIGNING_KEY_CIPHERTEXT are mutually exclusive",
	)

	// ErrUnsupportedKMSScheme indicates a key URI has no registered keeper driver.
	ErrUnsupportedKMSScheme = errors.Wrap(errors.ErrInvalidInput, "unsupported KMS key URI")

	// ErrDecryptionFailed indicates the KMS could not unwrap the signing key.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")
)
