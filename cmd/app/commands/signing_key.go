package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cryptoService "github.com/medledger/tokenledger/internal/crypto/service"
)

// RunCreateSigningKey generates the HMAC key used to sign verification events. With a KMS key
// URI the key is wrapped by the KMS and only the ciphertext is printed; without one the plain
// base64 key is printed, which is only suitable for development.
//
// For local development use kmsKeyURI="base64key://<32-byte-base64-key>".
func RunCreateSigningKey(
	ctx context.Context,
	kms cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	kmsKeyURI string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	generated, err := cryptoService.GenerateSigningKey(ctx, kms, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to create signing key: %w", err)
	}

	if kmsKeyURI == "" {
		logger.Warn("signing key generated without KMS, store it as a secret")
	} else {
		logger.Info("signing key wrapped", slog.String("kms_key_uri", cryptoService.RedactKeyURI(kmsKeyURI)))
	}

	if format == FormatJSON {
		return writeJSON(writer, generated)
	}

	_, _ = fmt.Fprintln(writer, "# Verification signing key")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	if generated.Ciphertext != "" {
		_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", generated.KMSKeyURI)
		_, _ = fmt.Fprintf(writer, "VERIFICATION_SIGNING_KEY_CIPHERTEXT=\"%s\"\n", generated.Ciphertext)
		return nil
	}
	_, _ = fmt.Fprintf(writer, "VERIFICATION_SIGNING_KEY=\"%s\"\n", generated.Key)
	return nil
}
