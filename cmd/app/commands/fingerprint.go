package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	ledgerService "github.com/medledger/tokenledger/internal/ledger/service"
)

// RunFingerprint prints the fingerprint of a document (filePath, "-" for stdin) or of a raw
// doctor/patient identifier. Exactly one of filePath and identifier must be given.
func RunFingerprint(
	hashService ledgerService.HashService,
	io IOTuple,
	filePath, identifier string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	if (filePath == "") == (identifier == "") {
		return errors.New("exactly one of --file or --identifier is required")
	}

	var (
		fingerprint ledgerDomain.Fingerprint
		source      string
	)
	if identifier != "" {
		fingerprint = hashService.IdentifierFingerprint(identifier)
		source = "identifier"
	} else {
		var err error
		fingerprint, err = fingerprintFile(hashService, io.Reader, filePath)
		if err != nil {
			return err
		}
		source = "document"
	}

	if format == FormatJSON {
		return writeJSON(io.Writer, map[string]string{
			"source":      source,
			"fingerprint": fingerprint.String(),
		})
	}

	_, _ = fmt.Fprintln(io.Writer, fingerprint.String())
	return nil
}

func fingerprintFile(
	hashService ledgerService.HashService,
	stdin io.Reader,
	filePath string,
) (ledgerDomain.Fingerprint, error) {
	if filePath == "-" {
		fingerprint, err := hashService.DocumentFingerprint(stdin)
		if err != nil {
			return ledgerDomain.Fingerprint{}, fmt.Errorf("failed to fingerprint stdin: %w", err)
		}
		return fingerprint, nil
	}

	file, err := os.Open(filePath) //nolint:gosec // path supplied by the operator
	if err != nil {
		return ledgerDomain.Fingerprint{}, fmt.Errorf("failed to open document: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	fingerprint, err := hashService.DocumentFingerprint(file)
	if err != nil {
		return ledgerDomain.Fingerprint{}, fmt.Errorf("failed to fingerprint document: %w", err)
	}
	return fingerprint, nil
}
