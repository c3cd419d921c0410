package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	ledgerUseCase "github.com/medledger/tokenledger/internal/ledger/usecase"
)

// RunVerifyVerificationLog recomputes the HMAC-SHA256 signature of stored verification events,
// newest first, and fails when any of them was altered. limit <= 0 checks the whole log.
func RunVerifyVerificationLog(
	ctx context.Context,
	verificationUseCase ledgerUseCase.VerificationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	limit int,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("verifying verification log", slog.Int("limit", limit))

	report, err := verificationUseCase.VerifyVerificationLog(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to verify verification log: %w", err)
	}

	if format == FormatJSON {
		if err := writeJSON(writer, map[string]any{
			"checked":     report.Checked,
			"valid":       report.Valid,
			"invalid":     report.Invalid,
			"unsigned":    report.Unsigned,
			"invalid_ids": report.InvalidIDs,
			"passed":      report.Invalid == 0,
		}); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputSignatureReportText(writer, report)
	}

	logger.Info("verification completed",
		slog.Int("checked", report.Checked),
		slog.Int("valid", report.Valid),
		slog.Int("invalid", report.Invalid),
		slog.Int("unsigned", report.Unsigned),
	)

	if report.Invalid > 0 {
		return fmt.Errorf("integrity check failed: %d invalid signature(s)", report.Invalid)
	}
	return nil
}

func outputSignatureReportText(writer io.Writer, report *ledgerDomain.SignatureReport) {
	_, _ = fmt.Fprintf(writer, "Verification Log Integrity\n")
	_, _ = fmt.Fprintf(writer, "==========================\n\n")

	_, _ = fmt.Fprintf(writer, "Checked:   %d\n", report.Checked)
	_, _ = fmt.Fprintf(writer, "Valid:     %d\n", report.Valid)
	_, _ = fmt.Fprintf(writer, "Invalid:   %d\n", report.Invalid)
	_, _ = fmt.Fprintf(writer, "Unsigned:  %d\n\n", report.Unsigned)

	switch {
	case report.Invalid > 0:
		_, _ = fmt.Fprintf(writer, "WARNING: %d event(s) failed integrity check!\n\n", report.Invalid)
		_, _ = fmt.Fprintf(writer, "Invalid Event IDs:\n")
		for _, id := range report.InvalidIDs {
			_, _ = fmt.Fprintf(writer, "  - %s\n", id)
		}
		_, _ = fmt.Fprintf(writer, "\nStatus: FAILED\n")
	case report.Checked == 0:
		_, _ = fmt.Fprintf(writer, "Status: No verification events recorded\n")
	default:
		_, _ = fmt.Fprintf(writer, "Status: PASSED\n")
	}
}
