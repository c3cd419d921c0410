package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	ledgerUseCase "github.com/medledger/tokenledger/internal/ledger/usecase"
)

type ownerOutput struct {
	Owner     string    `json:"owner"`
	UpdatedAt time.Time `json:"updated_at"`
	Created   *bool     `json:"created,omitempty"`
}

// RunInitLedger assigns the first ledger owner. Running it against an initialized ledger
// changes nothing and reports the existing owner.
func RunInitLedger(
	ctx context.Context,
	ownershipUseCase ledgerUseCase.OwnershipUseCase,
	logger *slog.Logger,
	writer io.Writer,
	owner string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	current, created, err := ownershipUseCase.InitializeOwner(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}

	if !created {
		logger.Warn("ledger already initialized", slog.String("owner", current.Identity))
	}

	if format == FormatJSON {
		return writeJSON(writer, ownerOutput{Owner: current.Identity, UpdatedAt: current.UpdatedAt, Created: &created})
	}

	if created {
		_, _ = fmt.Fprintf(writer, "Ledger initialized\n")
	} else {
		_, _ = fmt.Fprintf(writer, "Ledger already initialized, owner unchanged\n")
	}
	_, _ = fmt.Fprintf(writer, "Owner: %s\n", current.Identity)
	return nil
}

// RunTransferOwnership hands the ledger to newOwner on behalf of caller, who must be the
// current owner.
func RunTransferOwnership(
	ctx context.Context,
	ownershipUseCase ledgerUseCase.OwnershipUseCase,
	writer io.Writer,
	caller, newOwner string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	owner, err := ownershipUseCase.TransferOwnership(ctx, caller, newOwner)
	if err != nil {
		return fmt.Errorf("failed to transfer ownership: %w", err)
	}

	if format == FormatJSON {
		return writeJSON(writer, ownerOutput{Owner: owner.Identity, UpdatedAt: owner.UpdatedAt})
	}

	_, _ = fmt.Fprintf(writer, "Ownership transferred\n")
	_, _ = fmt.Fprintf(writer, "Previous owner: %s\n", caller)
	_, _ = fmt.Fprintf(writer, "New owner:      %s\n", owner.Identity)
	return nil
}

// RunStats prints the number of stored tokens and the current owner.
func RunStats(
	ctx context.Context,
	ledgerUseCase ledgerUseCase.LedgerUseCase,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	stats, err := ledgerUseCase.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get ledger stats: %w", err)
	}

	return outputStats(writer, stats, format)
}

func outputStats(writer io.Writer, stats *ledgerDomain.Stats, format string) error {
	if format == FormatJSON {
		return writeJSON(writer, map[string]any{
			"total_tokens": stats.TotalTokens,
			"owner":        stats.Owner,
		})
	}

	_, _ = fmt.Fprintf(writer, "Total tokens: %d\n", stats.TotalTokens)
	_, _ = fmt.Fprintf(writer, "Owner:        %s\n", stats.Owner)
	return nil
}
