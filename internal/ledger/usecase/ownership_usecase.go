package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/medledger/tokenledger/internal/database"
	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
)

// ownershipUseCase implements OwnershipUseCase.
type ownershipUseCase struct {
	txManager database.TxManager
	ownerRepo OwnerRepository
	clock     *ledgerDomain.Clock
	logger    *slog.Logger
}

// NewOwnershipUseCase creates the access control gate.
func NewOwnershipUseCase(
	txManager database.TxManager,
	ownerRepo OwnerRepository,
	clock *ledgerDomain.Clock,
	logger *slog.Logger,
) OwnershipUseCase {
	return &ownershipUseCase{
		txManager: txManager,
		ownerRepo: ownerRepo,
		clock:     clock,
		logger:    logger,
	}
}

// InitializeOwner moves the ledger from uninitialized to active. The history records the
// first owner as a transfer from the empty identity.
func (o *ownershipUseCase) InitializeOwner(
	ctx context.Context,
	identity string,
) (*ledgerDomain.Owner, bool, error) {
	identity = strings.TrimSpace(identity)
	if !ledgerDomain.ValidOwnerIdentity(identity) {
		return nil, false, ledgerDomain.ErrInvalidTarget
	}

	var (
		owner   *ledgerDomain.Owner
		created bool
	)
	err := o.txManager.WithTx(ctx, func(ctx context.Context) error {
		now := o.clock.Now()
		candidate := &ledgerDomain.Owner{Identity: identity, UpdatedAt: now}

		var err error
		created, err = o.ownerRepo.Create(ctx, candidate)
		if err != nil {
			return err
		}

		if !created {
			owner, err = o.ownerRepo.Get(ctx)
			return err
		}

		owner = candidate
		return o.ownerRepo.CreateTransfer(ctx, &ledgerDomain.OwnershipTransfer{
			NewOwner:      identity,
			TransferredAt: now,
		})
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		o.logger.Info("ledger owner initialized", slog.String("owner", owner.Identity))
	}

	return owner, created, nil
}

// TransferOwnership checks the caller before the target, under the owner row lock, so a
// transfer takes effect for the very next privileged call.
func (o *ownershipUseCase) TransferOwnership(
	ctx context.Context,
	caller, newOwner string,
) (*ledgerDomain.Owner, error) {
	var (
		previous string
		updated  *ledgerDomain.Owner
	)
	err := o.txManager.WithTx(ctx, func(ctx context.Context) error {
		current, err := o.ownerRepo.GetForUpdate(ctx)
		if err != nil {
			return err
		}

		if !current.CanAdminister(strings.TrimSpace(caller)) {
			return ledgerDomain.ErrUnauthorized
		}
		if !ledgerDomain.ValidOwnerIdentity(newOwner) {
			return ledgerDomain.ErrInvalidTarget
		}

		now := o.clock.Now()
		previous = current.Identity
		updated = &ledgerDomain.Owner{Identity: newOwner, UpdatedAt: now}

		if err := o.ownerRepo.Update(ctx, updated); err != nil {
			return err
		}

		return o.ownerRepo.CreateTransfer(ctx, &ledgerDomain.OwnershipTransfer{
			PreviousOwner: previous,
			NewOwner:      newOwner,
			TransferredAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("ownership transferred",
		slog.String("previous_owner", previous),
		slog.String("new_owner", updated.Identity),
	)

	return updated, nil
}

func (o *ownershipUseCase) GetOwner(ctx context.Context) (*ledgerDomain.Owner, error) {
	return o.ownerRepo.Get(ctx)
}

func (o *ownershipUseCase) ListTransfers(ctx context.Context) ([]*ledgerDomain.OwnershipTransfer, error) {
	return o.ownerRepo.ListTransfers(ctx)
}
