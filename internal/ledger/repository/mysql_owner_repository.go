package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/medledger/tokenledger/internal/database"
	apperrors "github.com/medledger/tokenledger/internal/errors"
	"github.com/medledger/tokenledger/internal/ledger/domain"
)

// MySQLOwnerRepository persists the single ledger owner row (id = 1) and the ownership
// history for MySQL.
type MySQLOwnerRepository struct {
	db *sql.DB
}

// NewMySQLOwnerRepository creates a new MySQL owner repository.
func NewMySQLOwnerRepository(db *sql.DB) *MySQLOwnerRepository {
	return &MySQLOwnerRepository{db: db}
}

// Get returns the current owner or domain.ErrOwnerNotInitialized.
func (m *MySQLOwnerRepository) Get(ctx context.Context) (*domain.Owner, error) {
	return m.get(ctx, `SELECT identity, updated_at FROM ledger_owner WHERE id = 1`)
}

// GetForUpdate returns the current owner and locks the row until the transaction ends.
func (m *MySQLOwnerRepository) GetForUpdate(ctx context.Context) (*domain.Owner, error) {
	return m.get(ctx, `SELECT identity, updated_at FROM ledger_owner WHERE id = 1 FOR UPDATE`)
}

func (m *MySQLOwnerRepository) get(ctx context.Context, query string) (*domain.Owner, error) {
	querier := database.GetTx(ctx, m.db)

	var owner domain.Owner
	if err := querier.QueryRowContext(ctx, query).Scan(&owner.Identity, &owner.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOwnerNotInitialized
		}
		return nil, apperrors.Wrap(err, "failed to get ledger owner")
	}
	owner.UpdatedAt = owner.UpdatedAt.UTC()

	return &owner, nil
}

// Create inserts the owner row when none exists and reports whether it did.
func (m *MySQLOwnerRepository) Create(ctx context.Context, owner *domain.Owner) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT IGNORE INTO ledger_owner (id, identity, updated_at) VALUES (1, ?, ?)`

	result, err := querier.ExecContext(ctx, query, owner.Identity, owner.UpdatedAt)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to create ledger owner")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to get rows affected")
	}

	return rows == 1, nil
}

// Update replaces the owner identity.
func (m *MySQLOwnerRepository) Update(ctx context.Context, owner *domain.Owner) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE ledger_owner SET identity = ?, updated_at = ? WHERE id = 1`

	if _, err := querier.ExecContext(ctx, query, owner.Identity, owner.UpdatedAt); err != nil {
		return apperrors.Wrap(err, "failed to update ledger owner")
	}

	return nil
}

// CreateTransfer appends an entry to the ownership history.
func (m *MySQLOwnerRepository) CreateTransfer(ctx context.Context, transfer *domain.OwnershipTransfer) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO ownership_transfers (previous_owner, new_owner, transferred_at) VALUES (?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, transfer.PreviousOwner, transfer.NewOwner, transfer.TransferredAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create ownership transfer")
	}

	return nil
}

// ListTransfers returns the ownership history oldest first.
func (m *MySQLOwnerRepository) ListTransfers(ctx context.Context) ([]*domain.OwnershipTransfer, error) {
	querier := database.GetTx(ctx, m.db)

	rows, err := querier.QueryContext(
		ctx,
		`SELECT previous_owner, new_owner, transferred_at FROM ownership_transfers ORDER BY id ASC`,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list ownership transfers")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanTransfers(rows)
}
