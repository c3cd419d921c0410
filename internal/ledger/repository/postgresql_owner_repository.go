package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/medledger/tokenledger/internal/database"
	apperrors "github.com/medledger/tokenledger/internal/errors"
	"github.com/medledger/tokenledger/internal/ledger/domain"
)

// PostgreSQLOwnerRepository persists the single ledger owner row (id = 1) and the
// ownership history for PostgreSQL.
type PostgreSQLOwnerRepository struct {
	db *sql.DB
}

// NewPostgreSQLOwnerRepository creates a new PostgreSQL owner repository.
func NewPostgreSQLOwnerRepository(db *sql.DB) *PostgreSQLOwnerRepository {
	return &PostgreSQLOwnerRepository{db: db}
}

// Get returns the current owner or domain.ErrOwnerNotInitialized.
func (p *PostgreSQLOwnerRepository) Get(ctx context.Context) (*domain.Owner, error) {
	return p.get(ctx, `SELECT identity, updated_at FROM ledger_owner WHERE id = 1`)
}

// GetForUpdate returns the current owner and locks the row until the transaction ends.
func (p *PostgreSQLOwnerRepository) GetForUpdate(ctx context.Context) (*domain.Owner, error) {
	return p.get(ctx, `SELECT identity, updated_at FROM ledger_owner WHERE id = 1 FOR UPDATE`)
}

func (p *PostgreSQLOwnerRepository) get(ctx context.Context, query string) (*domain.Owner, error) {
	querier := database.GetTx(ctx, p.db)

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
func (p *PostgreSQLOwnerRepository) Create(ctx context.Context, owner *domain.Owner) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO ledger_owner (id, identity, updated_at) VALUES (1, $1, $2)
			  ON CONFLICT (id) DO NOTHING`

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
func (p *PostgreSQLOwnerRepository) Update(ctx context.Context, owner *domain.Owner) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE ledger_owner SET identity = $1, updated_at = $2 WHERE id = 1`

	if _, err := querier.ExecContext(ctx, query, owner.Identity, owner.UpdatedAt); err != nil {
		return apperrors.Wrap(err, "failed to update ledger owner")
	}

	return nil
}

// CreateTransfer appends an entry to the ownership history.
func (p *PostgreSQLOwnerRepository) CreateTransfer(ctx context.Context, transfer *domain.OwnershipTransfer) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO ownership_transfers (previous_owner, new_owner, transferred_at) VALUES ($1, $2, $3)`

	_, err := querier.ExecContext(ctx, query, transfer.PreviousOwner, transfer.NewOwner, transfer.TransferredAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create ownership transfer")
	}

	return nil
}

// ListTransfers returns the ownership history oldest first.
func (p *PostgreSQLOwnerRepository) ListTransfers(ctx context.Context) ([]*domain.OwnershipTransfer, error) {
	querier := database.GetTx(ctx, p.db)

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

func scanTransfers(rows *sql.Rows) ([]*domain.OwnershipTransfer, error) {
	transfers := make([]*domain.OwnershipTransfer, 0)
	for rows.Next() {
		var transfer domain.OwnershipTransfer
		if err := rows.Scan(&transfer.PreviousOwner, &transfer.NewOwner, &transfer.TransferredAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan ownership transfer")
		}
		transfer.TransferredAt = transfer.TransferredAt.UTC()
		transfers = append(transfers, &transfer)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate ownership transfers")
	}

	return transfers, nil
}
