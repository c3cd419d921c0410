package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medledger/tokenledger/internal/database"
	apperrors "github.com/medledger/tokenledger/internal/errors"
	"github.com/medledger/tokenledger/internal/ledger/domain"
)

// PostgreSQLTokenIndexRepository maintains the doctor and patient indexes for PostgreSQL.
type PostgreSQLTokenIndexRepository struct {
	db *sql.DB
}

// NewPostgreSQLTokenIndexRepository creates a new PostgreSQL token index repository.
func NewPostgreSQLTokenIndexRepository(db *sql.DB) *PostgreSQLTokenIndexRepository {
	return &PostgreSQLTokenIndexRepository{db: db}
}

// Append adds pdfHash at the end of the key's list and returns its 1-based position.
// The head row upsert locks the key until the surrounding transaction ends, so positions
// follow commit order for a key while other keys proceed independently.
func (p *PostgreSQLTokenIndexRepository) Append(
	ctx context.Context,
	kind domain.IndexKind,
	key, pdfHash domain.Fingerprint,
) (uint64, error) {
	table, err := indexTable(kind)
	if err != nil {
		return 0, err
	}

	querier := database.GetTx(ctx, p.db)

	headQuery := `INSERT INTO token_index_heads (index_kind, key_hash, length)
				  VALUES ($1, $2, 1)
				  ON CONFLICT (index_kind, key_hash) DO UPDATE SET length = token_index_heads.length + 1
				  RETURNING length`

	var position int64
	if err := querier.QueryRowContext(ctx, headQuery, string(kind), key).Scan(&position); err != nil {
		return 0, apperrors.Wrap(err, "failed to advance index head")
	}

	entryQuery := fmt.Sprintf(`INSERT INTO %s (key_hash, position, pdf_hash) VALUES ($1, $2, $3)`, table)
	if _, err := querier.ExecContext(ctx, entryQuery, key, position, pdfHash); err != nil {
		return 0, apperrors.Wrap(err, "failed to append index entry")
	}

	return uint64(position), nil
}

// List returns the pdf hashes indexed under key in insertion order.
func (p *PostgreSQLTokenIndexRepository) List(
	ctx context.Context,
	kind domain.IndexKind,
	key domain.Fingerprint,
) ([]domain.Fingerprint, error) {
	table, err := indexTable(kind)
	if err != nil {
		return nil, err
	}

	querier := database.GetTx(ctx, p.db)

	query := fmt.Sprintf(`SELECT pdf_hash FROM %s WHERE key_hash = $1 ORDER BY position ASC`, table)

	rows, err := querier.QueryContext(ctx, query, key)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list index entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanFingerprints(rows)
}
