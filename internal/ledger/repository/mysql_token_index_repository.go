package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medledger/tokenledger/internal/database"
	apperrors "github.com/medledger/tokenledger/internal/errors"
	"github.com/medledger/tokenledger/internal/ledger/domain"
)

// MySQLTokenIndexRepository maintains the doctor and patient indexes for MySQL.
type MySQLTokenIndexRepository struct {
	db *sql.DB
}

// NewMySQLTokenIndexRepository creates a new MySQL token index repository.
func NewMySQLTokenIndexRepository(db *sql.DB) *MySQLTokenIndexRepository {
	return &MySQLTokenIndexRepository{db: db}
}

// Append adds pdfHash at the end of the key's list and returns its 1-based position.
// The new head length comes back as the insert id of the upsert via LAST_INSERT_ID(expr).
func (m *MySQLTokenIndexRepository) Append(
	ctx context.Context,
	kind domain.IndexKind,
	key, pdfHash domain.Fingerprint,
) (uint64, error) {
	table, err := indexTable(kind)
	if err != nil {
		return 0, err
	}

	querier := database.GetTx(ctx, m.db)

	headQuery := `INSERT INTO token_index_heads (index_kind, key_hash, length)
				  VALUES (?, ?, LAST_INSERT_ID(1))
				  ON DUPLICATE KEY UPDATE length = LAST_INSERT_ID(length + 1)`

	result, err := querier.ExecContext(ctx, headQuery, string(kind), key)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to advance index head")
	}

	position, err := result.LastInsertId()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read index head")
	}

	entryQuery := fmt.Sprintf(`INSERT INTO %s (key_hash, position, pdf_hash) VALUES (?, ?, ?)`, table)
	if _, err := querier.ExecContext(ctx, entryQuery, key, position, pdfHash); err != nil {
		return 0, apperrors.Wrap(err, "failed to append index entry")
	}

	return uint64(position), nil
}

// List returns the pdf hashes indexed under key in insertion order.
func (m *MySQLTokenIndexRepository) List(
	ctx context.Context,
	kind domain.IndexKind,
	key domain.Fingerprint,
) ([]domain.Fingerprint, error) {
	table, err := indexTable(kind)
	if err != nil {
		return nil, err
	}

	querier := database.GetTx(ctx, m.db)

	query := fmt.Sprintf(`SELECT pdf_hash FROM %s WHERE key_hash = ? ORDER BY position ASC`, table)

	rows, err := querier.QueryContext(ctx, query, key)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list index entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanFingerprints(rows)
}
