// Package repository persists anchor receipts.
package repository

import (
	"context"
	"database/sql"

	"github.com/medledger/tokenledger/internal/anchor/domain"
	"github.com/medledger/tokenledger/internal/database"
	apperrors "github.com/medledger/tokenledger/internal/errors"
	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
)

// PostgreSQLReceiptRepository stores anchor receipts in PostgreSQL.
type PostgreSQLReceiptRepository struct {
	db *sql.DB
}

// NewPostgreSQLReceiptRepository creates a new PostgreSQLReceiptRepository.
func NewPostgreSQLReceiptRepository(db *sql.DB) *PostgreSQLReceiptRepository {
	return &PostgreSQLReceiptRepository{db: db}
}

// Create stores a receipt. A second receipt for the same (pdf_hash, publisher) is ignored.
func (p *PostgreSQLReceiptRepository) Create(ctx context.Context, receipt *domain.Receipt) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO token_anchors (pdf_hash, publisher, reference, anchored_at)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (pdf_hash, publisher) DO NOTHING`

	_, err := querier.ExecContext(ctx, query, receipt.PDFHash, receipt.Publisher, receipt.Reference,
		receipt.AnchoredAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create anchor receipt")
	}

	return nil
}

// ListByPDFHash returns the receipts of a record ordered by publisher.
func (p *PostgreSQLReceiptRepository) ListByPDFHash(
	ctx context.Context,
	pdfHash ledgerDomain.Fingerprint,
) ([]*domain.Receipt, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT pdf_hash, publisher, reference, anchored_at
			  FROM token_anchors
			  WHERE pdf_hash = $1
			  ORDER BY publisher ASC`

	rows, err := querier.QueryContext(ctx, query, pdfHash)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list anchor receipts")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanReceipts(rows)
}

func scanReceipts(rows *sql.Rows) ([]*domain.Receipt, error) {
	receipts := make([]*domain.Receipt, 0)
	for rows.Next() {
		var receipt domain.Receipt
		if err := rows.Scan(&receipt.PDFHash, &receipt.Publisher, &receipt.Reference, &receipt.AnchoredAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan anchor receipt")
		}
		receipt.AnchoredAt = receipt.AnchoredAt.UTC()

		receipts = append(receipts, &receipt)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate anchor receipts")
	}

	return receipts, nil
}
