package repository

import (
	"context"
	"database/sql"

	"github.com/medledger/tokenledger/internal/anchor/domain"
	"github.com/medledger/tokenledger/internal/database"
	apperrors "github.com/medledger/tokenledger/internal/errors"
	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
)

// MySQLReceiptRepository stores anchor receipts in MySQL.
type MySQLReceiptRepository struct {
	db *sql.DB
}

// NewMySQLReceiptRepository creates a new MySQLReceiptRepository.
func NewMySQLReceiptRepository(db *sql.DB) *MySQLReceiptRepository {
	return &MySQLReceiptRepository{db: db}
}

// Create stores a receipt. A second receipt for the same (pdf_hash, publisher) is ignored.
func (m *MySQLReceiptRepository) Create(ctx context.Context, receipt *domain.Receipt) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT IGNORE INTO token_anchors (pdf_hash, publisher, reference, anchored_at)
			  VALUES (?, ?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, receipt.PDFHash, receipt.Publisher, receipt.Reference,
		receipt.AnchoredAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create anchor receipt")
	}

	return nil
}

// ListByPDFHash returns the receipts of a record ordered by publisher.
func (m *MySQLReceiptRepository) ListByPDFHash(
	ctx context.Context,
	pdfHash ledgerDomain.Fingerprint,
) ([]*domain.Receipt, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT pdf_hash, publisher, reference, anchored_at
			  FROM token_anchors
			  WHERE pdf_hash = ?
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
