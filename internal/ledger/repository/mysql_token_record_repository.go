package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/medledger/tokenledger/internal/database"
	apperrors "github.com/medledger/tokenledger/internal/errors"
	"github.com/medledger/tokenledger/internal/ledger/domain"
)

// mysqlDuplicateEntry is the MySQL error number for unique key violations.
const mysqlDuplicateEntry = 1062

// MySQLTokenRecordRepository implements TokenRecord persistence for MySQL.
// Fingerprints are stored as BINARY(32) and token numbers as BIGINT UNSIGNED.
type MySQLTokenRecordRepository struct {
	db *sql.DB
}

// NewMySQLTokenRecordRepository creates a new MySQL TokenRecord repository.
func NewMySQLTokenRecordRepository(db *sql.DB) *MySQLTokenRecordRepository {
	return &MySQLTokenRecordRepository{db: db}
}

// Create inserts a record. A duplicate primary key yields domain.ErrDuplicateHash.
func (m *MySQLTokenRecordRepository) Create(ctx context.Context, record *domain.TokenRecord) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO token_records (pdf_hash, doctor_hash, patient_hash, token_number, metadata, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.PDFHash,
		record.DoctorHash,
		record.PatientHash,
		record.TokenNumber,
		record.Metadata,
		record.Timestamp,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return domain.ErrDuplicateHash
		}
		return apperrors.Wrap(err, "failed to create token record")
	}

	return nil
}

// Get retrieves the record stored for pdfHash or domain.ErrTokenRecordNotFound.
func (m *MySQLTokenRecordRepository) Get(
	ctx context.Context,
	pdfHash domain.Fingerprint,
) (*domain.TokenRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT pdf_hash, doctor_hash, patient_hash, token_number, metadata, created_at
			  FROM token_records
			  WHERE pdf_hash = ?`

	var record domain.TokenRecord

	err := querier.QueryRowContext(ctx, query, pdfHash).Scan(
		&record.PDFHash,
		&record.DoctorHash,
		&record.PatientHash,
		&record.TokenNumber,
		&record.Metadata,
		&record.Timestamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get token record")
	}

	record.Timestamp = record.Timestamp.UTC()
	record.Exists = true

	return &record, nil
}

// Count returns the number of stored records.
func (m *MySQLTokenRecordRepository) Count(ctx context.Context) (uint64, error) {
	querier := database.GetTx(ctx, m.db)

	var count uint64
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM token_records`).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count token records")
	}

	return count, nil
}
