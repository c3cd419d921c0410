// Package repository provides PostgreSQL and MySQL persistence for the token ledger.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/medledger/tokenledger/internal/database"
	apperrors "github.com/medledger/tokenledger/internal/errors"
	"github.com/medledger/tokenledger/internal/ledger/domain"
)

// PostgreSQLTokenRecordRepository implements TokenRecord persistence for PostgreSQL.
// Fingerprints are stored as BYTEA and token numbers as NUMERIC(20, 0) so the full
// uint64 range survives lib/pq.
type PostgreSQLTokenRecordRepository struct {
	db *sql.DB
}

// NewPostgreSQLTokenRecordRepository creates a new PostgreSQL TokenRecord repository.
func NewPostgreSQLTokenRecordRepository(db *sql.DB) *PostgreSQLTokenRecordRepository {
	return &PostgreSQLTokenRecordRepository{db: db}
}

// Create inserts a record. A pdf hash that is already stored yields domain.ErrDuplicateHash
// and leaves the existing row untouched.
func (p *PostgreSQLTokenRecordRepository) Create(ctx context.Context, record *domain.TokenRecord) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO token_records (pdf_hash, doctor_hash, patient_hash, token_number, metadata, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (pdf_hash) DO NOTHING`

	result, err := querier.ExecContext(
		ctx,
		query,
		record.PDFHash,
		record.DoctorHash,
		record.PatientHash,
		strconv.FormatUint(record.TokenNumber, 10),
		[]byte(record.Metadata),
		record.Timestamp,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create token record")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return domain.ErrDuplicateHash
	}

	return nil
}

// Get retrieves the record stored for pdfHash or domain.ErrTokenRecordNotFound.
func (p *PostgreSQLTokenRecordRepository) Get(
	ctx context.Context,
	pdfHash domain.Fingerprint,
) (*domain.TokenRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT pdf_hash, doctor_hash, patient_hash, token_number::TEXT, metadata, created_at
			  FROM token_records
			  WHERE pdf_hash = $1`

	var record domain.TokenRecord
	var tokenNumber string
	var metadata []byte

	err := querier.QueryRowContext(ctx, query, pdfHash).Scan(
		&record.PDFHash,
		&record.DoctorHash,
		&record.PatientHash,
		&tokenNumber,
		&metadata,
		&record.Timestamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get token record")
	}

	record.TokenNumber, err = strconv.ParseUint(tokenNumber, 10, 64)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse token number")
	}
	record.Metadata = string(metadata)
	record.Timestamp = record.Timestamp.UTC()
	record.Exists = true

	return &record, nil
}

// Count returns the number of stored records.
func (p *PostgreSQLTokenRecordRepository) Count(ctx context.Context) (uint64, error) {
	querier := database.GetTx(ctx, p.db)

	var count int64
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM token_records`).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count token records")
	}

	return uint64(count), nil
}
