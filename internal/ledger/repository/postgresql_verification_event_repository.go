package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/medledger/tokenledger/internal/database"
	apperrors "github.com/medledger/tokenledger/internal/errors"
	"github.com/medledger/tokenledger/internal/ledger/domain"
)

// PostgreSQLVerificationEventRepository implements the append-only verification log for PostgreSQL.
type PostgreSQLVerificationEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLVerificationEventRepository creates a new PostgreSQL verification event repository.
func NewPostgreSQLVerificationEventRepository(db *sql.DB) *PostgreSQLVerificationEventRepository {
	return &PostgreSQLVerificationEventRepository{db: db}
}

// Create appends an event. Unsigned events store a NULL signature.
func (p *PostgreSQLVerificationEventRepository) Create(
	ctx context.Context,
	event *domain.VerificationEvent,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO verification_events (id, pdf_hash, verifier, found, signature, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		event.ID,
		event.PDFHash,
		event.Verifier,
		event.Found,
		nullableBytes(event.Signature),
		event.Timestamp,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create verification event")
	}

	return nil
}

// List returns events newest first. A zero filter hash lists every event.
func (p *PostgreSQLVerificationEventRepository) List(
	ctx context.Context,
	filter domain.VerificationFilter,
	offset, limit int,
) ([]*domain.VerificationEvent, error) {
	querier := database.GetTx(ctx, p.db)

	var (
		rows *sql.Rows
		err  error
	)
	if filter.PDFHash.IsZero() {
		query := `SELECT id, pdf_hash, verifier, found, signature, created_at
				  FROM verification_events
				  ORDER BY id DESC
				  LIMIT $1 OFFSET $2`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	} else {
		query := `SELECT id, pdf_hash, verifier, found, signature, created_at
				  FROM verification_events
				  WHERE pdf_hash = $1
				  ORDER BY id DESC
				  LIMIT $2 OFFSET $3`
		rows, err = querier.QueryContext(ctx, query, filter.PDFHash, limit, offset)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list verification events")
	}

	return scanPostgreSQLVerificationEvents(rows)
}

// ListBefore returns up to limit events with an id below before, newest first. Event ids
// are UUIDv7, so id order is append order.
func (p *PostgreSQLVerificationEventRepository) ListBefore(
	ctx context.Context,
	before uuid.UUID,
	limit int,
) ([]*domain.VerificationEvent, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, pdf_hash, verifier, found, signature, created_at
			  FROM verification_events
			  WHERE id < $1
			  ORDER BY id DESC
			  LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, before, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list verification events")
	}

	return scanPostgreSQLVerificationEvents(rows)
}

func scanPostgreSQLVerificationEvents(rows *sql.Rows) ([]*domain.VerificationEvent, error) {
	defer func() {
		_ = rows.Close()
	}()

	events := make([]*domain.VerificationEvent, 0)
	for rows.Next() {
		var event domain.VerificationEvent

		err := rows.Scan(
			&event.ID,
			&event.PDFHash,
			&event.Verifier,
			&event.Found,
			&event.Signature,
			&event.Timestamp,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan verification event")
		}
		event.Timestamp = event.Timestamp.UTC()

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate verification events")
	}

	return events, nil
}

// nullableBytes maps an empty slice to NULL.
func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
