package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/medledger/tokenledger/internal/database"
	apperrors "github.com/medledger/tokenledger/internal/errors"
	"github.com/medledger/tokenledger/internal/ledger/domain"
)

// MySQLVerificationEventRepository implements the append-only verification log for MySQL.
// Event ids are stored as BINARY(16).
type MySQLVerificationEventRepository struct {
	db *sql.DB
}

// NewMySQLVerificationEventRepository creates a new MySQL verification event repository.
func NewMySQLVerificationEventRepository(db *sql.DB) *MySQLVerificationEventRepository {
	return &MySQLVerificationEventRepository{db: db}
}

// Create appends an event. Unsigned events store a NULL signature.
func (m *MySQLVerificationEventRepository) Create(
	ctx context.Context,
	event *domain.VerificationEvent,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal verification event id")
	}

	query := `INSERT INTO verification_events (id, pdf_hash, verifier, found, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLVerificationEventRepository) List(
	ctx context.Context,
	filter domain.VerificationFilter,
	offset, limit int,
) ([]*domain.VerificationEvent, error) {
	querier := database.GetTx(ctx, m.db)

	var (
		rows *sql.Rows
		err  error
	)
	if filter.PDFHash.IsZero() {
		query := `SELECT id, pdf_hash, verifier, found, signature, created_at
				  FROM verification_events
				  ORDER BY id DESC
				  LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	} else {
		query := `SELECT id, pdf_hash, verifier, found, signature, created_at
				  FROM verification_events
				  WHERE pdf_hash = ?
				  ORDER BY id DESC
				  LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, filter.PDFHash, limit, offset)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list verification events")
	}

	return scanMySQLVerificationEvents(rows)
}

// ListBefore returns up to limit events with an id below before, newest first. BINARY(16)
// compares bytewise, which for UUIDv7 is append order.
func (m *MySQLVerificationEventRepository) ListBefore(
	ctx context.Context,
	before uuid.UUID,
	limit int,
) ([]*domain.VerificationEvent, error) {
	querier := database.GetTx(ctx, m.db)

	cursor, err := before.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal verification event id")
	}

	query := `SELECT id, pdf_hash, verifier, found, signature, created_at
			  FROM verification_events
			  WHERE id < ?
			  ORDER BY id DESC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, cursor, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list verification events")
	}

	return scanMySQLVerificationEvents(rows)
}

func scanMySQLVerificationEvents(rows *sql.Rows) ([]*domain.VerificationEvent, error) {
	defer func() {
		_ = rows.Close()
	}()

	events := make([]*domain.VerificationEvent, 0)
	for rows.Next() {
		var event domain.VerificationEvent
		var id []byte

		err := rows.Scan(
			&id,
			&event.PDFHash,
			&event.Verifier,
			&event.Found,
			&event.Signature,
			&event.Timestamp,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan verification event")
		}
		if err := event.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal verification event id")
		}
		event.Timestamp = event.Timestamp.UTC()

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate verification events")
	}

	return events, nil
}
