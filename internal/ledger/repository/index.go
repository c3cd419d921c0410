package repository

import (
	"database/sql"
	"fmt"

	apperrors "github.com/medledger/tokenledger/internal/errors"
	"github.com/medledger/tokenledger/internal/ledger/domain"
)

// indexTable returns the entry table of an index kind.
func indexTable(kind domain.IndexKind) (string, error) {
	switch kind {
	case domain.DoctorIndex:
		return "doctor_token_index", nil
	case domain.PatientIndex:
		return "patient_token_index", nil
	default:
		return "", fmt.Errorf("unknown index kind %q", kind)
	}
}

// scanFingerprints reads a single fingerprint column. The result is never nil.
func scanFingerprints(rows *sql.Rows) ([]domain.Fingerprint, error) {
	hashes := make([]domain.Fingerprint, 0)
	for rows.Next() {
		var hash domain.Fingerprint
		if err := rows.Scan(&hash); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan index entry")
		}
		hashes = append(hashes, hash)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate index entries")
	}

	return hashes, nil
}
