package domain

import (
	"time"
)

// TokenRecord is an immutable entry binding a document fingerprint to the issuing doctor,
// the subject patient and the issuance metadata. Records are never updated or deleted.
type TokenRecord struct {
	// PDFHash is the fingerprint of the token document and the record key.
	PDFHash Fingerprint
	// DoctorHash is the fingerprint of the issuing doctor identity.
	DoctorHash Fingerprint
	// PatientHash is the fingerprint of the patient identity.
	PatientHash Fingerprint
	// TokenNumber is the caller supplied per-doctor sequence number, stored verbatim.
	TokenNumber uint64
	// Metadata is an opaque caller supplied string.
	Metadata string
	// Timestamp is assigned by the ledger when the record is inserted.
	Timestamp time.Time
	// Exists is false for the absent record returned on lookup misses.
	Exists bool
}

// StoreTokenInput carries the caller supplied fields of a new record.
type StoreTokenInput struct {
	PDFHash     Fingerprint
	DoctorHash  Fingerprint
	PatientHash Fingerprint
	TokenNumber uint64
	Metadata    string
}

// Validate checks the fingerprints and the metadata bound. maxMetadataBytes <= 0 disables
// the metadata check.
func (in StoreTokenInput) Validate(maxMetadataBytes int) error {
	if in.PDFHash.IsZero() || in.DoctorHash.IsZero() || in.PatientHash.IsZero() {
		return ErrInvalidFingerprint
	}
	if maxMetadataBytes > 0 && len(in.Metadata) > maxMetadataBytes {
		return ErrMetadataTooLarge
	}
	return nil
}

// Record builds the record to insert with the given timestamp.
func (in StoreTokenInput) Record(ts time.Time) *TokenRecord {
	return &TokenRecord{
		PDFHash:     in.PDFHash,
		DoctorHash:  in.DoctorHash,
		PatientHash: in.PatientHash,
		TokenNumber: in.TokenNumber,
		Metadata:    in.Metadata,
		Timestamp:   ts,
		Exists:      true,
	}
}

// Stats summarizes the ledger.
type Stats struct {
	TotalTokens uint64
	Owner       string
}

// IndexKind names a secondary index.
type IndexKind string

const (
	// DoctorIndex maps doctor fingerprints to pdf hashes.
	DoctorIndex IndexKind = "doctor"
	// PatientIndex maps patient fingerprints to pdf hashes.
	PatientIndex IndexKind = "patient"
)
