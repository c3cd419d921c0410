// Package domain defines anchors: the subset of a token record published to an external
// immutable ledger, and the receipts publishers hand back.
package domain

import (
	"time"

	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
)

// EventTypeAnchorRequested is the outbox event type written when a token is stored.
const EventTypeAnchorRequested = "anchor.requested"

// AnchorType tags published anchors so consumers can tell them apart from other payloads.
const AnchorType = "consultation_token_pdf_hash"

// Anchor is the payload published for a stored token record.
type Anchor struct {
	Type        string                   `json:"type"`
	PDFHash     ledgerDomain.Fingerprint `json:"pdf_hash"`
	DoctorHash  ledgerDomain.Fingerprint `json:"doctor_hash"`
	PatientHash ledgerDomain.Fingerprint `json:"patient_hash"`
	TokenNumber uint64                   `json:"token_number"`
	Timestamp   time.Time                `json:"timestamp"`
}

// FromRecord builds the anchor of a stored record.
func FromRecord(record *ledgerDomain.TokenRecord) Anchor {
	return Anchor{
		Type:        AnchorType,
		PDFHash:     record.PDFHash,
		DoctorHash:  record.DoctorHash,
		PatientHash: record.PatientHash,
		TokenNumber: record.TokenNumber,
		Timestamp:   record.Timestamp,
	}
}

// Receipt is a publisher's acknowledgement of an anchor.
type Receipt struct {
	PDFHash ledgerDomain.Fingerprint
	// Publisher is the name of the publisher that accepted the anchor.
	Publisher string
	// Reference locates the anchor in the external ledger (message id, journal sequence).
	Reference  string
	AnchoredAt time.Time
}
