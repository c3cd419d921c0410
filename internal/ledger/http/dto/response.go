package dto

import (
	"time"

	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
)

// fingerprintText renders the absent marker as an empty string.
func fingerprintText(f ledgerDomain.Fingerprint) string {
	if f.IsZero() {
		return ""
	}
	return f.String()
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// TokenRecordResponse represents a token record in API responses. Absent records have
// exists=false and empty fields.
type TokenRecordResponse struct {
	PDFHash     string     `json:"pdf_hash"`
	DoctorHash  string     `json:"doctor_hash"`
	PatientHash string     `json:"patient_hash"`
	TokenNumber uint64     `json:"token_number"`
	Metadata    string     `json:"metadata"`
	Timestamp   *time.Time `json:"timestamp"`
	Exists      bool       `json:"exists"`
}

// MapTokenRecordToResponse converts a domain token record to an API response.
func MapTokenRecordToResponse(record *ledgerDomain.TokenRecord) TokenRecordResponse {
	return TokenRecordResponse{
		PDFHash:     fingerprintText(record.PDFHash),
		DoctorHash:  fingerprintText(record.DoctorHash),
		PatientHash: fingerprintText(record.PatientHash),
		TokenNumber: record.TokenNumber,
		Metadata:    record.Metadata,
		Timestamp:   timePtr(record.Timestamp),
		Exists:      record.Exists,
	}
}

// VerificationResponse is the answer to a verification query.
type VerificationResponse struct {
	Exists      bool       `json:"exists"`
	Timestamp   *time.Time `json:"timestamp"`
	TokenNumber uint64     `json:"token_number"`
}

// MapVerificationResultToResponse converts a verification result to an API response.
func MapVerificationResultToResponse(result *ledgerDomain.VerificationResult) VerificationResponse {
	return VerificationResponse{
		Exists:      result.Exists,
		Timestamp:   timePtr(result.Timestamp),
		TokenNumber: result.TokenNumber,
	}
}

// DocumentVerificationResponse adds the computed document fingerprint to the verification answer.
type DocumentVerificationResponse struct {
	PDFHash string `json:"pdf_hash"`
	VerificationResponse
}

// MapDocumentVerificationToResponse converts a document verification to an API response.
func MapDocumentVerificationToResponse(result *ledgerDomain.DocumentVerification) DocumentVerificationResponse {
	return DocumentVerificationResponse{
		PDFHash:              result.PDFHash.String(),
		VerificationResponse: MapVerificationResultToResponse(&result.VerificationResult),
	}
}

// TokenListResponse lists pdf hashes in index order.
type TokenListResponse struct {
	Data []string `json:"data"`
}

// MapFingerprintsToListResponse returns an empty list instead of null when there are no items.
func MapFingerprintsToListResponse(hashes []ledgerDomain.Fingerprint) TokenListResponse {
	items := make([]string, 0, len(hashes))
	for _, hash := range hashes {
		items = append(items, hash.String())
	}
	return TokenListResponse{Data: items}
}

// StatsResponse summarizes the ledger.
type StatsResponse struct {
	TotalTokens uint64 `json:"total_tokens"`
	Owner       string `json:"owner"`
}

// MapStatsToResponse converts ledger stats to an API response.
func MapStatsToResponse(stats *ledgerDomain.Stats) StatsResponse {
	return StatsResponse{TotalTokens: stats.TotalTokens, Owner: stats.Owner}
}

// OwnerResponse represents the ledger owner.
type OwnerResponse struct {
	Owner     string    `json:"owner"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MapOwnerToResponse converts the domain owner to an API response.
func MapOwnerToResponse(owner *ledgerDomain.Owner) OwnerResponse {
	return OwnerResponse{Owner: owner.Identity, UpdatedAt: owner.UpdatedAt}
}

// VerificationEventResponse represents a verification log entry.
type VerificationEventResponse struct {
	ID        string    `json:"id"`
	PDFHash   string    `json:"pdf_hash"`
	Verifier  string    `json:"verifier"`
	Found     bool      `json:"found"`
	Signed    bool      `json:"signed"`
	Timestamp time.Time `json:"timestamp"`
}

// MapVerificationEventToResponse converts a verification event to an API response.
func MapVerificationEventToResponse(event *ledgerDomain.VerificationEvent) VerificationEventResponse {
	return VerificationEventResponse{
		ID:        event.ID.String(),
		PDFHash:   event.PDFHash.String(),
		Verifier:  event.Verifier,
		Found:     event.Found,
		Signed:    event.IsSigned(),
		Timestamp: event.Timestamp,
	}
}

// ListVerificationsResponse represents a page of the verification log. NextOffset is
// omitted on the last page.
type ListVerificationsResponse struct {
	Data       []VerificationEventResponse `json:"data"`
	NextOffset *int                        `json:"next_offset,omitempty"`
}

// MapVerificationEventsToListResponse returns an empty list instead of null when there are no items.
func MapVerificationEventsToListResponse(
	events []*ledgerDomain.VerificationEvent,
	nextOffset *int,
) ListVerificationsResponse {
	items := make([]VerificationEventResponse, 0, len(events))
	for _, event := range events {
		items = append(items, MapVerificationEventToResponse(event))
	}
	return ListVerificationsResponse{Data: items, NextOffset: nextOffset}
}

// OwnershipTransferResponse represents an entry of the ownership history.
type OwnershipTransferResponse struct {
	PreviousOwner string    `json:"previous_owner"`
	NewOwner      string    `json:"new_owner"`
	TransferredAt time.Time `json:"transferred_at"`
}

// ListOwnershipTransfersResponse represents the ownership history, oldest first.
type ListOwnershipTransfersResponse struct {
	Data []OwnershipTransferResponse `json:"data"`
}

// MapOwnershipTransfersToListResponse returns an empty list instead of null when there are no items.
func MapOwnershipTransfersToListResponse(
	transfers []*ledgerDomain.OwnershipTransfer,
) ListOwnershipTransfersResponse {
	items := make([]OwnershipTransferResponse, 0, len(transfers))
	for _, transfer := range transfers {
		items = append(items, OwnershipTransferResponse{
			PreviousOwner: transfer.PreviousOwner,
			NewOwner:      transfer.NewOwner,
			TransferredAt: transfer.TransferredAt,
		})
	}
	return ListOwnershipTransfersResponse{Data: items}
}
