// Package dto provides data transfer objects for the anchor HTTP API.
package dto

import (
	"time"

	"github.com/medledger/tokenledger/internal/anchor/domain"
)

// ReceiptResponse is one publisher's acknowledgement of an anchored record.
type ReceiptResponse struct {
	Publisher  string    `json:"publisher"`
	Reference  string    `json:"reference"`
	AnchoredAt time.Time `json:"anchored_at"`
}

// ListReceiptsResponse lists the anchor receipts of a record.
type ListReceiptsResponse struct {
	PDFHash string            `json:"pdf_hash"`
	Data    []ReceiptResponse `json:"data"`
}

// MapReceiptsToListResponse converts receipts to the list response.
func MapReceiptsToListResponse(pdfHash string, receipts []*domain.Receipt) ListReceiptsResponse {
	data := make([]ReceiptResponse, 0, len(receipts))
	for _, receipt := range receipts {
		data = append(data, ReceiptResponse{
			Publisher:  receipt.Publisher,
			Reference:  receipt.Reference,
			AnchoredAt: receipt.AnchoredAt,
		})
	}

	return ListReceiptsResponse{PDFHash: pdfHash, Data: data}
}
