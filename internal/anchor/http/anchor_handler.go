// Package http provides HTTP handlers for anchor receipts.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medledger/tokenledger/internal/anchor/http/dto"
	anchorUseCase "github.com/medledger/tokenledger/internal/anchor/usecase"
	"github.com/medledger/tokenledger/internal/httputil"
	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
)

// AnchorHandler serves anchor receipts.
type AnchorHandler struct {
	anchorUseCase anchorUseCase.AnchorUseCase
	logger        *slog.Logger
}

// NewAnchorHandler creates a new anchor handler.
func NewAnchorHandler(anchorUseCase anchorUseCase.AnchorUseCase, logger *slog.Logger) *AnchorHandler {
	return &AnchorHandler{
		anchorUseCase: anchorUseCase,
		logger:        logger,
	}
}

// ListHandler returns the anchor receipts of a token record.
// GET /v1/tokens/:pdf_hash/anchors
// Returns 200 OK with an empty list for records that have not been anchored yet.
func (h *AnchorHandler) ListHandler(c *gin.Context) {
	pdfHash, err := ledgerDomain.ParseFingerprint(c.Param("pdf_hash"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	receipts, err := h.anchorUseCase.ListReceipts(c.Request.Context(), pdfHash)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapReceiptsToListResponse(pdfHash.String(), receipts))
}
