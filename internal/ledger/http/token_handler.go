package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medledger/tokenledger/internal/httputil"
	"github.com/medledger/tokenledger/internal/ledger/http/dto"
	ledgerUseCase "github.com/medledger/tokenledger/internal/ledger/usecase"
	customValidation "github.com/medledger/tokenledger/internal/validation"
)

// TokenHandler handles HTTP requests for the hash registry and its indexes.
type TokenHandler struct {
	ledgerUseCase    ledgerUseCase.LedgerUseCase
	metadataMaxBytes int
	logger           *slog.Logger
}

// NewTokenHandler creates a new token handler with required dependencies.
func NewTokenHandler(
	ledgerUseCase ledgerUseCase.LedgerUseCase,
	metadataMaxBytes int,
	logger *slog.Logger,
) *TokenHandler {
	return &TokenHandler{
		ledgerUseCase:    ledgerUseCase,
		metadataMaxBytes: metadataMaxBytes,
		logger:           logger,
	}
}

// StoreHandler records a new consultation token.
// POST /v1/tokens
// Returns 201 Created with the stored record, or 409 duplicate_hash if the pdf hash is
// already recorded.
func (h *TokenHandler) StoreHandler(c *gin.Context) {
	var req dto.StoreTokenRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(h.metadataMaxBytes); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input, err := req.ToInput()
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	record, err := h.ledgerUseCase.StoreTokenHash(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapTokenRecordToResponse(record))
}

// GetHandler returns the record for a pdf hash.
// GET /v1/tokens/:pdf_hash
// A miss is not an error: returns 200 OK with exists=false.
func (h *TokenHandler) GetHandler(c *gin.Context) {
	pdfHash, ok := fingerprintParam(c, "pdf_hash", h.logger)
	if !ok {
		return
	}

	record, err := h.ledgerUseCase.GetTokenRecord(c.Request.Context(), pdfHash)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTokenRecordToResponse(record))
}

// DoctorTokensHandler lists the pdf hashes issued by a doctor in commit order.
// GET /v1/doctors/:doctor_hash/tokens
func (h *TokenHandler) DoctorTokensHandler(c *gin.Context) {
	doctorHash, ok := fingerprintParam(c, "doctor_hash", h.logger)
	if !ok {
		return
	}

	hashes, err := h.ledgerUseCase.GetDoctorTokens(c.Request.Context(), doctorHash)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapFingerprintsToListResponse(hashes))
}

// PatientTokensHandler lists the pdf hashes issued for a patient in commit order.
// GET /v1/patients/:patient_hash/tokens
func (h *TokenHandler) PatientTokensHandler(c *gin.Context) {
	patientHash, ok := fingerprintParam(c, "patient_hash", h.logger)
	if !ok {
		return
	}

	hashes, err := h.ledgerUseCase.GetPatientTokens(c.Request.Context(), patientHash)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapFingerprintsToListResponse(hashes))
}

// StatsHandler returns the total number of records and the current owner.
// GET /v1/stats
func (h *TokenHandler) StatsHandler(c *gin.Context) {
	stats, err := h.ledgerUseCase.GetStats(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStatsToResponse(stats))
}
