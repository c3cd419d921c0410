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

// OwnershipHandler handles the owner-gated administration endpoints.
type OwnershipHandler struct {
	ownershipUseCase ledgerUseCase.OwnershipUseCase
	logger           *slog.Logger
}

// NewOwnershipHandler creates a new ownership handler with required dependencies.
func NewOwnershipHandler(ownershipUseCase ledgerUseCase.OwnershipUseCase, logger *slog.Logger) *OwnershipHandler {
	return &OwnershipHandler{
		ownershipUseCase: ownershipUseCase,
		logger:           logger,
	}
}

// TransferHandler hands the ledger to a new owner.
// POST /v1/ownership/transfer - the X-Caller-Identity header must name the current owner.
// Returns 200 OK with the new owner, 403 unauthorized for any other caller and
// 400 invalid_target for an empty new owner.
func (h *OwnershipHandler) TransferHandler(c *gin.Context) {
	var req dto.TransferOwnershipRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	owner, err := h.ownershipUseCase.TransferOwnership(
		c.Request.Context(),
		httputil.CallerIdentity(c),
		req.NewOwner,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOwnerToResponse(owner))
}

// GetHandler returns the current owner.
// GET /v1/ownership
func (h *OwnershipHandler) GetHandler(c *gin.Context) {
	owner, err := h.ownershipUseCase.GetOwner(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOwnerToResponse(owner))
}

// TransfersHandler returns the ownership history, oldest first.
// GET /v1/ownership/transfers
func (h *OwnershipHandler) TransfersHandler(c *gin.Context) {
	transfers, err := h.ownershipUseCase.ListTransfers(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOwnershipTransfersToListResponse(transfers))
}
