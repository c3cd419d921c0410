package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medledger/tokenledger/internal/httputil"
	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	"github.com/medledger/tokenledger/internal/ledger/http/dto"
	ledgerUseCase "github.com/medledger/tokenledger/internal/ledger/usecase"
)

// documentFormField is the multipart field carrying the uploaded document.
const documentFormField = "document"

// VerificationHandler handles verification queries and the verification log.
// The verifier identity is read from the X-Caller-Identity header.
type VerificationHandler struct {
	verificationUseCase ledgerUseCase.VerificationUseCase
	documentMaxBytes    int64
	logger              *slog.Logger
}

// NewVerificationHandler creates a new verification handler with required dependencies.
func NewVerificationHandler(
	verificationUseCase ledgerUseCase.VerificationUseCase,
	documentMaxBytes int64,
	logger *slog.Logger,
) *VerificationHandler {
	return &VerificationHandler{
		verificationUseCase: verificationUseCase,
		documentMaxBytes:    documentMaxBytes,
		logger:              logger,
	}
}

// VerifyHandler checks a pdf hash and records who asked, hit or miss.
// POST /v1/tokens/:pdf_hash/verify
// Returns 200 OK with {exists, timestamp, token_number}; 500 audit_write_failed when the
// verification could not be recorded.
func (h *VerificationHandler) VerifyHandler(c *gin.Context) {
	pdfHash, ok := fingerprintParam(c, "pdf_hash", h.logger)
	if !ok {
		return
	}

	result, err := h.verificationUseCase.VerifyTokenHash(
		c.Request.Context(),
		pdfHash,
		httputil.CallerIdentity(c),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVerificationResultToResponse(result))
}

// VerifyDocumentHandler fingerprints an uploaded document and verifies the fingerprint.
// POST /v1/documents/verify
// Accepts the raw document as the request body, or a multipart form with a "document" file.
// Returns 413 when the document exceeds the configured size.
func (h *VerificationHandler) VerifyDocumentHandler(c *gin.Context) {
	if h.documentMaxBytes > 0 {
		if c.Request.ContentLength > h.documentMaxBytes {
			writeDocumentTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.documentMaxBytes)
	}

	document, err := h.openDocument(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDocumentTooLarge(c)
			return
		}
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	defer func() {
		_ = document.Close()
	}()

	result, err := h.verificationUseCase.VerifyDocument(
		c.Request.Context(),
		document,
		httputil.CallerIdentity(c),
	)
	if err != nil {
		// Bodies without a Content-Length only hit the limit while being hashed.
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDocumentTooLarge(c)
			return
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDocumentVerificationToResponse(result))
}

func writeDocumentTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, httputil.ErrorResponse{
		Error:   "request_too_large",
		Message: "document exceeds the maximum allowed size",
	})
}

func (h *VerificationHandler) openDocument(c *gin.Context) (io.ReadCloser, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return c.Request.Body, nil
	}

	header, err := c.FormFile(documentFormField)
	if err != nil {
		return nil, err
	}
	return header.Open()
}

// ListHandler returns a page of the verification log, newest first.
// GET /v1/verifications?pdf_hash=&offset=&limit=
func (h *VerificationHandler) ListHandler(c *gin.Context) {
	page, err := httputil.ParsePage(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var filter ledgerDomain.VerificationFilter
	if raw := c.Query("pdf_hash"); raw != "" {
		filter.PDFHash, err = ledgerDomain.ParseFingerprint(raw)
		if err != nil {
			httputil.HandleValidationErrorGin(c, err, h.logger)
			return
		}
	}

	events, err := h.verificationUseCase.ListVerifications(c.Request.Context(), filter, page.Offset, page.Limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVerificationEventsToListResponse(events, page.NextOffset(len(events))))
}
