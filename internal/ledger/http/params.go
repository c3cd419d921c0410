// Package http provides HTTP handlers for the consultation token ledger.
package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/medledger/tokenledger/internal/httputil"
	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
)

// fingerprintParam parses a fingerprint path parameter. On failure the response is written
// and ok is false.
func fingerprintParam(c *gin.Context, name string, logger *slog.Logger) (ledgerDomain.Fingerprint, bool) {
	fp, err := ledgerDomain.ParseFingerprint(c.Param(name))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, logger)
		return ledgerDomain.Fingerprint{}, false
	}
	return fp, true
}
