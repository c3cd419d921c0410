package httputil

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// CallerIdentityHeader carries the identity established by the upstream identity layer.
// The ledger trusts it as-is and performs no authentication of its own.
const CallerIdentityHeader = "X-Caller-Identity"

// CallerIdentity returns the trimmed caller identity of the request ("" when absent).
func CallerIdentity(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(CallerIdentityHeader))
}
