package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Pagination bounds.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Page is an offset/limit window over a list ordered by the repository.
type Page struct {
	Offset int
	Limit  int
}

// NextOffset returns the offset of the following page, or nil when a page of returned
// items shows the list is exhausted. A full page may still be the last one; the next
// request then comes back empty.
func (p Page) NextOffset(returned int) *int {
	if returned < p.Limit {
		return nil
	}
	next := p.Offset + returned
	return &next
}

// ParsePage reads the offset and limit query parameters. Offset defaults to 0 and limit to
// DefaultLimit; limit must be within [1, MaxLimit].
func ParsePage(c *gin.Context) (Page, error) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return Page{}, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if err != nil || limit < 1 || limit > MaxLimit {
		return Page{}, fmt.Errorf("invalid limit parameter: must be between 1 and %d", MaxLimit)
	}

	return Page{Offset: offset, Limit: limit}, nil
}
