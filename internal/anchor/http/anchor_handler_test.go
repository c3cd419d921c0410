package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/medledger/tokenledger/internal/anchor/domain"
	ledgerDomain "github.com/medledger/tokenledger/internal/ledger/domain"
	outboxDomain "github.com/medledger/tokenledger/internal/outbox/domain"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type mockAnchorUseCase struct {
	mock.Mock
}

func (m *mockAnchorUseCase) Process(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockAnchorUseCase) ListReceipts(
	ctx context.Context,
	pdfHash ledgerDomain.Fingerprint,
) ([]*domain.Receipt, error) {
	args := m.Called(ctx, pdfHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Receipt), args.Error(1)
}

func newRouter(uc *mockAnchorUseCase) *gin.Engine {
	handler := NewAnchorHandler(uc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := gin.New()
	router.GET("/v1/tokens/:pdf_hash/anchors", handler.ListHandler)
	return router
}

func TestAnchorHandler_ListHandler(t *testing.T) {
	pdfHex := strings.Repeat("a1", 32)
	pdf, err := ledgerDomain.ParseFingerprint(pdfHex)
	assert.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		uc := &mockAnchorUseCase{}
		uc.On("ListReceipts", mock.Anything, pdf).Return([]*domain.Receipt{{
			PDFHash:    pdf,
			Publisher:  "journal",
			Reference:  "3",
			AnchoredAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		}}, nil)

		w := httptest.NewRecorder()
		newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/tokens/0x"+pdfHex+"/anchors", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"pdf_hash": "`+pdfHex+`",
			"data": [{"publisher": "journal", "reference": "3", "anchored_at": "2026-03-01T09:00:00Z"}]
		}`, w.Body.String())
	})

	t.Run("Success_NotAnchored", func(t *testing.T) {
		uc := &mockAnchorUseCase{}
		uc.On("ListReceipts", mock.Anything, pdf).Return([]*domain.Receipt{}, nil)

		w := httptest.NewRecorder()
		newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/tokens/"+pdfHex+"/anchors", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"pdf_hash": "`+pdfHex+`", "data": []}`, w.Body.String())
	})

	t.Run("Error_InvalidHash", func(t *testing.T) {
		uc := &mockAnchorUseCase{}

		w := httptest.NewRecorder()
		newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/tokens/xyz/anchors", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		uc.AssertNotCalled(t, "ListReceipts", mock.Anything, mock.Anything)
	})

	t.Run("Error_UseCase", func(t *testing.T) {
		uc := &mockAnchorUseCase{}
		uc.On("ListReceipts", mock.Anything, pdf).Return(nil, errors.New("connection reset"))

		w := httptest.NewRecorder()
		newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/tokens/"+pdfHex+"/anchors", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
