package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	anchorHTTP "github.com/medledger/tokenledger/internal/anchor/http"
	"github.com/medledger/tokenledger/internal/config"
	ledgerHTTP "github.com/medledger/tokenledger/internal/ledger/http"
	"github.com/medledger/tokenledger/internal/metrics"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestServer creates a test server without a database.
func createTestServer() *Server {
	return NewServer(nil, "localhost", 8080, discardLogger())
}

// createRoutedServer wires the full route table. The handlers have no use cases, so only
// requests rejected before reaching them can be served.
func createRoutedServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	server := createTestServer()
	t.Cleanup(server.cancel)

	logger := discardLogger()
	server.SetupRouter(
		cfg,
		ledgerHTTP.NewTokenHandler(nil, 4096, logger),
		ledgerHTTP.NewVerificationHandler(nil, 1024, logger),
		ledgerHTTP.NewOwnershipHandler(nil, logger),
		anchorHTTP.NewAnchorHandler(nil, logger),
		nil,
	)
	return server
}

func TestHealthHandler(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	server.healthHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Run("not ready without database", func(t *testing.T) {
		server := createTestServer()

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

		server.readinessHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "not_ready", response["status"])

		components, ok := response["components"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "error", components["database"])
	})

	t.Run("ready when ping succeeds", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
		}()
		mock.ExpectPing()

		server := NewServer(db, "localhost", 8080, discardLogger())

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

		server.readinessHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready","components":{"database":"ok"}}`, w.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCustomLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(logger))
	router.GET("/v1/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"total_tokens": 2})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/v1/stats", entry["path"])
	assert.EqualValues(t, http.StatusOK, entry["status"])
	assert.Equal(t, w.Header().Get("X-Request-Id"), entry["request_id"])
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(discardLogger()))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSetupRouter(t *testing.T) {
	cfg := &config.Config{LogLevel: "info"}
	server := createRoutedServer(t, cfg)
	handler := server.GetHandler()

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"ready without database", http.MethodGet, "/ready", http.StatusServiceUnavailable},
		{"get token with bad hash", http.MethodGet, "/v1/tokens/nothex", http.StatusUnprocessableEntity},
		{"verify with bad hash", http.MethodPost, "/v1/tokens/nothex/verify", http.StatusUnprocessableEntity},
		{"anchors with bad hash", http.MethodGet, "/v1/tokens/nothex/anchors", http.StatusUnprocessableEntity},
		{"doctor tokens with bad hash", http.MethodGet, "/v1/doctors/nothex/tokens", http.StatusUnprocessableEntity},
		{"patient tokens with bad hash", http.MethodGet, "/v1/patients/nothex/tokens", http.StatusUnprocessableEntity},
		{"store with malformed body", http.MethodPost, "/v1/tokens", http.StatusBadRequest},
		{"transfer with malformed body", http.MethodPost, "/v1/ownership/transfer", http.StatusBadRequest},
		{"verifications with bad limit", http.MethodGet, "/v1/verifications?limit=abc", http.StatusBadRequest},
		{"metrics not on api port", http.MethodGet, "/metrics", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/nonexistent", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Content-Type", "application/json")
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}

	t.Run("request id header", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		parsed, err := uuid.Parse(w.Header().Get("X-Request-Id"))
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
	})
}

func TestSetupRouter_RateLimited(t *testing.T) {
	cfg := &config.Config{LogLevel: "info", RateLimitEnabled: true, RateLimitRequestsPerSec: 0.1, RateLimitBurst: 1}
	handler := createRoutedServer(t, cfg).GetHandler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestServer_ShutdownGracefully(t *testing.T) {
	server := NewServer(nil, "127.0.0.1", 0, discardLogger())
	server.SetupRouter(
		&config.Config{LogLevel: "info"},
		ledgerHTTP.NewTokenHandler(nil, 4096, discardLogger()),
		ledgerHTTP.NewVerificationHandler(nil, 1024, discardLogger()),
		ledgerHTTP.NewOwnershipHandler(nil, discardLogger()),
		nil,
		nil,
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(context.Background())
	}()

	time.Sleep(100 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(shutdownCtx))

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestMetricsServer_Endpoints(t *testing.T) {
	provider, err := metrics.NewProvider("tokenledger_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), provider)
	require.NotNil(t, metricsServer)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestMetricsServer_OnlyServesMetricsPath(t *testing.T) {
	provider, err := metrics.NewProvider("tokenledger_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("127.0.0.1", 9091, discardLogger(), provider)
	assert.Equal(t, "127.0.0.1:9091", metricsServer.Addr())

	for _, path := range []string{"/", "/health", "/v1/stats"} {
		w := httptest.NewRecorder()
		metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}
