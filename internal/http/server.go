// Package http provides the HTTP server, its middleware and the route table.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	anchorHTTP "github.com/medledger/tokenledger/internal/anchor/http"
	"github.com/medledger/tokenledger/internal/config"
	ledgerHTTP "github.com/medledger/tokenledger/internal/ledger/http"
	"github.com/medledger/tokenledger/internal/metrics"
)

// Server represents the API server.
type Server struct {
	db     *sql.DB
	server *http.Server
	router *gin.Engine
	logger *slog.Logger

	// Stops background work started by middleware.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new API server.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		db:     db,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		server: newHTTPServer(host, port, nil),
	}
}

// SetupRouter builds the route table. anchorHandler may be nil.
func (s *Server) SetupRouter(
	cfg *config.Config,
	tokenHandler *ledgerHTTP.TokenHandler,
	verificationHandler *ledgerHTTP.VerificationHandler,
	ownershipHandler *ledgerHTTP.OwnershipHandler,
	anchorHandler *anchorHTTP.AnchorHandler,
	metricsProvider *metrics.Provider,
) {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.RateLimitEnabled {
		router.Use(RateLimitMiddleware(s.ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	if cfg.MetricsEnabled && metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	{
		tokens := v1.Group("/tokens")
		{
			tokens.POST("", tokenHandler.StoreHandler)
			tokens.GET("/:pdf_hash", tokenHandler.GetHandler)
			tokens.POST("/:pdf_hash/verify", verificationHandler.VerifyHandler)
			if anchorHandler != nil {
				tokens.GET("/:pdf_hash/anchors", anchorHandler.ListHandler)
			}
		}

		v1.POST("/documents/verify", verificationHandler.VerifyDocumentHandler)
		v1.GET("/doctors/:doctor_hash/tokens", tokenHandler.DoctorTokensHandler)
		v1.GET("/patients/:patient_hash/tokens", tokenHandler.PatientTokensHandler)
		v1.GET("/stats", tokenHandler.StatsHandler)
		v1.GET("/verifications", verificationHandler.ListHandler)

		ownership := v1.Group("/ownership")
		{
			ownership.GET("", ownershipHandler.GetHandler)
			ownership.POST("/transfer", ownershipHandler.TransferHandler)
			ownership.GET("/transfers", ownershipHandler.TransfersHandler)
		}
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves requests until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	s.cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.db.PingContext(ctx) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": "ok"},
	})
}
