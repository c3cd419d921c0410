package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsRouter(middleware gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	if middleware != nil {
		router.Use(middleware)
	}
	router.POST("/v1/tokens", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"status": "ok"})
	})
	return router
}

func TestCreateCORSMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("disabled returns nil", func(t *testing.T) {
		assert.Nil(t, createCORSMiddleware(false, "https://registry.example.org", logger))
	})

	t.Run("enabled without origins returns nil", func(t *testing.T) {
		assert.Nil(t, createCORSMiddleware(true, "", logger))
		assert.Nil(t, createCORSMiddleware(true, " , ", logger))
	})

	t.Run("wildcard only returns nil", func(t *testing.T) {
		assert.Nil(t, createCORSMiddleware(true, "*", logger))
	})

	t.Run("enabled with origins", func(t *testing.T) {
		assert.NotNil(t, createCORSMiddleware(true, "https://registry.example.org, https://audit.example.org", logger))
	})
}

func TestParseOrigins(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		origins, rejected := parseOrigins("")
		assert.Nil(t, origins)
		assert.Nil(t, rejected)
	})

	t.Run("trims whitespace and trailing slash", func(t *testing.T) {
		origins, rejected := parseOrigins(" https://registry.example.org/ ,https://audit.example.org,")
		assert.Equal(t, []string{"https://registry.example.org", "https://audit.example.org"}, origins)
		assert.Nil(t, rejected)
	})

	t.Run("rejects wildcard and non-origins", func(t *testing.T) {
		origins, rejected := parseOrigins("*, registry.example.org, ftp://files.example.org, https://a.example.org/path, http://localhost:3000")
		assert.Equal(t, []string{"http://localhost:3000"}, origins)
		assert.Equal(t, []string{"*", "registry.example.org", "ftp://files.example.org", "https://a.example.org/path"}, rejected)
	})
}

func TestCORSIntegration(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("preflight allows caller identity header", func(t *testing.T) {
		router := corsRouter(createCORSMiddleware(true, "https://registry.example.org", logger))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/v1/tokens", nil)
		req.Header.Set("Origin", "https://registry.example.org")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "X-Caller-Identity")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://registry.example.org", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Caller-Identity")
	})

	t.Run("allowed origin gets headers", func(t *testing.T) {
		router := corsRouter(createCORSMiddleware(true, "https://registry.example.org", logger))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/tokens", nil)
		req.Header.Set("Origin", "https://registry.example.org")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "https://registry.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disabled adds no headers", func(t *testing.T) {
		router := corsRouter(createCORSMiddleware(false, "https://registry.example.org", logger))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/tokens", nil)
		req.Header.Set("Origin", "https://registry.example.org")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
