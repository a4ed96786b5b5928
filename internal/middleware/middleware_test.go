package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "gastos/internal/errors"
	"gastos/internal/logger"
	"gastos/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequestLogging(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())

	var gotID, gotSource string
	r.GET("/ping", func(c *gin.Context) {
		gotID = RequestID(c)
		gotSource = services.SourceFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})

	rec := serve(r, http.MethodGet, "/ping", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID header")
	}
	if gotID != rec.Header().Get("X-Request-ID") {
		t.Errorf("expected context request ID %q, got %q", rec.Header().Get("X-Request-ID"), gotID)
	}
	if gotSource != services.SourceAPI {
		t.Errorf("expected source %q, got %q", services.SourceAPI, gotSource)
	}

	rec = serve(r, http.MethodGet, "/ping", http.Header{"X-Request-Id": {"abc-123"}})
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected propagated request ID, got %q", got)
	}
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperrors.Wrap(apperrors.ErrStore, errors.New("disk full")))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})
	r.GET("/written", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{"code": "DUPLICATE_CATEGORY"}})
		_ = c.Error(apperrors.ErrDuplicateCategory)
	})

	rec := serve(r, http.MethodGet, "/app", nil)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "STORE_FAULT") {
		t.Errorf("unexpected app error response %d %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "disk full") {
		t.Error("internal error details leaked")
	}

	rec = serve(r, http.MethodGet, "/plain", nil)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "INTERNAL_ERROR") {
		t.Errorf("unexpected plain error response %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(r, http.MethodGet, "/written", nil)
	if rec.Code != http.StatusConflict || strings.Count(rec.Body.String(), "error") != 1 {
		t.Errorf("expected the handler's response untouched, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(r, http.MethodOptions, "/x", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header")
	}
}
