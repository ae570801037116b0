package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// =============================================================================
// Security Headers
// =============================================================================

func TestSecurityHeadersMiddleware_SetsHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	NewSecurityHeadersMiddleware(false).Handler(okHandler()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Contains(t, rec.Header().Get("Permissions-Policy"), "camera=()")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeadersMiddleware_HSTSInProduction(t *testing.T) {
	rec := httptest.NewRecorder()
	NewSecurityHeadersMiddleware(true).Handler(okHandler()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate-email", nil))

	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}

// =============================================================================
// CORS
// =============================================================================

func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	mw := NewCORSMiddleware([]string{"https://app.example.com/", " "})

	req := httptest.NewRequest(http.MethodGet, "/api/templates", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Retry-After")
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORSMiddleware_UnknownOrigin(t *testing.T) {
	mw := NewCORSMiddleware([]string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/templates", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	mw := NewCORSMiddleware([]string{"*"})

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodOptions, "/api/generate-email", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	mw.Handler(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called, "preflight must not reach the handler")
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORSMiddleware_NoOriginPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	NewCORSMiddleware([]string{"*"}).Handler(okHandler()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
