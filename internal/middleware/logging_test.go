package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestRequestLoggingMiddleware_LogsRequest(t *testing.T) {
	logger, buf := newBufferLogger()
	mw := NewRequestLoggingMiddleware(logger)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/emails", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("User-Agent", "smartmail-test/1.0")
	rec := httptest.NewRecorder()

	mw.Handler(next).ServeHTTP(rec, req)

	out := buf.String()
	assert.Contains(t, out, "method=POST")
	assert.Contains(t, out, "path=/api/emails")
	assert.Contains(t, out, "status=201")
	assert.Contains(t, out, "duration_ms=")
	assert.Contains(t, out, "bytes=11")
	assert.Contains(t, out, "ip=192.168.1.1")
	assert.Contains(t, out, "smartmail-test/1.0")
	assert.Contains(t, out, "level=INFO")
}

func TestRequestLoggingMiddleware_ServerErrorsLogAtWarn(t *testing.T) {
	logger, buf := newBufferLogger()
	mw := NewRequestLoggingMiddleware(logger)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.WriteHeader(http.StatusOK) // superfluous; first status wins
	})

	mw.Handler(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/payments/orders", nil))

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "status=502")
}

func TestRequestLoggingMiddleware_ForwardedClientIP(t *testing.T) {
	logger, buf := newBufferLogger()
	mw := NewRequestLoggingMiddleware(logger)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	mw.Handler(okHandler()).ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "ip=203.0.113.7")
}

func TestRequestLoggingMiddleware_RequestID(t *testing.T) {
	logger, buf := newBufferLogger()
	mw := NewRequestLoggingMiddleware(logger)

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mw.Handler(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plans", nil))

		id := rec.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "request_id="+id)
	})

	t.Run("inbound id reused", func(t *testing.T) {
		inbound := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/api/plans", nil)
		req.Header.Set(RequestIDHeader, inbound)
		rec := httptest.NewRecorder()
		mw.Handler(okHandler()).ServeHTTP(rec, req)

		assert.Equal(t, inbound, rec.Header().Get(RequestIDHeader))
	})

	t.Run("malformed id replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/plans", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		rec := httptest.NewRecorder()
		mw.Handler(okHandler()).ServeHTTP(rec, req)

		assert.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))
	})
}

func TestRequestLoggingMiddleware_SkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			logger, buf := newBufferLogger()
			rec := httptest.NewRecorder()
			NewRequestLoggingMiddleware(logger).Handler(okHandler()).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, buf.String())
		})
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		rawQuery string
		want     string
	}{
		{"no query", "/api/emails", "", "/api/emails"},
		{"safe params kept", "/api/emails", "limit=10&offset=20", "/api/emails?limit=10&offset=20"},
		{"token redacted", "/api/profile", "token=abc123", "/api/profile?token=[REDACTED]"},
		{"signature redacted", "/api/payments/verify", "SIGNATURE=deadbeef&x=1", "/api/payments/verify?SIGNATURE=[REDACTED]&x=1"},
		{"bare params dropped", "/api/templates", "popular", "/api/templates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizePath(tt.path, tt.rawQuery))
		})
	}
}
