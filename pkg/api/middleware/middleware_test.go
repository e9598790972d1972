package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func TestRateLimiter_Allow(t *testing.T) {
	limiter := NewRateLimiter(10, 10, nil)
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		assert.True(t, limiter.Allow("192.168.1.1"), "request %d", i+1)
	}
	assert.False(t, limiter.Allow("192.168.1.1"), "burst exceeded")
	assert.True(t, limiter.Allow("192.168.1.2"), "each client has its own bucket")
	assert.Equal(t, 2, limiter.LimiterCount())
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewRateLimiter(10, 10, nil)
	defer limiter.Stop()

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.2")

	limiter.CleanupLimiters(time.Now().Add(-time.Hour))
	assert.Equal(t, 2, limiter.LimiterCount(), "recently used clients are kept")

	limiter.CleanupLimiters(time.Now().Add(time.Second))
	assert.Equal(t, 0, limiter.LimiterCount())
}

func TestRateLimiter_Concurrent(t *testing.T) {
	limiter := NewRateLimiter(100, 100, nil)
	defer limiter.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow("10.0.0.1") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"remote addr", func(r *http.Request) { r.RemoteAddr = "192.168.1.100:12345" }},
		{"x-forwarded-for", func(r *http.Request) { r.Header.Set("X-Forwarded-For", "203.0.113.195, 10.0.0.1") }},
		{"x-real-ip", func(r *http.Request) { r.Header.Set("X-Real-IP", "198.51.100.178") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := NewRateLimiter(1, 1, zap.NewNop())
			defer limiter.Stop()
			handler := limiter.Middleware(http.HandlerFunc(okHandler))

			req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)

			req = httptest.NewRequest(http.MethodPost, "/graphql", nil)
			tt.setup(req)
			rec = httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			assert.JSONEq(t, `{"errors":[{"message":"Too many requests."}]}`, rec.Body.String())
		})
	}
}

func TestExtractClientIP_IgnoresMalformedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:5000"
	req.Header.Set("X-Forwarded-For", "not-an-ip")
	req.Header.Set("X-Real-IP", "also bad")

	assert.Equal(t, "10.1.1.1", extractClientIP(req))
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "boom")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panic recovered", logs.All()[0].Message)
}

func TestRecovery_PassesThrough(t *testing.T) {
	handler := Recovery(zap.NewNop())(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	abort := Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.Panics(t, func() {
		abort.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestLoggerWithLevel(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  zapcore.Level
	}{
		{"2xx success", http.StatusOK, zapcore.InfoLevel},
		{"4xx client error", http.StatusBadRequest, zapcore.WarnLevel},
		{"5xx server error", http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			handler := middleware.RequestID(LoggerWithLevel(zap.New(core))(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				}),
			))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", nil))

			assert.Equal(t, tt.status, rec.Code)
			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, int64(tt.status), entry.ContextMap()["status"])
			assert.NotEmpty(t, entry.ContextMap()["request_id"])
		})
	}
}

func TestLoggerWithLevel_ImplicitOK(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := LoggerWithLevel(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("body without explicit header"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(http.StatusOK), logs.All()[0].ContextMap()["status"])
}

func TestCORS(t *testing.T) {
	t.Run("allowed origin", func(t *testing.T) {
		handler := CORS([]string{"https://explorer.example"})(http.HandlerFunc(okHandler))

		req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
		req.Header.Set("Origin", "https://explorer.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "https://explorer.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other origin", func(t *testing.T) {
		handler := CORS([]string{"https://explorer.example"})(http.HandlerFunc(okHandler))

		req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard preflight", func(t *testing.T) {
		handler := CORS([]string{"*"})(http.HandlerFunc(okHandler))

		req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
		req.Header.Set("Origin", "https://anything.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://anything.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
