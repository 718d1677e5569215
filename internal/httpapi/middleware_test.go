package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"gatesphere.dev/internal/obs"
)

func TestRequestIDEchoesClientHeader(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "rid-123")
	h.ServeHTTP(rec, req)

	if seen != "rid-123" {
		t.Fatalf("context request id %q", seen)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "rid-123" {
		t.Fatalf("response header %q", got)
	}
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("no request id generated")
	}
}

func TestLoggingJSONEmitsStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.Logger()
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stdout)

	h := RequestID(LoggingJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/visitors", nil)
	req.Header.Set("X-Request-Id", "rid-log")
	h.ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "http_request" || entry["method"] != http.MethodGet {
		t.Fatalf("entry: %v", entry)
	}
	if entry["path"] != "/api/visitors" || entry["request_id"] != "rid-log" {
		t.Fatalf("entry: %v", entry)
	}
	if entry["status"] != float64(http.StatusTeapot) {
		t.Fatalf("status: %v", entry["status"])
	}
}

func TestSecurityHeadersSet(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("nosniff missing")
	}
	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'") {
		t.Fatalf("csp: %q", rec.Header().Get("Content-Security-Policy"))
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/visitors", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	h.ServeHTTP(rec, req)

	if called {
		t.Fatal("preflight reached handler")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("allow-origin %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCORSRejectsForeignOrigin(t *testing.T) {
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/visitors", nil)
	req.Header.Set("Origin", "https://evil.example")
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("foreign origin allowed")
	}
}

func TestRateLimitReturns429(t *testing.T) {
	h := RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), 2, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/visitors", nil)
	req.RemoteAddr = "198.51.100.7:4242"

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status %d", i, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("Retry-After %q", rec.Header().Get("Retry-After"))
	}

	// A different client keeps its own bucket.
	other := httptest.NewRequest(http.MethodGet, "/api/visitors", nil)
	other.RemoteAddr = "198.51.100.8:4242"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("fresh client status %d", rec.Code)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if ip := clientIP(req); ip != "203.0.113.9" {
		t.Fatalf("ip %q", ip)
	}
	req.Header.Del("X-Forwarded-For")
	if ip := clientIP(req); ip != "10.0.0.1" {
		t.Fatalf("ip %q", ip)
	}
}

func TestExtractBearerToken(t *testing.T) {
	if _, err := extractBearerToken(""); err == nil {
		t.Fatal("token from empty header")
	}
	if _, err := extractBearerToken("Basic abc"); err == nil {
		t.Fatal("token from basic auth")
	}
	tok, err := extractBearerToken("Bearer tok-1")
	if err != nil || tok != "tok-1" {
		t.Fatalf("token %q err=%v", tok, err)
	}
}

func TestIsPublicPath(t *testing.T) {
	for _, p := range []string{"/healthz", "/readyz", "/metrics", "/ws", "/api/otp/send", "/api/otp/verify"} {
		if !isPublicPath(p) {
			t.Fatalf("%s should be public", p)
		}
	}
	for _, p := range []string{"/api/visitors", "/api/otp/send/extra", "/api/audit-logs"} {
		if isPublicPath(p) {
			t.Fatalf("%s should not be public", p)
		}
	}
}
