package middleware

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/friendindeed/friendindeed/internal/config"
	"github.com/friendindeed/friendindeed/internal/identity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	var seen string
	router.GET("/", func(c *gin.Context) {
		seen = c.GetString(RequestIDKey)
		c.Status(http.StatusOK)
	})

	w := performRequest(router, http.MethodGet, "/", nil)

	echoed := w.Header().Get(RequestIDHeader)
	if echoed == "" {
		t.Fatal("expected a generated request ID header")
	}
	if seen != echoed {
		t.Errorf("context ID %q does not match header %q", seen, echoed)
	}
}

func TestRequestID_ReusesInbound(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(router, http.MethodGet, "/", map[string]string{RequestIDHeader: "upstream-id"})

	if got := w.Header().Get(RequestIDHeader); got != "upstream-id" {
		t.Errorf("expected upstream ID to be reused, got %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeaders(APISecurityHeadersConfig()))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(router, http.MethodGet, "/", nil)

	checks := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":           "no-referrer",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	}
	for header, want := range checks {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s: expected %q, got %q", header, want, got)
		}
	}
}

func TestPrincipalMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(Principal())
	router.GET("/", func(c *gin.Context) {
		if p := PrincipalFrom(c); p != nil {
			c.JSON(http.StatusOK, gin.H{"userId": p.UserID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": nil})
	})

	valid := base64.StdEncoding.EncodeToString([]byte(`{"userId":"user-1"}`))

	tests := []struct {
		name     string
		header   string
		wantBody string
	}{
		{"valid principal", valid, `{"userId":"user-1"}`},
		{"absent header", "", `{"userId":null}`},
		{"malformed header treated as anonymous", "not-base64!!!", `{"userId":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers[identity.Header] = tt.header
			}
			w := performRequest(router, http.MethodGet, "/", headers)
			if w.Body.String() != tt.wantBody {
				t.Errorf("expected body %s, got %s", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRequirePrincipal(t *testing.T) {
	router := gin.New()
	router.Use(Principal())
	router.POST("/protected", RequirePrincipal(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := performRequest(router, http.MethodPost, "/protected", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", w.Code)
	}

	valid := base64.StdEncoding.EncodeToString([]byte(`{"userId":"user-1"}`))
	w = performRequest(router, http.MethodPost, "/protected", map[string]string{identity.Header: valid})
	if w.Code != http.StatusNoContent {
		t.Errorf("authenticated: expected 204, got %d", w.Code)
	}
}

func TestMemoryLimiter_EnforcesBurst(t *testing.T) {
	limiter := newMemoryLimiter(60, 3)
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(context.Background(), "ip:1.2.3.4")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d within burst should be allowed", i)
		}
	}
	allowed, _, err := limiter.Allow(context.Background(), "ip:1.2.3.4")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed {
		t.Error("request beyond burst should be denied")
	}

	// Other keys are unaffected.
	allowed, _, _ = limiter.Allow(context.Background(), "ip:5.6.7.8")
	if !allowed {
		t.Error("separate key should have its own bucket")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewLimiter(config.RateLimitingConfig{
		Enabled:           true,
		Backend:           "memory",
		RequestsPerMinute: 60,
		Burst:             2,
	})
	defer limiter.Stop()

	router := gin.New()
	router.Use(RateLimit(limiter, 60))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	headers := map[string]string{"X-Forwarded-For": "9.9.9.9"}
	for i := 0; i < 2; i++ {
		if w := performRequest(router, http.MethodGet, "/", headers); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	w := performRequest(router, http.MethodGet, "/", headers)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst exhausted, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Error("expected Retry-After header on 429")
	}
}
