package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestLimiter_Burst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewLimiter(1, 2, time.Minute)
	defer l.Stop()

	r := gin.New()
	r.Use(l.Middleware())
	r.GET("/api/listings", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/bookings", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/listings", nil))
		codes = append(codes, w.Code)
	}
	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("request %d: status = %d, want %d", i, codes[i], want[i])
		}
	}

	// buckets are per route
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings", nil))
	if w.Code != http.StatusOK {
		t.Errorf("other route status = %d, want 200", w.Code)
	}
}

func TestLimiter_EvictIdle(t *testing.T) {
	l := NewLimiter(1, 1, time.Minute)
	defer l.Stop()

	now := time.Now()
	l.allow("a", now)
	l.allow("b", now.Add(50*time.Second))
	l.evictIdle(now.Add(90 * time.Second))

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.visitors["a"]; ok {
		t.Error("idle visitor a was not evicted")
	}
	if _, ok := l.visitors["b"]; !ok {
		t.Error("recent visitor b was evicted")
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(1, 1, time.Minute)
	l.Stop()
	l.Stop()
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	incoming := uuid.NewString()
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"generated when missing", "", false},
		{"replaced when malformed", "not-a-uuid", false},
		{"kept when valid", incoming, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("response id %q is not a uuid", got)
			}
			if w.Body.String() != got {
				t.Errorf("context id %q != header id %q", w.Body.String(), got)
			}
			if tt.keep && got != tt.header {
				t.Errorf("id = %q, want %q", got, tt.header)
			}
			if !tt.keep && got == tt.header {
				t.Errorf("id %q should have been regenerated", got)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name    string
		env     string
		origins []string
		origin  string
		allowed bool
	}{
		{"dev allows any origin", "dev", nil, "http://localhost:5173", true},
		{"prod allows listed origin", "prod", []string{"https://louer.app"}, "https://louer.app", true},
		{"prod rejects unlisted origin", "prod", []string{"https://louer.app"}, "https://evil.example", false},
		{"prod without list rejects", "prod", nil, "https://louer.app", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tt.env, tt.origins))
			r.GET("/api/listings", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get("Access-Control-Allow-Origin") == tt.origin
			if got != tt.allowed {
				t.Errorf("allowed = %v, want %v (status %d)", got, tt.allowed, w.Code)
			}
		})
	}
}
