package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/huoyun-next/internal/store"

	"github.com/gin-gonic/gin"
)

func TestRateLimitMiddlewareWithoutStore(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestRateLimitMiddlewareEnforcesWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)

	memStore := store.NewMemoryStore()
	rule := RateLimitRule{Route: "ping", WindowSeconds: 60, MaxRequests: 2}

	r := gin.New()
	r.Use(RateLimitMiddleware(memStore, rule, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "1.2.3.4:5678"
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send(); !strings.Contains(w.Body.String(), `"ok":true`) {
			t.Fatalf("request %d should pass, got %s", i+1, w.Body.String())
		}
	}

	w := send()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 429 {
		t.Fatalf("status_code want 429 got %d", resp.StatusCode)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("429 response should carry Retry-After header")
	}
}

func TestRateLimitMiddlewareKeyBySubjectIsolatesBuckets(t *testing.T) {
	gin.SetMode(gin.TestMode)

	memStore := store.NewMemoryStore()
	rule := RateLimitRule{Route: "accept", WindowSeconds: 60, MaxRequests: 1}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if raw := c.GetHeader("X-Test-Subject"); raw == "7" {
			c.Set(subjectIDContextKey, uint(7))
		} else if raw == "8" {
			c.Set(subjectIDContextKey, uint(8))
		}
		c.Next()
	})
	r.Use(RateLimitMiddleware(memStore, rule, KeyBySubject))
	r.POST("/accept", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	send := func(subject string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/accept", nil)
		req.RemoteAddr = "9.9.9.9:1000"
		req.Header.Set("X-Test-Subject", subject)
		r.ServeHTTP(w, req)
		return w
	}

	if w := send("7"); !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("first request for subject 7 should pass, got %s", w.Body.String())
	}
	if w := send("7"); !strings.Contains(w.Body.String(), "429") {
		t.Fatalf("second request for subject 7 should be limited, got %s", w.Body.String())
	}
	// 不同主体各有独立窗口
	if w := send("8"); !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("subject 8 should not share subject 7 bucket, got %s", w.Body.String())
	}
}
